package core

// Partial updates. Only non-nil fields are written; a patch with no field set
// is a no-op for the store.

type (
	ExpenseUpdate struct {
		Amount   *Money
		Category *Category
		Date     *Date
		Mood     *Mood
		Note     *string
	}

	GoalUpdate struct {
		Title         *string
		TargetAmount  *Money
		CurrentAmount *Money
		Deadline      *Date
		Category      *string
		Emoji         *string
		IsCompleted   *bool
	}

	SettingsUpdate struct {
		Salary               *Money
		SalaryDate           *Date
		DarkMode             *bool
		NotificationsEnabled *bool
		DailyReminder        *bool
		ReminderTime         *string
		MonthStartDate       *int
		BudgetWarnings       *bool
		Currency             *string
		Language             *string
	}
)

// Ptr returns a pointer to v, handy for building patches.
func Ptr[T any](v T) *T {
	return &v
}

func (u ExpenseUpdate) IsEmpty() bool {
	return u.Amount == nil && u.Category == nil && u.Date == nil && u.Mood == nil && u.Note == nil
}

func (u ExpenseUpdate) Validate() error {
	if u.Amount != nil {
		if err := u.Amount.Validate(); err != nil {
			return err
		}
	}
	if u.Category != nil && !u.Category.Valid() {
		return ErrInvalidCategory
	}
	if u.Date != nil && u.Date.IsZero() {
		return ErrInvalidDate
	}
	if u.Mood != nil && !u.Mood.Valid() {
		return ErrInvalidMood
	}
	if u.Note != nil {
		return validateNote(*u.Note)
	}
	return nil
}

func (u GoalUpdate) IsEmpty() bool {
	return u.Title == nil && u.TargetAmount == nil && u.CurrentAmount == nil &&
		u.Deadline == nil && u.Category == nil && u.Emoji == nil && u.IsCompleted == nil
}

func (u GoalUpdate) Validate() error {
	if u.Title != nil {
		if err := validateTitle(*u.Title); err != nil {
			return err
		}
	}
	if u.TargetAmount != nil {
		if err := u.TargetAmount.Validate(); err != nil {
			return err
		}
	}
	if u.CurrentAmount != nil && u.CurrentAmount.IsNegative() {
		return ErrInvalidAmount
	}
	if u.Deadline != nil && u.Deadline.IsZero() {
		return ErrInvalidDeadline
	}
	return nil
}

func (u SettingsUpdate) IsEmpty() bool {
	return u.Salary == nil && u.SalaryDate == nil && u.DarkMode == nil &&
		u.NotificationsEnabled == nil && u.DailyReminder == nil && u.ReminderTime == nil &&
		u.MonthStartDate == nil && u.BudgetWarnings == nil && u.Currency == nil && u.Language == nil
}

func (u SettingsUpdate) Validate() error {
	if u.Salary != nil && u.Salary.IsNegative() {
		return ErrInvalidSalary
	}
	if u.ReminderTime != nil {
		if err := validateReminderTime(*u.ReminderTime); err != nil {
			return err
		}
	}
	if u.MonthStartDate != nil && (*u.MonthStartDate < 1 || *u.MonthStartDate > MaxMonthStartDate) {
		return ErrInvalidMonthStart
	}
	return nil
}

// FullSettingsUpdate turns a complete settings row into a patch that
// overwrites every mutable field.
func FullSettingsUpdate(s UserSettings) SettingsUpdate {
	return SettingsUpdate{
		Salary:               Ptr(s.Salary),
		SalaryDate:           Ptr(s.SalaryDate),
		DarkMode:             Ptr(bool(s.DarkMode)),
		NotificationsEnabled: Ptr(bool(s.NotificationsEnabled)),
		DailyReminder:        Ptr(bool(s.DailyReminder)),
		ReminderTime:         Ptr(s.ReminderTime),
		MonthStartDate:       Ptr(s.MonthStartDate),
		BudgetWarnings:       Ptr(bool(s.BudgetWarnings)),
		Currency:             Ptr(s.Currency),
		Language:             Ptr(s.Language),
	}
}
