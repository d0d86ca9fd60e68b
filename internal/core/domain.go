package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// SettingsID is the fixed identifier of the singleton settings row.
const SettingsID = "main"

const (
	CategoryFood          Category = "food"
	CategoryTransport     Category = "transport"
	CategoryBills         Category = "bills"
	CategoryEntertainment Category = "entertainment"
	CategoryHealth        Category = "health"
	CategoryShopping      Category = "shopping"
	CategoryEducation     Category = "education"
	CategoryOther         Category = "other"
)

const (
	MoodHappy    Mood = "happy"
	MoodNeutral  Mood = "neutral"
	MoodStressed Mood = "stressed"
)

const (
	MaxNoteLength     = 500
	MinGoalTitle      = 3
	MaxGoalTitle      = 100
	MaxGoalHorizon    = 10 // years
	MaxMonthStartDate = 28
)

type (
	Category string
	Mood     string

	// Expense is one recorded spending transaction.
	Expense struct {
		ID        string   `json:"id"`
		Amount    Money    `json:"amount"`
		Category  Category `json:"category"`
		Date      Date     `json:"date"`
		Mood      Mood     `json:"mood"`
		Note      string   `json:"note,omitempty"`
		CreatedAt Date     `json:"created_at"`
		UpdatedAt Date     `json:"updated_at"`
	}

	// FinancialGoal is a savings target. IsCompleted is owned by the caller,
	// the store never derives it from the amounts.
	FinancialGoal struct {
		ID            string `json:"id"`
		Title         string `json:"title"`
		TargetAmount  Money  `json:"target_amount"`
		CurrentAmount Money  `json:"current_amount"`
		Deadline      Date   `json:"deadline"`
		Category      string `json:"category"`
		Emoji         string `json:"emoji"`
		IsCompleted   Flag   `json:"is_completed"`
		CreatedAt     Date   `json:"created_at"`
		UpdatedAt     Date   `json:"updated_at"`
	}

	UserSettings struct {
		ID                   string `json:"id"`
		Salary               Money  `json:"salary"`
		SalaryDate           Date   `json:"salary_date"`
		DarkMode             Flag   `json:"dark_mode"`
		NotificationsEnabled Flag   `json:"notifications_enabled"`
		DailyReminder        Flag   `json:"daily_reminder"`
		ReminderTime         string `json:"reminder_time"`
		MonthStartDate       int    `json:"month_start_date"`
		BudgetWarnings       Flag   `json:"budget_warnings"`
		Currency             string `json:"currency"`
		Language             string `json:"language"`
		CreatedAt            Date   `json:"created_at"`
		UpdatedAt            Date   `json:"updated_at"`
	}

	// BudgetCategory is a spending bucket with a monthly budget. The spent
	// amount is never stored, see CategorySpending.
	BudgetCategory struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		Emoji        string `json:"emoji"`
		BudgetAmount Money  `json:"budget_amount"`
		Color        string `json:"color"`
		CreatedAt    Date   `json:"created_at"`
		UpdatedAt    Date   `json:"updated_at"`
	}

	MonthlyBudget struct {
		ID          string `json:"id"`
		Month       Month  `json:"month"`
		TotalBudget Money  `json:"total_budget"`
		CreatedAt   Date   `json:"created_at"`
		UpdatedAt   Date   `json:"updated_at"`
	}
)

var (
	ErrEmptyID             = errors.New("empty id")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrAmountTooLarge      = errors.New("amount too large")
	ErrInvalidCategory     = errors.New("invalid category")
	ErrInvalidMood         = errors.New("invalid mood")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidMonth        = errors.New("invalid month")
	ErrNoteTooLong         = errors.New("note too long (max 500 characters)")
	ErrInvalidTitle        = errors.New("invalid goal title (3-100 characters)")
	ErrInvalidDeadline     = errors.New("invalid goal deadline")
	ErrInvalidSalary       = errors.New("invalid salary")
	ErrInvalidReminderTime = errors.New("invalid reminder time (HH:MM)")
	ErrInvalidMonthStart   = errors.New("invalid month start day (1-28)")
	ErrEmptyName           = errors.New("empty name")
)

// Categories lists the fixed expense categories in their seeding order.
var Categories = []Category{
	CategoryFood,
	CategoryTransport,
	CategoryBills,
	CategoryEntertainment,
	CategoryHealth,
	CategoryShopping,
	CategoryEducation,
	CategoryOther,
}

var Moods = []Mood{MoodHappy, MoodNeutral, MoodStressed}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

func (m Mood) Valid() bool {
	for _, v := range Moods {
		if m == v {
			return true
		}
	}
	return false
}

func validateNote(note string) error {
	if utf8.RuneCountInString(note) > MaxNoteLength {
		return ErrNoteTooLong
	}
	return nil
}

func validateTitle(title string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n < MinGoalTitle || n > MaxGoalTitle {
		return ErrInvalidTitle
	}
	return nil
}

// DefaultReminderTime is the reminder time of a fresh settings row.
const DefaultReminderTime = "20:00"

// NormalizeReminderTime trims s and zero-pads a single-digit hour or minute,
// so "8:00" becomes "08:00". It reports false when the result is still not a
// valid HH:MM time.
func NormalizeReminderTime(s string) (string, bool) {
	hour, minute, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return s, false
	}
	if len(hour) == 1 {
		hour = "0" + hour
	}
	if len(minute) == 1 {
		minute = "0" + minute
	}
	t := hour + ":" + minute
	if validateReminderTime(t) != nil {
		return s, false
	}
	return t, true
}

func validateReminderTime(s string) error {
	if len(s) != 5 {
		return ErrInvalidReminderTime
	}
	if _, err := time.Parse("15:04", s); err != nil {
		return ErrInvalidReminderTime
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrEmptyID
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	if !e.Mood.Valid() {
		return ErrInvalidMood
	}
	return validateNote(e.Note)
}

// Validate checks a goal at creation time: the deadline must lie in the
// future, no further than MaxGoalHorizon years from now.
func (g FinancialGoal) Validate(now time.Time) error {
	if err := g.ValidateStored(); err != nil {
		return err
	}
	if !g.Deadline.After(now) {
		return ErrInvalidDeadline
	}
	if g.Deadline.After(now.AddDate(MaxGoalHorizon, 0, 0)) {
		return ErrInvalidDeadline
	}
	return nil
}

// ValidateStored checks the invariants that hold for any persisted goal,
// regardless of when it was created.
func (g FinancialGoal) ValidateStored() error {
	if strings.TrimSpace(g.ID) == "" {
		return ErrEmptyID
	}
	if err := validateTitle(g.Title); err != nil {
		return err
	}
	if err := g.TargetAmount.Validate(); err != nil {
		return err
	}
	if g.CurrentAmount.IsNegative() {
		return ErrInvalidAmount
	}
	if g.Deadline.IsZero() {
		return ErrInvalidDeadline
	}
	return nil
}

// Progress returns current/target as a percentage.
func (g FinancialGoal) Progress() float64 {
	if !g.TargetAmount.IsPositive() {
		return 0
	}
	return g.CurrentAmount.Div(g.TargetAmount.Decimal).InexactFloat64() * 100
}

func (s UserSettings) Validate() error {
	if s.Salary.IsNegative() {
		return ErrInvalidSalary
	}
	if err := validateReminderTime(s.ReminderTime); err != nil {
		return err
	}
	if s.MonthStartDate < 1 || s.MonthStartDate > MaxMonthStartDate {
		return ErrInvalidMonthStart
	}
	return nil
}

func (c BudgetCategory) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.BudgetAmount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// DefaultBudgetCategories returns the rows seeded on first initialisation.
func DefaultBudgetCategories() []BudgetCategory {
	return []BudgetCategory{
		{ID: string(CategoryFood), Name: "طعام", Emoji: "🍔", Color: "#FF6B6B"},
		{ID: string(CategoryTransport), Name: "نقل", Emoji: "🚌", Color: "#4ECDC4"},
		{ID: string(CategoryBills), Name: "فواتير", Emoji: "💡", Color: "#45B7D1"},
		{ID: string(CategoryEntertainment), Name: "ترفيه", Emoji: "🎬", Color: "#96CEB4"},
		{ID: string(CategoryHealth), Name: "صحة", Emoji: "💊", Color: "#FF8A65"},
		{ID: string(CategoryShopping), Name: "تسوق", Emoji: "🛍️", Color: "#BA68C8"},
		{ID: string(CategoryEducation), Name: "تعليم", Emoji: "📚", Color: "#FFB74D"},
		{ID: string(CategoryOther), Name: "أخرى", Emoji: "📦", Color: "#FFEAA7"},
	}
}

// DefaultUserSettings returns the values of a freshly seeded settings row.
func DefaultUserSettings(now time.Time) UserSettings {
	d := NewDateTime(now)
	return UserSettings{
		ID:                   SettingsID,
		SalaryDate:           d,
		NotificationsEnabled: true,
		DailyReminder:        true,
		ReminderTime:         DefaultReminderTime,
		MonthStartDate:       1,
		BudgetWarnings:       true,
		Currency:             "DZD",
		Language:             "ar",
		CreatedAt:            d,
		UpdatedAt:            d,
	}
}
