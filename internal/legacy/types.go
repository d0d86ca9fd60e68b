package legacy

import (
	"bytes"
	"encoding/json"

	"mesrof/internal/core"
)

// UserData is the bundle under KeyUserData. Expenses are kept raw so the
// migration can derive stable ids from the exact stored bytes.
type UserData struct {
	Salary          core.Money `json:"salary"`
	SalaryDate      string     `json:"salaryDate"`
	MonthlyExpenses Records    `json:"monthlyExpenses"`
	Settings        *Locale    `json:"settings"`
}

// Locale is the small settings object the bundle carried before
// KeyAppSettings existed.
type Locale struct {
	Currency string `json:"currency"`
	Language string `json:"language"`
}

// Records is a JSON array kept as raw elements. Any other well-formed value
// decodes as no records with NotArray set.
type Records struct {
	Items    []json.RawMessage
	NotArray bool
}

func (r *Records) UnmarshalJSON(b []byte) error {
	*r = Records{}
	switch t := bytes.TrimSpace(b); {
	case bytes.Equal(t, []byte("null")):
		return nil
	case len(t) == 0 || t[0] != '[':
		r.NotArray = true
		return nil
	}
	return json.Unmarshal(b, &r.Items)
}

func (r Records) MarshalJSON() ([]byte, error) {
	if r.Items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.Items)
}

// Expense is one entry of UserData.MonthlyExpenses.
type Expense struct {
	ID       string     `json:"id"`
	Amount   core.Money `json:"amount"`
	Category string     `json:"category"`
	Date     string     `json:"date"`
	Mood     string     `json:"mood"`
	Note     string     `json:"note"`
}

// Goal is one entry of the array under KeyFinancialGoals.
type Goal struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	TargetAmount  core.Money `json:"targetAmount"`
	CurrentAmount core.Money `json:"currentAmount"`
	Deadline      string     `json:"deadline"`
	Category      string     `json:"category"`
	Emoji         string     `json:"emoji"`
	IsCompleted   *core.Flag `json:"isCompleted"`
}

// AppSettings is the blob under KeyAppSettings. Pointer fields tell a
// missing value apart from an explicit false or zero.
type AppSettings struct {
	DarkMode       *core.Flag `json:"darkMode"`
	Notifications  *core.Flag `json:"notifications"`
	DailyReminder  *core.Flag `json:"dailyReminder"`
	ReminderTime   string     `json:"reminderTime"`
	MonthStartDate int        `json:"monthStartDate"`
	BudgetWarnings *core.Flag `json:"budgetWarnings"`
	Currency       string     `json:"currency"`
	Language       string     `json:"language"`
}

// Progress records which legacy records already reached the record store.
type Progress struct {
	Expenses []string `json:"expenses"`
	Goals    []string `json:"goals"`
	Salary   bool     `json:"salary"`
}
