package core

// CategoryTotal is the sum and count of expenses in one category.
type CategoryTotal struct {
	Category Category `json:"category"`
	Total    Money    `json:"total"`
	Count    int      `json:"count"`
}

// MoodTotal is the sum and count of expenses recorded with one mood.
type MoodTotal struct {
	Mood  Mood  `json:"mood"`
	Total Money `json:"total"`
	Count int   `json:"count"`
}

// DailyTotal is the sum of expenses on one UTC day (YYYY-MM-DD).
type DailyTotal struct {
	Date  string `json:"date"`
	Total Money  `json:"total"`
}

// MonthlyStats is the composite summary for a month.
type MonthlyStats struct {
	Month         Month    `json:"month"`
	TotalExpenses int      `json:"total_expenses"`
	TotalAmount   Money    `json:"total_amount"`
	AverageDaily  Money    `json:"average_daily"`
	TopCategory   Category `json:"top_category"`
	TopMood       Mood     `json:"top_mood"`
}

// CategorySpending joins a budget category with what was spent in it.
type CategorySpending struct {
	Category BudgetCategory `json:"category"`
	Spent    Money          `json:"spent"`
}

// Percentage returns spent/budget as a percentage, 0 when no budget is set.
func (c CategorySpending) Percentage() float64 {
	if !c.Category.BudgetAmount.IsPositive() {
		return 0
	}
	return c.Spent.Div(c.Category.BudgetAmount.Decimal).InexactFloat64() * 100
}

// Backup is the document written by export and consumed by import.
type Backup struct {
	Expenses         []Expense        `json:"expenses"`
	FinancialGoals   []FinancialGoal  `json:"financial_goals"`
	UserSettings     *UserSettings    `json:"user_settings"`
	BudgetCategories []BudgetCategory `json:"budget_categories"`
	ExportDate       Date             `json:"export_date"`
	AppVersion       string           `json:"app_version"`
}
