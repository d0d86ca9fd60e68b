// Package analytics derives spending insights from expense lists. The
// functions are pure: callers pass the expenses and the reference time.
package analytics

import (
	"sort"
	"time"

	"mesrof/internal/core"

	"github.com/shopspring/decimal"
)

// Budget health statuses.
const (
	StatusHealthy = "healthy"
	StatusWarning = "warning"
	StatusDanger  = "danger"
)

// Spending velocities.
const (
	VelocitySlow   = "slow"
	VelocityNormal = "normal"
	VelocityFast   = "fast"
)

const (
	warningThreshold = 80.0
	dangerThreshold  = 100.0
	topDaysLimit     = 5
	trendWeeks       = 4
)

var hundred = decimal.NewFromInt(100)

type (
	SpendingPattern struct {
		Category   core.Category `json:"category"`
		Amount     core.Money    `json:"amount"`
		Percentage float64       `json:"percentage"`
	}

	MoodSpending struct {
		Mood             core.Mood  `json:"mood"`
		TotalAmount      core.Money `json:"total_amount"`
		AverageAmount    core.Money `json:"average_amount"`
		TransactionCount int        `json:"transaction_count"`
		Percentage       float64    `json:"percentage"`
	}

	// WeeklyTrend is one 7-day window. Start is the first day of the window.
	WeeklyTrend struct {
		Start  core.Date  `json:"start"`
		Amount core.Money `json:"amount"`
		Change float64    `json:"change"`
	}

	BudgetHealth struct {
		Status             string     `json:"status"`
		Percentage         float64    `json:"percentage"`
		DaysRemaining      int        `json:"days_remaining"`
		ProjectedOverspend core.Money `json:"projected_overspend"`
	}

	DaySpending struct {
		Date    string       `json:"date"`
		Weekday time.Weekday `json:"weekday"`
		Amount  core.Money   `json:"amount"`
	}
)

// Total sums the amounts of the expenses.
func Total(expenses []core.Expense) core.Money {
	total := core.Money{}
	for _, e := range expenses {
		total = total.Plus(e.Amount)
	}
	return total
}

func percentOf(part, whole core.Money) float64 {
	if !whole.IsPositive() {
		return 0
	}
	return part.Div(whole.Decimal).Mul(hundred).InexactFloat64()
}

// SpendingPatterns groups expenses by category, largest amount first.
func SpendingPatterns(expenses []core.Expense) []SpendingPattern {
	sums := map[core.Category]core.Money{}
	for _, e := range expenses {
		sums[e.Category] = sums[e.Category].Plus(e.Amount)
	}
	total := Total(expenses)

	out := make([]SpendingPattern, 0, len(sums))
	for c, amount := range sums {
		out = append(out, SpendingPattern{Category: c, Amount: amount, Percentage: percentOf(amount, total)})
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].Amount.Cmp(out[j].Amount.Decimal); cmp != 0 {
			return cmp > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// MoodBreakdown groups expenses by mood with per-transaction averages,
// largest total first.
func MoodBreakdown(expenses []core.Expense) []MoodSpending {
	type acc struct {
		total core.Money
		count int
	}
	byMood := map[core.Mood]*acc{}
	for _, e := range expenses {
		a := byMood[e.Mood]
		if a == nil {
			a = &acc{}
			byMood[e.Mood] = a
		}
		a.total = a.total.Plus(e.Amount)
		a.count++
	}
	total := Total(expenses)

	out := make([]MoodSpending, 0, len(byMood))
	for mood, a := range byMood {
		avg := a.total.Div(decimal.NewFromInt(int64(a.count)))
		out = append(out, MoodSpending{
			Mood:             mood,
			TotalAmount:      a.total,
			AverageAmount:    core.Money{Decimal: avg}.Rounded(),
			TransactionCount: a.count,
			Percentage:       percentOf(a.total, total),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].TotalAmount.Cmp(out[j].TotalAmount.Decimal); cmp != 0 {
			return cmp > 0
		}
		return out[i].Mood < out[j].Mood
	})
	return out
}

// TrendRange returns the half-open span WeeklyTrends covers: the weeks
// ending with the day of now.
func TrendRange(now time.Time) (from, to time.Time) {
	to = startOfDay(now).AddDate(0, 0, 1)
	return to.AddDate(0, 0, -7*trendWeeks), to
}

// WeeklyTrends buckets expenses into the four 7-day windows ending with the
// UTC day of now, oldest first. Change is the percentage difference from the
// previous window, 0 when that window is empty.
func WeeklyTrends(expenses []core.Expense, now time.Time) []WeeklyTrend {
	start, end := TrendRange(now)

	out := make([]WeeklyTrend, trendWeeks)
	for i := range out {
		out[i].Start = core.NewDateTime(start.AddDate(0, 0, 7*i))
	}
	for _, e := range expenses {
		t := e.Date.UTC()
		if t.Before(start) || !t.Before(end) {
			continue
		}
		i := int(t.Sub(start) / (7 * 24 * time.Hour))
		out[i].Amount = out[i].Amount.Plus(e.Amount)
	}
	for i := 1; i < len(out); i++ {
		prev := out[i-1].Amount
		if prev.IsPositive() {
			out[i].Change = percentOf(out[i].Amount.Minus(prev), prev)
		}
	}
	return out
}

// ComputeBudgetHealth compares what was spent this month with the salary.
// The daily average is spent divided by the days elapsed so far, including
// today, and is projected over the whole month.
func ComputeBudgetHealth(salary, spent core.Money, now time.Time) BudgetHealth {
	now = now.UTC()
	month := core.MonthOf(now)
	daysInMonth := month.Days()
	daysPassed := now.Day()

	h := BudgetHealth{
		Status:        StatusHealthy,
		Percentage:    percentOf(spent, salary),
		DaysRemaining: daysInMonth - daysPassed,
	}
	switch {
	case h.Percentage >= dangerThreshold:
		h.Status = StatusDanger
	case h.Percentage >= warningThreshold:
		h.Status = StatusWarning
	}

	projected := projectMonth(spent, daysPassed, daysInMonth)
	if over := projected.Minus(salary); over.IsPositive() {
		h.ProjectedOverspend = over.Rounded()
	}
	return h
}

// TopSpendingDays returns the five days with the highest totals.
func TopSpendingDays(expenses []core.Expense) []DaySpending {
	byDay := map[string]core.Money{}
	for _, e := range expenses {
		key := e.Date.DayKey()
		byDay[key] = byDay[key].Plus(e.Amount)
	}

	out := make([]DaySpending, 0, len(byDay))
	for day, amount := range byDay {
		t, _ := time.Parse("2006-01-02", day)
		out = append(out, DaySpending{Date: day, Weekday: t.Weekday(), Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].Amount.Cmp(out[j].Amount.Decimal); cmp != 0 {
			return cmp > 0
		}
		return out[i].Date < out[j].Date
	})
	if len(out) > topDaysLimit {
		out = out[:topDaysLimit]
	}
	return out
}

// SavingsRate is the share of the salary left after spending, as a
// percentage. It is negative when spending exceeds the salary.
func SavingsRate(salary, spent core.Money) float64 {
	return percentOf(salary.Minus(spent), salary)
}

// PredictMonthlySpending extrapolates this month's spending to the whole
// month from the daily average so far.
func PredictMonthlySpending(expenses []core.Expense, now time.Time) core.Money {
	if len(expenses) == 0 {
		return core.Money{}
	}
	now = now.UTC()
	return projectMonth(Total(expenses), now.Day(), core.MonthOf(now).Days()).Rounded()
}

// SpendingVelocity compares the share of the salary already spent with the
// share of the month already elapsed. Spending more than 1.2 times the
// elapsed share is fast, less than 0.8 times is slow.
func SpendingVelocity(salary, spent core.Money, now time.Time) string {
	if !salary.IsPositive() {
		return VelocityNormal
	}
	now = now.UTC()
	elapsed := float64(now.Day()) / float64(core.MonthOf(now).Days())
	used := spent.Div(salary.Decimal).InexactFloat64()
	switch {
	case used > elapsed*1.2:
		return VelocityFast
	case used < elapsed*0.8:
		return VelocitySlow
	default:
		return VelocityNormal
	}
}

func projectMonth(spent core.Money, daysPassed, daysInMonth int) core.Money {
	if daysPassed < 1 {
		daysPassed = 1
	}
	daily := spent.Div(decimal.NewFromInt(int64(daysPassed)))
	return core.Money{Decimal: daily.Mul(decimal.NewFromInt(int64(daysInMonth)))}
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
