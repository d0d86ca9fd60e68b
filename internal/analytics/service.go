package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mesrof/internal/cache"
	"mesrof/internal/core"
)

// Source is the part of the record store a report reads from.
type Source interface {
	GetExpensesByMonth(ctx context.Context, month core.Month) ([]core.Expense, error)
	GetExpensesByDateRange(ctx context.Context, from, to time.Time) ([]core.Expense, error)
	GetMonthlyStats(ctx context.Context, month core.Month) (*core.MonthlyStats, error)
	GetUserSettings(ctx context.Context) (*core.UserSettings, error)
	GetCategorySpending(ctx context.Context, month core.Month) ([]core.CategorySpending, error)
	EffectiveMonthlyBudget(ctx context.Context, month core.Month) (core.Money, error)
}

// Report is everything the monthly overview shows.
type Report struct {
	Month            core.Month              `json:"month"`
	Stats            core.MonthlyStats       `json:"stats"`
	Budget           core.Money              `json:"budget"`
	Health           BudgetHealth            `json:"health"`
	SavingsRate      float64                 `json:"savings_rate"`
	Predicted        core.Money              `json:"predicted"`
	Velocity         string                  `json:"velocity"`
	Patterns         []SpendingPattern       `json:"patterns"`
	Moods            []MoodSpending          `json:"moods"`
	Weekly           []WeeklyTrend           `json:"weekly"`
	TopDays          []DaySpending           `json:"top_days"`
	CategorySpending []core.CategorySpending `json:"category_spending"`
}

// Service builds reports, optionally memoised in a cache.
type Service struct {
	source Source
	cache  cache.Cache[*Report]
}

// NewService returns a report service. A nil cache disables memoisation.
func NewService(source Source, c cache.Cache[*Report]) *Service {
	return &Service{source: source, cache: c}
}

// MonthReport computes the report of a month as seen at now. Health, savings
// and projections use the salary from settings and now's position inside
// the month.
func (s *Service) MonthReport(ctx context.Context, month core.Month, now time.Time) (*Report, error) {
	if s.cache == nil {
		return s.build(ctx, month, now)
	}
	key := month.String() + "@" + now.UTC().Format("2006-01-02")
	return s.cache.GetOrLoad(ctx, key, func(ctx context.Context) (*Report, error) {
		return s.build(ctx, month, now)
	})
}

// Invalidate drops every cached report. Call it after any write.
func (s *Service) Invalidate() {
	if s.cache != nil {
		s.cache.Clear()
	}
}

func (s *Service) build(ctx context.Context, month core.Month, now time.Time) (*Report, error) {
	expenses, err := s.source.GetExpensesByMonth(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("build report %s: %w", month, err)
	}
	stats, err := s.source.GetMonthlyStats(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("build report %s: %w", month, err)
	}
	settings, err := s.source.GetUserSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("build report %s: %w", month, err)
	}
	spending, err := s.source.GetCategorySpending(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("build report %s: %w", month, err)
	}
	budget, err := s.source.EffectiveMonthlyBudget(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("build report %s: %w", month, err)
	}

	// A past month is judged as of its last day.
	at := now
	if !month.Contains(now) {
		at = month.End().Add(-time.Second)
	}

	// The weekly windows can reach back into the previous month.
	from, to := TrendRange(at)
	recent, err := s.source.GetExpensesByDateRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("build report %s: %w", month, err)
	}

	spent := stats.TotalAmount
	r := &Report{
		Month:            month,
		Stats:            *stats,
		Budget:           budget,
		Health:           ComputeBudgetHealth(settings.Salary, spent, at),
		SavingsRate:      SavingsRate(settings.Salary, spent),
		Predicted:        PredictMonthlySpending(expenses, at),
		Velocity:         SpendingVelocity(settings.Salary, spent, at),
		Patterns:         SpendingPatterns(expenses),
		Moods:            MoodBreakdown(expenses),
		Weekly:           WeeklyTrends(recent, at),
		TopDays:          TopSpendingDays(expenses),
		CategorySpending: spending,
	}
	slog.DebugContext(ctx, "Report built", "month", month.String(), "expenses", len(expenses))
	return r, nil
}
