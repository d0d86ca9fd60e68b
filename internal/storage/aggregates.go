package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mesrof/internal/core"

	"golang.org/x/sync/errgroup"
)

// monthFilter returns a WHERE clause restricting expenses to the month, or an
// empty clause for all time.
func monthFilter(month *core.Month) (string, []any) {
	if month == nil {
		return "", nil
	}
	from, to := month.Range()
	return ` WHERE date >= ? AND date < ?`, []any{from, to}
}

// GetCategoryTotals groups expenses by category. A nil month means all time.
// Results are ordered by total descending, ties broken by category.
func (s *Store) GetCategoryTotals(ctx context.Context, month *core.Month) ([]core.CategoryTotal, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	where, args := monthFilter(month)
	rows, err := db.QueryContext(ctx,
		`SELECT category, COALESCE(SUM(amount), 0) AS total, COUNT(*)
		 FROM expenses`+where+`
		 GROUP BY category
		 ORDER BY total DESC, category ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("get category totals: %w", err)
	}
	defer rows.Close()

	totals := []core.CategoryTotal{}
	for rows.Next() {
		var (
			t        core.CategoryTotal
			category string
			count    int64
		)
		if err := rows.Scan(&category, &t.Total, &count); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		t.Category = core.Category(category)
		t.Total = t.Total.Rounded()
		t.Count = int(count)
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// GetMoodTotals groups expenses by mood, same conventions as GetCategoryTotals.
func (s *Store) GetMoodTotals(ctx context.Context, month *core.Month) ([]core.MoodTotal, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	where, args := monthFilter(month)
	rows, err := db.QueryContext(ctx,
		`SELECT mood, COALESCE(SUM(amount), 0) AS total, COUNT(*)
		 FROM expenses`+where+`
		 GROUP BY mood
		 ORDER BY total DESC, mood ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("get mood totals: %w", err)
	}
	defer rows.Close()

	totals := []core.MoodTotal{}
	for rows.Next() {
		var (
			t     core.MoodTotal
			mood  string
			count int64
		)
		if err := rows.Scan(&mood, &t.Total, &count); err != nil {
			return nil, fmt.Errorf("scan mood total: %w", err)
		}
		t.Mood = core.Mood(mood)
		t.Total = t.Total.Rounded()
		t.Count = int(count)
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// GetDailyTotals sums the month's expenses per UTC day, oldest day first.
// Days without expenses are omitted.
func (s *Store) GetDailyTotals(ctx context.Context, month core.Month) ([]core.DailyTotal, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	from, to := month.Range()
	rows, err := db.QueryContext(ctx,
		`SELECT substr(date, 1, 10) AS day, SUM(amount)
		 FROM expenses
		 WHERE date >= ? AND date < ?
		 GROUP BY day
		 ORDER BY day ASC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("get daily totals %s: %w", month, err)
	}
	defer rows.Close()

	totals := []core.DailyTotal{}
	for rows.Next() {
		var t core.DailyTotal
		if err := rows.Scan(&t.Date, &t.Total); err != nil {
			return nil, fmt.Errorf("scan daily total: %w", err)
		}
		t.Total = t.Total.Rounded()
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// GetMonthlyStats computes count, total, daily average and the top category
// and mood of a month. Top category is by amount, top mood by count. Both are
// empty for a month without expenses.
func (s *Store) GetMonthlyStats(ctx context.Context, month core.Month) (*core.MonthlyStats, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	from, to := month.Range()
	stats := &core.MonthlyStats{Month: month}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var count int64
		err := db.QueryRowContext(gctx,
			`SELECT COUNT(*), COALESCE(SUM(amount), 0) FROM expenses WHERE date >= ? AND date < ?`,
			from, to).Scan(&count, &stats.TotalAmount)
		if err != nil {
			return fmt.Errorf("count expenses: %w", err)
		}
		stats.TotalExpenses = int(count)
		return nil
	})

	g.Go(func() error {
		var category string
		err := db.QueryRowContext(gctx,
			`SELECT category FROM expenses WHERE date >= ? AND date < ?
			 GROUP BY category ORDER BY SUM(amount) DESC, category ASC LIMIT 1`,
			from, to).Scan(&category)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("top category: %w", err)
		}
		stats.TopCategory = core.Category(category)
		return nil
	})

	g.Go(func() error {
		var mood string
		err := db.QueryRowContext(gctx,
			`SELECT mood FROM expenses WHERE date >= ? AND date < ?
			 GROUP BY mood ORDER BY COUNT(*) DESC, mood ASC LIMIT 1`,
			from, to).Scan(&mood)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("top mood: %w", err)
		}
		stats.TopMood = core.Mood(mood)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("get monthly stats %s: %w", month, err)
	}

	stats.TotalAmount = stats.TotalAmount.Rounded()
	stats.AverageDaily = core.Money{Decimal: stats.TotalAmount.Div(core.MoneyFromInt(int64(month.Days())).Decimal)}.Rounded()
	return stats, nil
}
