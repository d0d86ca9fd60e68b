package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"mesrof/internal/core"

	"github.com/google/uuid"
)

const budgetCategoryColumns = `id, name, emoji, budget_amount, color, created_at, updated_at`

func insertBudgetCategory(ctx context.Context, q querier, c core.BudgetCategory) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO budget_categories (`+budgetCategoryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Emoji, c.BudgetAmount, c.Color, c.CreatedAt, c.UpdatedAt)
	return mapInsertError(err, c.ID)
}

// GetBudgetCategories returns every category ordered by name.
func (s *Store) GetBudgetCategories(ctx context.Context) ([]core.BudgetCategory, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT `+budgetCategoryColumns+` FROM budget_categories ORDER BY name ASC, id`)
	if err != nil {
		return nil, fmt.Errorf("get budget categories: %w", err)
	}
	defer rows.Close()

	categories := []core.BudgetCategory{}
	for rows.Next() {
		var c core.BudgetCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Emoji, &c.BudgetAmount, &c.Color, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan budget category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *Store) AddBudgetCategory(ctx context.Context, c core.BudgetCategory) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("add budget category: %w", err)
	}
	now := s.timestamp()
	c.CreatedAt, c.UpdatedAt = now, now
	if err := insertBudgetCategory(ctx, db, c); err != nil {
		return fmt.Errorf("add budget category: %w", err)
	}
	slog.InfoContext(ctx, "Budget category saved", "id", c.ID, "budget", c.BudgetAmount.String())
	return nil
}

// UpdateBudgetCategory sets the monthly budget of one category.
func (s *Store) UpdateBudgetCategory(ctx context.Context, id string, amount core.Money) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if amount.IsNegative() {
		return fmt.Errorf("update budget category %s: %w", id, core.ErrInvalidAmount)
	}
	var c changeset
	c.set("budget_amount", amount)
	if _, err := c.apply(ctx, db, "budget_categories", id, s.timestamp()); err != nil {
		return fmt.Errorf("update budget category %s: %w", id, err)
	}
	slog.InfoContext(ctx, "Budget category updated", "id", id, "budget", amount.String())
	return nil
}

// GetCategorySpending joins every budget category with the amount spent in
// it during the month. Spent is computed on read and never persisted.
func (s *Store) GetCategorySpending(ctx context.Context, month core.Month) ([]core.CategorySpending, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	from, to := month.Range()
	rows, err := db.QueryContext(ctx, `
		SELECT b.id, b.name, b.emoji, b.budget_amount, b.color, b.created_at, b.updated_at,
		       COALESCE(SUM(e.amount), 0)
		FROM budget_categories b
		LEFT JOIN expenses e ON e.category = b.id AND e.date >= ? AND e.date < ?
		GROUP BY b.id
		ORDER BY b.name ASC, b.id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("get category spending %s: %w", month, err)
	}
	defer rows.Close()

	out := []core.CategorySpending{}
	for rows.Next() {
		var cs core.CategorySpending
		c := &cs.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Emoji, &c.BudgetAmount, &c.Color, &c.CreatedAt, &c.UpdatedAt, &cs.Spent); err != nil {
			return nil, fmt.Errorf("scan category spending: %w", err)
		}
		cs.Spent = cs.Spent.Rounded()
		out = append(out, cs)
	}
	return out, rows.Err()
}

// GetCategorySpent returns the amount spent in one category during the month.
func (s *Store) GetCategorySpent(ctx context.Context, category core.Category, month core.Month) (core.Money, error) {
	db, err := s.conn()
	if err != nil {
		return core.Money{}, err
	}
	from, to := month.Range()
	var spent core.Money
	err = db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE category = ? AND date >= ? AND date < ?`,
		string(category), from, to).Scan(&spent)
	if err != nil {
		return core.Money{}, fmt.Errorf("get category spent %s: %w", category, err)
	}
	return spent.Rounded(), nil
}

// SnapshotMonthlyBudget records the current sum of category budgets for the
// month, replacing an earlier snapshot of the same month.
func (s *Store) SnapshotMonthlyBudget(ctx context.Context, month core.Month) (*core.MonthlyBudget, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	total, err := sumCategoryBudgets(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("snapshot monthly budget %s: %w", month, err)
	}

	now := s.timestamp()
	_, err = db.ExecContext(ctx, `
		INSERT INTO monthly_budgets (id, month, total_budget, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(month) DO UPDATE SET total_budget = excluded.total_budget, updated_at = excluded.updated_at`,
		uuid.NewString(), month, total, now, now)
	if err != nil {
		return nil, fmt.Errorf("snapshot monthly budget %s: %w", month, err)
	}
	slog.InfoContext(ctx, "Monthly budget snapshot saved", "month", month.String(), "total", total.String())
	return s.GetMonthlyBudget(ctx, month)
}

func (s *Store) GetMonthlyBudget(ctx context.Context, month core.Month) (*core.MonthlyBudget, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	var mb core.MonthlyBudget
	err = db.QueryRowContext(ctx,
		`SELECT id, month, total_budget, created_at, updated_at FROM monthly_budgets WHERE month = ?`, month).
		Scan(&mb.ID, &mb.Month, &mb.TotalBudget, &mb.CreatedAt, &mb.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get monthly budget %s: %w", month, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get monthly budget %s: %w", month, err)
	}
	return &mb, nil
}

// EffectiveMonthlyBudget returns the budget that applies to the month. A
// month that has ended answers with its snapshot when one was taken; every
// other month uses the live sum of category budgets.
func (s *Store) EffectiveMonthlyBudget(ctx context.Context, month core.Month) (core.Money, error) {
	db, err := s.conn()
	if err != nil {
		return core.Money{}, err
	}
	if !month.End().After(s.now()) {
		mb, err := s.GetMonthlyBudget(ctx, month)
		switch {
		case err == nil:
			return mb.TotalBudget, nil
		case !errors.Is(err, ErrNotFound):
			return core.Money{}, err
		}
	}
	total, err := sumCategoryBudgets(ctx, db)
	if err != nil {
		return core.Money{}, fmt.Errorf("effective monthly budget %s: %w", month, err)
	}
	return total, nil
}

func sumCategoryBudgets(ctx context.Context, q querier) (core.Money, error) {
	var total core.Money
	if err := q.QueryRowContext(ctx, `SELECT COALESCE(SUM(budget_amount), 0) FROM budget_categories`).Scan(&total); err != nil {
		return core.Money{}, err
	}
	return total.Rounded(), nil
}
