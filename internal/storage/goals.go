package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"mesrof/internal/core"
)

const goalColumns = `id, title, target_amount, current_amount, deadline, category, emoji, is_completed, created_at, updated_at`

// AddFinancialGoal inserts a goal. Creation-time rules (future deadline) are
// the caller's business; the store only checks stored invariants.
func (s *Store) AddFinancialGoal(ctx context.Context, g core.FinancialGoal) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if err := g.ValidateStored(); err != nil {
		return fmt.Errorf("add financial goal: %w", err)
	}
	now := s.timestamp()
	g.CreatedAt, g.UpdatedAt = now, now
	if err := insertGoal(ctx, db, g); err != nil {
		return fmt.Errorf("add financial goal: %w", err)
	}
	slog.InfoContext(ctx, "Financial goal saved", "id", g.ID, "target", g.TargetAmount.String())
	return nil
}

func insertGoal(ctx context.Context, q querier, g core.FinancialGoal) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO financial_goals (`+goalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Title, g.TargetAmount, g.CurrentAmount, g.Deadline, g.Category, g.Emoji,
		g.IsCompleted, g.CreatedAt, g.UpdatedAt)
	return mapInsertError(err, g.ID)
}

func (s *Store) GetFinancialGoal(ctx context.Context, id string) (*core.FinancialGoal, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	g, err := scanGoal(db.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM financial_goals WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get financial goal %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get financial goal %s: %w", id, err)
	}
	return &g, nil
}

// GetFinancialGoals returns all goals, nearest deadline first.
func (s *Store) GetFinancialGoals(ctx context.Context) ([]core.FinancialGoal, error) {
	return listGoals(ctx, s, `SELECT `+goalColumns+` FROM financial_goals ORDER BY deadline ASC, id`)
}

func listGoals(ctx context.Context, s *Store, query string) ([]core.FinancialGoal, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get financial goals: %w", err)
	}
	defer rows.Close()

	goals := []core.FinancialGoal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan financial goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (s *Store) UpdateFinancialGoal(ctx context.Context, id string, u core.GoalUpdate) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if err := u.Validate(); err != nil {
		return fmt.Errorf("update financial goal %s: %w", id, err)
	}

	var c changeset
	if u.Title != nil {
		c.set("title", *u.Title)
	}
	if u.TargetAmount != nil {
		c.set("target_amount", *u.TargetAmount)
	}
	if u.CurrentAmount != nil {
		c.set("current_amount", *u.CurrentAmount)
	}
	if u.Deadline != nil {
		c.set("deadline", *u.Deadline)
	}
	if u.Category != nil {
		c.set("category", *u.Category)
	}
	if u.Emoji != nil {
		c.set("emoji", *u.Emoji)
	}
	if u.IsCompleted != nil {
		c.set("is_completed", *u.IsCompleted)
	}

	n, err := c.apply(ctx, db, "financial_goals", id, s.timestamp())
	if err != nil {
		return fmt.Errorf("update financial goal %s: %w", id, err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Financial goal updated", "id", id, "fields", len(c.cols))
	}
	return nil
}

func (s *Store) DeleteFinancialGoal(ctx context.Context, id string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM financial_goals WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete financial goal %s: %w", id, err)
	}
	slog.InfoContext(ctx, "Financial goal deleted", "id", id)
	return nil
}

func scanGoal(row scanner) (core.FinancialGoal, error) {
	var g core.FinancialGoal
	err := row.Scan(&g.ID, &g.Title, &g.TargetAmount, &g.CurrentAmount, &g.Deadline,
		&g.Category, &g.Emoji, &g.IsCompleted, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}
