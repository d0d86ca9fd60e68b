package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mesrof/internal/core"
)

const expenseColumns = `id, amount, category, date, mood, note, created_at, updated_at`

// AddExpense validates and inserts a new expense. The caller supplies the
// id; an existing id fails with ErrDuplicateID.
func (s *Store) AddExpense(ctx context.Context, e core.Expense) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if err := e.Validate(); err != nil {
		return fmt.Errorf("add expense: %w", err)
	}
	now := s.timestamp()
	e.CreatedAt, e.UpdatedAt = now, now
	if err := insertExpense(ctx, db, e); err != nil {
		return fmt.Errorf("add expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID,
		"amount", e.Amount.String(),
		"category", e.Category,
		"date", e.Date.String())
	return nil
}

func insertExpense(ctx context.Context, q querier, e core.Expense) error {
	var note sql.NullString
	if e.Note != "" {
		note = sql.NullString{String: e.Note, Valid: true}
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Amount, string(e.Category), e.Date, string(e.Mood), note, e.CreatedAt, e.UpdatedAt)
	return mapInsertError(err, e.ID)
}

// GetExpenseByID returns ErrNotFound when no row has the id.
func (s *Store) GetExpenseByID(ctx context.Context, id string) (*core.Expense, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get expense %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get expense %s: %w", id, err)
	}
	return &e, nil
}

// GetExpenses returns the most recent expenses first. limit <= 0 means all.
func (s *Store) GetExpenses(ctx context.Context, limit int) ([]core.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses ORDER BY date DESC, id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, int64(limit))
	}
	return s.listExpenses(ctx, "get expenses", query, args...)
}

// GetExpensesByMonth returns the expenses dated inside the month, using a
// half-open range on the stored timestamps.
func (s *Store) GetExpensesByMonth(ctx context.Context, month core.Month) ([]core.Expense, error) {
	from, to := month.Range()
	return s.listExpenses(ctx, "get expenses by month",
		`SELECT `+expenseColumns+` FROM expenses WHERE date >= ? AND date < ? ORDER BY date DESC, id`,
		from, to)
}

// GetExpensesByDateRange returns expenses in [from, to).
func (s *Store) GetExpensesByDateRange(ctx context.Context, from, to time.Time) ([]core.Expense, error) {
	return s.listExpenses(ctx, "get expenses by date range",
		`SELECT `+expenseColumns+` FROM expenses WHERE date >= ? AND date < ? ORDER BY date DESC, id`,
		core.NewDateTime(from), core.NewDateTime(to))
}

func (s *Store) GetExpensesByCategory(ctx context.Context, category string) ([]core.Expense, error) {
	return s.listExpenses(ctx, "get expenses by category",
		`SELECT `+expenseColumns+` FROM expenses WHERE category = ? ORDER BY date DESC, id`,
		category)
}

// SearchExpenses matches the text against notes and category ids.
func (s *Store) SearchExpenses(ctx context.Context, text string) ([]core.Expense, error) {
	pattern := "%" + escapeLike(text) + "%"
	return s.listExpenses(ctx, "search expenses",
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE note LIKE ? ESCAPE '\' OR category LIKE ? ESCAPE '\'
		 ORDER BY date DESC, id`,
		pattern, pattern)
}

// UpdateExpense patches the set fields and refreshes updated_at. An empty
// patch or an unknown id is a no-op.
func (s *Store) UpdateExpense(ctx context.Context, id string, u core.ExpenseUpdate) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if err := u.Validate(); err != nil {
		return fmt.Errorf("update expense %s: %w", id, err)
	}

	var c changeset
	if u.Amount != nil {
		c.set("amount", *u.Amount)
	}
	if u.Category != nil {
		c.set("category", string(*u.Category))
	}
	if u.Date != nil {
		c.set("date", *u.Date)
	}
	if u.Mood != nil {
		c.set("mood", string(*u.Mood))
	}
	if u.Note != nil {
		var note sql.NullString
		if *u.Note != "" {
			note = sql.NullString{String: *u.Note, Valid: true}
		}
		c.set("note", note)
	}

	n, err := c.apply(ctx, db, "expenses", id, s.timestamp())
	if err != nil {
		return fmt.Errorf("update expense %s: %w", id, err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Expense updated", "id", id, "fields", len(c.cols))
	}
	return nil
}

// DeleteExpense removes the expense; an absent id is not an error.
func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete expense %s: %w", id, err)
	}
	slog.InfoContext(ctx, "Expense deleted", "id", id)
	return nil
}

func (s *Store) listExpenses(ctx context.Context, op, query string, args ...any) ([]core.Expense, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	expenses := []core.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return expenses, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(row scanner) (core.Expense, error) {
	var (
		e              core.Expense
		category, mood string
		note           sql.NullString
	)
	if err := row.Scan(&e.ID, &e.Amount, &category, &e.Date, &mood, &note, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return core.Expense{}, err
	}
	e.Category = core.Category(category)
	e.Mood = core.Mood(mood)
	e.Note = note.String
	return e, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
