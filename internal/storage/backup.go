package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"mesrof/internal/core"

	"golang.org/x/sync/errgroup"
)

// ExportAllData bundles every expense, goal, category and the settings row
// into a backup document stamped with the export time and app version.
func (s *Store) ExportAllData(ctx context.Context, appVersion string) (*core.Backup, error) {
	if _, err := s.conn(); err != nil {
		return nil, err
	}

	b := &core.Backup{
		ExportDate: s.timestamp(),
		AppVersion: appVersion,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		b.Expenses, err = s.GetExpenses(gctx, 0)
		return err
	})
	g.Go(func() (err error) {
		b.FinancialGoals, err = s.GetFinancialGoals(gctx)
		return err
	})
	g.Go(func() (err error) {
		b.UserSettings, err = s.GetUserSettings(gctx)
		return err
	})
	g.Go(func() (err error) {
		b.BudgetCategories, err = s.GetBudgetCategories(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("export data: %w", err)
	}

	slog.InfoContext(ctx, "Data exported",
		"expenses", len(b.Expenses),
		"goals", len(b.FinancialGoals),
		"categories", len(b.BudgetCategories))
	return b, nil
}

// ImportData replaces expenses, goals and budget categories with the backup
// contents and applies its settings. Every record is validated first and the
// whole replacement runs in one transaction, so a bad backup leaves the store
// untouched. Collections absent from the backup end up empty.
func (s *Store) ImportData(ctx context.Context, b core.Backup) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if b.UserSettings != nil {
		settings := *b.UserSettings
		settings.ReminderTime = importReminderTime(ctx, settings.ReminderTime)
		b.UserSettings = &settings
	}
	if err := validateBackup(b); err != nil {
		return fmt.Errorf("import data: %w", err)
	}

	now := s.timestamp()
	err = withTx(ctx, db, func(tx *sql.Tx) error {
		for _, table := range []string{"expenses", "financial_goals", "budget_categories"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		for _, e := range b.Expenses {
			e.CreatedAt, e.UpdatedAt = stampOr(e.CreatedAt, now), stampOr(e.UpdatedAt, now)
			if err := insertExpense(ctx, tx, e); err != nil {
				return fmt.Errorf("expense %s: %w", e.ID, err)
			}
		}
		for _, g := range b.FinancialGoals {
			g.CreatedAt, g.UpdatedAt = stampOr(g.CreatedAt, now), stampOr(g.UpdatedAt, now)
			if err := insertGoal(ctx, tx, g); err != nil {
				return fmt.Errorf("goal %s: %w", g.ID, err)
			}
		}
		if b.UserSettings != nil {
			if err := updateSettings(ctx, tx, core.FullSettingsUpdate(*b.UserSettings), now); err != nil {
				return fmt.Errorf("settings: %w", err)
			}
		}
		for _, c := range b.BudgetCategories {
			c.CreatedAt, c.UpdatedAt = stampOr(c.CreatedAt, now), stampOr(c.UpdatedAt, now)
			if err := insertBudgetCategory(ctx, tx, c); err != nil {
				return fmt.Errorf("category %s: %w", c.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("import data: %w", err)
	}

	slog.InfoContext(ctx, "Data imported",
		"expenses", len(b.Expenses),
		"goals", len(b.FinancialGoals),
		"categories", len(b.BudgetCategories),
		"settings", b.UserSettings != nil)
	return nil
}

func validateBackup(b core.Backup) error {
	for _, e := range b.Expenses {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("expense %q: %w", e.ID, err)
		}
	}
	for _, g := range b.FinancialGoals {
		if err := g.ValidateStored(); err != nil {
			return fmt.Errorf("goal %q: %w", g.ID, err)
		}
	}
	if b.UserSettings != nil {
		if err := b.UserSettings.Validate(); err != nil {
			return fmt.Errorf("settings: %w", err)
		}
	}
	for _, c := range b.BudgetCategories {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("category %q: %w", c.ID, err)
		}
	}
	return nil
}

// importReminderTime accepts the loose times older app versions saved. An
// unreadable value falls back to the default.
func importReminderTime(ctx context.Context, s string) string {
	if t, ok := core.NormalizeReminderTime(s); ok {
		return t
	}
	slog.WarnContext(ctx, "Replacing unreadable reminder time", "value", s, "default", core.DefaultReminderTime)
	return core.DefaultReminderTime
}

func stampOr(d, fallback core.Date) core.Date {
	if d.IsZero() {
		return fallback
	}
	return d
}

// ClearAllData deletes expenses and goals, zeroes the salary and every
// category budget. The settings row and category definitions are kept.
func (s *Store) ClearAllData(ctx context.Context) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	now := s.timestamp()

	err = withTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM expenses`); err != nil {
			return fmt.Errorf("delete expenses: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM financial_goals`); err != nil {
			return fmt.Errorf("delete financial goals: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE user_settings SET salary = 0, salary_date = ?, updated_at = ? WHERE id = ?`,
			now, now, core.SettingsID); err != nil {
			return fmt.Errorf("reset salary: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE budget_categories SET budget_amount = 0, updated_at = ?`, now); err != nil {
			return fmt.Errorf("reset category budgets: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("clear all data: %w", err)
	}

	slog.InfoContext(ctx, "All data cleared")
	return nil
}

func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
