package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"mesrof/internal/core"
)

const settingsColumns = `id, salary, salary_date, dark_mode, notifications_enabled, daily_reminder,
	reminder_time, month_start_date, budget_warnings, currency, language, created_at, updated_at`

func insertSettings(ctx context.Context, q querier, s core.UserSettings) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO user_settings (`+settingsColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		core.SettingsID, s.Salary, s.SalaryDate, s.DarkMode, s.NotificationsEnabled, s.DailyReminder,
		s.ReminderTime, int64(s.MonthStartDate), s.BudgetWarnings, s.Currency, s.Language,
		s.CreatedAt, s.UpdatedAt)
	return mapInsertError(err, core.SettingsID)
}

// GetUserSettings returns the singleton settings row. It is seeded on Open,
// so ErrNotFound only shows up after the row was removed out of band.
func (s *Store) GetUserSettings(ctx context.Context) (*core.UserSettings, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	var (
		us         core.UserSettings
		monthStart int64
	)
	err = db.QueryRowContext(ctx, `SELECT `+settingsColumns+` FROM user_settings WHERE id = ?`, core.SettingsID).
		Scan(&us.ID, &us.Salary, &us.SalaryDate, &us.DarkMode, &us.NotificationsEnabled, &us.DailyReminder,
			&us.ReminderTime, &monthStart, &us.BudgetWarnings, &us.Currency, &us.Language,
			&us.CreatedAt, &us.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user settings: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user settings: %w", err)
	}
	us.MonthStartDate = int(monthStart)
	return &us, nil
}

// UpdateUserSettings patches the singleton settings row.
func (s *Store) UpdateUserSettings(ctx context.Context, u core.SettingsUpdate) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if err := u.Validate(); err != nil {
		return fmt.Errorf("update user settings: %w", err)
	}
	if err := updateSettings(ctx, db, u, s.timestamp()); err != nil {
		return fmt.Errorf("update user settings: %w", err)
	}
	if !u.IsEmpty() {
		slog.InfoContext(ctx, "User settings updated")
	}
	return nil
}

func updateSettings(ctx context.Context, q querier, u core.SettingsUpdate, now core.Date) error {
	var c changeset
	if u.Salary != nil {
		c.set("salary", *u.Salary)
	}
	if u.SalaryDate != nil {
		c.set("salary_date", *u.SalaryDate)
	}
	if u.DarkMode != nil {
		c.set("dark_mode", *u.DarkMode)
	}
	if u.NotificationsEnabled != nil {
		c.set("notifications_enabled", *u.NotificationsEnabled)
	}
	if u.DailyReminder != nil {
		c.set("daily_reminder", *u.DailyReminder)
	}
	if u.ReminderTime != nil {
		c.set("reminder_time", *u.ReminderTime)
	}
	if u.MonthStartDate != nil {
		c.set("month_start_date", int64(*u.MonthStartDate))
	}
	if u.BudgetWarnings != nil {
		c.set("budget_warnings", *u.BudgetWarnings)
	}
	if u.Currency != nil {
		c.set("currency", *u.Currency)
	}
	if u.Language != nil {
		c.set("language", *u.Language)
	}
	_, err := c.apply(ctx, q, "user_settings", core.SettingsID, now)
	return err
}
