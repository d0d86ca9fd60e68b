// Package migration moves data from the legacy key-value store into the
// record store, once.
package migration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mesrof/internal/core"
	"mesrof/internal/legacy"
	"mesrof/internal/storage"

	"github.com/google/uuid"
)

// RecordStore is the subset of the record store the migration writes to.
type RecordStore interface {
	AddExpense(ctx context.Context, e core.Expense) error
	AddFinancialGoal(ctx context.Context, g core.FinancialGoal) error
	UpdateUserSettings(ctx context.Context, u core.SettingsUpdate) error
}

// idSpace namespaces the ids derived for legacy records that have none.
var idSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("mesrof:legacy"))

// Result summarises a run.
type Result struct {
	AlreadyDone      bool
	SalaryMigrated   bool
	SettingsMigrated bool
	Expenses         int
	Goals            int
	// Resumed counts records skipped because an earlier run moved them.
	Resumed int
	// Invalid counts legacy records that could not be converted.
	Invalid int
}

type Migrator struct {
	legacy legacy.Store
	store  RecordStore
	now    func() time.Time
}

func New(legacyStore legacy.Store, store RecordStore) *Migrator {
	return &Migrator{legacy: legacyStore, store: store, now: time.Now}
}

// WithClock overrides the time used for fallback salary dates.
func (m *Migrator) WithClock(now func() time.Time) *Migrator {
	m.now = now
	return m
}

// Run performs the migration unless the completion flag is already set.
//
// Progress is saved after every record, so a failed run resumes where it
// stopped. A record the store already holds is counted as migrated. The flag
// is set only after every step succeeded.
func (m *Migrator) Run(ctx context.Context) (Result, error) {
	var res Result

	flag, _, err := m.legacy.Get(ctx, legacy.KeyMigrationCompleted)
	if err != nil {
		return res, fmt.Errorf("read migration flag: %w", err)
	}
	if flag == "true" {
		res.AlreadyDone = true
		return res, nil
	}

	slog.InfoContext(ctx, "Starting migration from legacy store")

	var (
		userData legacy.UserData
		goals    legacy.Records
		settings legacy.AppSettings
		progress legacy.Progress
	)
	hasUserData, err := legacy.GetJSON(ctx, m.legacy, legacy.KeyUserData, &userData)
	if err != nil {
		return res, err
	}
	hasGoals, err := legacy.GetJSON(ctx, m.legacy, legacy.KeyFinancialGoals, &goals)
	if err != nil {
		return res, err
	}
	hasSettings, err := legacy.GetJSON(ctx, m.legacy, legacy.KeyAppSettings, &settings)
	if err != nil {
		return res, err
	}
	if _, err := legacy.GetJSON(ctx, m.legacy, legacy.KeyMigrationProgress, &progress); err != nil {
		return res, err
	}

	t := newTracker(ctx, m.legacy, &progress)

	if hasUserData {
		if err := m.migrateSalary(ctx, userData, t, &res); err != nil {
			return res, err
		}
		if err := m.migrateExpenses(ctx, records(ctx, "monthlyExpenses", userData.MonthlyExpenses), t, &res); err != nil {
			return res, err
		}
	}
	if hasGoals {
		if err := m.migrateGoals(ctx, records(ctx, legacy.KeyFinancialGoals, goals), t, &res); err != nil {
			return res, err
		}
	}
	if hasSettings || userData.Settings != nil {
		if err := m.store.UpdateUserSettings(ctx, settingsUpdate(ctx, settings, userData.Settings, &res)); err != nil {
			return res, fmt.Errorf("migrate app settings: %w", err)
		}
		res.SettingsMigrated = true
	}

	if err := m.legacy.Set(ctx, legacy.KeyMigrationCompleted, "true"); err != nil {
		return res, fmt.Errorf("set migration flag: %w", err)
	}
	if err := m.legacy.Remove(ctx, legacy.KeyMigrationProgress); err != nil {
		slog.WarnContext(ctx, "Failed to drop migration progress", "error", err)
	}

	slog.InfoContext(ctx, "Migration completed",
		"expenses", res.Expenses,
		"goals", res.Goals,
		"resumed", res.Resumed,
		"invalid", res.Invalid)
	return res, nil
}

func (m *Migrator) migrateSalary(ctx context.Context, ud legacy.UserData, t *tracker, res *Result) error {
	if !ud.Salary.IsPositive() || t.progress.Salary {
		return nil
	}
	salaryDate := core.NewDateTime(m.now())
	if ud.SalaryDate != "" {
		if d, err := core.ParseDate(ud.SalaryDate); err == nil {
			salaryDate = d
		}
	}
	err := m.store.UpdateUserSettings(ctx, core.SettingsUpdate{
		Salary:     core.Ptr(ud.Salary),
		SalaryDate: core.Ptr(salaryDate),
	})
	if err != nil {
		return fmt.Errorf("migrate salary: %w", err)
	}
	res.SalaryMigrated = true
	t.progress.Salary = true
	return t.save()
}

func (m *Migrator) migrateExpenses(ctx context.Context, raws []json.RawMessage, t *tracker, res *Result) error {
	for _, raw := range raws {
		var le legacy.Expense
		if err := json.Unmarshal(raw, &le); err != nil {
			slog.WarnContext(ctx, "Skipping unreadable legacy expense", "error", err)
			res.Invalid++
			continue
		}
		id := le.ID
		if id == "" {
			id = derivedID("expense", raw)
		}
		if t.expenses[id] {
			res.Resumed++
			continue
		}

		e, err := convertExpense(id, le)
		if err != nil {
			slog.WarnContext(ctx, "Skipping invalid legacy expense", "id", id, "error", err)
			res.Invalid++
			continue
		}
		err = m.store.AddExpense(ctx, e)
		switch {
		case errors.Is(err, storage.ErrDuplicateID):
			res.Resumed++
		case err != nil:
			return fmt.Errorf("migrate expense %s: %w", id, err)
		default:
			res.Expenses++
		}
		if err := t.doneExpense(id); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) migrateGoals(ctx context.Context, raws []json.RawMessage, t *tracker, res *Result) error {
	for _, raw := range raws {
		var lg legacy.Goal
		if err := json.Unmarshal(raw, &lg); err != nil {
			slog.WarnContext(ctx, "Skipping unreadable legacy goal", "error", err)
			res.Invalid++
			continue
		}
		id := lg.ID
		if id == "" {
			id = derivedID("goal", raw)
		}
		if t.goals[id] {
			res.Resumed++
			continue
		}

		g, err := convertGoal(id, lg)
		if err != nil {
			slog.WarnContext(ctx, "Skipping invalid legacy goal", "id", id, "error", err)
			res.Invalid++
			continue
		}
		err = m.store.AddFinancialGoal(ctx, g)
		switch {
		case errors.Is(err, storage.ErrDuplicateID):
			res.Resumed++
		case err != nil:
			return fmt.Errorf("migrate goal %s: %w", id, err)
		default:
			res.Goals++
		}
		if err := t.doneGoal(id); err != nil {
			return err
		}
	}
	return nil
}

// records returns the array elements, or none with a warning when the legacy
// value was not an array.
func records(ctx context.Context, name string, r legacy.Records) []json.RawMessage {
	if r.NotArray {
		slog.WarnContext(ctx, "Ignoring legacy value that is not an array", "key", name)
	}
	return r.Items
}

// derivedID returns a UUIDv5 over the record bytes, so a re-run yields the
// same id for the same legacy record.
func derivedID(kind string, raw []byte) string {
	return uuid.NewSHA1(idSpace, append([]byte(kind+":"), raw...)).String()
}

func convertExpense(id string, le legacy.Expense) (core.Expense, error) {
	date, err := core.ParseDate(le.Date)
	if err != nil {
		return core.Expense{}, err
	}
	e := core.Expense{
		ID:       id,
		Amount:   le.Amount,
		Category: core.Category(le.Category),
		Date:     date,
		Mood:     core.Mood(le.Mood),
		Note:     le.Note,
	}
	return e, e.Validate()
}

func convertGoal(id string, lg legacy.Goal) (core.FinancialGoal, error) {
	deadline, err := core.ParseDate(lg.Deadline)
	if err != nil {
		return core.FinancialGoal{}, err
	}
	g := core.FinancialGoal{
		ID:            id,
		Title:         lg.Title,
		TargetAmount:  lg.TargetAmount,
		CurrentAmount: lg.CurrentAmount,
		Deadline:      deadline,
		Category:      lg.Category,
		Emoji:         lg.Emoji,
	}
	if lg.IsCompleted != nil {
		g.IsCompleted = *lg.IsCompleted
	}
	return g, g.ValidateStored()
}

// settingsUpdate maps the legacy settings blob. Missing booleans default to
// true except dark mode. Currency and language fall back to the locale the
// user data bundle carried. A reminder time that cannot be read keeps the
// default and counts as invalid.
func settingsUpdate(ctx context.Context, s legacy.AppSettings, locale *legacy.Locale, res *Result) core.SettingsUpdate {
	flag := func(f *core.Flag, def bool) *bool {
		if f == nil {
			return core.Ptr(def)
		}
		return core.Ptr(bool(*f))
	}

	u := core.SettingsUpdate{
		DarkMode:             flag(s.DarkMode, false),
		NotificationsEnabled: flag(s.Notifications, true),
		DailyReminder:        flag(s.DailyReminder, true),
		BudgetWarnings:       flag(s.BudgetWarnings, true),
		ReminderTime:         core.Ptr(core.DefaultReminderTime),
		MonthStartDate:       core.Ptr(1),
	}
	if s.ReminderTime != "" {
		if t, ok := core.NormalizeReminderTime(s.ReminderTime); ok {
			u.ReminderTime = core.Ptr(t)
		} else {
			slog.WarnContext(ctx, "Keeping default reminder time", "legacy_value", s.ReminderTime)
			res.Invalid++
		}
	}
	if locale != nil {
		if locale.Currency != "" {
			u.Currency = core.Ptr(locale.Currency)
		}
		if locale.Language != "" {
			u.Language = core.Ptr(locale.Language)
		}
	}
	if s.MonthStartDate >= 1 && s.MonthStartDate <= core.MaxMonthStartDate {
		u.MonthStartDate = core.Ptr(s.MonthStartDate)
	}
	if s.Currency != "" {
		u.Currency = core.Ptr(s.Currency)
	}
	if s.Language != "" {
		u.Language = core.Ptr(s.Language)
	}
	return u
}

// ClearLegacyData removes the legacy data keys. The completion flag stays so
// the migration does not run again over an empty store.
func ClearLegacyData(ctx context.Context, s legacy.Store) error {
	if err := s.Remove(ctx, legacy.DataKeys...); err != nil {
		return fmt.Errorf("clear legacy data: %w", err)
	}
	slog.InfoContext(ctx, "Legacy data cleared")
	return nil
}
