package migration

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"mesrof/internal/core"
	"mesrof/internal/legacy"
	"mesrof/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

const userData = `{
  "salary": 50000,
  "salaryDate": "2024-03-01T08:00:00.000Z",
  "monthlyExpenses": [
    {"id": "e1", "amount": 120.5, "category": "food", "date": "2024-03-02T10:00:00.000Z", "mood": "happy", "note": "market"},
    {"amount": 30, "category": "transport", "date": "2024-03-03", "mood": "neutral"},
    {"id": "broken", "amount": 10, "category": "crypto", "date": "2024-03-03", "mood": "neutral"}
  ]
}`

const goals = `[
  {"id": "g1", "title": "Laptop", "targetAmount": 120000, "currentAmount": 20000, "deadline": "2024-12-31", "category": "education", "emoji": "💻"},
  {"title": "Old trip", "targetAmount": 5000, "deadline": "2023-06-01", "category": "other", "emoji": "✈️", "isCompleted": 1}
]`

const appSettings = `{"darkMode": true, "notifications": false, "reminderTime": "21:30", "monthStartDate": 5, "currency": "EUR"}`

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "mesrof.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seededLegacy() *legacy.MemoryStore {
	return legacy.NewMemoryStore(map[string]string{
		legacy.KeyUserData:       userData,
		legacy.KeyFinancialGoals: goals,
		legacy.KeyAppSettings:    appSettings,
		legacy.KeyMonthlyBudget:  `{"total": 1000}`,
	})
}

func TestRunMigratesEverything(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	old := seededLegacy()

	res, err := New(old, store).WithClock(func() time.Time { return now }).Run(ctx)
	require.NoError(t, err)
	assert.False(t, res.AlreadyDone)
	assert.True(t, res.SalaryMigrated)
	assert.True(t, res.SettingsMigrated)
	assert.Equal(t, 2, res.Expenses)
	assert.Equal(t, 2, res.Goals)
	assert.Equal(t, 1, res.Invalid)

	settings, err := store.GetUserSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "50000", settings.Salary.String())
	assert.Equal(t, "2024-03-01T08:00:00.000Z", settings.SalaryDate.String())
	assert.True(t, bool(settings.DarkMode))
	assert.False(t, bool(settings.NotificationsEnabled))
	assert.True(t, bool(settings.DailyReminder), "missing booleans default to true")
	assert.Equal(t, "21:30", settings.ReminderTime)
	assert.Equal(t, 5, settings.MonthStartDate)
	assert.Equal(t, "EUR", settings.Currency)
	assert.Equal(t, "ar", settings.Language)

	e1, err := store.GetExpenseByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "120.5", e1.Amount.String())
	assert.Equal(t, "market", e1.Note)

	expenses, err := store.GetExpenses(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, expenses, 2)

	goalList, err := store.GetFinancialGoals(ctx)
	require.NoError(t, err)
	require.Len(t, goalList, 2)
	assert.True(t, bool(goalList[0].IsCompleted), "past goal keeps its completion flag")
	assert.Equal(t, "g1", goalList[1].ID)

	snapshot := old.Snapshot()
	assert.Equal(t, "true", snapshot[legacy.KeyMigrationCompleted])
	assert.NotContains(t, snapshot, legacy.KeyMigrationProgress)
}

func TestRunTwiceWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	old := seededLegacy()
	m := New(old, store)

	_, err := m.Run(ctx)
	require.NoError(t, err)
	writes := old.Writes()
	before, err := store.ExportAllData(ctx, "test")
	require.NoError(t, err)

	res, err := m.Run(ctx)
	require.NoError(t, err)
	assert.True(t, res.AlreadyDone)
	assert.Equal(t, writes, old.Writes(), "second run must not touch the legacy store")

	after, err := store.ExportAllData(ctx, "test")
	require.NoError(t, err)
	assert.Len(t, after.Expenses, len(before.Expenses))
	assert.Equal(t, before.UserSettings.UpdatedAt.String(), after.UserSettings.UpdatedAt.String())
}

func TestRerunAfterFlagClearedDoesNotDuplicate(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	old := seededLegacy()

	_, err := New(old, store).Run(ctx)
	require.NoError(t, err)
	require.NoError(t, old.Remove(ctx, legacy.KeyMigrationCompleted))

	res, err := New(old, store).Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Expenses)
	assert.Zero(t, res.Goals)
	assert.Equal(t, 4, res.Resumed, "fallback ids are stable so existing rows are detected")

	expenses, err := store.GetExpenses(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, expenses, 2)
}

// failingStore fails the nth expense insert.
type failingStore struct {
	RecordStore
	failAt int
	calls  int
}

func (f *failingStore) AddExpense(ctx context.Context, e core.Expense) error {
	f.calls++
	if f.calls == f.failAt {
		return errors.New("disk full")
	}
	return f.RecordStore.AddExpense(ctx, e)
}

func TestFailedRunResumes(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	old := seededLegacy()

	_, err := New(old, &failingStore{RecordStore: store, failAt: 2}).Run(ctx)
	require.Error(t, err)

	snapshot := old.Snapshot()
	assert.NotContains(t, snapshot, legacy.KeyMigrationCompleted, "flag stays unset after a failure")
	assert.Contains(t, snapshot[legacy.KeyMigrationProgress], "e1")

	res, err := New(old, store).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Resumed)
	assert.Equal(t, 1, res.Expenses)
	assert.Equal(t, 2, res.Goals)

	expenses, err := store.GetExpenses(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, expenses, 2)
	assert.Equal(t, "true", old.Snapshot()[legacy.KeyMigrationCompleted])
}

func TestMalformedLegacyValueAborts(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	old := legacy.NewMemoryStore(map[string]string{legacy.KeyFinancialGoals: "{oops"})

	_, err := New(old, store).Run(ctx)
	require.Error(t, err)
	assert.NotContains(t, old.Snapshot(), legacy.KeyMigrationCompleted)
}

func TestEmptyLegacyStore(t *testing.T) {
	ctx := context.Background()
	old := legacy.NewMemoryStore(nil)

	res, err := New(old, openStore(t)).Run(ctx)
	require.NoError(t, err)
	assert.False(t, res.SalaryMigrated)
	assert.Zero(t, res.Expenses)
	assert.Equal(t, "true", old.Snapshot()[legacy.KeyMigrationCompleted])
}

func TestClearLegacyData(t *testing.T) {
	ctx := context.Background()
	old := seededLegacy()
	require.NoError(t, old.Set(ctx, legacy.KeyMigrationCompleted, "true"))

	require.NoError(t, ClearLegacyData(ctx, old))
	assert.Equal(t, map[string]string{legacy.KeyMigrationCompleted: "true"}, old.Snapshot())
}

func TestLooseReminderTimeDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	old := legacy.NewMemoryStore(map[string]string{
		legacy.KeyUserData:    `{"salary": 0, "monthlyExpenses": [{"id": "e1", "amount": 5, "category": "food", "date": "2024-03-02", "mood": "happy"}]}`,
		legacy.KeyAppSettings: `{"darkMode": true, "reminderTime": "8:00"}`,
	})

	res, err := New(old, store).Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Invalid)
	assert.Equal(t, "true", old.Snapshot()[legacy.KeyMigrationCompleted])

	settings, err := store.GetUserSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "08:00", settings.ReminderTime)
	assert.True(t, bool(settings.DarkMode))
}

func TestUnreadableReminderTimeKeepsDefault(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	old := legacy.NewMemoryStore(map[string]string{
		legacy.KeyAppSettings: `{"darkMode": true, "reminderTime": "after dinner"}`,
	})

	res, err := New(old, store).Run(ctx)
	require.NoError(t, err)
	assert.True(t, res.SettingsMigrated)
	assert.Equal(t, 1, res.Invalid)
	assert.Equal(t, "true", old.Snapshot()[legacy.KeyMigrationCompleted])

	settings, err := store.GetUserSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.DefaultReminderTime, settings.ReminderTime)
	assert.True(t, bool(settings.DarkMode))
}

func TestNonArrayCollectionsAreSkipped(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	old := legacy.NewMemoryStore(map[string]string{
		legacy.KeyUserData:       `{"salary": 40000, "monthlyExpenses": {"e1": 5}}`,
		legacy.KeyFinancialGoals: `{}`,
	})

	res, err := New(old, store).WithClock(func() time.Time { return now }).Run(ctx)
	require.NoError(t, err)
	assert.True(t, res.SalaryMigrated)
	assert.Zero(t, res.Expenses)
	assert.Zero(t, res.Goals)
	assert.Equal(t, "true", old.Snapshot()[legacy.KeyMigrationCompleted])
}

func TestBundleLocaleFallback(t *testing.T) {
	ctx := context.Background()

	t.Run("bundle only", func(t *testing.T) {
		store := openStore(t)
		old := legacy.NewMemoryStore(map[string]string{
			legacy.KeyUserData: `{"salary": 0, "settings": {"currency": "MAD", "language": "fr"}}`,
		})
		_, err := New(old, store).Run(ctx)
		require.NoError(t, err)

		settings, err := store.GetUserSettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, "MAD", settings.Currency)
		assert.Equal(t, "fr", settings.Language)
	})

	t.Run("app settings win", func(t *testing.T) {
		store := openStore(t)
		old := legacy.NewMemoryStore(map[string]string{
			legacy.KeyUserData:    `{"salary": 0, "settings": {"currency": "MAD", "language": "fr"}}`,
			legacy.KeyAppSettings: `{"currency": "EUR"}`,
		})
		_, err := New(old, store).Run(ctx)
		require.NoError(t, err)

		settings, err := store.GetUserSettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, "EUR", settings.Currency)
		assert.Equal(t, "fr", settings.Language)
	})
}
