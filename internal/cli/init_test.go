package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mesrof/internal/config"
	"mesrof/internal/core"
	"mesrof/internal/legacy"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		SQLiteDBPath:    filepath.Join(dir, "mesrof.db"),
		LegacyStorePath: filepath.Join(dir, "legacy.json"),
		BackupDir:       filepath.Join(dir, "backups"),
		AppVersion:      "1.0.0",
		CacheTTL:        time.Minute,
		CacheSize:       8,
		NotifyBackend:   config.NotifyLog,
		LogLevel:        "debug",
	}
}

func TestOpenStoreAndMigrate(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	var logs bytes.Buffer
	logger := SetupLogger(cfg, &logs)

	raw, err := json.Marshal(map[string]any{"id": "old-1", "amount": 42, "category": "food", "date": "2024-03-01T10:00:00.000Z", "mood": "happy"})
	require.NoError(t, err)
	require.NoError(t, legacy.SetJSON(ctx, legacy.NewFileStore(cfg.LegacyStorePath), legacy.KeyUserData, legacy.UserData{
		Salary:          core.MoneyFromInt(50000),
		MonthlyExpenses: legacy.Records{Items: []json.RawMessage{raw}},
	}))

	store, err := OpenStore(ctx, logger, cfg)
	require.NoError(t, err)
	defer store.Close()

	res, err := MigrateLegacy(ctx, logger, cfg, store)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Expenses)
	assert.Contains(t, logs.String(), "Legacy data migrated")

	e, err := store.GetExpenseByID(ctx, "old-1")
	require.NoError(t, err)
	assert.Equal(t, "42", e.Amount.String())

	res, err = MigrateLegacy(ctx, logger, cfg, store)
	require.NoError(t, err)
	assert.True(t, res.AlreadyDone)
}

func TestNewReportService(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	logger := SetupLogger(cfg, &bytes.Buffer{})

	store, err := OpenStore(ctx, logger, cfg)
	require.NoError(t, err)
	defer store.Close()

	reports, stop := NewReportService(store, cfg)
	defer stop()

	month := core.Month{Year: 2024, Month: time.March}
	r, err := reports.MonthReport(ctx, month, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, month, r.Month)
	assert.Zero(t, r.Stats.TotalExpenses)

	cfg.CacheTTL = 0
	uncached, stopUncached := NewReportService(store, cfg)
	stopUncached()
	_, err = uncached.MonthReport(ctx, month, time.Now())
	require.NoError(t, err)
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("SQLITE_DB_PATH", filepath.Join(t.TempDir(), "x.db"))
	t.Setenv("NOTIFY_BACKEND", "carrier-pigeon")

	_, err := LoadAndValidateConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid notify backend")
}
