// Package cli holds the startup steps shared by the mesrof commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"mesrof/internal/analytics"
	"mesrof/internal/cache"
	"mesrof/internal/config"
	"mesrof/internal/legacy"
	applog "mesrof/internal/log"
	"mesrof/internal/migration"
	"mesrof/internal/storage"
)

// SetupLogger builds the application logger at the configured level, writes
// to out and installs it as the slog default.
func SetupLogger(cfg *config.Config, out io.Writer) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     cfg.Level(),
		Component: applog.ComponentCLI,
		Output:    out,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local use. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig returns the environment configuration or the
// aggregated validation error.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OpenStore opens the record store, creating and seeding it if needed.
func OpenStore(ctx context.Context, logger *applog.Logger, cfg *config.Config) (*storage.Store, error) {
	store, err := storage.Open(ctx, cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("open record store %s: %w", cfg.SQLiteDBPath, err)
	}
	logger.DebugContext(ctx, "Record store opened", applog.FieldPath, cfg.SQLiteDBPath)
	return store, nil
}

// MigrateLegacy copies the legacy store into the record store. Once the
// migration has completed this only reads the completion flag.
func MigrateLegacy(ctx context.Context, logger *applog.Logger, cfg *config.Config, store *storage.Store) (migration.Result, error) {
	res, err := migration.New(legacy.NewFileStore(cfg.LegacyStorePath), store).Run(ctx)
	if err != nil {
		return res, err
	}
	if !res.AlreadyDone {
		logger.InfoContext(ctx, "Legacy data migrated",
			"expenses", res.Expenses,
			"goals", res.Goals,
			"resumed", res.Resumed,
			"invalid", res.Invalid)
	}
	return res, nil
}

// NewReportService returns an analytics service whose reports are cached for
// the configured TTL, uncached when the TTL is zero. The returned stop func
// ends the background cleanup.
func NewReportService(store *storage.Store, cfg *config.Config) (*analytics.Service, func()) {
	if cfg.CacheTTL <= 0 {
		return analytics.NewService(store, nil), func() {}
	}
	reports := cache.NewLRUCache[*analytics.Report](cfg.CacheSize, cfg.CacheTTL)
	manager := cache.NewManager()
	manager.Register(reports)
	manager.StartCleanup(cfg.CacheTTL)
	return analytics.NewService(store, reports), manager.Stop
}

// InterruptContext returns a context cancelled on SIGINT or SIGTERM.
func InterruptContext(logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Now is the clock used by commands.
var Now = time.Now
