package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mesrof/internal/core"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrNotInitialized = errors.New("database not initialized")
	ErrNotFound       = errors.New("not found")
	ErrDuplicateID    = errors.New("duplicate id")
)

// Store is the Record Store. It owns one SQLite connection for its whole
// lifetime and is handed explicitly to every consumer.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open creates the database file if needed, applies the schema and seeds the
// settings row and default budget categories.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.seed(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed defaults: %w", err)
	}

	slog.InfoContext(ctx, "Record store ready", "path", dbPath, "schema_version", version)
	return s, nil
}

// SetClock overrides the time source used for timestamps.
func (s *Store) SetClock(now func() time.Time) {
	if s != nil && now != nil {
		s.now = now
	}
}

// Close releases the connection. Any later call returns ErrNotInitialized.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) conn() (*sql.DB, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

func (s *Store) timestamp() core.Date {
	return core.NewDateTime(s.now())
}

// seed inserts the singleton settings row and the default categories only
// when they are missing.
func (s *Store) seed(ctx context.Context) error {
	now := s.now()

	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM user_settings WHERE id = ?`, core.SettingsID).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if err := insertSettings(ctx, s.db, core.DefaultUserSettings(now)); err != nil {
			return err
		}
		slog.InfoContext(ctx, "Seeded default user settings")
	case err != nil:
		return fmt.Errorf("check user settings: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `SELECT id FROM budget_categories LIMIT 1`).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		stamp := core.NewDateTime(now)
		for _, c := range core.DefaultBudgetCategories() {
			c.CreatedAt, c.UpdatedAt = stamp, stamp
			if err := insertBudgetCategory(ctx, s.db, c); err != nil {
				return err
			}
		}
		slog.InfoContext(ctx, "Seeded default budget categories", "count", len(core.Categories))
	case err != nil:
		return fmt.Errorf("check budget categories: %w", err)
	}

	return nil
}

// mapInsertError turns primary key conflicts into ErrDuplicateID.
func mapInsertError(err error, id string) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return fmt.Errorf("%w: %s: %v", ErrDuplicateID, id, err)
		case sqlite3.SQLITE_CONSTRAINT:
			// Primary code only, when extended codes are off.
			if strings.Contains(se.Error(), "UNIQUE constraint failed") {
				return fmt.Errorf("%w: %s: %v", ErrDuplicateID, id, err)
			}
		}
	}
	return err
}

// changeset accumulates "column = ?" assignments for a partial update.
type changeset struct {
	cols []string
	args []any
}

func (c *changeset) set(col string, v any) {
	c.cols = append(c.cols, col+" = ?")
	c.args = append(c.args, v)
}

func (c *changeset) empty() bool {
	return len(c.cols) == 0
}

// apply runs the update against the row with the given id, refreshing
// updated_at. A missing row is not an error.
func (c *changeset) apply(ctx context.Context, q querier, table, id string, updatedAt core.Date) (int64, error) {
	if c.empty() {
		return 0, nil
	}
	query := fmt.Sprintf("UPDATE %s SET %s, updated_at = ? WHERE id = ?", table, strings.Join(c.cols, ", "))
	args := append(append([]any{}, c.args...), updatedAt, id)
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
