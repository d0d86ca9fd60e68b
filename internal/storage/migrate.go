package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var schemaFiles embed.FS

// ErrDirtySchema means an earlier schema upgrade stopped halfway and the
// database needs manual repair before it can be opened.
var ErrDirtySchema = errors.New("schema left dirty by an interrupted upgrade")

// withSchema runs fn against a migrate instance over its own connection to
// dbPath. The migrate sqlite driver closes the handle it is given, so the
// store's pool is never shared with it.
func withSchema(dbPath string, fn func(*migrate.Migrate) error) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open schema connection: %w", err)
	}
	defer db.Close()

	target, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("sqlite schema driver: %w", err)
	}
	source, err := iofs.New(schemaFiles, "migrations")
	if err != nil {
		return fmt.Errorf("embedded schema files: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", target)
	if err != nil {
		return fmt.Errorf("schema migrator: %w", err)
	}
	defer m.Close()

	return fn(m)
}

// RunMigrations upgrades the schema at dbPath to the newest embedded version
// and returns that version. An up-to-date database is left untouched.
func RunMigrations(dbPath string) (uint, error) {
	var version uint
	err := withSchema(dbPath, func(m *migrate.Migrate) error {
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("upgrade schema: %w", err)
		}
		v, dirty, err := m.Version()
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		if dirty {
			return fmt.Errorf("version %d: %w", v, ErrDirtySchema)
		}
		version = v
		return nil
	})
	return version, err
}

// SchemaVersion reports the schema version recorded in dbPath, 0 for a
// database that was never migrated.
func SchemaVersion(dbPath string) (version uint, dirty bool, err error) {
	err = withSchema(dbPath, func(m *migrate.Migrate) error {
		version, dirty, err = m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			version, dirty, err = 0, false, nil
		}
		return err
	})
	return version, dirty, err
}
