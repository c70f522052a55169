// Package migration drives versioned schema changes for the trade
// database. The SQL files under migrations/ are the source of truth
// for the schema; GORM AutoMigrate is only used in tests.
package migration

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// Migrator applies versioned SQL migrations against the trade database.
type Migrator struct {
	m   *migrate.Migrate
	log *zap.Logger
}

// New wraps an open database connection with a migrator reading SQL
// pairs from migrationsPath.
func New(db *sql.DB, migrationsPath string, log *zap.Logger) (*Migrator, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("preparing migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("opening migration source %s: %w", migrationsPath, err)
	}

	return &Migrator{m: m, log: log.Named("migration")}, nil
}

// report collapses migrate's ErrNoChange into a no-op log line so
// callers treat an already-current schema as success.
func (mg *Migrator) report(action string, err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		mg.log.Info("schema already current", zap.String("action", action))
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	mg.log.Info("schema migrated", zap.String("action", action))
	return nil
}

// Up applies every pending migration.
func (mg *Migrator) Up() error {
	return mg.report("up", mg.m.Up())
}

// Down rolls back every applied migration.
func (mg *Migrator) Down() error {
	return mg.report("down", mg.m.Down())
}

// Steps applies n migrations forward, or -n backward.
func (mg *Migrator) Steps(n int) error {
	return mg.report(fmt.Sprintf("step %d", n), mg.m.Steps(n))
}

// GoTo migrates up or down until the schema sits at version.
func (mg *Migrator) GoTo(version uint) error {
	return mg.report(fmt.Sprintf("goto %d", version), mg.m.Migrate(version))
}

// Version reports the current schema version and whether the last run
// left it dirty. A fresh database reports version 0.
func (mg *Migrator) Version() (uint, bool, error) {
	version, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("reading schema version: %w", err)
	}
	return version, dirty, nil
}

// Force overwrites the recorded version without running any SQL. Used
// to recover from a dirty state after a failed migration.
func (mg *Migrator) Force(version int) error {
	if err := mg.m.Force(version); err != nil {
		return fmt.Errorf("force %d: %w", version, err)
	}
	mg.log.Warn("schema version forced", zap.Int("version", version))
	return nil
}

// Drop removes every object in the database.
func (mg *Migrator) Drop() error {
	if err := mg.m.Drop(); err != nil {
		return fmt.Errorf("drop: %w", err)
	}
	mg.log.Warn("database objects dropped")
	return nil
}

// Close releases the migration source and database handles.
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	if srcErr != nil {
		return srcErr
	}
	return dbErr
}
