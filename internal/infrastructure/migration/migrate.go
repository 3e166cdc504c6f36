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

// Migrator applies the SQL files under migrations/ with golang-migrate.
// Postgres is the only target; sqlite setups are schema-managed through
// GORM AutoMigrate and never run this path.
type Migrator struct {
	m   *migrate.Migrate
	log *zap.Logger
}

// New builds a Migrator over an open postgres connection.
func New(db *sql.DB, migrationsPath string, log *zap.Logger) (*Migrator, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("postgres migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("migrate instance: %w", err)
	}

	return &Migrator{m: m, log: log}, nil
}

// Up applies every pending migration.
func (mg *Migrator) Up() error {
	mg.log.Info("applying pending migrations")

	if err := mg.m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mg.log.Info("schema already current")
			return nil
		}
		return fmt.Errorf("migrate up: %w", err)
	}

	mg.logVersion("migrations applied")
	return nil
}

// Down rolls every migration back.
func (mg *Migrator) Down() error {
	mg.log.Info("rolling back all migrations")

	if err := mg.m.Down(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mg.log.Info("nothing to roll back")
			return nil
		}
		return fmt.Errorf("migrate down: %w", err)
	}

	mg.log.Info("schema rolled back to empty")
	return nil
}

// Steps applies n migrations forward, or backward when n is negative.
func (mg *Migrator) Steps(n int) error {
	mg.log.Info("stepping migrations", zap.Int("steps", n))

	if err := mg.m.Steps(n); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mg.log.Info("schema already current")
			return nil
		}
		return fmt.Errorf("migrate steps: %w", err)
	}

	mg.logVersion("migration steps applied")
	return nil
}

// GoTo migrates the schema to an exact version in either direction.
func (mg *Migrator) GoTo(version uint) error {
	mg.log.Info("migrating to version", zap.Uint("target", version))

	if err := mg.m.Migrate(version); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mg.log.Info("already at target version")
			return nil
		}
		return fmt.Errorf("migrate to %d: %w", version, err)
	}

	mg.logVersion("migration target reached")
	return nil
}

// Version reports the applied schema version. A fresh database reports
// version 0 and no error.
func (mg *Migrator) Version() (uint, bool, error) {
	version, dirty, err := mg.m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("migration version: %w", err)
	}
	return version, dirty, nil
}

// Force overwrites the recorded version without running any SQL. Only
// for repairing a dirty state after a failed migration.
func (mg *Migrator) Force(version int) error {
	mg.log.Warn("forcing schema version", zap.Int("version", version))

	if err := mg.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

// Drop removes every object in the database, payments included.
func (mg *Migrator) Drop() error {
	mg.log.Warn("dropping all database objects")

	if err := mg.m.Drop(); err != nil {
		return fmt.Errorf("drop database: %w", err)
	}
	return nil
}

// Close releases the source and database handles.
func (mg *Migrator) Close() error {
	sourceErr, dbErr := mg.m.Close()
	if sourceErr != nil {
		return fmt.Errorf("close migration source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("close migration database: %w", dbErr)
	}
	return nil
}

func (mg *Migrator) logVersion(msg string) {
	version, dirty, err := mg.m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		mg.log.Warn("could not read schema version", zap.Error(err))
		return
	}
	mg.log.Info(msg, zap.Uint("version", version), zap.Bool("dirty", dirty))
}
