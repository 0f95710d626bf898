package database

import (
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
)

// Migrator brings the prediction schema up to date at startup. The
// schema owns the clinical source tables, the prediction snapshots and
// the tenant settings; the server refuses to start on a dirty version.
type Migrator struct {
	m   *migrate.Migrate
	log *logrus.Logger
}

// NewMigrator opens the migration source directory against the given
// database URL.
func NewMigrator(databaseURL, dir string, logger *logrus.Logger) (*Migrator, error) {
	m, err := migrate.New(fmt.Sprintf("file://%s", dir), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening migrations: %w", err)
	}
	return &Migrator{m: m, log: logger}, nil
}

// Apply runs all pending migrations. A schema already at head is not an
// error.
func (mg *Migrator) Apply() error {
	if err := mg.m.Up(); err != nil {
		if err == migrate.ErrNoChange {
			mg.log.Debug("Prediction schema already at head")
			return nil
		}
		return fmt.Errorf("applying migrations: %w", err)
	}

	version, dirty, err := mg.m.Version()
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("schema version %d is dirty after migration", version)
	}
	mg.log.WithField("schema_version", version).Info("Prediction schema migrated")
	return nil
}

// Rollback reverts the most recent migration.
func (mg *Migrator) Rollback() error {
	if err := mg.m.Steps(-1); err != nil {
		if err == migrate.ErrNoChange {
			return nil
		}
		return fmt.Errorf("rolling back migration: %w", err)
	}
	return nil
}

// Close releases the migration source and database handles.
func (mg *Migrator) Close() error {
	sourceErr, dbErr := mg.m.Close()
	if sourceErr != nil {
		return fmt.Errorf("closing migration source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("closing migration database handle: %w", dbErr)
	}
	return nil
}
