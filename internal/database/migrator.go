package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

// Migrator applies the warm store schema with golang-migrate. It borrows a
// database/sql handle from the pgx pool and must be closed to return it.
type Migrator struct {
	migrate *migrate.Migrate
	borrow  *sql.DB
	logger  zerolog.Logger
}

// NewMigrator builds a migrator reading migration files from migrationsPath.
func NewMigrator(db *DB, migrationsPath string, logger zerolog.Logger) (*Migrator, error) {
	if migrationsPath == "" {
		return nil, fmt.Errorf("migrations path is required")
	}
	if _, err := os.Stat(migrationsPath); err != nil {
		return nil, fmt.Errorf("migrations path %s: %w", migrationsPath, err)
	}
	if db == nil || db.pool == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	borrow := stdlib.OpenDBFromPool(db.pool)
	driver, err := postgres.WithInstance(borrow, &postgres.Config{
		MigrationsTable: "schema_migrations",
	})
	if err != nil {
		borrow.Close()
		return nil, fmt.Errorf("creating postgres driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		borrow.Close()
		return nil, fmt.Errorf("creating migrator: %w", err)
	}

	return &Migrator{
		migrate: m,
		borrow:  borrow,
		logger:  logger.With().Str("component", "migrator").Logger(),
	}, nil
}

// Up applies all pending migrations.
func (mg *Migrator) Up() error {
	if err := mg.migrate.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mg.logger.Info().Msg("warm store schema already current")
			return nil
		}
		return fmt.Errorf("applying migrations: %w", err)
	}
	mg.logger.Info().Msg("warm store schema migrated")
	return nil
}

// Down rolls back every migration.
func (mg *Migrator) Down() error {
	mg.logger.Warn().Msg("rolling back all warm store migrations")
	if err := mg.migrate.Down(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("rolling back migrations: %w", err)
	}
	return nil
}

// Steps applies n migrations forward, or -n backward.
func (mg *Migrator) Steps(n int) error {
	if err := mg.migrate.Steps(n); err != nil {
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			return nil
		// Stepping past the newest migration surfaces as a missing file.
		case errors.Is(err, os.ErrNotExist):
			mg.logger.Info().Msg("no further migrations")
			return nil
		}
		return fmt.Errorf("running %d migration steps: %w", n, err)
	}
	return nil
}

// Version reports the current schema version and whether it is dirty.
func (mg *Migrator) Version() (uint, bool, error) {
	return mg.migrate.Version()
}

// Force stamps the schema version without running migrations. It is the
// recovery path for a migration that died half-applied.
func (mg *Migrator) Force(version int) error {
	mg.logger.Warn().Int("version", version).Msg("forcing schema version")
	return mg.migrate.Force(version)
}

// Close releases the migration source and returns the borrowed handle to the
// pool.
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.migrate.Close()
	if mg.borrow != nil {
		if err := mg.borrow.Close(); err != nil && dbErr == nil {
			dbErr = err
		}
	}
	if srcErr != nil {
		return fmt.Errorf("closing migration source: %w", srcErr)
	}
	if dbErr != nil {
		return fmt.Errorf("closing migration database handle: %w", dbErr)
	}
	return nil
}
