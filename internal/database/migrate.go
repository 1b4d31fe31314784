package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
)

// MigrationsDir is where the schema files live, relative to the repository root.
const MigrationsDir = "internal/database/migrations"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// embeddedSource opens the schema files compiled into the binary.
func embeddedSource() (source.Driver, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	return src, nil
}

// NewMigrator returns a migrator for databaseURL. An empty dir uses the
// embedded schema; otherwise the files are read from dir on disk.
func NewMigrator(databaseURL, dir string) (*migrate.Migrate, error) {
	if dir != "" {
		m, err := migrate.New("file://"+dir, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("init migrate from %s: %w", dir, err)
		}
		return m, nil
	}

	src, err := embeddedSource()
	if err != nil {
		return nil, err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("init migrate: %w", err)
	}
	return m, nil
}

// RunMigrations applies every pending embedded migration to databaseURL.
func RunMigrations(databaseURL string, log zerolog.Logger) error {
	m, err := NewMigrator(databaseURL, "")
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read migration version: %w", err)
	}
	if dirty {
		log.Warn().Uint("version", version).Msg("Database migration is dirty")
	} else {
		log.Info().Uint("version", version).Msg("Database migrations applied")
	}
	return nil
}
