package database

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/alexivanou/gazetteer/internal/config"
	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
)

// NewMigrate creates a migrate instance over an open connection.
// migrationsDir holds one sub directory per database type.
func NewMigrate(db *sqlx.DB, cfg config.DBConfig, migrationsDir string) (*migrate.Migrate, error) {
	var (
		driver migratedb.Driver
		name   string
		err    error
	)

	// Use driver instance directly to avoid DSN parsing issues with in-memory SQLite
	if cfg.IsMemory() {
		name = "sqlite"
		driver, err = sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	} else {
		name = "postgres"
		driver, err = postgres.WithInstance(db.DB, &postgres.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("could not create %s driver: %w", name, err)
	}

	sourceURL := "file://" + filepath.ToSlash(filepath.Join(migrationsDir, name))
	m, err := migrate.NewWithDatabaseInstance(sourceURL, name, driver)
	if err != nil {
		return nil, fmt.Errorf("could not create migrate instance: %w", err)
	}
	return m, nil
}

// Migrate applies all pending up migrations
func Migrate(db *sqlx.DB, cfg config.DBConfig, migrationsDir string) error {
	m, err := NewMigrate(db, cfg, migrationsDir)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}
