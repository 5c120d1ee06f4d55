// Package database opens the gazetteer store and applies its migrations.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/alexivanou/gazetteer/internal/config"
	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver for database/sql
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// sqliteParams are appended to every SQLite DSN. They apply to each pooled
// connection, unlike a one-off PRAGMA.
const sqliteParams = "&_foreign_keys=on&_busy_timeout=5000"

// Connect opens and pings the store described by cfg
func Connect(ctx context.Context, cfg config.DBConfig) (*sqlx.DB, error) {
	driver, dsn := "pgx", cfg.DSN()
	if cfg.IsMemory() {
		driver, dsn = "sqlite3", dsn+sqliteParams
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.Type, err)
	}

	if cfg.IsMemory() {
		// a shared-cache memory database lives as long as one connection does
		db.SetConnMaxIdleTime(0)
		db.SetConnMaxLifetime(0)
		db.SetMaxIdleConns(2)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}
