package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// dialect captures the few differences between SQLite and PostgreSQL.
// Queries are written with '?' placeholders and rebound by sqlx.
type dialect struct {
	// rows per multi-row INSERT, bounded by the driver's bind variable limit
	insertChunk int
	// ids per IN (...) list
	inChunk int
}

var (
	sqliteDialect   = dialect{insertChunk: 100, inChunk: 500}
	postgresDialect = dialect{insertChunk: 2000, inChunk: 5000}
)

// upsertEach runs a named statement once per item inside one transaction
func upsertEach[T any](ctx context.Context, db *sqlx.DB, query string, items []T) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		if _, err := stmt.ExecContext(ctx, item); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func chunks[T any](items []T, size int) [][]T {
	var out [][]T
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[i:end])
	}
	return out
}
