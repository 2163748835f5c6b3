// package repositories provides persistence layer implementations for the watchlist browser.
//
// Watchlists live in a generic keyed document table; users have their own table.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// queryRower is satisfied by both *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// affectedOne returns errNone when the statement touched no rows.
func affectedOne(result sql.Result, errNone error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return errNone
	}
	return nil
}
