package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

// ExecTx is the single choke point for mutating statements: execute inside a
// transaction, commit on success, roll back and surface the error otherwise.
func ExecTx(ctx context.Context, db *sql.DB, query string, args ...any) (sql.Result, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Printf("[db] rollback failed: %v", rbErr)
		}
		return nil, fmt.Errorf("exec: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return res, nil
}
