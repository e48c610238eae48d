package repository

import (
	"context"
	"database/sql"
	"fmt"
)

type scanner interface {
	Scan(dest ...any) error
}

// DB wraps the connection pool and stamps every engine transaction with a
// bounded lock_timeout, so no mutation can block indefinitely on row locks.
type DB struct {
	pool          *sql.DB
	lockTimeoutMS int
}

func NewDB(pool *sql.DB, lockTimeoutMS int) *DB {
	return &DB{pool: pool, lockTimeoutMS: lockTimeoutMS}
}

func (d *DB) Conn() *sql.DB {
	return d.pool
}

func (d *DB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := d.pool.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("BeginTx: %w", err)
	}
	if d.lockTimeoutMS > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", d.lockTimeoutMS)
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("BeginTx: set lock_timeout: %w", err)
		}
	}
	return tx, nil
}
