package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ternakhub/livestock-api/internal/domain"
)

const transactionColumns = `id, kind, counterpart_name, species, quantity,
	unit_price, recorded_by, created_at, updated_at`

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (
			id, kind, counterpart_name, species, quantity,
			unit_price, recorded_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.Kind, t.CounterpartName, t.Species, t.Quantity,
		t.UnitPrice, t.RecordedBy, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id,
	)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return t, nil
}

// GetForUpdate locks the transaction row so concurrent edits of the same
// transaction serialize instead of interleaving their inventory deltas.
func (r *TransactionRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Transaction, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id,
	)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", asContention(err))
	}
	return t, nil
}

func (r *TransactionRepository) Update(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE transactions
		SET counterpart_name = $1, species = $2, quantity = $3, unit_price = $4, updated_at = $5
		WHERE id = $6`,
		t.CounterpartName, t.Species, t.Quantity, t.UnitPrice, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", asContention(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Update: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("Update: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *TransactionRepository) Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", asContention(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("Delete: %w", domain.ErrNotFound)
	}
	return nil
}

type TransactionFilter struct {
	Kind       *domain.TransactionKind
	Species    *domain.Species
	RecordedBy *uuid.UUID
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

func (r *TransactionRepository) List(ctx context.Context, f TransactionFilter) ([]domain.Transaction, int, error) {
	where := ` WHERE 1=1`
	var args []any
	if f.Kind != nil {
		args = append(args, *f.Kind)
		where += ` AND kind = $` + strconv.Itoa(len(args))
	}
	if f.Species != nil {
		args = append(args, *f.Species)
		where += ` AND species = $` + strconv.Itoa(len(args))
	}
	if f.RecordedBy != nil {
		args = append(args, *f.RecordedBy)
		where += ` AND recorded_by = $` + strconv.Itoa(len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		where += ` AND created_at >= $` + strconv.Itoa(len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where += ` AND created_at < $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("List: count: %w", err)
	}

	args = append(args, f.Limit)
	limitClause := ` ORDER BY created_at DESC, id LIMIT $` + strconv.Itoa(len(args))
	args = append(args, f.Offset)
	limitClause += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.QueryContext(ctx, `SELECT `+transactionColumns+` FROM transactions`+where+limitClause, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("List: scan: %w", err)
		}
		transactions = append(transactions, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("List: rows: %w", err)
	}
	return transactions, total, nil
}

// TotalsByKind sums quantity * unit_price per kind over an optional
// creation-date range.
func (r *TransactionRepository) TotalsByKind(ctx context.Context, from, to *time.Time) (income, outcome decimal.Decimal, err error) {
	where := ` WHERE 1=1`
	var args []any
	if from != nil {
		args = append(args, *from)
		where += ` AND created_at >= $` + strconv.Itoa(len(args))
	}
	if to != nil {
		args = append(args, *to)
		where += ` AND created_at < $` + strconv.Itoa(len(args))
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT kind, COALESCE(SUM(quantity * unit_price), 0)
		FROM transactions`+where+` GROUP BY kind`, args...,
	)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("TotalsByKind: %w", err)
	}
	defer rows.Close()

	income, outcome = decimal.Zero, decimal.Zero
	for rows.Next() {
		var kind domain.TransactionKind
		var total decimal.Decimal
		if err := rows.Scan(&kind, &total); err != nil {
			return decimal.Zero, decimal.Zero, fmt.Errorf("TotalsByKind: scan: %w", err)
		}
		switch kind {
		case domain.TransactionKindIncome:
			income = total
		case domain.TransactionKindOutcome:
			outcome = total
		}
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("TotalsByKind: rows: %w", err)
	}
	return income, outcome, nil
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var t domain.Transaction
	err := s.Scan(
		&t.ID, &t.Kind, &t.CounterpartName, &t.Species, &t.Quantity,
		&t.UnitPrice, &t.RecordedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
