package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/ternakhub/livestock-api/internal/domain"
)

const animalColumns = `id, species, status, purchase_price, sale_price,
	intake_date, outtake_date, created_by, source_transaction_id, sale_transaction_id`

type AnimalRepository struct {
	db *sql.DB
}

func NewAnimalRepository(db *sql.DB) *AnimalRepository {
	return &AnimalRepository{db: db}
}

// SelectAvailableForUpdate claims row locks on up to limit available
// animals of the given species, oldest intake first. The lock is what makes
// select-and-mark-sold atomic across concurrent sales: a competing
// transaction blocks here and, once the winner commits, re-evaluates the
// status predicate and no longer sees the claimed rows.
func (r *AnimalRepository) SelectAvailableForUpdate(ctx context.Context, tx *sql.Tx, species domain.Species, purchasePrice *decimal.Decimal, limit int) ([]uuid.UUID, error) {
	query := `SELECT id FROM animals WHERE species = $1 AND status = $2`
	args := []any{species, domain.AnimalStatusAvailable}
	if purchasePrice != nil {
		args = append(args, *purchasePrice)
		query += ` AND purchase_price = $` + strconv.Itoa(len(args))
	}
	args = append(args, limit)
	query += ` ORDER BY intake_date, id LIMIT $` + strconv.Itoa(len(args)) + ` FOR UPDATE`

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("SelectAvailableForUpdate: %w", asContention(err))
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("SelectAvailableForUpdate: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("SelectAvailableForUpdate: rows: %w", asContention(err))
	}
	return ids, nil
}

func (r *AnimalRepository) MarkSold(ctx context.Context, tx *sql.Tx, ids []uuid.UUID, saleTxnID uuid.UUID, salePrice decimal.Decimal, soldAt time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE animals
		SET status = $1, sale_price = $2, outtake_date = $3, sale_transaction_id = $4
		WHERE id = ANY($5)`,
		domain.AnimalStatusSold, salePrice, soldAt, saleTxnID, pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("MarkSold: %w", asContention(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("MarkSold: rows affected: %w", err)
	}
	if int(n) != len(ids) {
		return fmt.Errorf("MarkSold: claimed %d of %d animals", n, len(ids))
	}
	return nil
}

// Release returns sold animals to the available pool, clearing the sale
// fields as one unit.
func (r *AnimalRepository) Release(ctx context.Context, tx *sql.Tx, ids []uuid.UUID) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE animals
		SET status = $1, sale_price = NULL, outtake_date = NULL, sale_transaction_id = NULL
		WHERE id = ANY($2)`,
		domain.AnimalStatusAvailable, pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("Release: %w", asContention(err))
	}
	return nil
}

func (r *AnimalRepository) ReleaseBySale(ctx context.Context, tx *sql.Tx, saleTxnID uuid.UUID) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE animals
		SET status = $1, sale_price = NULL, outtake_date = NULL, sale_transaction_id = NULL
		WHERE sale_transaction_id = $2`,
		domain.AnimalStatusAvailable, saleTxnID,
	)
	if err != nil {
		return fmt.Errorf("ReleaseBySale: %w", asContention(err))
	}
	return nil
}

// LinkedToSaleForUpdate locks and returns the animals an income transaction
// currently consumes, oldest outtake first.
func (r *AnimalRepository) LinkedToSaleForUpdate(ctx context.Context, tx *sql.Tx, saleTxnID uuid.UUID) ([]domain.Animal, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+animalColumns+` FROM animals
		WHERE sale_transaction_id = $1 ORDER BY outtake_date, id FOR UPDATE`,
		saleTxnID,
	)
	if err != nil {
		return nil, fmt.Errorf("LinkedToSaleForUpdate: %w", asContention(err))
	}
	return collectAnimals(rows, "LinkedToSaleForUpdate")
}

// LinkedToSourceForUpdate locks and returns the animals an outcome
// transaction created, oldest intake first.
func (r *AnimalRepository) LinkedToSourceForUpdate(ctx context.Context, tx *sql.Tx, sourceTxnID uuid.UUID) ([]domain.Animal, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+animalColumns+` FROM animals
		WHERE source_transaction_id = $1 ORDER BY intake_date, id FOR UPDATE`,
		sourceTxnID,
	)
	if err != nil {
		return nil, fmt.Errorf("LinkedToSourceForUpdate: %w", asContention(err))
	}
	return collectAnimals(rows, "LinkedToSourceForUpdate")
}

func (r *AnimalRepository) InsertBatch(ctx context.Context, tx *sql.Tx, animals []*domain.Animal) error {
	for _, a := range animals {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO animals (
				id, species, status, purchase_price, sale_price,
				intake_date, outtake_date, created_by, source_transaction_id, sale_transaction_id
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			a.ID, a.Species, a.Status, a.PurchasePrice, a.SalePrice,
			a.IntakeDate, a.OuttakeDate, a.CreatedBy, a.SourceTransactionID, a.SaleTransactionID,
		)
		if err != nil {
			return fmt.Errorf("InsertBatch: %w", err)
		}
	}
	return nil
}

func (r *AnimalRepository) DeleteByIDs(ctx context.Context, tx *sql.Tx, ids []uuid.UUID) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM animals WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("DeleteByIDs: %w", asContention(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteByIDs: rows affected: %w", err)
	}
	if int(n) != len(ids) {
		return fmt.Errorf("DeleteByIDs: deleted %d of %d animals", n, len(ids))
	}
	return nil
}

// RefreshSaleTerms restamps the sale price and outtake date on every animal
// still linked to the transaction, so an edited unit price reaches all of
// them.
func (r *AnimalRepository) RefreshSaleTerms(ctx context.Context, tx *sql.Tx, saleTxnID uuid.UUID, salePrice decimal.Decimal, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE animals SET sale_price = $1, outtake_date = $2
		WHERE sale_transaction_id = $3 AND status = $4`,
		salePrice, at, saleTxnID, domain.AnimalStatusSold,
	)
	if err != nil {
		return fmt.Errorf("RefreshSaleTerms: %w", asContention(err))
	}
	return nil
}

func (r *AnimalRepository) RefreshPurchaseTerms(ctx context.Context, tx *sql.Tx, sourceTxnID uuid.UUID, species domain.Species, purchasePrice decimal.Decimal) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE animals SET species = $1, purchase_price = $2
		WHERE source_transaction_id = $3`,
		species, purchasePrice, sourceTxnID,
	)
	if err != nil {
		return fmt.Errorf("RefreshPurchaseTerms: %w", asContention(err))
	}
	return nil
}

func (r *AnimalRepository) ListBySale(ctx context.Context, saleTxnID uuid.UUID) ([]domain.Animal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+animalColumns+` FROM animals
		WHERE sale_transaction_id = $1 ORDER BY outtake_date, id`,
		saleTxnID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListBySale: %w", err)
	}
	return collectAnimals(rows, "ListBySale")
}

func (r *AnimalRepository) ListBySource(ctx context.Context, sourceTxnID uuid.UUID) ([]domain.Animal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+animalColumns+` FROM animals
		WHERE source_transaction_id = $1 ORDER BY intake_date, id`,
		sourceTxnID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListBySource: %w", err)
	}
	return collectAnimals(rows, "ListBySource")
}

type AnimalFilter struct {
	Species *domain.Species
	Status  *domain.AnimalStatus
	From    *time.Time
	To      *time.Time
	Limit   int
	Offset  int
}

func (r *AnimalRepository) List(ctx context.Context, f AnimalFilter) ([]domain.Animal, int, error) {
	where := ` WHERE 1=1`
	var args []any
	if f.Species != nil {
		args = append(args, *f.Species)
		where += ` AND species = $` + strconv.Itoa(len(args))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		where += ` AND status = $` + strconv.Itoa(len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		where += ` AND intake_date >= $` + strconv.Itoa(len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where += ` AND intake_date < $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM animals`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("List: count: %w", err)
	}

	args = append(args, f.Limit)
	limitClause := ` ORDER BY intake_date DESC, id LIMIT $` + strconv.Itoa(len(args))
	args = append(args, f.Offset)
	limitClause += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.QueryContext(ctx, `SELECT `+animalColumns+` FROM animals`+where+limitClause, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("List: %w", err)
	}
	animals, err := collectAnimals(rows, "List")
	if err != nil {
		return nil, 0, err
	}
	return animals, total, nil
}

type HerdCount struct {
	Species domain.Species
	Status  domain.AnimalStatus
	Count   int
}

func (r *AnimalRepository) CountByStatus(ctx context.Context) ([]HerdCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT species, status, COUNT(*) FROM animals
		GROUP BY species, status ORDER BY species, status`,
	)
	if err != nil {
		return nil, fmt.Errorf("CountByStatus: %w", err)
	}
	defer rows.Close()

	var counts []HerdCount
	for rows.Next() {
		var c HerdCount
		if err := rows.Scan(&c.Species, &c.Status, &c.Count); err != nil {
			return nil, fmt.Errorf("CountByStatus: scan: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("CountByStatus: rows: %w", err)
	}
	return counts, nil
}

func collectAnimals(rows *sql.Rows, op string) ([]domain.Animal, error) {
	defer rows.Close()

	var animals []domain.Animal
	for rows.Next() {
		a, err := scanAnimal(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		animals = append(animals, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, asContention(err))
	}
	return animals, nil
}

func scanAnimal(s scanner) (*domain.Animal, error) {
	var a domain.Animal
	err := s.Scan(
		&a.ID, &a.Species, &a.Status, &a.PurchasePrice, &a.SalePrice,
		&a.IntakeDate, &a.OuttakeDate, &a.CreatedBy,
		&a.SourceTransactionID, &a.SaleTransactionID,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
