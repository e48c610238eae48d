package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/ternakhub/livestock-api/internal/domain"
)

func SeedUser(t *testing.T, db *sql.DB, email, name string) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO users (id, email, name, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return u
}

// SeedHerd inserts an outcome transaction plus count available animals
// linked to it, with intake dates one minute apart so intake order is
// unambiguous. Returns the transaction id and the animal ids in intake
// order (oldest first).
func SeedHerd(t *testing.T, db *sql.DB, createdBy uuid.UUID, species domain.Species, price decimal.Decimal, count int, start time.Time) (uuid.UUID, []uuid.UUID) {
	t.Helper()

	txnID := uuid.New()
	_, err := db.Exec(
		`INSERT INTO transactions (id, kind, counterpart_name, species, quantity, unit_price, recorded_by, created_at, updated_at)
		 VALUES ($1, 'outcome', 'seed supplier', $2, $3, $4, $5, $6, $6)`,
		txnID, species, count, price, createdBy, start,
	)
	if err != nil {
		t.Fatalf("seed outcome transaction: %v", err)
	}

	ids := make([]uuid.UUID, 0, count)
	for i := range count {
		id := uuid.New()
		_, err := db.Exec(
			`INSERT INTO animals (id, species, status, purchase_price, intake_date, created_by, source_transaction_id)
			 VALUES ($1, $2, 'available', $3, $4, $5, $6)`,
			id, species, price, start.Add(time.Duration(i)*time.Minute), createdBy, txnID,
		)
		if err != nil {
			t.Fatalf("seed animal %d: %v", i, err)
		}
		ids = append(ids, id)
	}
	return txnID, ids
}

func GetAnimal(t *testing.T, db *sql.DB, id uuid.UUID) *domain.Animal {
	t.Helper()

	var a domain.Animal
	err := db.QueryRow(
		`SELECT id, species, status, purchase_price, sale_price,
			intake_date, outtake_date, created_by, source_transaction_id, sale_transaction_id
		 FROM animals WHERE id = $1`, id,
	).Scan(
		&a.ID, &a.Species, &a.Status, &a.PurchasePrice, &a.SalePrice,
		&a.IntakeDate, &a.OuttakeDate, &a.CreatedBy,
		&a.SourceTransactionID, &a.SaleTransactionID,
	)
	if err != nil {
		t.Fatalf("get animal %s: %v", id, err)
	}
	return &a
}

// LinkedSaleIDs returns the animals claimed by an income transaction in
// the engine's release ordering (oldest claimed first).
func LinkedSaleIDs(t *testing.T, db *sql.DB, saleTxnID uuid.UUID) []uuid.UUID {
	t.Helper()
	return queryIDs(t, db,
		`SELECT id FROM animals WHERE sale_transaction_id = $1 ORDER BY outtake_date, id`, saleTxnID)
}

func LinkedSourceIDs(t *testing.T, db *sql.DB, sourceTxnID uuid.UUID) []uuid.UUID {
	t.Helper()
	return queryIDs(t, db,
		`SELECT id FROM animals WHERE source_transaction_id = $1 ORDER BY intake_date, id`, sourceTxnID)
}

func queryIDs(t *testing.T, db *sql.DB, query string, args ...any) []uuid.UUID {
	t.Helper()

	rows, err := db.Query(query, args...)
	if err != nil {
		t.Fatalf("query ids: %v", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			t.Fatalf("scan id: %v", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("iterate ids: %v", err)
	}
	return ids
}

func CountTransactions(t *testing.T, db *sql.DB) int {
	t.Helper()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM transactions`).Scan(&count); err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	return count
}

func CountAnimalsByStatus(t *testing.T, db *sql.DB, status domain.AnimalStatus) int {
	t.Helper()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM animals WHERE status = $1`, status).Scan(&count); err != nil {
		t.Fatalf("count animals by status: %v", err)
	}
	return count
}

func CountAnimals(t *testing.T, db *sql.DB) int {
	t.Helper()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM animals`).Scan(&count); err != nil {
		t.Fatalf("count animals: %v", err)
	}
	return count
}
