// Package ledger is the only entry point for mutating the transaction
// ledger and the animal inventory together. Each operation runs as one
// database transaction: the ledger row and its inventory side effects
// commit or roll back as a unit, so the caller never observes a
// transaction whose linked-animal set disagrees with its quantity.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ternakhub/livestock-api/internal/domain"
	"github.com/ternakhub/livestock-api/internal/logging"
	"github.com/ternakhub/livestock-api/internal/repository"
)

type transactionRepo interface {
	Create(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Transaction, error)
	Update(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error
	Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
	List(ctx context.Context, f repository.TransactionFilter) ([]domain.Transaction, int, error)
}

type animalRepo interface {
	SelectAvailableForUpdate(ctx context.Context, tx *sql.Tx, species domain.Species, purchasePrice *decimal.Decimal, limit int) ([]uuid.UUID, error)
	MarkSold(ctx context.Context, tx *sql.Tx, ids []uuid.UUID, saleTxnID uuid.UUID, salePrice decimal.Decimal, soldAt time.Time) error
	Release(ctx context.Context, tx *sql.Tx, ids []uuid.UUID) error
	ReleaseBySale(ctx context.Context, tx *sql.Tx, saleTxnID uuid.UUID) error
	LinkedToSaleForUpdate(ctx context.Context, tx *sql.Tx, saleTxnID uuid.UUID) ([]domain.Animal, error)
	LinkedToSourceForUpdate(ctx context.Context, tx *sql.Tx, sourceTxnID uuid.UUID) ([]domain.Animal, error)
	InsertBatch(ctx context.Context, tx *sql.Tx, animals []*domain.Animal) error
	DeleteByIDs(ctx context.Context, tx *sql.Tx, ids []uuid.UUID) error
	RefreshSaleTerms(ctx context.Context, tx *sql.Tx, saleTxnID uuid.UUID, salePrice decimal.Decimal, at time.Time) error
	RefreshPurchaseTerms(ctx context.Context, tx *sql.Tx, sourceTxnID uuid.UUID, species domain.Species, purchasePrice decimal.Decimal) error
	ListBySale(ctx context.Context, saleTxnID uuid.UUID) ([]domain.Animal, error)
	ListBySource(ctx context.Context, sourceTxnID uuid.UUID) ([]domain.Animal, error)
}

type txBeginner interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)
}

type Service struct {
	transactions transactionRepo
	animals      animalRepo
	db           txBeginner
}

func NewService(transactions transactionRepo, animals animalRepo, db txBeginner) *Service {
	return &Service{
		transactions: transactions,
		animals:      animals,
		db:           db,
	}
}

type CreateRequest struct {
	Kind            domain.TransactionKind
	CounterpartName string
	Species         domain.Species
	Quantity        int
	UnitPrice       decimal.Decimal
	// PurchasePriceFilter restricts an income allocation to animals bought
	// at exactly this price.
	PurchasePriceFilter *decimal.Decimal
	RecordedBy          uuid.UUID
}

type UpdateRequest struct {
	Kind                domain.TransactionKind
	CounterpartName     string
	Species             domain.Species
	Quantity            int
	UnitPrice           decimal.Decimal
	PurchasePriceFilter *decimal.Decimal
	RecordedBy          uuid.UUID
}

func validateInput(kind domain.TransactionKind, species domain.Species, quantity int, unitPrice decimal.Decimal, filter *decimal.Decimal, actor uuid.UUID) error {
	if !kind.IsValid() {
		return fmt.Errorf("kind %q: %w", kind, domain.ErrValidation)
	}
	if !species.IsValid() {
		return fmt.Errorf("species %q: %w", species, domain.ErrValidation)
	}
	if quantity < 1 {
		return fmt.Errorf("quantity must be at least 1: %w", domain.ErrValidation)
	}
	if !unitPrice.IsPositive() {
		return fmt.Errorf("unit price must be greater than zero: %w", domain.ErrValidation)
	}
	if filter != nil && !filter.IsPositive() {
		return fmt.Errorf("purchase price filter must be greater than zero: %w", domain.ErrValidation)
	}
	if actor == uuid.Nil {
		return fmt.Errorf("missing actor: %w", domain.ErrValidation)
	}
	return nil
}

// Create records a transaction together with its inventory effect: an
// income transaction claims Quantity available animals, an outcome
// transaction produces Quantity new ones. If the inventory step fails the
// ledger row never becomes visible.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*domain.Transaction, error) {
	log := logging.FromContext(ctx)

	if err := validateInput(req.Kind, req.Species, req.Quantity, req.UnitPrice, req.PurchasePriceFilter, req.RecordedBy); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("Create: begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	t := &domain.Transaction{
		ID:              uuid.New(),
		Kind:            req.Kind,
		CounterpartName: req.CounterpartName,
		Species:         req.Species,
		Quantity:        req.Quantity,
		UnitPrice:       req.UnitPrice,
		RecordedBy:      req.RecordedBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.transactions.Create(ctx, tx, t); err != nil {
		return nil, fmt.Errorf("Create: insert transaction: %w", err)
	}

	switch req.Kind {
	case domain.TransactionKindIncome:
		if _, err := s.allocate(ctx, tx, t.ID, req.Species, req.UnitPrice, req.Quantity, req.PurchasePriceFilter, now); err != nil {
			return nil, fmt.Errorf("Create: %w", err)
		}
	case domain.TransactionKindOutcome:
		if err := s.insertHerd(ctx, tx, t, req.Quantity, now); err != nil {
			return nil, fmt.Errorf("Create: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Create: commit: %w", err)
	}

	log.Info("transaction created",
		"transaction_id", t.ID,
		"kind", t.Kind,
		"species", t.Species,
		"quantity", t.Quantity,
		"unit_price", t.UnitPrice,
	)
	return t, nil
}

// Update rewrites the transaction's scalar fields and reconciles the
// linked-animal set to match. Any reconciliation failure rolls the whole
// edit back, leaving the previously committed state untouched.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*domain.Transaction, error) {
	log := logging.FromContext(ctx)

	if err := validateInput(req.Kind, req.Species, req.Quantity, req.UnitPrice, req.PurchasePriceFilter, req.RecordedBy); err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("Update: begin tx: %w", err)
	}
	defer tx.Rollback()

	existing, err := s.transactions.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}

	if req.Kind != existing.Kind {
		return nil, fmt.Errorf("Update: %w", domain.ErrKindChange)
	}

	now := time.Now().UTC()
	updated := *existing
	updated.CounterpartName = req.CounterpartName
	updated.Species = req.Species
	updated.Quantity = req.Quantity
	updated.UnitPrice = req.UnitPrice
	updated.UpdatedAt = now

	if err := s.transactions.Update(ctx, tx, &updated); err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}

	switch existing.Kind {
	case domain.TransactionKindIncome:
		err = s.reconcileIncome(ctx, tx, &updated, req.PurchasePriceFilter, now)
	case domain.TransactionKindOutcome:
		err = s.reconcileOutcome(ctx, tx, &updated, now)
	}
	if err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Update: commit: %w", err)
	}

	log.Info("transaction updated",
		"transaction_id", id,
		"kind", updated.Kind,
		"quantity", updated.Quantity,
		"unit_price", updated.UnitPrice,
	)
	return &updated, nil
}

// Delete removes the transaction and undoes its inventory effect: an
// income transaction releases its animals back to the pool, an outcome
// transaction destroys the animals it created. An outcome transaction
// whose animals have been sold on cannot be retracted.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	log := logging.FromContext(ctx)

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("Delete: begin tx: %w", err)
	}
	defer tx.Rollback()

	t, err := s.transactions.GetForUpdate(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	switch t.Kind {
	case domain.TransactionKindOutcome:
		linked, err := s.animals.LinkedToSourceForUpdate(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("Delete: %w", err)
		}
		for _, a := range linked {
			if a.Status == domain.AnimalStatusSold {
				return fmt.Errorf("Delete: animal %s: %w", a.ID, domain.ErrCannotDelete)
			}
		}
		if len(linked) > 0 {
			if err := s.animals.DeleteByIDs(ctx, tx, animalIDs(linked)); err != nil {
				return fmt.Errorf("Delete: %w", err)
			}
		}
	case domain.TransactionKindIncome:
		if err := s.animals.ReleaseBySale(ctx, tx, id); err != nil {
			return fmt.Errorf("Delete: %w", err)
		}
	}

	if err := s.transactions.Delete(ctx, tx, id); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Delete: commit: %w", err)
	}

	log.Info("transaction deleted", "transaction_id", id, "kind", t.Kind)
	return nil
}

// Get returns a transaction and the animals currently linked to it.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, []domain.Animal, error) {
	t, err := s.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("Get: %w", err)
	}

	var linked []domain.Animal
	switch t.Kind {
	case domain.TransactionKindIncome:
		linked, err = s.animals.ListBySale(ctx, id)
	case domain.TransactionKindOutcome:
		linked, err = s.animals.ListBySource(ctx, id)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("Get: %w", err)
	}
	return t, linked, nil
}

func (s *Service) List(ctx context.Context, f repository.TransactionFilter) ([]domain.Transaction, int, error) {
	transactions, total, err := s.transactions.List(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("List: %w", err)
	}
	return transactions, total, nil
}

func animalIDs(animals []domain.Animal) []uuid.UUID {
	ids := make([]uuid.UUID, len(animals))
	for i, a := range animals {
		ids[i] = a.ID
	}
	return ids
}
