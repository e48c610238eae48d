package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ternakhub/livestock-api/internal/domain"
)

// allocate claims quantity available animals of the species for a sale,
// oldest intake first, and stamps them sold at unitPrice. It runs inside
// the caller's transaction: the select and the mark are covered by the
// same row locks, so two concurrent sales can never claim the same animal.
// When fewer than quantity animals match, nothing is modified.
func (s *Service) allocate(ctx context.Context, tx *sql.Tx, saleTxnID uuid.UUID, species domain.Species, unitPrice decimal.Decimal, quantity int, purchaseFilter *decimal.Decimal, now time.Time) ([]uuid.UUID, error) {
	ids, err := s.animals.SelectAvailableForUpdate(ctx, tx, species, purchaseFilter, quantity)
	if err != nil {
		return nil, fmt.Errorf("allocate: %w", err)
	}

	if len(ids) < quantity {
		return nil, fmt.Errorf("allocate: need %d %s, found %d: %w",
			quantity, species, len(ids), domain.ErrInsufficientInventory)
	}

	if err := s.animals.MarkSold(ctx, tx, ids, saleTxnID, unitPrice, now); err != nil {
		return nil, fmt.Errorf("allocate: %w", err)
	}
	return ids, nil
}

// insertHerd creates count new available animals produced by an outcome
// transaction, all priced at its unit price.
func (s *Service) insertHerd(ctx context.Context, tx *sql.Tx, t *domain.Transaction, count int, now time.Time) error {
	batch := make([]*domain.Animal, 0, count)
	for range count {
		batch = append(batch, &domain.Animal{
			ID:                  uuid.New(),
			Species:             t.Species,
			Status:              domain.AnimalStatusAvailable,
			PurchasePrice:       t.UnitPrice,
			IntakeDate:          now,
			CreatedBy:           t.RecordedBy,
			SourceTransactionID: t.ID,
		})
	}
	if err := s.animals.InsertBatch(ctx, tx, batch); err != nil {
		return fmt.Errorf("insertHerd: %w", err)
	}
	return nil
}
