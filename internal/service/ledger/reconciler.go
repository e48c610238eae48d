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

// reconcileIncome moves an income transaction's claimed-animal set from its
// committed size to updated.Quantity. Shrinks release the most recently
// claimed animals first; grows allocate additional animals under the
// updated species and price. Either way every animal that stays linked is
// restamped with the updated sale terms.
func (s *Service) reconcileIncome(ctx context.Context, tx *sql.Tx, updated *domain.Transaction, purchaseFilter *decimal.Decimal, now time.Time) error {
	linked, err := s.animals.LinkedToSaleForUpdate(ctx, tx, updated.ID)
	if err != nil {
		return fmt.Errorf("reconcileIncome: %w", err)
	}

	oldCount := len(linked)
	switch {
	case updated.Quantity < oldCount:
		surplus := oldCount - updated.Quantity
		release := animalIDs(linked[oldCount-surplus:]) // newest claimed at the tail
		if err := s.animals.Release(ctx, tx, release); err != nil {
			return fmt.Errorf("reconcileIncome: %w", err)
		}
	case updated.Quantity > oldCount:
		if _, err := s.allocate(ctx, tx, updated.ID, updated.Species, updated.UnitPrice, updated.Quantity-oldCount, purchaseFilter, now); err != nil {
			return fmt.Errorf("reconcileIncome: %w", err)
		}
	}

	if err := s.animals.RefreshSaleTerms(ctx, tx, updated.ID, updated.UnitPrice, now); err != nil {
		return fmt.Errorf("reconcileIncome: %w", err)
	}
	return nil
}

// reconcileOutcome moves an outcome transaction's created-animal set to
// updated.Quantity. Shrinks destroy the most recently created animals that
// are still available; if the shrink needs more animals than remain
// available, the edit is rejected rather than destroying sold stock. Grows
// create additional animals. Remaining animals pick up the updated species
// and purchase price.
func (s *Service) reconcileOutcome(ctx context.Context, tx *sql.Tx, updated *domain.Transaction, now time.Time) error {
	linked, err := s.animals.LinkedToSourceForUpdate(ctx, tx, updated.ID)
	if err != nil {
		return fmt.Errorf("reconcileOutcome: %w", err)
	}

	oldCount := len(linked)
	switch {
	case updated.Quantity < oldCount:
		surplus := oldCount - updated.Quantity
		var destroy []uuid.UUID
		for i := oldCount - 1; i >= 0 && len(destroy) < surplus; i-- {
			if linked[i].Status == domain.AnimalStatusAvailable {
				destroy = append(destroy, linked[i].ID)
			}
		}
		if len(destroy) < surplus {
			return fmt.Errorf("reconcileOutcome: %d surplus animals but only %d still available: %w",
				surplus, len(destroy), domain.ErrCannotDelete)
		}
		if err := s.animals.DeleteByIDs(ctx, tx, destroy); err != nil {
			return fmt.Errorf("reconcileOutcome: %w", err)
		}
	case updated.Quantity > oldCount:
		if err := s.insertHerd(ctx, tx, updated, updated.Quantity-oldCount, now); err != nil {
			return fmt.Errorf("reconcileOutcome: %w", err)
		}
	}

	if err := s.animals.RefreshPurchaseTerms(ctx, tx, updated.ID, updated.Species, updated.UnitPrice); err != nil {
		return fmt.Errorf("reconcileOutcome: %w", err)
	}
	return nil
}
