package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ternakhub/livestock-api/internal/domain"
	"github.com/ternakhub/livestock-api/internal/repository"
)

type animalLister interface {
	List(ctx context.Context, f repository.AnimalFilter) ([]domain.Animal, int, error)
}

type AnimalHandler struct {
	animals animalLister
}

func NewAnimalHandler(animals animalLister) *AnimalHandler {
	return &AnimalHandler{animals: animals}
}

type animalDTO struct {
	ID                  uuid.UUID        `json:"id"`
	Species             string           `json:"species"`
	Status              string           `json:"status"`
	PurchasePrice       decimal.Decimal  `json:"purchase_price"`
	SalePrice           *decimal.Decimal `json:"sale_price,omitempty"`
	IntakeDate          time.Time        `json:"intake_date"`
	OuttakeDate         *time.Time       `json:"outtake_date,omitempty"`
	SourceTransactionID uuid.UUID        `json:"source_transaction_id"`
	SaleTransactionID   *uuid.UUID       `json:"sale_transaction_id,omitempty"`
}

func toAnimalDTO(a *domain.Animal) animalDTO {
	dto := animalDTO{
		ID:                  a.ID,
		Species:             string(a.Species),
		Status:              string(a.Status),
		PurchasePrice:       a.PurchasePrice,
		IntakeDate:          a.IntakeDate,
		OuttakeDate:         a.OuttakeDate,
		SourceTransactionID: a.SourceTransactionID,
	}
	if a.SalePrice.Valid {
		p := a.SalePrice.Decimal
		dto.SalePrice = &p
	}
	if a.SaleTransactionID.Valid {
		id := a.SaleTransactionID.UUID
		dto.SaleTransactionID = &id
	}
	return dto
}

func (h *AnimalHandler) List(w http.ResponseWriter, r *http.Request) {
	f := repository.AnimalFilter{Limit: 20}
	q := r.URL.Query()

	if v := q.Get("species"); v != "" {
		species := domain.Species(v)
		if !species.IsValid() {
			RespondValidationError(w, []FieldError{{Field: "species", Message: "must be goat, cow, or sheep"}})
			return
		}
		f.Species = &species
	}
	if v := q.Get("status"); v != "" {
		status := domain.AnimalStatus(v)
		if !status.IsValid() {
			RespondValidationError(w, []FieldError{{Field: "status", Message: "must be available or sold"}})
			return
		}
		f.Status = &status
	}

	var fields []FieldError
	f.From = parseTimeParam(q.Get("from"), "from", &fields)
	f.To = parseTimeParam(q.Get("to"), "to", &fields)
	f.Limit, f.Offset = parsePageParams(q, 20, &fields)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	animals, total, err := h.animals.List(r.Context(), f)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	items := make([]animalDTO, 0, len(animals))
	for i := range animals {
		items = append(items, toAnimalDTO(&animals[i]))
	}

	RespondSuccess(w, http.StatusOK, map[string]any{
		"items":  items,
		"total":  total,
		"limit":  f.Limit,
		"offset": f.Offset,
	})
}
