package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ternakhub/livestock-api/internal/auth"
	"github.com/ternakhub/livestock-api/internal/domain"
	"github.com/ternakhub/livestock-api/internal/logging"
	"github.com/ternakhub/livestock-api/internal/repository"
	"github.com/ternakhub/livestock-api/internal/service/ledger"
)

type ledgerService interface {
	Create(ctx context.Context, req ledger.CreateRequest) (*domain.Transaction, error)
	Update(ctx context.Context, id uuid.UUID, req ledger.UpdateRequest) (*domain.Transaction, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, []domain.Animal, error)
	List(ctx context.Context, f repository.TransactionFilter) ([]domain.Transaction, int, error)
}

type TransactionHandler struct {
	ledger ledgerService
}

func NewTransactionHandler(svc ledgerService) *TransactionHandler {
	return &TransactionHandler{ledger: svc}
}

type transactionRequest struct {
	Kind                string           `json:"kind"`
	CounterpartName     string           `json:"counterpart_name"`
	Species             string           `json:"species"`
	Quantity            int              `json:"quantity"`
	UnitPrice           decimal.Decimal  `json:"unit_price"`
	PurchasePriceFilter *decimal.Decimal `json:"purchase_price_filter,omitempty"`
}

func (r transactionRequest) Validate() []FieldError {
	var errs []FieldError

	if r.Kind == "" {
		errs = append(errs, FieldError{Field: "kind", Message: "required"})
	} else if !domain.TransactionKind(r.Kind).IsValid() {
		errs = append(errs, FieldError{Field: "kind", Message: "must be income or outcome"})
	}

	if r.CounterpartName == "" {
		errs = append(errs, FieldError{Field: "counterpart_name", Message: "required"})
	}

	if r.Species == "" {
		errs = append(errs, FieldError{Field: "species", Message: "required"})
	} else if !domain.Species(r.Species).IsValid() {
		errs = append(errs, FieldError{Field: "species", Message: "must be goat, cow, or sheep"})
	}

	if r.Quantity < 1 {
		errs = append(errs, FieldError{Field: "quantity", Message: "must be at least 1"})
	}

	if !r.UnitPrice.IsPositive() {
		errs = append(errs, FieldError{Field: "unit_price", Message: "must be greater than 0"})
	}

	if r.PurchasePriceFilter != nil && !r.PurchasePriceFilter.IsPositive() {
		errs = append(errs, FieldError{Field: "purchase_price_filter", Message: "must be greater than 0"})
	}

	return errs
}

type transactionDTO struct {
	ID              uuid.UUID       `json:"id"`
	Kind            string          `json:"kind"`
	CounterpartName string          `json:"counterpart_name"`
	Species         string          `json:"species"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	RecordedBy      uuid.UUID       `json:"recorded_by"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func toTransactionDTO(t *domain.Transaction) transactionDTO {
	return transactionDTO{
		ID:              t.ID,
		Kind:            string(t.Kind),
		CounterpartName: t.CounterpartName,
		Species:         string(t.Species),
		Quantity:        t.Quantity,
		UnitPrice:       t.UnitPrice,
		RecordedBy:      t.RecordedBy,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	actorID, ok := auth.ActorFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	t, err := h.ledger.Create(r.Context(), ledger.CreateRequest{
		Kind:                domain.TransactionKind(req.Kind),
		CounterpartName:     req.CounterpartName,
		Species:             domain.Species(req.Species),
		Quantity:            req.Quantity,
		UnitPrice:           req.UnitPrice,
		PurchasePriceFilter: req.PurchasePriceFilter,
		RecordedBy:          actorID,
	})
	if err != nil {
		log.Warn("transaction creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/transactions/%s", t.ID))
	RespondSuccess(w, http.StatusCreated, toTransactionDTO(t))
}

func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	actorID, ok := auth.ActorFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "id", Message: "must be a valid uuid"}})
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	t, err := h.ledger.Update(r.Context(), id, ledger.UpdateRequest{
		Kind:                domain.TransactionKind(req.Kind),
		CounterpartName:     req.CounterpartName,
		Species:             domain.Species(req.Species),
		Quantity:            req.Quantity,
		UnitPrice:           req.UnitPrice,
		PurchasePriceFilter: req.PurchasePriceFilter,
		RecordedBy:          actorID,
	})
	if err != nil {
		log.Warn("transaction update failed", "transaction_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toTransactionDTO(t))
}

func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	if _, ok := auth.ActorFromContext(r.Context()); !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "id", Message: "must be a valid uuid"}})
		return
	}

	if err := h.ledger.Delete(r.Context(), id); err != nil {
		log.Warn("transaction delete failed", "transaction_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]string{"deleted": id.String()})
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "id", Message: "must be a valid uuid"}})
		return
	}

	t, linked, err := h.ledger.Get(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	animals := make([]animalDTO, 0, len(linked))
	for i := range linked {
		animals = append(animals, toAnimalDTO(&linked[i]))
	}

	RespondSuccess(w, http.StatusOK, map[string]any{
		"transaction": toTransactionDTO(t),
		"animals":     animals,
	})
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	f := repository.TransactionFilter{Limit: 20}
	q := r.URL.Query()

	if v := q.Get("kind"); v != "" {
		kind := domain.TransactionKind(v)
		if !kind.IsValid() {
			RespondValidationError(w, []FieldError{{Field: "kind", Message: "must be income or outcome"}})
			return
		}
		f.Kind = &kind
	}
	if v := q.Get("species"); v != "" {
		species := domain.Species(v)
		if !species.IsValid() {
			RespondValidationError(w, []FieldError{{Field: "species", Message: "must be goat, cow, or sheep"}})
			return
		}
		f.Species = &species
	}
	if v := q.Get("recorded_by"); v != "" {
		actor, err := uuid.Parse(v)
		if err != nil {
			RespondValidationError(w, []FieldError{{Field: "recorded_by", Message: "must be a valid uuid"}})
			return
		}
		f.RecordedBy = &actor
	}

	var fields []FieldError
	f.From = parseTimeParam(q.Get("from"), "from", &fields)
	f.To = parseTimeParam(q.Get("to"), "to", &fields)
	f.Limit, f.Offset = parsePageParams(q, 20, &fields)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	transactions, total, err := h.ledger.List(r.Context(), f)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	items := make([]transactionDTO, 0, len(transactions))
	for i := range transactions {
		items = append(items, toTransactionDTO(&transactions[i]))
	}

	RespondSuccess(w, http.StatusOK, map[string]any{
		"items":  items,
		"total":  total,
		"limit":  f.Limit,
		"offset": f.Offset,
	})
}
