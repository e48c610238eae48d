package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternakhub/livestock-api/internal/auth"
	"github.com/ternakhub/livestock-api/internal/domain"
	"github.com/ternakhub/livestock-api/internal/repository"
	"github.com/ternakhub/livestock-api/internal/service/ledger"
)

type stubLedger struct {
	createFn func(ctx context.Context, req ledger.CreateRequest) (*domain.Transaction, error)
	updateFn func(ctx context.Context, id uuid.UUID, req ledger.UpdateRequest) (*domain.Transaction, error)
	deleteFn func(ctx context.Context, id uuid.UUID) error
	getFn    func(ctx context.Context, id uuid.UUID) (*domain.Transaction, []domain.Animal, error)
	listFn   func(ctx context.Context, f repository.TransactionFilter) ([]domain.Transaction, int, error)
}

func (s *stubLedger) Create(ctx context.Context, req ledger.CreateRequest) (*domain.Transaction, error) {
	return s.createFn(ctx, req)
}

func (s *stubLedger) Update(ctx context.Context, id uuid.UUID, req ledger.UpdateRequest) (*domain.Transaction, error) {
	return s.updateFn(ctx, id, req)
}

func (s *stubLedger) Delete(ctx context.Context, id uuid.UUID) error {
	return s.deleteFn(ctx, id)
}

func (s *stubLedger) Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, []domain.Animal, error) {
	return s.getFn(ctx, id)
}

func (s *stubLedger) List(ctx context.Context, f repository.TransactionFilter) ([]domain.Transaction, int, error) {
	return s.listFn(ctx, f)
}

func sampleTransaction(id, actor uuid.UUID) *domain.Transaction {
	now := time.Now().UTC()
	return &domain.Transaction{
		ID:              id,
		Kind:            domain.TransactionKindIncome,
		CounterpartName: "Pak Budi",
		Species:         domain.SpeciesGoat,
		Quantity:        3,
		UnitPrice:       decimal.NewFromInt(2_500_000),
		RecordedBy:      actor,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func authedRequest(method, target string, body []byte, actor uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	return req.WithContext(auth.ContextWithActor(req.Context(), actor))
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func validBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"kind":             "income",
		"counterpart_name": "Pak Budi",
		"species":          "goat",
		"quantity":         3,
		"unit_price":       "2500000",
	})
	require.NoError(t, err)
	return body
}

func TestTransactionCreate_Success(t *testing.T) {
	actor := uuid.New()
	txnID := uuid.New()
	var captured ledger.CreateRequest
	h := NewTransactionHandler(&stubLedger{
		createFn: func(_ context.Context, req ledger.CreateRequest) (*domain.Transaction, error) {
			captured = req
			return sampleTransaction(txnID, actor), nil
		},
	})

	rec := httptest.NewRecorder()
	h.Create(rec, authedRequest(http.MethodPost, "/api/v1/transactions", validBody(t), actor))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, fmt.Sprintf("/api/v1/transactions/%s", txnID), rec.Header().Get("Location"))

	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)

	assert.Equal(t, domain.TransactionKindIncome, captured.Kind)
	assert.Equal(t, domain.SpeciesGoat, captured.Species)
	assert.Equal(t, 3, captured.Quantity)
	assert.Equal(t, actor, captured.RecordedBy, "actor should come from the token, not the body")
}

func TestTransactionCreate_MissingActor(t *testing.T) {
	h := NewTransactionHandler(&stubLedger{})

	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/v1/transactions", bytes.NewReader(validBody(t))))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "MISSING_TOKEN", resp.Error.Code)
}

func TestTransactionCreate_MalformedBody(t *testing.T) {
	h := NewTransactionHandler(&stubLedger{})

	rec := httptest.NewRecorder()
	h.Create(rec, authedRequest(http.MethodPost, "/api/v1/transactions", []byte("{not json"), uuid.New()))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_REQUEST", resp.Error.Code)
}

func TestTransactionCreate_ValidationErrors(t *testing.T) {
	h := NewTransactionHandler(&stubLedger{})

	body, err := json.Marshal(map[string]any{
		"kind":       "transfer",
		"species":    "horse",
		"quantity":   0,
		"unit_price": "-5",
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.Create(rec, authedRequest(http.MethodPost, "/api/v1/transactions", body, uuid.New()))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)

	details, ok := resp.Error.Details.([]any)
	require.True(t, ok)
	fields := make([]string, 0, len(details))
	for _, d := range details {
		m, ok := d.(map[string]any)
		require.True(t, ok)
		fields = append(fields, m["field"].(string))
	}
	assert.ElementsMatch(t, []string{"kind", "counterpart_name", "species", "quantity", "unit_price"}, fields)
}

func TestTransactionCreate_InsufficientInventory(t *testing.T) {
	h := NewTransactionHandler(&stubLedger{
		createFn: func(context.Context, ledger.CreateRequest) (*domain.Transaction, error) {
			return nil, fmt.Errorf("Create: allocate: need 5 goat, found 2: %w", domain.ErrInsufficientInventory)
		},
	})

	rec := httptest.NewRecorder()
	h.Create(rec, authedRequest(http.MethodPost, "/api/v1/transactions", validBody(t), uuid.New()))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INSUFFICIENT_INVENTORY", resp.Error.Code)
}

func TestTransactionUpdate_InvalidID(t *testing.T) {
	h := NewTransactionHandler(&stubLedger{})

	req := authedRequest(http.MethodPut, "/api/v1/transactions/not-a-uuid", validBody(t), uuid.New())
	req.SetPathValue("id", "not-a-uuid")

	rec := httptest.NewRecorder()
	h.Update(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)
}

func TestTransactionUpdate_KindChangeRejected(t *testing.T) {
	h := NewTransactionHandler(&stubLedger{
		updateFn: func(context.Context, uuid.UUID, ledger.UpdateRequest) (*domain.Transaction, error) {
			return nil, fmt.Errorf("Update: %w", domain.ErrKindChange)
		},
	})

	id := uuid.New()
	req := authedRequest(http.MethodPut, "/api/v1/transactions/"+id.String(), validBody(t), uuid.New())
	req.SetPathValue("id", id.String())

	rec := httptest.NewRecorder()
	h.Update(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)
}

func TestTransactionUpdate_NotFound(t *testing.T) {
	h := NewTransactionHandler(&stubLedger{
		updateFn: func(context.Context, uuid.UUID, ledger.UpdateRequest) (*domain.Transaction, error) {
			return nil, fmt.Errorf("Update: %w", domain.ErrNotFound)
		},
	})

	id := uuid.New()
	req := authedRequest(http.MethodPut, "/api/v1/transactions/"+id.String(), validBody(t), uuid.New())
	req.SetPathValue("id", id.String())

	rec := httptest.NewRecorder()
	h.Update(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "RESOURCE_NOT_FOUND", resp.Error.Code)
}

func TestTransactionDelete_SoldStockConflict(t *testing.T) {
	h := NewTransactionHandler(&stubLedger{
		deleteFn: func(context.Context, uuid.UUID) error {
			return fmt.Errorf("Delete: %w", domain.ErrCannotDelete)
		},
	})

	id := uuid.New()
	req := authedRequest(http.MethodDelete, "/api/v1/transactions/"+id.String(), nil, uuid.New())
	req.SetPathValue("id", id.String())

	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "SOLD_STOCK_CONFLICT", resp.Error.Code)
}

func TestTransactionDelete_Contention(t *testing.T) {
	h := NewTransactionHandler(&stubLedger{
		deleteFn: func(context.Context, uuid.UUID) error {
			return fmt.Errorf("Delete: %w", domain.ErrContention)
		},
	})

	id := uuid.New()
	req := authedRequest(http.MethodDelete, "/api/v1/transactions/"+id.String(), nil, uuid.New())
	req.SetPathValue("id", id.String())

	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "STORE_CONTENTION", resp.Error.Code)
}

func TestTransactionGet_InvalidID(t *testing.T) {
	h := NewTransactionHandler(&stubLedger{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/abc", nil)
	req.SetPathValue("id", "abc")

	rec := httptest.NewRecorder()
	h.Get(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransactionList_InvalidKindFilter(t *testing.T) {
	h := NewTransactionHandler(&stubLedger{})

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/transactions?kind=transfer", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransactionList_PassesFilter(t *testing.T) {
	actor := uuid.New()
	var captured repository.TransactionFilter
	h := NewTransactionHandler(&stubLedger{
		listFn: func(_ context.Context, f repository.TransactionFilter) ([]domain.Transaction, int, error) {
			captured = f
			return []domain.Transaction{*sampleTransaction(uuid.New(), actor)}, 1, nil
		},
	})

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/transactions?kind=income&species=goat&limit=5&offset=10", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured.Kind)
	assert.Equal(t, domain.TransactionKindIncome, *captured.Kind)
	require.NotNil(t, captured.Species)
	assert.Equal(t, domain.SpeciesGoat, *captured.Species)
	assert.Equal(t, 5, captured.Limit)
	assert.Equal(t, 10, captured.Offset)

	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
}
