package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionKind string

const (
	// TransactionKindIncome is a sale: it consumes available animals.
	TransactionKindIncome TransactionKind = "income"
	// TransactionKindOutcome is a purchase: it produces new animals.
	TransactionKindOutcome TransactionKind = "outcome"
)

func (k TransactionKind) IsValid() bool {
	return k == TransactionKindIncome || k == TransactionKindOutcome
}

// Transaction is one ledger entry. For an income transaction exactly
// Quantity animals carry SaleTransactionID = ID, all sold at UnitPrice;
// for an outcome transaction exactly Quantity animals carry
// SourceTransactionID = ID.
type Transaction struct {
	ID              uuid.UUID
	Kind            TransactionKind
	CounterpartName string
	Species         Species
	Quantity        int
	UnitPrice       decimal.Decimal
	RecordedBy      uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
