package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Species string

const (
	SpeciesGoat  Species = "goat"
	SpeciesCow   Species = "cow"
	SpeciesSheep Species = "sheep"
)

func (s Species) IsValid() bool {
	switch s {
	case SpeciesGoat, SpeciesCow, SpeciesSheep:
		return true
	}
	return false
}

type AnimalStatus string

const (
	AnimalStatusAvailable AnimalStatus = "available"
	AnimalStatusSold      AnimalStatus = "sold"
)

func (s AnimalStatus) IsValid() bool {
	return s == AnimalStatusAvailable || s == AnimalStatusSold
}

// Animal is one physical head of livestock. Sale fields (SalePrice,
// OuttakeDate, SaleTransactionID) are set together when the animal is
// claimed by an income transaction and cleared together when it is
// released; the schema enforces the same rule with a CHECK constraint.
type Animal struct {
	ID                  uuid.UUID
	Species             Species
	Status              AnimalStatus
	PurchasePrice       decimal.Decimal
	SalePrice           decimal.NullDecimal
	IntakeDate          time.Time
	OuttakeDate         *time.Time
	CreatedBy           uuid.UUID
	SourceTransactionID uuid.UUID
	SaleTransactionID   uuid.NullUUID
}
