// Package report is the read-only aggregate view over the ledger and the
// herd. It never mutates either store.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ternakhub/livestock-api/internal/repository"
)

type transactionReader interface {
	TotalsByKind(ctx context.Context, from, to *time.Time) (income, outcome decimal.Decimal, err error)
}

type animalReader interface {
	CountByStatus(ctx context.Context) ([]repository.HerdCount, error)
}

type Service struct {
	transactions transactionReader
	animals      animalReader
}

func NewService(transactions transactionReader, animals animalReader) *Service {
	return &Service{transactions: transactions, animals: animals}
}

type Summary struct {
	IncomeTotal  decimal.Decimal
	OutcomeTotal decimal.Decimal
	Net          decimal.Decimal
	Herd         []repository.HerdCount
}

// Summary returns sale and purchase totals over an optional date range
// plus current herd counts by species and status.
func (s *Service) Summary(ctx context.Context, from, to *time.Time) (*Summary, error) {
	income, outcome, err := s.transactions.TotalsByKind(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("Summary: %w", err)
	}

	herd, err := s.animals.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("Summary: %w", err)
	}

	return &Summary{
		IncomeTotal:  income,
		OutcomeTotal: outcome,
		Net:          income.Sub(outcome),
		Herd:         herd,
	}, nil
}
