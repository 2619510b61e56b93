package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/digital-bank-backend/internal/domain"
	"github.com/josh-kwaku/digital-bank-backend/internal/repository"
)

type balanceSource interface {
	ListForBalance(ctx context.Context, q repository.DBTX, userID uuid.UUID, statuses []domain.EntryStatus) ([]domain.LedgerEntry, error)
}

// Calculator derives a user's balance from the ledger on every call. Nothing
// is cached.
type Calculator struct {
	entries balanceSource
	db      repository.DBTX
}

func NewCalculator(entries balanceSource, db repository.DBTX) *Calculator {
	return &Calculator{entries: entries, db: db}
}

func (c *Calculator) ComputeBalance(ctx context.Context, userID uuid.UUID, includePending bool) (decimal.Decimal, error) {
	return c.ComputeBalanceWith(ctx, c.db, userID, includePending)
}

// ComputeBalanceWith reads through q, so a mutation can gate on a balance
// read inside its own transaction.
func (c *Calculator) ComputeBalanceWith(ctx context.Context, q repository.DBTX, userID uuid.UUID, includePending bool) (decimal.Decimal, error) {
	entries, err := c.entries.ListForBalance(ctx, q, userID, domain.BalanceStatuses(includePending))
	if err != nil {
		return decimal.Zero, fmt.Errorf("ComputeBalance: %w", err)
	}
	return domain.ComputeBalance(entries, includePending), nil
}
