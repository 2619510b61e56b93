package interest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/digital-bank-backend/internal/domain"
)

type accountStore interface {
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.SavingsAccount, error)
	Update(ctx context.Context, tx *sql.Tx, s *domain.SavingsAccount) error
}

type Engine struct {
	accounts accountStore
	db       *sql.DB
	logger   *slog.Logger
	now      func() time.Time
}

func NewEngine(accounts accountStore, db *sql.DB, logger *slog.Logger) *Engine {
	return &Engine{
		accounts: accounts,
		db:       db,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type RunResult struct {
	Scanned   int
	Accrued   int
	Completed int
	Failed    int
}

// Run accrues interest on every active account. Each account is locked,
// updated and committed in its own transaction; a failure is logged and the
// run moves on. Cancelling ctx does not interrupt the run.
func (e *Engine) Run(ctx context.Context) (RunResult, error) {
	ctx = context.WithoutCancel(ctx)

	var result RunResult
	ids, err := e.accounts.ListActiveIDs(ctx)
	if err != nil {
		return result, fmt.Errorf("Run: %w", err)
	}

	now := e.now()
	for _, id := range ids {
		result.Scanned++

		acct, err := e.accrueOne(ctx, id, now)
		if err != nil {
			result.Failed++
			e.logger.Error("interest accrual failed", "savings_id", id, "error", err)
			continue
		}
		if acct == nil {
			continue
		}

		result.Accrued++
		if acct.Status == domain.SavingsStatusCompleted {
			result.Completed++
			e.logger.Info("savings target reached", "savings_id", acct.ID, "user_id", acct.UserID)
		}
	}

	e.logger.Info("interest accrual run finished",
		"scanned", result.Scanned,
		"accrued", result.Accrued,
		"completed", result.Completed,
		"failed", result.Failed,
	)
	return result, nil
}

var errNotAccrued = errors.New("not accrued")

// accrueOne returns the updated account, or nil when nothing was due or the
// account was deleted after it was listed.
func (e *Engine) accrueOne(ctx context.Context, id uuid.UUID, now time.Time) (*domain.SavingsAccount, error) {
	acct, err := e.withAccountLock(ctx, id, func(acct *domain.SavingsAccount) error {
		if acct.Status != domain.SavingsStatusActive {
			return errNotAccrued
		}
		if acct.RateDiverges() {
			e.logger.Warn("stored interest rate differs from policy rate",
				"savings_id", acct.ID,
				"stored_rate_pct", acct.InterestRate,
				"policy_rate", acct.PolicyAnnualRate(),
			)
		}
		if !Accrue(acct, now) {
			return errNotAccrued
		}
		return nil
	})
	if errors.Is(err, errNotAccrued) || errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("accrueOne: %w", err)
	}
	return acct, nil
}

// withAccountLock loads id under FOR UPDATE, lets fn mutate it and persists
// the result with a version check. When fn returns an error nothing is
// written.
func (e *Engine) withAccountLock(ctx context.Context, id uuid.UUID, fn func(*domain.SavingsAccount) error) (*domain.SavingsAccount, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	acct, err := e.accounts.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(acct); err != nil {
		return nil, err
	}
	if err := e.accounts.Update(ctx, tx, acct); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return acct, nil
}
