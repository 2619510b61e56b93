package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/digital-bank-backend/internal/domain"
	"github.com/josh-kwaku/digital-bank-backend/internal/logging"
)

type AdminEntryRequest struct {
	UserID      uuid.UUID
	Direction   domain.Direction
	SubType     domain.SubType
	Amount      decimal.Decimal
	Status      domain.EntryStatus
	Description string
	Details     json.RawMessage
	// CreatedAt backdates the entry when set.
	CreatedAt *time.Time
	Notify    bool
}

func (r AdminEntryRequest) validate() error {
	if !r.Amount.IsPositive() {
		return domain.ErrInvalidAmount
	}
	if !r.Direction.IsValid() || !r.SubType.IsValid() || !r.Status.IsValid() {
		return domain.ErrInvalidRequest
	}
	return nil
}

// Correction carries the fields an administrator may change on an entry.
// Nil fields are left untouched.
type Correction struct {
	Status      *domain.EntryStatus
	Description *string
	Details     json.RawMessage
	CreatedAt   *time.Time
}

func (s *Service) AdminList(ctx context.Context, page domain.Page) (domain.Paginated[domain.LedgerEntry], error) {
	entries, total, err := s.entries.ListAll(ctx, page)
	if err != nil {
		return domain.Paginated[domain.LedgerEntry]{}, fmt.Errorf("AdminList: %w", err)
	}
	return domain.NewPaginated(entries, total, page), nil
}

func (s *Service) AdminListForUser(ctx context.Context, userID uuid.UUID, page domain.Page) (domain.Paginated[domain.LedgerEntry], error) {
	entries, total, err := s.entries.ListByUser(ctx, userID, nil, page)
	if err != nil {
		return domain.Paginated[domain.LedgerEntry]{}, fmt.Errorf("AdminListForUser: %w", err)
	}
	return domain.NewPaginated(entries, total, page), nil
}

func (s *Service) AdminCreate(ctx context.Context, adminID uuid.UUID, req AdminEntryRequest) (*domain.LedgerEntry, error) {
	log := logging.FromContext(ctx)

	if err := req.validate(); err != nil {
		return nil, fmt.Errorf("AdminCreate: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("AdminCreate: begin tx: %w", err)
	}
	defer tx.Rollback()

	user, err := s.users.LockForUpdate(ctx, tx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("AdminCreate: %w", err)
	}

	now := time.Now().UTC()
	createdAt := now
	if req.CreatedAt != nil {
		createdAt = req.CreatedAt.UTC()
	}

	entry := &domain.LedgerEntry{
		ID:             uuid.New(),
		TransactionRef: domain.NewTransactionRef(),
		UserID:         user.ID,
		Direction:      req.Direction,
		SubType:        req.SubType,
		Description:    req.Description,
		Amount:         req.Amount,
		Status:         req.Status,
		Details:        req.Details,
		Initiator:      domain.InitiatorAdmin,
		CreatedAt:      createdAt,
		UpdatedAt:      now,
	}
	if err := s.entries.Create(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("AdminCreate: %w", err)
	}

	if err := s.recordActivity(ctx, tx, adminID, domain.ActivityTransactionCreate, entry); err != nil {
		return nil, fmt.Errorf("AdminCreate: %w", err)
	}

	if req.Notify {
		balance, err := s.balances.ComputeBalanceWith(ctx, tx, user.ID, false)
		if err != nil {
			return nil, fmt.Errorf("AdminCreate: %w", err)
		}
		if err := s.enqueueEntryEvents(ctx, tx, user, entry, balance); err != nil {
			return nil, fmt.Errorf("AdminCreate: %w", err)
		}
	} else {
		created, err := domain.NewLedgerEntryEvent(s.exchange, entry, now)
		if err != nil {
			return nil, fmt.Errorf("AdminCreate: %w", err)
		}
		if err := s.outbox.Enqueue(ctx, tx, created); err != nil {
			return nil, fmt.Errorf("AdminCreate: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("AdminCreate: commit: %w", err)
	}

	log.Info("ledger entry created by admin",
		"entry_id", entry.ID,
		"admin_id", adminID,
		"user_id", user.ID,
		"direction", entry.Direction,
		"amount", entry.Amount.String(),
	)

	if req.Notify {
		s.notifyEntry(ctx, entry)
	}
	return entry, nil
}

func (s *Service) AdminCorrect(ctx context.Context, adminID, entryID uuid.UUID, c Correction) (*domain.LedgerEntry, error) {
	if c.Status != nil && !c.Status.IsValid() {
		return nil, fmt.Errorf("AdminCorrect: status %q: %w", *c.Status, domain.ErrInvalidRequest)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("AdminCorrect: begin tx: %w", err)
	}
	defer tx.Rollback()

	entry, err := s.entries.GetForUpdate(ctx, tx, entryID)
	if err != nil {
		return nil, fmt.Errorf("AdminCorrect: %w", err)
	}

	if c.Status != nil {
		entry.Status = *c.Status
	}
	if c.Description != nil {
		entry.Description = *c.Description
	}
	if c.Details != nil {
		entry.Details = c.Details
	}
	if c.CreatedAt != nil {
		entry.CreatedAt = c.CreatedAt.UTC()
	}
	entry.UpdatedAt = time.Now().UTC()

	if err := s.entries.Correct(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("AdminCorrect: %w", err)
	}
	if err := s.recordActivity(ctx, tx, adminID, domain.ActivityTransactionUpdate, entry); err != nil {
		return nil, fmt.Errorf("AdminCorrect: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("AdminCorrect: commit: %w", err)
	}

	logging.FromContext(ctx).Info("ledger entry corrected",
		"entry_id", entry.ID,
		"admin_id", adminID,
		"status", entry.Status,
	)
	return entry, nil
}

func (s *Service) AdminDelete(ctx context.Context, adminID, entryID uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("AdminDelete: begin tx: %w", err)
	}
	defer tx.Rollback()

	entry, err := s.entries.Delete(ctx, tx, entryID)
	if err != nil {
		return fmt.Errorf("AdminDelete: %w", err)
	}
	if err := s.recordActivity(ctx, tx, adminID, domain.ActivityTransactionDeletion, entry); err != nil {
		return fmt.Errorf("AdminDelete: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("AdminDelete: commit: %w", err)
	}

	logging.FromContext(ctx).Warn("ledger entry deleted",
		"entry_id", entry.ID,
		"admin_id", adminID,
		"user_id", entry.UserID,
		"amount", entry.Amount.String(),
	)
	return nil
}

func (s *Service) recordActivity(ctx context.Context, tx *sql.Tx, adminID uuid.UUID, action string, entry *domain.LedgerEntry) error {
	meta, err := json.Marshal(map[string]string{
		"type":   string(entry.Direction),
		"method": string(entry.SubType),
		"amount": entry.Amount.StringFixed(2),
		"status": string(entry.Status),
	})
	if err != nil {
		return fmt.Errorf("recordActivity: %w", err)
	}

	target := entry.UserID
	activity := &domain.Activity{
		ID:           uuid.New(),
		AdminID:      adminID,
		Action:       action,
		TargetUserID: &target,
		Metadata:     meta,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.activities.Create(ctx, tx, activity); err != nil {
		return fmt.Errorf("recordActivity: %w", err)
	}
	return nil
}
