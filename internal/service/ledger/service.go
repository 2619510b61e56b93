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
	"github.com/josh-kwaku/digital-bank-backend/internal/email"
	"github.com/josh-kwaku/digital-bank-backend/internal/logging"
	"github.com/josh-kwaku/digital-bank-backend/internal/repository"
)

const recentLimit = 5

type entryRepo interface {
	Create(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.LedgerEntry, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.LedgerEntry, error)
	ListByUser(ctx context.Context, userID uuid.UUID, direction *domain.Direction, page domain.Page) ([]domain.LedgerEntry, int, error)
	ListRecent(ctx context.Context, userID uuid.UUID, n int) ([]domain.LedgerEntry, error)
	ListAll(ctx context.Context, page domain.Page) ([]domain.LedgerEntry, int, error)
	Correct(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error
	Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.LedgerEntry, error)
}

type userRepo interface {
	LockForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.User, error)
}

type activityRepo interface {
	Create(ctx context.Context, tx *sql.Tx, a *domain.Activity) error
}

type outboxRepo interface {
	Enqueue(ctx context.Context, tx *sql.Tx, event *domain.OutboxEvent) error
}

type balanceReader interface {
	ComputeBalance(ctx context.Context, userID uuid.UUID, includePending bool) (decimal.Decimal, error)
	ComputeBalanceWith(ctx context.Context, q repository.DBTX, userID uuid.UUID, includePending bool) (decimal.Decimal, error)
}

type notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, req domain.NotificationRequest) (*domain.Notification, error)
}

type Service struct {
	entries    entryRepo
	users      userRepo
	activities activityRepo
	outbox     outboxRepo
	balances   balanceReader
	notifier   notifier
	db         *sql.DB
	exchange   string
}

func NewService(
	entries entryRepo,
	users userRepo,
	activities activityRepo,
	outbox outboxRepo,
	balances balanceReader,
	n notifier,
	db *sql.DB,
	exchange string,
) *Service {
	return &Service{
		entries:    entries,
		users:      users,
		activities: activities,
		outbox:     outbox,
		balances:   balances,
		notifier:   n,
		db:         db,
		exchange:   exchange,
	}
}

type Balance struct {
	Available decimal.Decimal
	// WithPending also counts entries that have not settled yet.
	WithPending decimal.Decimal
}

func (s *Service) Balance(ctx context.Context, userID uuid.UUID) (*Balance, error) {
	available, err := s.balances.ComputeBalance(ctx, userID, false)
	if err != nil {
		return nil, fmt.Errorf("Balance: %w", err)
	}
	withPending, err := s.balances.ComputeBalance(ctx, userID, true)
	if err != nil {
		return nil, fmt.Errorf("Balance: %w", err)
	}
	return &Balance{Available: available, WithPending: withPending}, nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, direction *domain.Direction, page domain.Page) (domain.Paginated[domain.LedgerEntry], error) {
	entries, total, err := s.entries.ListByUser(ctx, userID, direction, page)
	if err != nil {
		return domain.Paginated[domain.LedgerEntry]{}, fmt.Errorf("List: %w", err)
	}
	return domain.NewPaginated(entries, total, page), nil
}

func (s *Service) Recent(ctx context.Context, userID uuid.UUID) ([]domain.LedgerEntry, error) {
	entries, err := s.entries.ListRecent(ctx, userID, recentLimit)
	if err != nil {
		return nil, fmt.Errorf("Recent: %w", err)
	}
	return entries, nil
}

// GetForUser hides entries owned by someone else behind ErrNotFound.
func (s *Service) GetForUser(ctx context.Context, userID, entryID uuid.UUID) (*domain.LedgerEntry, error) {
	entry, err := s.entries.GetByID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("GetForUser: %w", err)
	}
	if entry.UserID != userID {
		return nil, fmt.Errorf("GetForUser: %w", domain.ErrNotFound)
	}
	return entry, nil
}

type TransferRequest struct {
	UserID      uuid.UUID
	Amount      decimal.Decimal
	SubType     domain.SubType
	Description string
	Details     json.RawMessage
}

// RequestTransfer records a user-initiated outgoing movement. It stays
// pending until an administrator settles it, and counts against the balance
// immediately.
func (s *Service) RequestTransfer(ctx context.Context, req TransferRequest) (*domain.LedgerEntry, error) {
	log := logging.FromContext(ctx)

	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("RequestTransfer: %w", domain.ErrInvalidAmount)
	}
	if !req.SubType.IsValid() {
		return nil, fmt.Errorf("RequestTransfer: sub type %q: %w", req.SubType, domain.ErrInvalidRequest)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("RequestTransfer: begin tx: %w", err)
	}
	defer tx.Rollback()

	user, err := s.users.LockForUpdate(ctx, tx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("RequestTransfer: %w", err)
	}
	if user.Status != domain.UserStatusActive {
		return nil, fmt.Errorf("RequestTransfer: %w", domain.ErrUserSuspended)
	}

	balance, err := s.balances.ComputeBalanceWith(ctx, tx, user.ID, true)
	if err != nil {
		return nil, fmt.Errorf("RequestTransfer: %w", err)
	}
	if req.Amount.GreaterThan(balance) {
		return nil, fmt.Errorf("RequestTransfer: %w", domain.ErrInsufficientFunds)
	}

	now := time.Now().UTC()
	entry := &domain.LedgerEntry{
		ID:             uuid.New(),
		TransactionRef: domain.NewTransactionRef(),
		UserID:         user.ID,
		Direction:      domain.DirectionDebit,
		SubType:        req.SubType,
		Description:    req.Description,
		Amount:         req.Amount,
		Status:         domain.EntryStatusPending,
		Details:        req.Details,
		Initiator:      domain.InitiatorUser,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.entries.Create(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("RequestTransfer: %w", err)
	}

	if err := s.enqueueEntryEvents(ctx, tx, user, entry, balance.Sub(entry.Amount)); err != nil {
		return nil, fmt.Errorf("RequestTransfer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("RequestTransfer: commit: %w", err)
	}

	log.Info("transfer requested",
		"entry_id", entry.ID,
		"transaction_ref", entry.TransactionRef,
		"user_id", user.ID,
		"amount", entry.Amount.String(),
	)

	s.notifyEntry(ctx, entry)
	return entry, nil
}

// enqueueEntryEvents writes the ledger event and the email alert for entry
// into the outbox as part of tx.
func (s *Service) enqueueEntryEvents(ctx context.Context, tx *sql.Tx, user *domain.User, entry *domain.LedgerEntry, balanceAfter decimal.Decimal) error {
	now := time.Now().UTC()

	created, err := domain.NewLedgerEntryEvent(s.exchange, entry, now)
	if err != nil {
		return fmt.Errorf("enqueueEntryEvents: %w", err)
	}
	if err := s.outbox.Enqueue(ctx, tx, created); err != nil {
		return fmt.Errorf("enqueueEntryEvents: %w", err)
	}

	alert, err := domain.NewOutboxEvent(s.exchange, domain.RoutingKeyTransactionAlert,
		email.NewTransactionAlert(user, entry, balanceAfter), now)
	if err != nil {
		return fmt.Errorf("enqueueEntryEvents: %w", err)
	}
	if err := s.outbox.Enqueue(ctx, tx, alert); err != nil {
		return fmt.Errorf("enqueueEntryEvents: %w", err)
	}
	return nil
}

func (s *Service) notifyEntry(ctx context.Context, entry *domain.LedgerEntry) {
	title := "Account Debited"
	message := fmt.Sprintf("$%s was debited from your account.", entry.Amount.StringFixed(2))
	if entry.Direction == domain.DirectionCredit {
		title = "Account Credited"
		message = fmt.Sprintf("$%s was credited to your account.", entry.Amount.StringFixed(2))
	}

	_, err := s.notifier.Notify(ctx, entry.UserID, domain.NotificationRequest{
		Category:    domain.NotificationCategoryTransaction,
		Subcategory: string(entry.Direction),
		Title:       title,
		Message:     message,
		Data: map[string]any{
			"transactionId": entry.TransactionRef,
			"amount":        entry.Amount.StringFixed(2),
			"date":          entry.CreatedAt,
		},
	})
	if err != nil {
		logging.FromContext(ctx).Error("failed to notify user of ledger entry",
			"entry_id", entry.ID,
			"user_id", entry.UserID,
			"error", err,
		)
	}
}
