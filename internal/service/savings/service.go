package savings

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/digital-bank-backend/internal/domain"
	"github.com/josh-kwaku/digital-bank-backend/internal/logging"
	"github.com/josh-kwaku/digital-bank-backend/internal/repository"
)

type savingsRepo interface {
	Create(ctx context.Context, tx *sql.Tx, s *domain.SavingsAccount) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SavingsAccount, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.SavingsAccount, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.SavingsAccount, error)
	ListAll(ctx context.Context, page domain.Page) ([]domain.SavingsAccount, int, error)
	Update(ctx context.Context, tx *sql.Tx, s *domain.SavingsAccount) error
	Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID, version int64) error
}

type ledgerRepo interface {
	Create(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error
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
	ComputeBalanceWith(ctx context.Context, q repository.DBTX, userID uuid.UUID, includePending bool) (decimal.Decimal, error)
}

type notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, req domain.NotificationRequest) (*domain.Notification, error)
}

type Service struct {
	savings    savingsRepo
	ledger     ledgerRepo
	users      userRepo
	activities activityRepo
	outbox     outboxRepo
	balances   balanceReader
	notifier   notifier
	db         *sql.DB
	exchange   string
}

func NewService(
	savings savingsRepo,
	ledger ledgerRepo,
	users userRepo,
	activities activityRepo,
	outbox outboxRepo,
	balances balanceReader,
	n notifier,
	db *sql.DB,
	exchange string,
) *Service {
	return &Service{
		savings:    savings,
		ledger:     ledger,
		users:      users,
		activities: activities,
		outbox:     outbox,
		balances:   balances,
		notifier:   n,
		db:         db,
		exchange:   exchange,
	}
}

type CreateRequest struct {
	UserID       uuid.UUID
	Title        string
	TargetAmount *float64
	SavedAmount  float64
	// InterestRate is the annual percentage shown to the user. Zero means
	// domain.DefaultInterestRate.
	InterestRate float64
	StartDate    time.Time
	EndDate      *time.Time
}

func (r CreateRequest) validate() error {
	if r.SavedAmount <= 0 {
		return domain.ErrInvalidAmount
	}
	if r.Title == "" {
		return fmt.Errorf("title is required: %w", domain.ErrInvalidRequest)
	}
	if r.TargetAmount != nil && *r.TargetAmount <= 0 {
		return fmt.Errorf("target amount must be positive: %w", domain.ErrInvalidRequest)
	}
	if r.EndDate != nil && !r.EndDate.After(r.StartDate) {
		return fmt.Errorf("end date must be after start date: %w", domain.ErrInvalidRequest)
	}
	return nil
}

// Create opens a savings account funded from the user's free balance. The
// account and its debit entry commit together or not at all.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*domain.SavingsAccount, error) {
	log := logging.FromContext(ctx)

	if err := req.validate(); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Create: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.reserveFunds(ctx, tx, req.UserID, req.SavedAmount); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	rate := req.InterestRate
	if rate == 0 {
		rate = domain.DefaultInterestRate
	}
	startDate := req.StartDate
	if startDate.IsZero() {
		startDate = time.Now().UTC()
	}

	now := time.Now().UTC()
	acct := &domain.SavingsAccount{
		ID:               uuid.New(),
		UserID:           req.UserID,
		Title:            req.Title,
		TargetAmount:     req.TargetAmount,
		SavedAmount:      req.SavedAmount,
		InterestRate:     rate,
		StartDate:        startDate,
		EndDate:          req.EndDate,
		LastInterestDate: now,
		Status:           domain.SavingsStatusActive,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.savings.Create(ctx, tx, acct); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	entry, err := s.appendEntry(ctx, tx, acct, domain.DirectionDebit, req.SavedAmount)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Create: commit: %w", err)
	}

	log.Info("savings account created",
		"savings_id", acct.ID,
		"user_id", acct.UserID,
		"saved_amount", acct.SavedAmount,
		"goal", acct.IsGoal(),
	)

	s.notifyMovement(ctx, acct, entry)
	return acct, nil
}

// TopUp moves amount from free balance into the account. Crossing the target
// does not complete the account; only the interest engine does that.
func (s *Service) TopUp(ctx context.Context, userID, savingsID uuid.UUID, amount float64) (*domain.SavingsAccount, error) {
	log := logging.FromContext(ctx)

	if amount <= 0 {
		return nil, fmt.Errorf("TopUp: %w", domain.ErrInvalidAmount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("TopUp: begin tx: %w", err)
	}
	defer tx.Rollback()

	acct, err := s.lockOwned(ctx, tx, userID, savingsID)
	if err != nil {
		return nil, fmt.Errorf("TopUp: %w", err)
	}
	if acct.Status == domain.SavingsStatusCancelled {
		return nil, fmt.Errorf("TopUp: %w", domain.ErrSavingsLocked)
	}

	if err := s.reserveFunds(ctx, tx, userID, amount); err != nil {
		return nil, fmt.Errorf("TopUp: %w", err)
	}

	acct.SavedAmount += amount
	acct.UpdatedAt = time.Now().UTC()
	if err := s.savings.Update(ctx, tx, acct); err != nil {
		return nil, fmt.Errorf("TopUp: %w", err)
	}

	entry, err := s.appendEntry(ctx, tx, acct, domain.DirectionDebit, amount)
	if err != nil {
		return nil, fmt.Errorf("TopUp: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("TopUp: commit: %w", err)
	}

	log.Info("savings account topped up",
		"savings_id", acct.ID,
		"user_id", userID,
		"amount", amount,
		"saved_amount", acct.SavedAmount,
	)

	s.notifyMovement(ctx, acct, entry)
	return acct, nil
}

// Withdraw releases amount from the account back to free balance.
func (s *Service) Withdraw(ctx context.Context, userID, savingsID uuid.UUID, amount float64) (*domain.LedgerEntry, error) {
	log := logging.FromContext(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Withdraw: begin tx: %w", err)
	}
	defer tx.Rollback()

	acct, err := s.lockOwned(ctx, tx, userID, savingsID)
	if err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}
	if err := acct.CanWithdraw(amount); err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}

	acct.SavedAmount -= amount
	acct.UpdatedAt = time.Now().UTC()
	if err := s.savings.Update(ctx, tx, acct); err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}

	entry, err := s.appendEntry(ctx, tx, acct, domain.DirectionCredit, amount)
	if err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Withdraw: commit: %w", err)
	}

	log.Info("savings withdrawal completed",
		"savings_id", acct.ID,
		"user_id", userID,
		"amount", amount,
		"saved_amount", acct.SavedAmount,
	)

	s.notifyMovement(ctx, acct, entry)
	return entry, nil
}

func (s *Service) Delete(ctx context.Context, userID, savingsID uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Delete: begin tx: %w", err)
	}
	defer tx.Rollback()

	acct, err := s.lockOwned(ctx, tx, userID, savingsID)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if err := acct.CanDelete(); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if err := s.savings.Delete(ctx, tx, acct.ID, acct.Version); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Delete: commit: %w", err)
	}

	logging.FromContext(ctx).Info("savings account deleted", "savings_id", acct.ID, "user_id", userID)
	return nil
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.SavingsAccount, error) {
	accounts, err := s.savings.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ListForUser: %w", err)
	}
	return accounts, nil
}

func (s *Service) GetForUser(ctx context.Context, userID, savingsID uuid.UUID) (*domain.SavingsAccount, error) {
	acct, err := s.savings.GetByID(ctx, savingsID)
	if err != nil {
		return nil, fmt.Errorf("GetForUser: %w", err)
	}
	if acct.UserID != userID {
		return nil, fmt.Errorf("GetForUser: %w", domain.ErrNotFound)
	}
	return acct, nil
}

// reserveFunds locks the user row and checks that the settled balance
// covers amount. Holding the user lock serializes every balance-gated
// mutation for that user until tx ends.
func (s *Service) reserveFunds(ctx context.Context, tx *sql.Tx, userID uuid.UUID, amount float64) error {
	user, err := s.users.LockForUpdate(ctx, tx, userID)
	if err != nil {
		return fmt.Errorf("reserveFunds: %w", err)
	}
	if user.Status != domain.UserStatusActive {
		return fmt.Errorf("reserveFunds: %w", domain.ErrUserSuspended)
	}

	balance, err := s.balances.ComputeBalanceWith(ctx, tx, userID, false)
	if err != nil {
		return fmt.Errorf("reserveFunds: %w", err)
	}
	if decimal.NewFromFloat(amount).GreaterThan(balance) {
		return fmt.Errorf("reserveFunds: %w", domain.ErrInsufficientFunds)
	}
	return nil
}

func (s *Service) lockOwned(ctx context.Context, tx *sql.Tx, userID, savingsID uuid.UUID) (*domain.SavingsAccount, error) {
	acct, err := s.savings.GetForUpdate(ctx, tx, savingsID)
	if err != nil {
		return nil, fmt.Errorf("lockOwned: %w", err)
	}
	if acct.UserID != userID {
		return nil, fmt.Errorf("lockOwned: %w", domain.ErrNotFound)
	}
	return acct, nil
}

// appendEntry writes the ledger entry that mirrors a savings movement and
// its outbox event.
func (s *Service) appendEntry(ctx context.Context, tx *sql.Tx, acct *domain.SavingsAccount, dir domain.Direction, amount float64) (*domain.LedgerEntry, error) {
	now := time.Now().UTC()
	savingsID := acct.ID

	description := "Savings deposit: " + acct.Title
	if dir == domain.DirectionCredit {
		description = "Savings withdrawal: " + acct.Title
	}

	entry := &domain.LedgerEntry{
		ID:               uuid.New(),
		TransactionRef:   domain.NewTransactionRef(),
		UserID:           acct.UserID,
		Direction:        dir,
		SubType:          domain.SubTypeSavings,
		Description:      description,
		Amount:           decimal.NewFromFloat(amount),
		Status:           domain.EntryStatusSuccessful,
		Initiator:        domain.InitiatorUser,
		SavingsAccountID: &savingsID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.ledger.Create(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("appendEntry: %w", err)
	}

	event, err := domain.NewLedgerEntryEvent(s.exchange, entry, now)
	if err != nil {
		return nil, fmt.Errorf("appendEntry: %w", err)
	}
	if err := s.outbox.Enqueue(ctx, tx, event); err != nil {
		return nil, fmt.Errorf("appendEntry: %w", err)
	}
	return entry, nil
}

func (s *Service) notifyMovement(ctx context.Context, acct *domain.SavingsAccount, entry *domain.LedgerEntry) {
	amount := entry.Amount.StringFixed(2)
	title := "Savings Deposit"
	message := fmt.Sprintf("$%s was deposited to your %s savings account.", amount, acct.Title)
	if entry.Direction == domain.DirectionCredit {
		title = "Savings Withdrawal"
		message = fmt.Sprintf("$%s was withdrawn from your %s savings account.", amount, acct.Title)
	}

	_, err := s.notifier.Notify(ctx, acct.UserID, domain.NotificationRequest{
		Category:    domain.NotificationCategoryTransaction,
		Subcategory: string(entry.Direction),
		Title:       title,
		Message:     message,
		Data: map[string]any{
			"transactionId": entry.TransactionRef,
			"amount":        amount,
			"date":          entry.CreatedAt,
		},
	})
	if err != nil {
		logging.FromContext(ctx).Error("failed to notify user of savings movement",
			"savings_id", acct.ID,
			"entry_id", entry.ID,
			"error", err,
		)
	}
}
