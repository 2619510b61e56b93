package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/digital-bank-backend/internal/domain"
)

const TestPassword = "password123"

func SeedTestUser(t *testing.T, db *sql.DB, email string, role domain.Role) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         email,
		PasswordHash: string(hash),
		Role:         role,
		Status:       domain.UserStatusActive,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO users (id, email, name, password_hash, role, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.Role, u.Status, u.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed test user %s: %v", email, err)
	}
	return u
}

func SetUserStatus(t *testing.T, db *sql.DB, userID uuid.UUID, status domain.UserStatus) {
	t.Helper()

	if _, err := db.Exec(`UPDATE users SET status = $2 WHERE id = $1`, userID, status); err != nil {
		t.Fatalf("set user status %s: %v", userID, err)
	}
}

// SeedEntry writes a ledger entry directly, bypassing the services. Use it
// to give a user a starting balance.
func SeedEntry(t *testing.T, db *sql.DB, userID uuid.UUID, dir domain.Direction, amount string, status domain.EntryStatus) *domain.LedgerEntry {
	t.Helper()

	now := time.Now().UTC()
	e := &domain.LedgerEntry{
		ID:             uuid.New(),
		TransactionRef: domain.NewTransactionRef(),
		UserID:         userID,
		Direction:      dir,
		SubType:        domain.SubTypeDeposit,
		Amount:         decimal.RequireFromString(amount),
		Status:         status,
		Initiator:      domain.InitiatorAdmin,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err := db.Exec(
		`INSERT INTO ledger_entries (id, transaction_ref, user_id, direction, sub_type, amount, status, initiator, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.TransactionRef, e.UserID, e.Direction, e.SubType, e.Amount, e.Status, e.Initiator, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed ledger entry for %s: %v", userID, err)
	}
	return e
}

// SeedSavings inserts an account directly. Callers set whatever fields
// the test needs; zero ids and timestamps are filled in.
func SeedSavings(t *testing.T, db *sql.DB, s *domain.SavingsAccount) *domain.SavingsAccount {
	t.Helper()

	now := time.Now().UTC()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Title == "" {
		s.Title = "Rainy day"
	}
	if s.InterestRate == 0 {
		s.InterestRate = domain.DefaultInterestRate
	}
	if s.Status == "" {
		s.Status = domain.SavingsStatusActive
	}
	if s.StartDate.IsZero() {
		s.StartDate = now
	}
	if s.LastInterestDate.IsZero() {
		s.LastInterestDate = now
	}
	if s.Version == 0 {
		s.Version = 1
	}

	_, err := db.Exec(
		`INSERT INTO savings_accounts (id, user_id, title, target_amount, saved_amount, interest_rate, start_date,
		     end_date, total_interest_accrued, last_interest_date, status, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)`,
		s.ID, s.UserID, s.Title, s.TargetAmount, s.SavedAmount, s.InterestRate, s.StartDate,
		s.EndDate, s.TotalInterestAccrued, s.LastInterestDate, s.Status, s.Version, now,
	)
	if err != nil {
		t.Fatalf("seed savings account for %s: %v", s.UserID, err)
	}
	return s
}

func CountRows(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()

	var n int
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}

func CountOutboxEvents(t *testing.T, db *sql.DB, routingKey string) int {
	t.Helper()
	return CountRows(t, db, `SELECT COUNT(*) FROM outbox_events WHERE routing_key = $1`, routingKey)
}

func CountNotifications(t *testing.T, db *sql.DB, userID uuid.UUID) int {
	t.Helper()
	return CountRows(t, db, `SELECT COUNT(*) FROM notifications WHERE user_id = $1`, userID)
}
