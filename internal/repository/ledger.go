package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/josh-kwaku/digital-bank-backend/internal/domain"
)

const ledgerColumns = `id, transaction_ref, user_id, direction, sub_type, description,
	amount, status, details, initiator, savings_account_id, created_at, updated_at`

type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Create(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_entries (`+ledgerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		entry.ID, entry.TransactionRef, entry.UserID, entry.Direction, entry.SubType,
		entry.Description, entry.Amount, entry.Status, jsonOrEmpty(entry.Details),
		entry.Initiator, entry.SavingsAccountID, entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("Create: %w", domain.ErrConflict)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *LedgerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.LedgerEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries WHERE id = $1`, id,
	)
	e, err := scanLedgerEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return e, nil
}

func (r *LedgerRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.LedgerEntry, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries WHERE id = $1 FOR UPDATE`, id,
	)
	e, err := scanLedgerEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return e, nil
}

// ListForBalance returns every entry of the user whose status is one of
// statuses. q may be a transaction so the read sees the caller's locks.
func (r *LedgerRepository) ListForBalance(ctx context.Context, q DBTX, userID uuid.UUID, statuses []domain.EntryStatus) ([]domain.LedgerEntry, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		WHERE user_id = $1 AND status = ANY($2)`,
		userID, pq.Array(names),
	)
	if err != nil {
		return nil, fmt.Errorf("ListForBalance: %w", err)
	}
	entries, err := collectLedgerEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("ListForBalance: %w", err)
	}
	return entries, nil
}

// ListByUser pages through a user's entries, newest first. A nil direction
// returns both credits and debits.
func (r *LedgerRepository) ListByUser(ctx context.Context, userID uuid.UUID, direction *domain.Direction, page domain.Page) ([]domain.LedgerEntry, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ledger_entries
		WHERE user_id = $1 AND ($2::text IS NULL OR direction = $2)`,
		userID, direction,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("ListByUser: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		WHERE user_id = $1 AND ($2::text IS NULL OR direction = $2)
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		userID, direction, page.Limit, page.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("ListByUser: %w", err)
	}
	entries, err := collectLedgerEntries(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("ListByUser: %w", err)
	}
	return entries, total, nil
}

func (r *LedgerRepository) ListRecent(ctx context.Context, userID uuid.UUID, n int) ([]domain.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, n,
	)
	if err != nil {
		return nil, fmt.Errorf("ListRecent: %w", err)
	}
	entries, err := collectLedgerEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("ListRecent: %w", err)
	}
	return entries, nil
}

func (r *LedgerRepository) ListAll(ctx context.Context, page domain.Page) ([]domain.LedgerEntry, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ledger_entries`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ListAll: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		page.Limit, page.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("ListAll: %w", err)
	}
	entries, err := collectLedgerEntries(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("ListAll: %w", err)
	}
	return entries, total, nil
}

func (r *LedgerRepository) ListBySavingsAccount(ctx context.Context, savingsID uuid.UUID) ([]domain.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		WHERE savings_account_id = $1 ORDER BY created_at`, savingsID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListBySavingsAccount: %w", err)
	}
	entries, err := collectLedgerEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("ListBySavingsAccount: %w", err)
	}
	return entries, nil
}

// Correct applies an administrative correction. Only status, description,
// details and created_at can change; the amount and direction are immutable.
func (r *LedgerRepository) Correct(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE ledger_entries
		SET status = $1, description = $2, details = $3, created_at = $4, updated_at = now()
		WHERE id = $5`,
		entry.Status, entry.Description, jsonOrEmpty(entry.Details), entry.CreatedAt, entry.ID,
	)
	if err != nil {
		return fmt.Errorf("Correct: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Correct: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Correct: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *LedgerRepository) Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.LedgerEntry, error) {
	row := tx.QueryRowContext(ctx,
		`DELETE FROM ledger_entries WHERE id = $1 RETURNING `+ledgerColumns, id,
	)
	e, err := scanLedgerEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("Delete: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("Delete: %w", err)
	}
	return e, nil
}

func collectLedgerEntries(rows *sql.Rows) ([]domain.LedgerEntry, error) {
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return entries, nil
}

func scanLedgerEntry(s scanner) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	err := s.Scan(
		&e.ID, &e.TransactionRef, &e.UserID, &e.Direction, &e.SubType, &e.Description,
		&e.Amount, &e.Status, &e.Details, &e.Initiator, &e.SavingsAccountID,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func jsonOrEmpty(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return []byte(`{}`)
	}
	return raw
}
