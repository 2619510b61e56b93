package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/digital-bank-backend/internal/domain"
)

const savingsColumns = `id, user_id, title, target_amount, saved_amount, interest_rate,
	start_date, end_date, total_interest_accrued, last_interest_date, status,
	version, created_at, updated_at`

type SavingsRepository struct {
	db *sql.DB
}

func NewSavingsRepository(db *sql.DB) *SavingsRepository {
	return &SavingsRepository{db: db}
}

func (r *SavingsRepository) Create(ctx context.Context, tx *sql.Tx, s *domain.SavingsAccount) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO savings_accounts (`+savingsColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		s.ID, s.UserID, s.Title, s.TargetAmount, s.SavedAmount, s.InterestRate,
		s.StartDate, s.EndDate, s.TotalInterestAccrued, s.LastInterestDate, s.Status,
		s.Version, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *SavingsRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.SavingsAccount, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+savingsColumns+` FROM savings_accounts WHERE id = $1`, id,
	)
	s, err := scanSavings(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return s, nil
}

// GetForUpdate locks the savings row until tx ends. Both user mutations and
// the interest engine go through here before writing.
func (r *SavingsRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.SavingsAccount, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+savingsColumns+` FROM savings_accounts WHERE id = $1 FOR UPDATE`, id,
	)
	s, err := scanSavings(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return s, nil
}

func (r *SavingsRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.SavingsAccount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+savingsColumns+` FROM savings_accounts
		WHERE user_id = $1 ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByUser: %w", err)
	}
	accounts, err := collectSavings(rows)
	if err != nil {
		return nil, fmt.Errorf("ListByUser: %w", err)
	}
	return accounts, nil
}

func (r *SavingsRepository) ListAll(ctx context.Context, page domain.Page) ([]domain.SavingsAccount, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM savings_accounts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ListAll: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+savingsColumns+` FROM savings_accounts
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		page.Limit, page.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("ListAll: %w", err)
	}
	accounts, err := collectSavings(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("ListAll: %w", err)
	}
	return accounts, total, nil
}

// ListActiveIDs returns the ids of every active account. The engine re-reads
// each one under lock, so only ids are loaded here.
func (r *SavingsRepository) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM savings_accounts WHERE status = $1 ORDER BY created_at`,
		domain.SavingsStatusActive,
	)
	if err != nil {
		return nil, fmt.Errorf("ListActiveIDs: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ListActiveIDs: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListActiveIDs: rows: %w", err)
	}
	return ids, nil
}

// Update writes the mutable fields and bumps version. The write only lands
// if the stored version still equals s.Version; on success s.Version is
// advanced to match the row.
func (r *SavingsRepository) Update(ctx context.Context, tx *sql.Tx, s *domain.SavingsAccount) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE savings_accounts
		SET saved_amount = $1, total_interest_accrued = $2, last_interest_date = $3,
			status = $4, version = version + 1, updated_at = now()
		WHERE id = $5 AND version = $6`,
		s.SavedAmount, s.TotalInterestAccrued, s.LastInterestDate,
		s.Status, s.ID, s.Version,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Update: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Update: %w", domain.ErrVersionConflict)
	}
	s.Version++
	return nil
}

func (r *SavingsRepository) Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID, version int64) error {
	res, err := tx.ExecContext(ctx,
		`DELETE FROM savings_accounts WHERE id = $1 AND version = $2`, id, version,
	)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Delete: %w", domain.ErrVersionConflict)
	}
	return nil
}

func collectSavings(rows *sql.Rows) ([]domain.SavingsAccount, error) {
	defer rows.Close()

	var accounts []domain.SavingsAccount
	for rows.Next() {
		s, err := scanSavings(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		accounts = append(accounts, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return accounts, nil
}

func scanSavings(s scanner) (*domain.SavingsAccount, error) {
	var a domain.SavingsAccount
	err := s.Scan(
		&a.ID, &a.UserID, &a.Title, &a.TargetAmount, &a.SavedAmount, &a.InterestRate,
		&a.StartDate, &a.EndDate, &a.TotalInterestAccrued, &a.LastInterestDate, &a.Status,
		&a.Version, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
