package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/josh-kwaku/digital-bank-backend/internal/domain"
)

type ActivityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create records the activity inside tx so the audit row commits together
// with the change it describes.
func (r *ActivityRepository) Create(ctx context.Context, tx *sql.Tx, a *domain.Activity) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO activities (id, admin_id, action, target_user_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.AdminID, a.Action, a.TargetUserID, jsonOrEmpty(a.Metadata), a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *ActivityRepository) List(ctx context.Context, page domain.Page) ([]domain.Activity, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM activities`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("List: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, admin_id, action, target_user_id, metadata, created_at
		FROM activities ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		page.Limit, page.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var out []domain.Activity
	for rows.Next() {
		var a domain.Activity
		if err := rows.Scan(&a.ID, &a.AdminID, &a.Action, &a.TargetUserID, &a.Metadata, &a.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("List: scan: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("List: rows: %w", err)
	}
	return out, total, nil
}
