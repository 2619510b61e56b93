package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/digital-bank-backend/internal/domain"
)

type OutboxRepository struct {
	db *sql.DB
}

func NewOutboxRepository(db *sql.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// Enqueue stores an event in tx. It becomes visible to the dispatcher only
// if the surrounding mutation commits.
func (r *OutboxRepository) Enqueue(ctx context.Context, tx *sql.Tx, event *domain.OutboxEvent) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO outbox_events (id, exchange, routing_key, payload, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID, event.Exchange, event.RoutingKey, jsonOrEmpty(event.Payload),
		domain.OutboxStatusPending, 0, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Enqueue: %w", err)
	}
	return nil
}

// Claim moves up to limit due events to processing and returns them.
// Events stuck in processing longer than staleAfter are reclaimed.
// SKIP LOCKED keeps concurrent dispatchers from claiming the same rows.
func (r *OutboxRepository) Claim(ctx context.Context, limit int, staleAfter time.Duration) ([]domain.OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`WITH candidates AS (
			SELECT id FROM outbox_events
			WHERE (status = 'pending' AND next_attempt_at <= now())
				OR (status = 'processing' AND processing_started_at < now() - ($2 * INTERVAL '1 second'))
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE outbox_events AS o
		SET status = 'processing', processing_started_at = now(), attempts = o.attempts + 1
		FROM candidates
		WHERE o.id = candidates.id
		RETURNING o.id, o.exchange, o.routing_key, o.payload, o.status, o.attempts, o.last_error, o.created_at`,
		limit, int(staleAfter.Seconds()),
	)
	if err != nil {
		return nil, fmt.Errorf("Claim: %w", err)
	}
	defer rows.Close()

	var events []domain.OutboxEvent
	for rows.Next() {
		var e domain.OutboxEvent
		if err := rows.Scan(
			&e.ID, &e.Exchange, &e.RoutingKey, &e.Payload,
			&e.Status, &e.Attempts, &e.LastError, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("Claim: scan: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Claim: rows: %w", err)
	}
	return events, nil
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE outbox_events
		SET status = 'published', published_at = now(), processing_started_at = NULL, last_error = NULL
		WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("MarkPublished: %w", err)
	}
	return expectOneRow("MarkPublished", res)
}

// MarkFailed returns the event to pending and schedules the next attempt
// retryAfter from now.
func (r *OutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, retryAfter time.Duration, reason string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE outbox_events
		SET status = 'pending', processing_started_at = NULL, last_error = $2,
			next_attempt_at = now() + ($3 * INTERVAL '1 second')
		WHERE id = $1`,
		id, reason, int(retryAfter.Seconds()),
	)
	if err != nil {
		return fmt.Errorf("MarkFailed: %w", err)
	}
	return expectOneRow("MarkFailed", res)
}

func expectOneRow(op string, res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}
