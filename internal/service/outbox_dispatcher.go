package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/digital-bank-backend/internal/domain"
)

const (
	outboxStaleAfter = 2 * time.Minute
	outboxMaxBackoff = 300 * time.Second
)

type outboxStore interface {
	Claim(ctx context.Context, limit int, staleAfter time.Duration) ([]domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, retryAfter time.Duration, reason string) error
}

type eventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body []byte) error
}

// OutboxDispatcher drains committed outbox events to the message broker.
type OutboxDispatcher struct {
	events    outboxStore
	publisher eventPublisher
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

func NewOutboxDispatcher(events outboxStore, publisher eventPublisher, logger *slog.Logger, interval time.Duration, batchSize int) *OutboxDispatcher {
	return &OutboxDispatcher{
		events:    events,
		publisher: publisher,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
	}
}

func (d *OutboxDispatcher) Start(ctx context.Context) {
	d.logger.Info("outbox dispatcher started", "interval", d.interval, "batch_size", d.batchSize)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("outbox dispatcher stopped")
			return
		case <-ticker.C:
			d.poll(ctx)
		}
	}
}

func (d *OutboxDispatcher) poll(ctx context.Context) {
	events, err := d.events.Claim(ctx, d.batchSize, outboxStaleAfter)
	if err != nil {
		d.logger.Error("failed to claim outbox events", "error", err)
		return
	}

	for _, event := range events {
		if err := d.dispatch(ctx, event); err != nil {
			d.logger.Error("failed to dispatch outbox event",
				"outbox_event_id", event.ID,
				"routing_key", event.RoutingKey,
				"error", err,
			)
		}
	}
}

func (d *OutboxDispatcher) dispatch(ctx context.Context, event domain.OutboxEvent) error {
	pubErr := d.publisher.Publish(ctx, event.Exchange, event.RoutingKey, event.Payload)
	if pubErr == nil {
		if err := d.events.MarkPublished(ctx, event.ID); err != nil {
			return fmt.Errorf("dispatch: %w", err)
		}
		return nil
	}

	retryAfter := outboxBackoff(event.Attempts)
	d.logger.Warn("outbox publish failed, rescheduling",
		"outbox_event_id", event.ID,
		"attempts", event.Attempts,
		"retry_after", retryAfter,
		"error", pubErr,
	)
	if err := d.events.MarkFailed(ctx, event.ID, retryAfter, pubErr.Error()); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	return nil
}

// outboxBackoff doubles the delay per attempt: 2^min(attempts,8) seconds,
// never more than five minutes.
func outboxBackoff(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if attempts > 8 {
		attempts = 8
	}
	delay := time.Duration(1<<attempts) * time.Second
	if delay > outboxMaxBackoff {
		delay = outboxMaxBackoff
	}
	return delay
}
