package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/digital-bank-backend/internal/domain"
)

type mockOutboxStore struct {
	mock.Mock
}

func (m *mockOutboxStore) Claim(ctx context.Context, limit int, staleAfter time.Duration) ([]domain.OutboxEvent, error) {
	args := m.Called(ctx, limit, staleAfter)
	events, _ := args.Get(0).([]domain.OutboxEvent)
	return events, args.Error(1)
}

func (m *mockOutboxStore) MarkPublished(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockOutboxStore) MarkFailed(ctx context.Context, id uuid.UUID, retryAfter time.Duration, reason string) error {
	return m.Called(ctx, id, retryAfter, reason).Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, exchange, routingKey string, body []byte) error {
	return m.Called(ctx, exchange, routingKey, body).Error(0)
}

func outboxEvent(attempts int) domain.OutboxEvent {
	return domain.OutboxEvent{
		ID:         uuid.New(),
		Exchange:   "banking.events",
		RoutingKey: domain.RoutingKeyTransactionAlert,
		Payload:    json.RawMessage(`{"to":"ada@example.com"}`),
		Status:     domain.OutboxStatusProcessing,
		Attempts:   attempts,
	}
}

func TestOutboxDispatcher_PublishesAndMarks(t *testing.T) {
	ctx := context.Background()
	ok, bad := outboxEvent(1), outboxEvent(3)
	bad.RoutingKey = domain.RoutingKeyLedgerEntry
	bad.Payload = json.RawMessage(`{"entry_id":"e-2"}`)

	store := &mockOutboxStore{}
	store.On("Claim", ctx, 10, outboxStaleAfter).Return([]domain.OutboxEvent{ok, bad}, nil)
	store.On("MarkPublished", ctx, ok.ID).Return(nil)
	store.On("MarkFailed", ctx, bad.ID, 8*time.Second, "broker unreachable").Return(nil).Once()

	pub := &mockPublisher{}
	pub.On("Publish", ctx, ok.Exchange, ok.RoutingKey, []byte(ok.Payload)).Return(nil).Once()
	pub.On("Publish", ctx, bad.Exchange, bad.RoutingKey, []byte(bad.Payload)).Return(errors.New("broker unreachable")).Once()

	d := NewOutboxDispatcher(store, pub, slog.Default(), time.Second, 10)
	d.poll(ctx)

	store.AssertExpectations(t)
	pub.AssertExpectations(t)
	store.AssertNotCalled(t, "MarkPublished", ctx, bad.ID)
	store.AssertNotCalled(t, "MarkFailed", ctx, ok.ID, mock.Anything, mock.Anything)
}

func TestOutboxDispatcher_ClaimFailureSkipsTick(t *testing.T) {
	ctx := context.Background()
	store := &mockOutboxStore{}
	store.On("Claim", ctx, 5, outboxStaleAfter).Return(nil, errors.New("db down"))
	pub := &mockPublisher{}

	d := NewOutboxDispatcher(store, pub, slog.Default(), time.Second, 5)
	d.poll(ctx)

	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOutboxDispatcher_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := NewOutboxDispatcher(&mockOutboxStore{}, &mockPublisher{}, slog.Default(), time.Hour, 5)

	done := make(chan struct{})
	go func() {
		d.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		require.Fail(t, "dispatcher did not stop")
	}
}

func TestOutboxBackoff(t *testing.T) {
	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{5, 32 * time.Second},
		{8, 256 * time.Second},
		{9, 256 * time.Second},
		{40, 256 * time.Second},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, outboxBackoff(tc.attempts), "attempts=%d", tc.attempts)
	}
}
