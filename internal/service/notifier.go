package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/digital-bank-backend/internal/domain"
	"github.com/josh-kwaku/digital-bank-backend/internal/logging"
)

type notificationStore interface {
	Create(ctx context.Context, n *domain.Notification) error
}

type liveBroadcaster interface {
	Publish(ctx context.Context, userID uuid.UUID, payload any) error
}

// Notifier persists a notification and pushes it to any live stream the
// user has open. Callers invoke it after their transaction commits.
type Notifier struct {
	store notificationStore
	live  liveBroadcaster
	now   func() time.Time
}

func NewNotifier(store notificationStore, live liveBroadcaster) *Notifier {
	return &Notifier{store: store, live: live, now: func() time.Time { return time.Now().UTC() }}
}

func (n *Notifier) Notify(ctx context.Context, userID uuid.UUID, req domain.NotificationRequest) (*domain.Notification, error) {
	data, err := json.Marshal(req.Data)
	if err != nil {
		return nil, fmt.Errorf("Notify: encode data: %w", err)
	}

	notification := &domain.Notification{
		ID:          uuid.New(),
		UserID:      userID,
		Category:    req.Category,
		Subcategory: req.Subcategory,
		Title:       req.Title,
		Message:     req.Message,
		Data:        data,
		CreatedAt:   n.now(),
	}
	if err := n.store.Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("Notify: %w", err)
	}

	if n.live != nil {
		if err := n.live.Publish(ctx, userID, notification); err != nil {
			logging.FromContext(ctx).Warn("live notification publish failed",
				"notification_id", notification.ID,
				"user_id", userID,
				"error", err,
			)
		}
	}

	return notification, nil
}
