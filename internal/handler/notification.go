package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/digital-bank-backend/internal/domain"
	"github.com/josh-kwaku/digital-bank-backend/internal/logging"
)

const streamHeartbeat = 25 * time.Second

type notificationRepo interface {
	ListByUser(ctx context.Context, userID uuid.UUID, page domain.Page) ([]domain.Notification, int, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type notificationSubscriber interface {
	Subscribe(ctx context.Context, userID uuid.UUID) (<-chan string, error)
}

type NotificationHandler struct {
	notifications notificationRepo
	live          notificationSubscriber
}

func NewNotificationHandler(notifications notificationRepo, live notificationSubscriber) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, live: live}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	page := pageFromQuery(r)
	items, total, err := h.notifications.ListByUser(r.Context(), userID, page)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, newPageDTO(domain.NewPaginated(items, total, page),
		func(n domain.Notification) domain.Notification { return n }))
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	id, appErr := uuidParam(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.notifications.MarkRead(r.Context(), userID, id); err != nil {
		RespondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	n, err := h.notifications.MarkAllRead(r.Context(), userID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, map[string]int64{"updated": n})
}

// Stream pushes the caller's notifications as server-sent events until the
// client disconnects.
func (h *NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	log := logging.FromContext(r.Context())

	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		log.Debug("write deadline not adjustable for stream", "error", err)
	}

	msgs, err := h.live.Subscribe(r.Context(), userID)
	if err != nil {
		log.Error("failed to subscribe to notifications", "error", err)
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		log.Error("streaming unsupported", "error", err)
		return
	}

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			if !json.Valid([]byte(msg)) {
				log.Warn("dropping malformed notification payload")
				continue
			}
			if _, err := fmt.Fprintf(w, "event: notification\ndata: %s\n\n", msg); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
