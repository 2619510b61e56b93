package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/digital-bank-backend/internal/domain"
)

type activityLister interface {
	List(ctx context.Context, page domain.Page) ([]domain.Activity, int, error)
}

type ActivityHandler struct {
	activities activityLister
}

func NewActivityHandler(activities activityLister) *ActivityHandler {
	return &ActivityHandler{activities: activities}
}

type activityDTO struct {
	ID           uuid.UUID       `json:"id"`
	AdminID      uuid.UUID       `json:"admin_id"`
	Action       string          `json:"action"`
	TargetUserID *uuid.UUID      `json:"target_user_id,omitempty"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func toActivityDTO(a domain.Activity) activityDTO {
	return activityDTO{
		ID:           a.ID,
		AdminID:      a.AdminID,
		Action:       a.Action,
		TargetUserID: a.TargetUserID,
		Metadata:     a.Metadata,
		CreatedAt:    a.CreatedAt,
	}
}

func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)
	items, total, err := h.activities.List(r.Context(), page)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, newPageDTO(domain.NewPaginated(items, total, page), toActivityDTO))
}
