package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const NotificationCategoryTransaction = "transaction"

type Notification struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory,omitempty"`
	Title       string          `json:"title"`
	Message     string          `json:"message"`
	Data        json.RawMessage `json:"data"`
	ReadAt      *time.Time      `json:"read_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NotificationRequest is what a service asks the notifier to deliver.
type NotificationRequest struct {
	Category    string
	Subcategory string
	Title       string
	Message     string
	Data        map[string]any
}
