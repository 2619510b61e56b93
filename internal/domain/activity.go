package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	ActivitySavingsDelete       = "Savings Delete"
	ActivityTransactionCreate   = "New Transaction"
	ActivityTransactionUpdate   = "Transaction Update"
	ActivityTransactionDeletion = "Transaction Deletion"
)

// Activity is an audit record of an administrative action.
type Activity struct {
	ID           uuid.UUID
	AdminID      uuid.UUID
	Action       string
	TargetUserID *uuid.UUID
	Metadata     json.RawMessage
	CreatedAt    time.Time
}
