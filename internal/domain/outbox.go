package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusPublished  OutboxStatus = "published"
)

const (
	RoutingKeyTransactionAlert = "email.transaction_alert"
	RoutingKeyLedgerEntry      = "ledger.entry_created"
)

type OutboxEvent struct {
	ID         uuid.UUID
	Exchange   string
	RoutingKey string
	Payload    json.RawMessage
	Status     OutboxStatus
	Attempts   int
	LastError  *string
	CreatedAt  time.Time
}

func NewOutboxEvent(exchange, routingKey string, payload any, now time.Time) (*OutboxEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		ID:         uuid.New(),
		Exchange:   exchange,
		RoutingKey: routingKey,
		Payload:    raw,
		Status:     OutboxStatusPending,
		CreatedAt:  now,
	}, nil
}

// LedgerEntryEvent is the payload published for every new ledger entry.
type LedgerEntryEvent struct {
	EntryID          uuid.UUID   `json:"entry_id"`
	TransactionRef   string      `json:"transaction_ref"`
	UserID           uuid.UUID   `json:"user_id"`
	Direction        Direction   `json:"direction"`
	SubType          SubType     `json:"sub_type"`
	Amount           string      `json:"amount"`
	Status           EntryStatus `json:"status"`
	Initiator        Initiator   `json:"initiator"`
	SavingsAccountID *uuid.UUID  `json:"savings_account_id,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
}

func NewLedgerEntryEvent(exchange string, e *LedgerEntry, now time.Time) (*OutboxEvent, error) {
	return NewOutboxEvent(exchange, RoutingKeyLedgerEntry, LedgerEntryEvent{
		EntryID:          e.ID,
		TransactionRef:   e.TransactionRef,
		UserID:           e.UserID,
		Direction:        e.Direction,
		SubType:          e.SubType,
		Amount:           e.Amount.StringFixed(2),
		Status:           e.Status,
		Initiator:        e.Initiator,
		SavingsAccountID: e.SavingsAccountID,
		CreatedAt:        e.CreatedAt,
	}, now)
}
