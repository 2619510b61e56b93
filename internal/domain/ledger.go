package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

func (d Direction) IsValid() bool {
	return d == DirectionCredit || d == DirectionDebit
}

type SubType string

const (
	SubTypeWithdrawal SubType = "withdrawal"
	SubTypeWire       SubType = "wire transfer"
	SubTypeCheck      SubType = "check"
	SubTypeBill       SubType = "bill payment"
	SubTypeACHDebit   SubType = "ACH debit"
	SubTypeTransfer   SubType = "transfer"
	SubTypeCharge     SubType = "charge"
	SubTypeFee        SubType = "fee"
	SubTypeDeposit    SubType = "deposit"
	SubTypeACHCredit  SubType = "ACH credit"
	SubTypeRefund     SubType = "refund"
	SubTypeInterest   SubType = "interest"
	SubTypeCashBack   SubType = "cash back"
	SubTypeCrypto     SubType = "cryptocurrency"
	SubTypeSavings    SubType = "savings"
)

var validSubTypes = map[SubType]struct{}{
	SubTypeWithdrawal: {}, SubTypeWire: {}, SubTypeCheck: {}, SubTypeBill: {},
	SubTypeACHDebit: {}, SubTypeTransfer: {}, SubTypeCharge: {}, SubTypeFee: {},
	SubTypeDeposit: {}, SubTypeACHCredit: {}, SubTypeRefund: {}, SubTypeInterest: {},
	SubTypeCashBack: {}, SubTypeCrypto: {}, SubTypeSavings: {},
}

func (s SubType) IsValid() bool {
	_, ok := validSubTypes[s]
	return ok
}

type EntryStatus string

const (
	EntryStatusPending    EntryStatus = "pending"
	EntryStatusSuccessful EntryStatus = "successful"
	EntryStatusFailed     EntryStatus = "failed"
	EntryStatusReversed   EntryStatus = "reversed"
	EntryStatusDisputed   EntryStatus = "disputed"
)

func (s EntryStatus) IsValid() bool {
	switch s {
	case EntryStatusPending, EntryStatusSuccessful, EntryStatusFailed,
		EntryStatusReversed, EntryStatusDisputed:
		return true
	}
	return false
}

type Initiator string

const (
	InitiatorUser   Initiator = "user"
	InitiatorAdmin  Initiator = "admin"
	InitiatorSystem Initiator = "system"
)

// LedgerEntry is one movement of money for a user. Amount is always a
// non-negative magnitude; Direction decides the sign when balances are summed.
type LedgerEntry struct {
	ID               uuid.UUID
	TransactionRef   string
	UserID           uuid.UUID
	Direction        Direction
	SubType          SubType
	Description      string
	Amount           decimal.Decimal
	Status           EntryStatus
	Details          json.RawMessage
	Initiator        Initiator
	SavingsAccountID *uuid.UUID
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SignedAmount returns the amount with the sign implied by the direction.
func (e LedgerEntry) SignedAmount() decimal.Decimal {
	if e.Direction == DirectionDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}

// BalanceStatuses lists the entry statuses counted towards a balance.
func BalanceStatuses(includePending bool) []EntryStatus {
	if includePending {
		return []EntryStatus{EntryStatusSuccessful, EntryStatusPending}
	}
	return []EntryStatus{EntryStatusSuccessful}
}

// ComputeBalance sums successful entries (and pending ones when
// includePending is set). Credits add, debits subtract. The result may be
// negative.
func ComputeBalance(entries []LedgerEntry, includePending bool) decimal.Decimal {
	balance := decimal.Zero
	for _, e := range entries {
		switch e.Status {
		case EntryStatusSuccessful:
		case EntryStatusPending:
			if !includePending {
				continue
			}
		default:
			continue
		}
		balance = balance.Add(e.SignedAmount())
	}
	return balance
}

// NewTransactionRef returns the caller-visible reference for a new entry.
func NewTransactionRef() string {
	return "TXN" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:16])
}
