package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type SavingsStatus string

const (
	SavingsStatusActive    SavingsStatus = "active"
	SavingsStatusCompleted SavingsStatus = "completed"
	SavingsStatusCancelled SavingsStatus = "cancelled"
)

const (
	DefaultInterestRate = 4.4

	GoalAnnualRate = 0.044
	OpenAnnualRate = 0.04
)

type SavingsAccount struct {
	ID                   uuid.UUID
	UserID               uuid.UUID
	Title                string
	TargetAmount         *float64
	SavedAmount          float64
	InterestRate         float64
	StartDate            time.Time
	EndDate              *time.Time
	TotalInterestAccrued float64
	LastInterestDate     time.Time
	Status               SavingsStatus
	Version              int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsGoal reports whether the account has a target amount or an end date.
// Goal accounts stay locked for withdrawal until they complete.
func (s *SavingsAccount) IsGoal() bool {
	return s.TargetAmount != nil || s.EndDate != nil
}

// PolicyAnnualRate is the rate the interest engine applies, independent of
// the stored InterestRate.
func (s *SavingsAccount) PolicyAnnualRate() float64 {
	if s.IsGoal() {
		return GoalAnnualRate
	}
	return OpenAnnualRate
}

// RateDiverges reports whether the stored percentage rate differs from the
// policy rate the engine will use.
func (s *SavingsAccount) RateDiverges() bool {
	return math.Abs(s.InterestRate/100-s.PolicyAnnualRate()) > 1e-9
}

func (s *SavingsAccount) TargetReached() bool {
	return s.TargetAmount != nil && s.SavedAmount >= *s.TargetAmount
}

// CanWithdraw checks the withdrawal preconditions in order: the amount must
// be covered by the saved amount, then goal accounts must be completed.
func (s *SavingsAccount) CanWithdraw(amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount > s.SavedAmount {
		return ErrInsufficientSavings
	}
	if s.Status == SavingsStatusCancelled {
		return ErrSavingsLocked
	}
	if s.IsGoal() && s.Status != SavingsStatusCompleted {
		return ErrSavingsLocked
	}
	return nil
}

func (s *SavingsAccount) CanDelete() error {
	if s.SavedAmount != 0 {
		return ErrSavingsNotEmpty
	}
	return nil
}
