package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestSavingsAccount_PolicyAnnualRate(t *testing.T) {
	tests := []struct {
		name    string
		account SavingsAccount
		want    float64
	}{
		{"target set", SavingsAccount{TargetAmount: ptr(500.0), InterestRate: 1}, GoalAnnualRate},
		{"end date set", SavingsAccount{EndDate: ptr(time.Now()), InterestRate: 9}, GoalAnnualRate},
		{"open ended", SavingsAccount{InterestRate: 4.4}, OpenAnnualRate},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.account.PolicyAnnualRate())
		})
	}
}

func TestSavingsAccount_RateDiverges(t *testing.T) {
	assert.False(t, (&SavingsAccount{TargetAmount: ptr(10.0), InterestRate: 4.4}).RateDiverges())
	assert.True(t, (&SavingsAccount{InterestRate: 4.4}).RateDiverges())
	assert.False(t, (&SavingsAccount{InterestRate: 4}).RateDiverges())
}

func TestSavingsAccount_CanWithdraw(t *testing.T) {
	tests := []struct {
		name    string
		account SavingsAccount
		amount  float64
		wantErr error
	}{
		{
			name:    "open account",
			account: SavingsAccount{SavedAmount: 100, Status: SavingsStatusActive},
			amount:  40,
		},
		{
			name:    "amount above saved checked first",
			account: SavingsAccount{SavedAmount: 100, TargetAmount: ptr(500.0), Status: SavingsStatusActive},
			amount:  101,
			wantErr: ErrInsufficientSavings,
		},
		{
			name:    "active goal account locked",
			account: SavingsAccount{SavedAmount: 100, TargetAmount: ptr(500.0), Status: SavingsStatusActive},
			amount:  1,
			wantErr: ErrSavingsLocked,
		},
		{
			name:    "end date account locked",
			account: SavingsAccount{SavedAmount: 100, EndDate: ptr(time.Now().Add(time.Hour)), Status: SavingsStatusActive},
			amount:  1,
			wantErr: ErrSavingsLocked,
		},
		{
			name:    "completed goal account",
			account: SavingsAccount{SavedAmount: 510, TargetAmount: ptr(500.0), Status: SavingsStatusCompleted},
			amount:  510,
		},
		{
			name:    "cancelled account",
			account: SavingsAccount{SavedAmount: 10, Status: SavingsStatusCancelled},
			amount:  5,
			wantErr: ErrSavingsLocked,
		},
		{
			name:    "zero amount",
			account: SavingsAccount{SavedAmount: 10, Status: SavingsStatusActive},
			amount:  0,
			wantErr: ErrInvalidAmount,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.account.CanWithdraw(tc.amount)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestSavingsAccount_CanDelete(t *testing.T) {
	assert.ErrorIs(t, (&SavingsAccount{SavedAmount: 0.01}).CanDelete(), ErrSavingsNotEmpty)
	assert.NoError(t, (&SavingsAccount{SavedAmount: 0}).CanDelete())
}

func TestRole_Satisfies(t *testing.T) {
	assert.True(t, RoleSuperAdmin.Satisfies(RoleAdmin))
	assert.True(t, RoleAdmin.Satisfies(RoleAdmin))
	assert.False(t, RoleAdmin.Satisfies(RoleSuperAdmin))
	assert.False(t, RoleUser.Satisfies(RoleAdmin))
	assert.False(t, Role("").Satisfies(RoleUser))
}
