package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/digital-bank-backend/internal/domain"
	"github.com/josh-kwaku/digital-bank-backend/internal/service/savings"
)

type fakeSavingsService struct {
	created    *savings.CreateRequest
	account    *domain.SavingsAccount
	entry      *domain.LedgerEntry
	err        error
	deletedBy  uuid.UUID
	lastAmount float64
}

func (f *fakeSavingsService) Create(_ context.Context, req savings.CreateRequest) (*domain.SavingsAccount, error) {
	f.created = &req
	return f.account, f.err
}

func (f *fakeSavingsService) TopUp(_ context.Context, _, _ uuid.UUID, amount float64) (*domain.SavingsAccount, error) {
	f.lastAmount = amount
	return f.account, f.err
}

func (f *fakeSavingsService) Withdraw(_ context.Context, _, _ uuid.UUID, amount float64) (*domain.LedgerEntry, error) {
	f.lastAmount = amount
	return f.entry, f.err
}

func (f *fakeSavingsService) Delete(_ context.Context, userID, _ uuid.UUID) error {
	f.deletedBy = userID
	return f.err
}

func (f *fakeSavingsService) ListForUser(context.Context, uuid.UUID) ([]domain.SavingsAccount, error) {
	if f.account == nil {
		return nil, f.err
	}
	return []domain.SavingsAccount{*f.account}, f.err
}

func (f *fakeSavingsService) GetForUser(context.Context, uuid.UUID, uuid.UUID) (*domain.SavingsAccount, error) {
	return f.account, f.err
}

func (f *fakeSavingsService) AdminList(_ context.Context, page domain.Page) (domain.Paginated[domain.SavingsAccount], error) {
	return domain.NewPaginated([]domain.SavingsAccount{*f.account}, 41, page), f.err
}

func (f *fakeSavingsService) AdminListForUser(context.Context, uuid.UUID) ([]domain.SavingsAccount, error) {
	return nil, f.err
}

func (f *fakeSavingsService) AdminDelete(_ context.Context, adminID, _ uuid.UUID) error {
	f.deletedBy = adminID
	return f.err
}

func sampleAccount(userID uuid.UUID) *domain.SavingsAccount {
	now := time.Now().UTC()
	return &domain.SavingsAccount{
		ID:               uuid.New(),
		UserID:           userID,
		Title:            "Vacation",
		SavedAmount:      100,
		InterestRate:     domain.DefaultInterestRate,
		StartDate:        now,
		LastInterestDate: now,
		Status:           domain.SavingsStatusActive,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestSavingsHandler_Create(t *testing.T) {
	caller := uuid.New()
	svc := &fakeSavingsService{account: sampleAccount(caller)}
	h := NewSavingsHandler(svc)

	rec := serve(t, http.MethodPost, "/savings", "/savings",
		map[string]any{"title": "Vacation", "saved_amount": 100, "target_amount": 500}, caller, h.Create)

	require.Equal(t, http.StatusCreated, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)

	var data savingsResult
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "Your savings was initiated successfully", data.Message)
	assert.Equal(t, "Vacation", data.Savings.Title)

	require.NotNil(t, svc.created)
	assert.Equal(t, caller, svc.created.UserID)
	assert.Equal(t, 100.0, svc.created.SavedAmount)
	require.NotNil(t, svc.created.TargetAmount)
	assert.Equal(t, 500.0, *svc.created.TargetAmount)
}

func TestSavingsHandler_Create_Validation(t *testing.T) {
	caller := uuid.New()
	past := time.Now().Add(-48 * time.Hour).UTC().Format(time.RFC3339)

	tests := []struct {
		name      string
		body      any
		wantField string
	}{
		{"missing title", map[string]any{"saved_amount": 10}, "title"},
		{"saved amount below one", map[string]any{"title": "x", "saved_amount": 0}, "saved_amount"},
		{"target below one", map[string]any{"title": "x", "saved_amount": 10, "target_amount": 0.5}, "target_amount"},
		{"end date in the past", map[string]any{"title": "x", "saved_amount": 10, "end_date": past}, "end_date"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeSavingsService{}
			h := NewSavingsHandler(svc)

			rec := serve(t, http.MethodPost, "/savings", "/savings", tc.body, caller, h.Create)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			env := decodeEnvelope(t, rec)
			require.NotNil(t, env.Error)
			assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
			assert.Contains(t, string(rec.Body.Bytes()), tc.wantField)
			assert.Nil(t, svc.created)
		})
	}
}

func TestSavingsHandler_DomainErrors(t *testing.T) {
	caller := uuid.New()
	id := uuid.New()

	tests := []struct {
		name     string
		err      error
		status   int
		code     string
		message  string
		withdraw bool
	}{
		{"insufficient balance on top-up", domain.ErrInsufficientFunds, http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS",
			"Insufficient Amount, kindly top up your balance to continue.", false},
		{"withdraw above saved", domain.ErrInsufficientSavings, http.StatusUnprocessableEntity, "INSUFFICIENT_SAVINGS",
			"Insufficient balance. Your withdrawal amount is greater than what's available.", true},
		{"goal not completed", domain.ErrSavingsLocked, http.StatusUnprocessableEntity, "SAVINGS_LOCKED",
			"Withdrawal unavailable. This savings account can't be accessed yet.", true},
		{"unknown account", domain.ErrNotFound, http.StatusNotFound, "SAVINGS_NOT_FOUND",
			ErrSavingsNotFound.Message, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewSavingsHandler(&fakeSavingsService{err: tc.err})

			handler, path := h.TopUp, "/savings/{id}/top-up"
			target := "/savings/" + id.String() + "/top-up"
			if tc.withdraw {
				handler, path = h.Withdraw, "/savings/{id}/withdraw"
				target = "/savings/" + id.String() + "/withdraw"
			}

			rec := serve(t, http.MethodPost, path, target, map[string]any{"amount": 25}, caller, handler)

			require.Equal(t, tc.status, rec.Code)
			env := decodeEnvelope(t, rec)
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.code, env.Error.Code)
			assert.Equal(t, tc.message, env.Error.Message)
		})
	}
}

func TestSavingsHandler_Withdraw(t *testing.T) {
	caller := uuid.New()
	acct := sampleAccount(caller)
	svc := &fakeSavingsService{entry: &domain.LedgerEntry{
		ID:               uuid.New(),
		TransactionRef:   "TXN0123456789ABCDEF",
		UserID:           caller,
		Direction:        domain.DirectionCredit,
		SubType:          domain.SubTypeSavings,
		Amount:           decimal.NewFromInt(40),
		Status:           domain.EntryStatusSuccessful,
		SavingsAccountID: &acct.ID,
	}}
	h := NewSavingsHandler(svc)

	rec := serve(t, http.MethodPost, "/savings/{id}/withdraw", "/savings/"+acct.ID.String()+"/withdraw",
		map[string]any{"amount": 40}, caller, h.Withdraw)

	require.Equal(t, http.StatusOK, rec.Code)
	var data withdrawalResult
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &data))
	assert.Equal(t, "Withdrawal complete. Your funds are on the way.", data.Message)
	assert.Equal(t, "credit", data.Transaction.Direction)
	assert.Equal(t, 40.0, svc.lastAmount)
}

func TestSavingsHandler_Delete_NotEmpty(t *testing.T) {
	h := NewSavingsHandler(&fakeSavingsService{err: domain.ErrSavingsNotEmpty})

	rec := serve(t, http.MethodDelete, "/savings/{id}", "/savings/"+uuid.NewString(), nil, uuid.New(), h.Delete)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Kindly withdraw all the available funds before deleting.", decodeEnvelope(t, rec).Error.Message)
}

func TestSavingsHandler_Delete(t *testing.T) {
	caller := uuid.New()
	svc := &fakeSavingsService{}
	h := NewSavingsHandler(svc)

	rec := serve(t, http.MethodDelete, "/savings/{id}", "/savings/"+uuid.NewString(), nil, caller, h.Delete)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, caller, svc.deletedBy)
}

func TestSavingsHandler_MalformedID(t *testing.T) {
	h := NewSavingsHandler(&fakeSavingsService{})

	rec := serve(t, http.MethodGet, "/savings/{id}", "/savings/not-a-uuid", nil, uuid.New(), h.Get)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSavingsHandler_Unauthenticated(t *testing.T) {
	h := NewSavingsHandler(&fakeSavingsService{})

	rec := serve(t, http.MethodGet, "/savings", "/savings", nil, uuid.Nil, h.List)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSavingsHandler_AdminList_Pagination(t *testing.T) {
	h := NewSavingsHandler(&fakeSavingsService{account: sampleAccount(uuid.New())})

	rec := serve(t, http.MethodGet, "/admin/savings", "/admin/savings?page=2&limit=20", nil, uuid.New(), h.AdminList)

	require.Equal(t, http.StatusOK, rec.Code)
	var data pageDTO[savingsDTO]
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &data))
	assert.Equal(t, Pagination{Total: 41, Page: 2, Pages: 3}, data.Pagination)
	assert.Len(t, data.Items, 1)
}
