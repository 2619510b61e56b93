package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/digital-bank-backend/internal/domain"
	"github.com/josh-kwaku/digital-bank-backend/internal/service/ledger"
)

type fakeLedgerService struct {
	balance    *ledger.Balance
	entry      *domain.LedgerEntry
	err        error
	direction  *domain.Direction
	page       domain.Page
	transfer   *ledger.TransferRequest
	adminReq   *ledger.AdminEntryRequest
	correction *ledger.Correction
}

func (f *fakeLedgerService) Balance(context.Context, uuid.UUID) (*ledger.Balance, error) {
	return f.balance, f.err
}

func (f *fakeLedgerService) List(_ context.Context, _ uuid.UUID, d *domain.Direction, page domain.Page) (domain.Paginated[domain.LedgerEntry], error) {
	f.direction = d
	f.page = page
	return domain.NewPaginated([]domain.LedgerEntry{}, 0, page), f.err
}

func (f *fakeLedgerService) Recent(context.Context, uuid.UUID) ([]domain.LedgerEntry, error) {
	return nil, f.err
}

func (f *fakeLedgerService) GetForUser(context.Context, uuid.UUID, uuid.UUID) (*domain.LedgerEntry, error) {
	return f.entry, f.err
}

func (f *fakeLedgerService) RequestTransfer(_ context.Context, req ledger.TransferRequest) (*domain.LedgerEntry, error) {
	f.transfer = &req
	return f.entry, f.err
}

func (f *fakeLedgerService) AdminList(_ context.Context, page domain.Page) (domain.Paginated[domain.LedgerEntry], error) {
	return domain.NewPaginated([]domain.LedgerEntry{}, 0, page), f.err
}

func (f *fakeLedgerService) AdminListForUser(_ context.Context, _ uuid.UUID, page domain.Page) (domain.Paginated[domain.LedgerEntry], error) {
	return domain.NewPaginated([]domain.LedgerEntry{}, 0, page), f.err
}

func (f *fakeLedgerService) AdminCreate(_ context.Context, _ uuid.UUID, req ledger.AdminEntryRequest) (*domain.LedgerEntry, error) {
	f.adminReq = &req
	return f.entry, f.err
}

func (f *fakeLedgerService) AdminCorrect(_ context.Context, _, _ uuid.UUID, c ledger.Correction) (*domain.LedgerEntry, error) {
	f.correction = &c
	return f.entry, f.err
}

func (f *fakeLedgerService) AdminDelete(context.Context, uuid.UUID, uuid.UUID) error {
	return f.err
}

func sampleEntry(userID uuid.UUID) *domain.LedgerEntry {
	return &domain.LedgerEntry{
		ID:             uuid.New(),
		TransactionRef: "TXN0123456789ABCDEF",
		UserID:         userID,
		Direction:      domain.DirectionDebit,
		SubType:        domain.SubTypeWire,
		Amount:         decimal.RequireFromString("250.75"),
		Status:         domain.EntryStatusPending,
		Initiator:      domain.InitiatorUser,
	}
}

func TestTransactionHandler_Balance(t *testing.T) {
	svc := &fakeLedgerService{balance: &ledger.Balance{
		Available:   decimal.RequireFromString("1000.50"),
		WithPending: decimal.RequireFromString("750.25"),
	}}
	h := NewTransactionHandler(svc)

	rec := serve(t, http.MethodGet, "/transactions/balance", "/transactions/balance", nil, uuid.New(), h.Balance)

	require.Equal(t, http.StatusOK, rec.Code)
	var data balanceDTO
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &data))
	assert.True(t, data.Balance.Equal(decimal.RequireFromString("1000.50")))
	assert.True(t, data.PendingBalance.Equal(decimal.RequireFromString("750.25")))
}

func TestTransactionHandler_List_DirectionFilter(t *testing.T) {
	svc := &fakeLedgerService{}
	h := NewTransactionHandler(svc)

	rec := serve(t, http.MethodGet, "/transactions", "/transactions?direction=credit&page=3&limit=500", nil, uuid.New(), h.List)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.direction)
	assert.Equal(t, domain.DirectionCredit, *svc.direction)
	assert.Equal(t, domain.Page{Number: 3, Limit: domain.MaxPageLimit}, svc.page)
}

func TestTransactionHandler_List_BadDirection(t *testing.T) {
	svc := &fakeLedgerService{}
	h := NewTransactionHandler(svc)

	rec := serve(t, http.MethodGet, "/transactions", "/transactions?direction=sideways", nil, uuid.New(), h.List)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.direction)
}

func TestTransactionHandler_Get_NotOwned(t *testing.T) {
	h := NewTransactionHandler(&fakeLedgerService{err: domain.ErrNotFound})

	rec := serve(t, http.MethodGet, "/transactions/{id}", "/transactions/"+uuid.NewString(), nil, uuid.New(), h.Get)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "RESOURCE_NOT_FOUND", decodeEnvelope(t, rec).Error.Code)
}

func TestTransactionHandler_Create(t *testing.T) {
	caller := uuid.New()

	tests := []struct {
		name       string
		body       any
		err        error
		wantStatus int
		wantCode   string
	}{
		{"valid transfer", map[string]any{"amount": "250.75", "sub_type": "wire transfer"}, nil, http.StatusCreated, ""},
		{"zero amount", map[string]any{"amount": "0", "sub_type": "wire transfer"}, nil, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"unknown sub type", map[string]any{"amount": "10", "sub_type": "teleport"}, nil, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"malformed body", "{not json", nil, http.StatusBadRequest, "INVALID_REQUEST"},
		{"insufficient funds", map[string]any{"amount": "10", "sub_type": "check"}, domain.ErrInsufficientFunds,
			http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS"},
		{"suspended", map[string]any{"amount": "10", "sub_type": "check"}, domain.ErrUserSuspended,
			http.StatusForbidden, "USER_SUSPENDED"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeLedgerService{entry: sampleEntry(caller), err: tc.err}
			h := NewTransactionHandler(svc)

			rec := serve(t, http.MethodPost, "/transactions", "/transactions", tc.body, caller, h.Create)

			require.Equal(t, tc.wantStatus, rec.Code)
			env := decodeEnvelope(t, rec)
			if tc.wantCode == "" {
				assert.True(t, env.Success)
				require.NotNil(t, svc.transfer)
				assert.Equal(t, caller, svc.transfer.UserID)
				assert.Equal(t, domain.SubTypeWire, svc.transfer.SubType)
				return
			}
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.wantCode, env.Error.Code)
		})
	}
}

func TestTransactionHandler_AdminCreate(t *testing.T) {
	target := uuid.New()
	svc := &fakeLedgerService{entry: sampleEntry(target)}
	h := NewTransactionHandler(svc)

	body := map[string]any{
		"user_id":   target.String(),
		"direction": "credit",
		"sub_type":  "deposit",
		"amount":    "5000",
		"status":    "successful",
		"notify":    true,
	}
	rec := serve(t, http.MethodPost, "/admin/transactions", "/admin/transactions", body, uuid.New(), h.AdminCreate)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.adminReq)
	assert.Equal(t, target, svc.adminReq.UserID)
	assert.Equal(t, domain.DirectionCredit, svc.adminReq.Direction)
	assert.Equal(t, domain.EntryStatusSuccessful, svc.adminReq.Status)
	assert.True(t, svc.adminReq.Notify)
	assert.True(t, svc.adminReq.Amount.Equal(decimal.NewFromInt(5000)))
}

func TestTransactionHandler_AdminCreate_BadStatus(t *testing.T) {
	svc := &fakeLedgerService{}
	h := NewTransactionHandler(svc)

	body := map[string]any{
		"user_id":   uuid.NewString(),
		"direction": "credit",
		"sub_type":  "deposit",
		"amount":    "5",
		"status":    "teleported",
	}
	rec := serve(t, http.MethodPost, "/admin/transactions", "/admin/transactions", body, uuid.New(), h.AdminCreate)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.adminReq)
}

func TestTransactionHandler_AdminCorrect(t *testing.T) {
	svc := &fakeLedgerService{entry: sampleEntry(uuid.New())}
	h := NewTransactionHandler(svc)

	rec := serve(t, http.MethodPatch, "/admin/transactions/{id}", "/admin/transactions/"+uuid.NewString(),
		map[string]any{"status": "reversed"}, uuid.New(), h.AdminCorrect)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.correction)
	require.NotNil(t, svc.correction.Status)
	assert.Equal(t, domain.EntryStatusReversed, *svc.correction.Status)
	assert.Nil(t, svc.correction.Description)
}

func TestTransactionHandler_AdminCorrect_VersionConflict(t *testing.T) {
	h := NewTransactionHandler(&fakeLedgerService{err: domain.ErrVersionConflict})

	rec := serve(t, http.MethodPatch, "/admin/transactions/{id}", "/admin/transactions/"+uuid.NewString(),
		map[string]any{"description": "fixed"}, uuid.New(), h.AdminCorrect)

	assert.Equal(t, http.StatusConflict, rec.Code)
}
