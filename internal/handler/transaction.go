package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/digital-bank-backend/internal/domain"
	"github.com/josh-kwaku/digital-bank-backend/internal/logging"
	"github.com/josh-kwaku/digital-bank-backend/internal/service/ledger"
)

type ledgerService interface {
	Balance(ctx context.Context, userID uuid.UUID) (*ledger.Balance, error)
	List(ctx context.Context, userID uuid.UUID, direction *domain.Direction, page domain.Page) (domain.Paginated[domain.LedgerEntry], error)
	Recent(ctx context.Context, userID uuid.UUID) ([]domain.LedgerEntry, error)
	GetForUser(ctx context.Context, userID, entryID uuid.UUID) (*domain.LedgerEntry, error)
	RequestTransfer(ctx context.Context, req ledger.TransferRequest) (*domain.LedgerEntry, error)
	AdminList(ctx context.Context, page domain.Page) (domain.Paginated[domain.LedgerEntry], error)
	AdminListForUser(ctx context.Context, userID uuid.UUID, page domain.Page) (domain.Paginated[domain.LedgerEntry], error)
	AdminCreate(ctx context.Context, adminID uuid.UUID, req ledger.AdminEntryRequest) (*domain.LedgerEntry, error)
	AdminCorrect(ctx context.Context, adminID, entryID uuid.UUID, c ledger.Correction) (*domain.LedgerEntry, error)
	AdminDelete(ctx context.Context, adminID, entryID uuid.UUID) error
}

type TransactionHandler struct {
	ledger ledgerService
}

func NewTransactionHandler(l ledgerService) *TransactionHandler {
	return &TransactionHandler{ledger: l}
}

type entryDTO struct {
	ID               uuid.UUID       `json:"id"`
	TransactionRef   string          `json:"transaction_ref"`
	UserID           uuid.UUID       `json:"user_id"`
	Direction        string          `json:"direction"`
	SubType          string          `json:"sub_type"`
	Description      string          `json:"description"`
	Amount           decimal.Decimal `json:"amount"`
	Status           string          `json:"status"`
	Details          json.RawMessage `json:"details,omitempty"`
	Initiator        string          `json:"initiator"`
	SavingsAccountID *uuid.UUID      `json:"savings_account_id,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func toEntryDTO(e domain.LedgerEntry) entryDTO {
	return entryDTO{
		ID:               e.ID,
		TransactionRef:   e.TransactionRef,
		UserID:           e.UserID,
		Direction:        string(e.Direction),
		SubType:          string(e.SubType),
		Description:      e.Description,
		Amount:           e.Amount,
		Status:           string(e.Status),
		Details:          e.Details,
		Initiator:        string(e.Initiator),
		SavingsAccountID: e.SavingsAccountID,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

type balanceDTO struct {
	Balance        decimal.Decimal `json:"balance"`
	PendingBalance decimal.Decimal `json:"pending_balance"`
}

type transferRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	SubType     string          `json:"sub_type" validate:"required"`
	Description string          `json:"description" validate:"max=255"`
	Details     json.RawMessage `json:"details"`
}

type adminEntryRequest struct {
	UserID      string          `json:"user_id" validate:"required,uuid"`
	Direction   string          `json:"direction" validate:"required,oneof=credit debit"`
	SubType     string          `json:"sub_type" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"status" validate:"required,oneof=pending successful failed reversed disputed"`
	Description string          `json:"description" validate:"max=255"`
	Details     json.RawMessage `json:"details"`
	CreatedAt   *time.Time      `json:"created_at"`
	Notify      bool            `json:"notify"`
}

type correctionRequest struct {
	Status      *string         `json:"status" validate:"omitempty,oneof=pending successful failed reversed disputed"`
	Description *string         `json:"description" validate:"omitempty,max=255"`
	Details     json.RawMessage `json:"details"`
	CreatedAt   *time.Time      `json:"created_at"`
}

func subTypeErrors(raw string) []FieldError {
	if !domain.SubType(raw).IsValid() {
		return []FieldError{{Field: "sub_type", Message: "unknown transaction type"}}
	}
	return nil
}

func amountErrors(amount decimal.Decimal) []FieldError {
	if !amount.IsPositive() {
		return []FieldError{{Field: "amount", Message: "must be greater than 0"}}
	}
	return nil
}

func (h *TransactionHandler) Balance(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	b, err := h.ledger.Balance(r.Context(), userID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, balanceDTO{Balance: b.Available, PendingBalance: b.WithPending})
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var direction *domain.Direction
	if raw := r.URL.Query().Get("direction"); raw != "" {
		d := domain.Direction(raw)
		if !d.IsValid() {
			RespondValidationError(w, []FieldError{{Field: "direction", Message: "must be one of: credit debit"}})
			return
		}
		direction = &d
	}

	page, err := h.ledger.List(r.Context(), userID, direction, pageFromQuery(r))
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, newPageDTO(page, toEntryDTO))
}

func (h *TransactionHandler) Recent(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	entries, err := h.ledger.Recent(r.Context(), userID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	out := make([]entryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryDTO(e))
	}
	RespondSuccess(w, http.StatusOK, out)
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	entryID, appErr := uuidParam(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	entry, err := h.ledger.GetForUser(r.Context(), userID, entryID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toEntryDTO(*entry))
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req transferRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if fields := append(amountErrors(req.Amount), subTypeErrors(req.SubType)...); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	entry, err := h.ledger.RequestTransfer(r.Context(), ledger.TransferRequest{
		UserID:      userID,
		Amount:      req.Amount,
		SubType:     domain.SubType(req.SubType),
		Description: req.Description,
		Details:     req.Details,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("transfer request rejected", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toEntryDTO(*entry))
}

func (h *TransactionHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	page, err := h.ledger.AdminList(r.Context(), pageFromQuery(r))
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, newPageDTO(page, toEntryDTO))
}

func (h *TransactionHandler) AdminListForUser(w http.ResponseWriter, r *http.Request) {
	userID, appErr := uuidParam(r, "userID")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	page, err := h.ledger.AdminListForUser(r.Context(), userID, pageFromQuery(r))
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, newPageDTO(page, toEntryDTO))
}

func (h *TransactionHandler) AdminCreate(w http.ResponseWriter, r *http.Request) {
	adminID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req adminEntryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if fields := append(amountErrors(req.Amount), subTypeErrors(req.SubType)...); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	entry, err := h.ledger.AdminCreate(r.Context(), adminID, ledger.AdminEntryRequest{
		UserID:      uuid.MustParse(req.UserID),
		Direction:   domain.Direction(req.Direction),
		SubType:     domain.SubType(req.SubType),
		Amount:      req.Amount,
		Status:      domain.EntryStatus(req.Status),
		Description: req.Description,
		Details:     req.Details,
		CreatedAt:   req.CreatedAt,
		Notify:      req.Notify,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toEntryDTO(*entry))
}

func (h *TransactionHandler) AdminCorrect(w http.ResponseWriter, r *http.Request) {
	adminID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	entryID, appErr := uuidParam(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req correctionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	c := ledger.Correction{
		Description: req.Description,
		Details:     req.Details,
		CreatedAt:   req.CreatedAt,
	}
	if req.Status != nil {
		status := domain.EntryStatus(*req.Status)
		c.Status = &status
	}

	entry, err := h.ledger.AdminCorrect(r.Context(), adminID, entryID, c)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toEntryDTO(*entry))
}

func (h *TransactionHandler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	adminID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	entryID, appErr := uuidParam(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	if err := h.ledger.AdminDelete(r.Context(), adminID, entryID); err != nil {
		RespondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
