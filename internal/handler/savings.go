package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/digital-bank-backend/internal/domain"
	"github.com/josh-kwaku/digital-bank-backend/internal/logging"
	"github.com/josh-kwaku/digital-bank-backend/internal/service/savings"
)

type savingsService interface {
	Create(ctx context.Context, req savings.CreateRequest) (*domain.SavingsAccount, error)
	TopUp(ctx context.Context, userID, savingsID uuid.UUID, amount float64) (*domain.SavingsAccount, error)
	Withdraw(ctx context.Context, userID, savingsID uuid.UUID, amount float64) (*domain.LedgerEntry, error)
	Delete(ctx context.Context, userID, savingsID uuid.UUID) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.SavingsAccount, error)
	GetForUser(ctx context.Context, userID, savingsID uuid.UUID) (*domain.SavingsAccount, error)
	AdminList(ctx context.Context, page domain.Page) (domain.Paginated[domain.SavingsAccount], error)
	AdminListForUser(ctx context.Context, userID uuid.UUID) ([]domain.SavingsAccount, error)
	AdminDelete(ctx context.Context, adminID, savingsID uuid.UUID) error
}

type SavingsHandler struct {
	savings savingsService
}

func NewSavingsHandler(s savingsService) *SavingsHandler {
	return &SavingsHandler{savings: s}
}

type createSavingsRequest struct {
	Title        string     `json:"title" validate:"required,max=120"`
	TargetAmount *float64   `json:"target_amount" validate:"omitempty,gte=1"`
	SavedAmount  int64      `json:"saved_amount" validate:"required,gte=1"`
	InterestRate *float64   `json:"interest_rate" validate:"omitempty,gt=0,lte=100"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
}

func (r createSavingsRequest) endDateErrors() []FieldError {
	if r.EndDate == nil {
		return nil
	}
	start := time.Now().UTC()
	if r.StartDate != nil {
		start = *r.StartDate
	}
	if !r.EndDate.After(start) {
		return []FieldError{{Field: "end_date", Message: "must be after start_date"}}
	}
	return nil
}

type amountRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

type savingsDTO struct {
	ID                   uuid.UUID  `json:"id"`
	UserID               uuid.UUID  `json:"user_id"`
	Title                string     `json:"title"`
	TargetAmount         *float64   `json:"target_amount"`
	SavedAmount          float64    `json:"saved_amount"`
	InterestRate         float64    `json:"interest_rate"`
	StartDate            time.Time  `json:"start_date"`
	EndDate              *time.Time `json:"end_date"`
	TotalInterestAccrued float64    `json:"total_interest_accrued"`
	LastInterestDate     time.Time  `json:"last_interest_date"`
	Status               string     `json:"status"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func toSavingsDTO(s domain.SavingsAccount) savingsDTO {
	return savingsDTO{
		ID:                   s.ID,
		UserID:               s.UserID,
		Title:                s.Title,
		TargetAmount:         s.TargetAmount,
		SavedAmount:          s.SavedAmount,
		InterestRate:         s.InterestRate,
		StartDate:            s.StartDate,
		EndDate:              s.EndDate,
		TotalInterestAccrued: s.TotalInterestAccrued,
		LastInterestDate:     s.LastInterestDate,
		Status:               string(s.Status),
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}
}

func toSavingsDTOs(accounts []domain.SavingsAccount) []savingsDTO {
	out := make([]savingsDTO, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toSavingsDTO(a))
	}
	return out
}

type savingsResult struct {
	Message string     `json:"message"`
	Savings savingsDTO `json:"savings"`
}

type withdrawalResult struct {
	Message     string   `json:"message"`
	Transaction entryDTO `json:"transaction"`
}

func (h *SavingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req createSavingsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if fields := req.endDateErrors(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	create := savings.CreateRequest{
		UserID:       userID,
		Title:        req.Title,
		TargetAmount: req.TargetAmount,
		SavedAmount:  float64(req.SavedAmount),
		EndDate:      req.EndDate,
	}
	if req.InterestRate != nil {
		create.InterestRate = *req.InterestRate
	}
	if req.StartDate != nil {
		create.StartDate = req.StartDate.UTC()
	}

	acct, err := h.savings.Create(r.Context(), create)
	if err != nil {
		logging.FromContext(r.Context()).Warn("savings creation rejected", "error", err)
		respondSavingsError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, savingsResult{
		Message: "Your savings was initiated successfully",
		Savings: toSavingsDTO(*acct),
	})
}

func (h *SavingsHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	userID, savingsID, ok := h.ids(w, r)
	if !ok {
		return
	}

	var req amountRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	acct, err := h.savings.TopUp(r.Context(), userID, savingsID, req.Amount)
	if err != nil {
		logging.FromContext(r.Context()).Warn("savings top-up rejected", "savings_id", savingsID, "error", err)
		respondSavingsError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, savingsResult{
		Message: "The savings amount was topped successfully.",
		Savings: toSavingsDTO(*acct),
	})
}

func (h *SavingsHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, savingsID, ok := h.ids(w, r)
	if !ok {
		return
	}

	var req amountRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	entry, err := h.savings.Withdraw(r.Context(), userID, savingsID, req.Amount)
	if err != nil {
		logging.FromContext(r.Context()).Warn("savings withdrawal rejected", "savings_id", savingsID, "error", err)
		respondSavingsError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, withdrawalResult{
		Message:     "Withdrawal complete. Your funds are on the way.",
		Transaction: toEntryDTO(*entry),
	})
}

func (h *SavingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, savingsID, ok := h.ids(w, r)
	if !ok {
		return
	}

	if err := h.savings.Delete(r.Context(), userID, savingsID); err != nil {
		respondSavingsError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SavingsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	accounts, err := h.savings.ListForUser(r.Context(), userID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toSavingsDTOs(accounts))
}

func (h *SavingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, savingsID, ok := h.ids(w, r)
	if !ok {
		return
	}

	acct, err := h.savings.GetForUser(r.Context(), userID, savingsID)
	if err != nil {
		respondSavingsError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toSavingsDTO(*acct))
}

func (h *SavingsHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	page, err := h.savings.AdminList(r.Context(), pageFromQuery(r))
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, newPageDTO(page, toSavingsDTO))
}

func (h *SavingsHandler) AdminListForUser(w http.ResponseWriter, r *http.Request) {
	userID, appErr := uuidParam(r, "userID")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	accounts, err := h.savings.AdminListForUser(r.Context(), userID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toSavingsDTOs(accounts))
}

func (h *SavingsHandler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	adminID, savingsID, ok := h.ids(w, r)
	if !ok {
		return
	}

	if err := h.savings.AdminDelete(r.Context(), adminID, savingsID); err != nil {
		respondSavingsError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SavingsHandler) ids(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return uuid.Nil, uuid.Nil, false
	}
	savingsID, appErr := uuidParam(r, "id")
	if appErr != nil {
		RespondAppError(w, ErrSavingsNotFound, nil)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, savingsID, true
}
