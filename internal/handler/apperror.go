package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"}
	ErrForbidden          = &AppError{http.StatusForbidden, "FORBIDDEN", "You are not allowed to perform this action"}
	ErrUserSuspended      = &AppError{http.StatusForbidden, "USER_SUSPENDED", "Your account is not active"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrConflict           = &AppError{http.StatusConflict, "CONFLICT", "Resource already exists"}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInsufficientFunds   = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", "Insufficient Amount, kindly top up your balance to continue."}
	ErrInsufficientSavings = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_SAVINGS", "Insufficient balance. Your withdrawal amount is greater than what's available."}
	ErrSavingsLocked       = &AppError{http.StatusUnprocessableEntity, "SAVINGS_LOCKED", "Withdrawal unavailable. This savings account can't be accessed yet."}
	ErrSavingsNotEmpty     = &AppError{http.StatusUnprocessableEntity, "SAVINGS_NOT_EMPTY", "Kindly withdraw all the available funds before deleting."}
	ErrSavingsNotFound     = &AppError{http.StatusNotFound, "SAVINGS_NOT_FOUND", "We can't find that savings account. It may have been deleted or you don't have access to it."}
	ErrPriceUnavailable    = &AppError{http.StatusBadGateway, "PRICE_UNAVAILABLE", "Coin prices are unavailable right now, please try again shortly"}

	ErrVersionConflict       = &AppError{http.StatusConflict, "VERSION_CONFLICT", "Resource was modified concurrently, please retry"}
	ErrMissingIdempotencyKey = &AppError{http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header is required"}
	ErrIdempotencyConflict   = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
	ErrInvalidAmount         = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
)
