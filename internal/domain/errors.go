package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("already exists")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInsufficientSavings = errors.New("amount exceeds saved amount")
	ErrSavingsLocked       = errors.New("savings account not yet accessible")
	ErrSavingsNotEmpty     = errors.New("savings account still holds funds")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrVersionConflict     = errors.New("optimistic lock conflict")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrForbidden           = errors.New("forbidden")
	ErrUserSuspended       = errors.New("user suspended")
	ErrPriceUnavailable    = errors.New("price data unavailable")
)
