package domain

import "errors"

// Domain errors returned by ledger operations and mapped to HTTP statuses in
// the API layer
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrCashoutNotFound     = errors.New("cashout request not found")
	ErrSessionNotFound     = errors.New("payment session not found")
	ErrEmailExists         = errors.New("email already registered")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient token balance")
	ErrMinimumNotMet       = errors.New("cashout balance below the $20 minimum")
	ErrExceedsBalance      = errors.New("amount exceeds cashout balance")
	ErrInvalidStatus       = errors.New("invalid cashout status")
	ErrInvalidRole         = errors.New("invalid role")
	ErrUnknownPackage      = errors.New("unknown token package")
	ErrForbidden           = errors.New("operation not permitted for this account")
)
