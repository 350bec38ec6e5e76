package domain

import "errors"

var (
	// Account errors
	ErrAccountLocked            = errors.New("account is locked")
	ErrInsufficientFunds        = errors.New("insufficient available funds")
	ErrInsufficientHeldFunds    = errors.New("insufficient held funds")
	ErrNegativeAvailableBalance = errors.New("available balance is negative")
	ErrNegativeHeldBalance      = errors.New("held balance is negative")
	ErrAccountNotFound          = errors.New("account not found")

	// Transaction errors
	ErrInvalidAmount        = errors.New("amount must not be negative")
	ErrMissingAmount        = errors.New("amount is required")
	ErrMalformedAmount      = errors.New("amount must be plain decimal text")
	ErrUnknownKind          = errors.New("unknown transaction type")
	ErrDuplicateTransaction = errors.New("transaction id already used")

	// Dispute errors
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrClientMismatch      = errors.New("transaction belongs to another client")
	ErrInvalidDisputeState = errors.New("transaction is not in a valid state for this operation")
)
