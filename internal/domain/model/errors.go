package model

import "errors"

// Closed set of vault errors. Every validation failure aborts the whole
// operation with zero state mutation; nothing is retried internally.
var (
	ErrInvalidAmount          = errors.New("amount must be greater than zero")
	ErrInvalidPeriods         = errors.New("periods must be greater than zero")
	ErrInvalidInterval        = errors.New("interval must be greater than zero")
	ErrUnauthorized           = errors.New("unauthorized access to vault")
	ErrSwapNotDue             = errors.New("swap is not due yet")
	ErrDcaPlanComplete        = errors.New("dca plan is already complete")
	ErrInsufficientBalance    = errors.New("insufficient balance in vault")
	ErrInvalidSliceAmount     = errors.New("invalid slice amount for swap")
	ErrArithmeticOverflow     = errors.New("arithmetic overflow occurred")
	ErrInvalidJupiterAccounts = errors.New("invalid jupiter accounts provided")

	// Lifecycle errors around the one-record-per-owner rule.
	ErrVaultAlreadyExists = errors.New("vault already exists for owner")
	ErrVaultNotFound      = errors.New("no vault found for owner")
)
