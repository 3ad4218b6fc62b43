package domain

import "errors"

// Validation errors returned while building or checking a transaction
var (
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidStatus      = errors.New("invalid transaction status")
	ErrNonPositiveAmount  = errors.New("amount must be greater than zero")
	ErrAmountPrecision    = errors.New("amount exceeds 16 integer or 2 decimal digits")
	ErrInvalidCurrency    = errors.New("currency must be a 3-letter ISO code")
	ErrNoAccounts         = errors.New("at least one of from/to account is required")
	ErrSameAccount        = errors.New("from and to account must differ")
	ErrInvalidFraudScore  = errors.New("fraud score must be between 0 and 1 with at most 4 decimals")
	ErrAutomatedByTooLong = errors.New("automated_by exceeds 50 characters")
	ErrProcessedAtState   = errors.New("processed_at does not match status")
)

// Lifecycle errors raised by the state machine and the ledger service
var (
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrReversalRequired   = errors.New("reversed status is only reachable through a reversal")
	ErrReversalOfReversal = errors.New("a reversal record cannot be reversed")
	ErrStaleStatus        = errors.New("transaction status changed concurrently")
)

// Lookup and persistence errors
var (
	ErrDuplicateReference   = errors.New("duplicate transaction reference")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountInactive      = errors.New("account cannot transact")
	ErrInvalidAccountType   = errors.New("invalid account type")
	ErrInvalidAccountStatus = errors.New("invalid account status")
)
