package wallet

import "errors"

// Service errors
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrWalletNotActive     = errors.New("wallet is not active")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrLedgerInconsistency is fatal and non-retryable; the wrapped
	// message carries the expected and actual balances for operators.
	ErrLedgerInconsistency = errors.New("ledger inconsistency detected")
)
