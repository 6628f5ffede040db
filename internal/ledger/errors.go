package ledger

import "errors"

// Domain errors. These are expected business outcomes, not faults: the
// engine maps them to ISO reason codes and returns structured decisions,
// it never aborts the process over them.

var (
	// ErrAccountNotFound: the debit account is absent from the store.
	// Reason code AC04.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInsufficientFunds: balance below the requested amount.
	// Reason code AM04.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAmount: zero or negative transaction amount.
	// Reason code AM12.
	ErrInvalidAmount = errors.New("amount must be > 0")
)

const (
	CodeOK                = "OK"
	CodeAccountNotFound   = "AC04"
	CodeInsufficientFunds = "AM04"
	CodeInvalidAmount     = "AM12"
)
