package finance

import (
	"errors"
	"fmt"
)

// Sentinel errors for business-rule violations. Store-level sentinels
// (not found, duplicate) live in the sqlite adapter.
var (
	// ErrInsufficientBalance is returned when an expense would push a
	// card's available balance below zero.
	ErrInsufficientBalance = errors.New("insufficient card balance")

	// ErrInvoiceNotOpen is returned when closing an invoice that is not
	// in the open state. It is the exactly-once guard for closing.
	ErrInvoiceNotOpen = errors.New("invoice is not open")

	// ErrInconsistentState is returned when a multi-step reconciliation
	// could not complete atomically. It must never be swallowed.
	ErrInconsistentState = errors.New("inconsistent state: manual review required")
)

// ValidationError reports a bad input value. It is recovered locally by
// handlers and rendered to the caller; no writes happen after one.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError for a field.
func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// CreditLimitError reports a credit purchase that would exceed the card's
// limit. Shortfall is the amount in cents by which the limit is exceeded.
type CreditLimitError struct {
	Limit       int64
	Outstanding int64
	Amount      int64
}

func (e *CreditLimitError) Error() string {
	return fmt.Sprintf("credit limit exceeded: limit %s, outstanding %s, purchase %s (short %s)",
		FormatAmount(e.Limit), FormatAmount(e.Outstanding), FormatAmount(e.Amount), FormatAmount(e.Shortfall()))
}

// Shortfall returns how many cents over the limit the purchase would land.
func (e *CreditLimitError) Shortfall() int64 {
	return e.Outstanding + e.Amount - e.Limit
}
