package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrNoActor           = errors.New("no authenticated user")
	ErrValidation        = errors.New("validation failed")
	ErrCancelled         = errors.New("transaction is cancelled")
	ErrOverpayment       = errors.New("paid amount exceeds total amount")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrReconcileBusy     = errors.New("reconciliation already running")
)

// ValidationError names the offending field. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalidf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
