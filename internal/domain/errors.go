package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnavailable     = errors.New("storage unavailable")
	ErrProviderFailure = errors.New("provider failure")

	// ErrDuplicateIdentity is a Conflict raised when an external identifier is already registered.
	ErrDuplicateIdentity = fmt.Errorf("%w: duplicate identity", ErrConflict)
	// ErrInvalidAmount is an InvalidInput raised for non-positive amounts.
	ErrInvalidAmount = fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	// ErrNotPending is a Conflict raised when confirming a request that already left pending.
	ErrNotPending = fmt.Errorf("%w: request is not pending", ErrConflict)
	// ErrDuplicatePayment is a Conflict raised when a payment intent was already recorded.
	ErrDuplicatePayment = fmt.Errorf("%w: payment already recorded", ErrConflict)
)

// InvalidInputf builds an ErrInvalidInput carrying a field specific message.
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
