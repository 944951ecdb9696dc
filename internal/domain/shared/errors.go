package shared

import (
	"errors"
)

// Ledger error taxonomy
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotAllowed        = errors.New("operation not allowed")
	ErrInvalidAmount     = errors.New("amount must be positive with at most two decimal places")
)

// PersistenceError reports a storage failure inside a ledger operation.
// The atomic unit has been rolled back when this is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return "persistence failure during " + e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// LockTimeoutError is returned when the wallet row lock could not be obtained in time
type LockTimeoutError struct {
	Owner EntityRef
}

func (e LockTimeoutError) Error() string {
	return "timed out waiting for wallet lock: " + e.Owner.String()
}

// Retryable marks the error as safe to retry
func (e LockTimeoutError) Retryable() bool {
	return true
}

// Is matches any LockTimeoutError when the target owner is empty
func (e LockTimeoutError) Is(target error) bool {
	t, ok := target.(LockTimeoutError)
	if !ok {
		return false
	}
	if t.Owner.IsZero() {
		return true
	}
	return e.Owner.Equal(t.Owner)
}

// IsRetryable reports whether err carries a retryable marker
func IsRetryable(err error) bool {
	var r interface{ Retryable() bool }
	return errors.As(err, &r) && r.Retryable()
}
