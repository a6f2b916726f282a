package ledger

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by the typed errors below through errors.Is.
var (
	ErrValidation        = errors.New("ledger: validation failed")
	ErrInvalidTransition = errors.New("ledger: invalid transition")
	ErrNotFound          = errors.New("ledger: document not found")
)

// ValidationError reports the first unmet constraint of a command.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ledger: invalid %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) succeed.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// InvalidTransitionError reports a rejected kind conversion or status change.
type InvalidTransitionError struct {
	ID   string
	From string
	To   string
	// Cause is set when the status machine rejected the move.
	Cause error
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("ledger: %s cannot go from %s to %s", e.ID, e.From, e.To)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

func (e *InvalidTransitionError) Unwrap() error { return e.Cause }

// NotFoundError reports an operation on an unknown document id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("ledger: document %q not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
