package utils

import (
	"errors"
	"fmt"
)

var ErrorRecordNotFound = errors.New("record not found")

// Workflow error kinds. Callers classify with errors.Is; handlers translate
// them to transport-level responses.
var (
	// ErrUnauthorized: no verified principal present.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden: verified principal but insufficient role/capability.
	// Deliberately generic, never names the missing capability.
	ErrForbidden = errors.New("permission denied")

	// ErrInvalidTransition: action illegal from the current state,
	// including any attempt on a terminal state.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrConflict: expected-state token did not match the stored state.
	// The caller must re-read current state before retrying.
	ErrConflict = errors.New("already decided elsewhere; refresh and retry")
)

// ValidationError reports a missing or malformed required payload field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func NewValidationError(field string, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// SideEffectError marks a secondary-write failure. It is logged and, because
// every side effect runs inside the transition's transaction, rolls the whole
// transition back rather than leaving a half-applied decision.
type SideEffectError struct {
	Op  string
	Err error
}

func (e *SideEffectError) Error() string {
	return fmt.Sprintf("side effect %s failed: %v", e.Op, e.Err)
}

func (e *SideEffectError) Unwrap() error { return e.Err }

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
