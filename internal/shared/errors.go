package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates malformed, missing or out-of-range input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates the referenced entity is absent or archived.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the actor lacks rights over the entity.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidTransition indicates a status change outside the legal transition set.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrConflict indicates a duplicate acceptance or uniqueness violation.
	ErrConflict = errors.New("conflict")
	// ErrConcurrency indicates lock contention; the caller may retry.
	ErrConcurrency = errors.New("concurrent update, retry")
)

// ValidationErrorf wraps ErrValidation with a formatted detail message.
func ValidationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// TransitionErrorf wraps ErrInvalidTransition with a formatted detail message.
func TransitionErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTransition, fmt.Sprintf(format, args...))
}

// UserSafeMessage returns a message suitable for display to end users.
// Unknown errors collapse to a generic message so internals never leak.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrConcurrency):
		return err.Error()
	default:
		return "an unexpected error occurred"
	}
}
