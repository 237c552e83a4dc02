package recurrence

import (
	"errors"
	"fmt"
)

// ErrExpansionLimit signals that expansion hit its internal candidate cap.
// It is an internal invariant failure, not a user input problem: callers must
// surface it instead of returning a silently truncated result.
var ErrExpansionLimit = errors.New("recurrence expansion candidate limit exceeded")

// ValidationError describes a malformed recurrence request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid recurrence %s: %s", e.Field, e.Reason)
}

func validationErr(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
