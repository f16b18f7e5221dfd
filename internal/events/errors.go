package events

import (
	"errors"
	"fmt"
)

// ValidationError represents user-facing validation issues. Returned before any
// write reaches the store, so a rejected call has no side effects.
type ValidationError struct {
	Field string
	msg   string
}

func (e ValidationError) Error() string {
	return e.msg
}

// NewValidationError creates a new validation error for field.
func NewValidationError(field, format string, args ...interface{}) error {
	return ValidationError{Field: field, msg: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

var (
	// ErrEmbeddedNewline is returned by Encode if a serialized record would span lines.
	ErrEmbeddedNewline = errors.New("encoded record contains a line break")

	// ErrInvalidRecord is returned by Encode for records that Decode would reject.
	ErrInvalidRecord = errors.New("record violates the change log schema")
)
