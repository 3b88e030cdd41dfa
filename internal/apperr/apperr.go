// Package apperr holds the error kinds that stores return across their public
// boundary. Unknown ids are never errors: mutations on them are no-ops and
// lookups report absence. Read-only operations log storage failures and
// return empty results. Mutating operations return a ValidationError for bad
// input and a wrapped storage error when the backend cannot be read or
// written, since writing over unread state could destroy data. HTTP handlers
// map the first to 400 and the second to 500.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError reports input the caller must correct. Store state is not
// mutated when one is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid returns a ValidationError for field.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// AsValidation extracts the ValidationError from err.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
