// internal/core/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services and adapters. Handlers map these to
// HTTP status codes; adapters translate storage-level failures into them.
var (
	// ErrInsufficientStock is returned when a decrement would take an item's
	// quantity below zero.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrNotFound is returned when an entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a concurrent modification was detected and
	// the operation should be retried by the caller.
	ErrConflict = errors.New("conflict")
)

// ValidationError describes malformed input on a specific field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a field-level validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
