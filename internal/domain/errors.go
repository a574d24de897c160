package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")

	// ErrInvalidGrade is returned when a review quality is outside {1, 3, 5}.
	// It indicates a caller bug; no state is mutated.
	ErrInvalidGrade = errors.New("invalid grade")

	// ErrOutOfOrderReview is returned when a review targets a card that is not
	// at the session cursor. Session state is unchanged.
	ErrOutOfOrderReview = errors.New("out of order review")

	// ErrSessionClosed is returned when review or complete is attempted on a
	// session that has already been completed.
	ErrSessionClosed = errors.New("session closed")

	// ErrConflict is returned when an optimistic-concurrency check fails while
	// persisting card state. The review was not applied; safe to retry after
	// re-fetching.
	ErrConflict = errors.New("concurrent modification")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}
