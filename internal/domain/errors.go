package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrUnauthorized is returned when an operation is not permitted.
	ErrUnauthorized = errors.New("unauthorized operation")

	// ErrInvalidCompound is returned when compound constants are out of range.
	ErrInvalidCompound = errors.New("invalid compound")

	// ErrUnknownCompoundClass is returned for a hormone family the system does not model.
	ErrUnknownCompoundClass = errors.New("unknown compound class")

	// ErrInvalidRegimen is returned when regimen fields are out of range.
	ErrInvalidRegimen = errors.New("invalid regimen")

	// ErrInvalidBloodTest is returned when a blood test record is malformed.
	ErrInvalidBloodTest = errors.New("invalid blood test")
)

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError creates a ValidationError. When err is nil the error
// wraps ErrValidation so callers can still match on the generic sentinel.
func NewValidationError(field, message string, err error) *ValidationError {
	if err == nil {
		err = ErrValidation
	}
	return &ValidationError{Field: field, Message: message, Err: err}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Unwrap supports errors.Is and errors.As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}
