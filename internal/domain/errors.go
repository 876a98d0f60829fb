// Package domain holds the entities shared by the account and profile
// services together with the error taxonomy every layer maps onto.
package domain

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrConflict              = errors.New("conflict")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrCapacity              = errors.New("capacity exceeded")
	ErrValidation            = errors.New("validation failed")
	ErrDelivery              = errors.New("delivery failed")

	// Login outcomes. Unknown users and wrong passwords share one error.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrEmailNotVerified   = errors.New("email not verified, please check your inbox")
)

// ValidationError describes malformed input for a single field.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ConflictError is returned when a unique attribute is already taken.
type ConflictError struct {
	Field   string
	Message string
}

func NewConflictError(field, message string) *ConflictError {
	return &ConflictError{Field: field, Message: message}
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// CapacityError is returned when a per-user collection is full.
type CapacityError struct {
	Limit int
}

func (e *CapacityError) Error() string {
	return "collection limit reached"
}

func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacity
}
