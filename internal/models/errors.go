package models

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the request workflow wraps exactly one of
// these, so callers can classify failures with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrDomain     = errors.New("domain error")
	ErrConflict   = errors.New("conflict")
)

// KindError is a descriptive error tagged with one of the error kinds.
type KindError struct {
	Kind    error
	Message string
}

func (e *KindError) Error() string { return e.Message }

// Unwrap returns the kind so errors.Is(err, ErrNotFound) and friends work.
func (e *KindError) Unwrap() error { return e.Kind }

// NewValidationError returns a validation error with a formatted message.
func NewValidationError(format string, args ...any) error {
	return &KindError{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// NewDomainError returns a domain rule violation with a formatted message.
func NewDomainError(format string, args ...any) error {
	return &KindError{Kind: ErrDomain, Message: fmt.Sprintf(format, args...)}
}

// Sentinel errors for entity lookups.
var (
	ErrRequestNotFound   error = &KindError{Kind: ErrNotFound, Message: "request not found"}
	ErrEquipmentNotFound error = &KindError{Kind: ErrNotFound, Message: "equipment not found"}
	ErrPlanNotFound      error = &KindError{Kind: ErrNotFound, Message: "plan not found"}
	ErrUserNotFound      error = &KindError{Kind: ErrNotFound, Message: "user not found"}
)

// Sentinel errors for the request workflow.
var (
	ErrDuplicateKey     error = &KindError{Kind: ErrConflict, Message: "duplicate key"}
	ErrStatusConflict   error = &KindError{Kind: ErrConflict, Message: "request status changed concurrently"}
	ErrInvalidEquipment error = &KindError{Kind: ErrValidation, Message: "equipment status and plan are inconsistent"}
	ErrNoEquipment      error = &KindError{Kind: ErrDomain, Message: "no equipment associated"}
	ErrNoFieldsToUpdate error = &KindError{Kind: ErrValidation, Message: "no fields to update"}
)

// ErrFieldTooLong returns an error indicating a field exceeds its maximum length.
func ErrFieldTooLong(field string, maxLen int) error {
	return NewValidationError("%s exceeds maximum length of %d", field, maxLen)
}
