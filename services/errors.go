package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("booking dates conflict with an existing booking")
	ErrInvalidTransition = errors.New("booking status transition not allowed")
)

// ValidationError rejects malformed input before any database work happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// PartialFetchError records a merge source that failed during a thread load.
// It is logged and skipped, never returned to the caller as a failure.
type PartialFetchError struct {
	ConversationID uuid.UUID
	Err            error
}

func (e *PartialFetchError) Error() string {
	return fmt.Sprintf("conversation %s could not be fetched: %v", e.ConversationID, e.Err)
}

func (e *PartialFetchError) Unwrap() error {
	return e.Err
}
