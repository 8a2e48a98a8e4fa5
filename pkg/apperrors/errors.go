// Package apperrors defines the error taxonomy shared by services and
// handlers so that failures can be mapped to client-facing status codes
// without string matching.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyTransferred is returned when transfer-to-head is attempted
	// on a complaint that was already transferred. The operation is
	// deliberately not idempotent.
	ErrAlreadyTransferred = errors.New("complaint already transferred to department head")
)

// ValidationError reports missing or malformed caller input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s not found: %s", e.Entity, e.Key)
	}
	return fmt.Sprintf("%s not found", e.Entity)
}

// NewNotFoundError builds a NotFoundError for an entity/key pair.
func NewNotFoundError(entity, key string) *NotFoundError {
	return &NotFoundError{Entity: entity, Key: key}
}

// ImageRejectedError is returned when the image validator rejects the
// uploaded photo. Feedback and SuggestedAction must surface to the citizen
// verbatim so they can correct and resubmit.
type ImageRejectedError struct {
	Feedback        string
	SuggestedAction string
}

func (e *ImageRejectedError) Error() string {
	return fmt.Sprintf("image validation failed: %s", e.Feedback)
}

// PersistenceError wraps a store write failure not attributable to caller
// input.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsImageRejected reports whether err is an ImageRejectedError, returning
// the typed error when it is.
func IsImageRejected(err error) (*ImageRejectedError, bool) {
	var ir *ImageRejectedError
	if errors.As(err, &ir) {
		return ir, true
	}
	return nil, false
}
