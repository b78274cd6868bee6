package capture

import (
	"errors"
	"fmt"
)

// Kind classifies capture errors for API consumers
type Kind string

// Error kinds surfaced to callers
const (
	KindValidation Kind = "ValidationError"
	KindDuplicate  Kind = "DuplicateExternalId"
	KindNotFound   Kind = "NotFound"
	KindInternal   Kind = "InternalError"
)

// Error is a classified capture error. Validation errors carry a per-field
// message map; other kinds carry only a message.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewValidationError creates a validation error with field-level detail
func NewValidationError(fields map[string]string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: "validation failed",
		Fields:  fields,
	}
}

// NewDuplicateError creates a duplicate-external-id error
func NewDuplicateError(externalID string) *Error {
	return &Error{
		Kind:    KindDuplicate,
		Message: fmt.Sprintf("post with external id %s already captured", externalID),
	}
}

// NewNotFoundError creates a not-found error
func NewNotFoundError(externalID string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("no captured post with external id %s", externalID),
	}
}

// NewInternalError wraps an unclassified failure
func NewInternalError(err error) *Error {
	return &Error{
		Kind:    KindInternal,
		Message: err.Error(),
	}
}

// KindOf returns the kind of a capture error, or KindInternal for anything else
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindInternal
}

// AsError converts err to a classified error, wrapping unknown failures as internal
func AsError(err error) *Error {
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	return NewInternalError(err)
}
