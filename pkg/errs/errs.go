// Package errs defines the error taxonomy shared by the tokengate components.
package errs

import (
	"errors"
	"fmt"
)

// Error types
const (
	// ErrAuth is returned for bad admin credentials, invalid or expired
	// sessions, invalid proxy capability tokens, and expired access tokens
	ErrAuth = "auth"

	// ErrNameConflict is returned when an application name is already taken
	ErrNameConflict = "name_conflict"

	// ErrNotFound is returned when an application or other record is absent
	ErrNotFound = "not_found"

	// ErrInvalidRequest is returned when a request is missing required fields
	ErrInvalidRequest = "invalid_request"

	// ErrInvalidState is returned when an OAuth callback references an
	// unknown, expired, or already-consumed state value
	ErrInvalidState = "invalid_state"

	// ErrUpstream is returned when a token exchange or proxied call against
	// the third-party service fails
	ErrUpstream = "upstream"

	// ErrStore is returned when the credential store is unreachable or
	// misbehaving; callers may retry
	ErrStore = "store"
)

// Error represents an error in the application
type Error struct {
	// Type is the error type
	Type string

	// Message is the error message
	Message string

	// Cause is the underlying error
	Cause error
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new error
func NewError(errorType, message string, cause error) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// NewAuthError creates a new authentication error
func NewAuthError(message string, cause error) *Error {
	return NewError(ErrAuth, message, cause)
}

// NewNameConflictError creates a new name conflict error
func NewNameConflictError(message string, cause error) *Error {
	return NewError(ErrNameConflict, message, cause)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, cause error) *Error {
	return NewError(ErrNotFound, message, cause)
}

// NewInvalidRequestError creates a new invalid request error
func NewInvalidRequestError(message string, cause error) *Error {
	return NewError(ErrInvalidRequest, message, cause)
}

// NewInvalidStateError creates a new invalid state error
func NewInvalidStateError(message string, cause error) *Error {
	return NewError(ErrInvalidState, message, cause)
}

// NewUpstreamError creates a new upstream error
func NewUpstreamError(message string, cause error) *Error {
	return NewError(ErrUpstream, message, cause)
}

// NewStoreError creates a new store error
func NewStoreError(message string, cause error) *Error {
	return NewError(ErrStore, message, cause)
}

func isType(err error, errorType string) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == errorType
}

// IsAuth checks if the error is an authentication error
func IsAuth(err error) bool {
	return isType(err, ErrAuth)
}

// IsNameConflict checks if the error is a name conflict error
func IsNameConflict(err error) bool {
	return isType(err, ErrNameConflict)
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return isType(err, ErrNotFound)
}

// IsInvalidRequest checks if the error is an invalid request error
func IsInvalidRequest(err error) bool {
	return isType(err, ErrInvalidRequest)
}

// IsInvalidState checks if the error is an invalid state error
func IsInvalidState(err error) bool {
	return isType(err, ErrInvalidState)
}

// IsUpstream checks if the error is an upstream error
func IsUpstream(err error) bool {
	return isType(err, ErrUpstream)
}

// IsStore checks if the error is a store error
func IsStore(err error) bool {
	return isType(err, ErrStore)
}
