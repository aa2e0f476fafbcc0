// Package apperr defines the error kinds used across the music API.
// These enable programmatic error checking with errors.Is so that only
// the HTTP layer has to decide which status code a failure maps to.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors for the music API.
var (
	// ErrNotFound indicates that no song matched the lookup.
	ErrNotFound = errors.New("not found")

	// ErrAmbiguousTarget indicates that a mutating operation resolved
	// its title to more than one song.
	ErrAmbiguousTarget = errors.New("ambiguous target")

	// ErrInvalidParameter indicates client input out of bounds
	// (title, page, limit).
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidRating indicates a rating outside [0, 5].
	ErrInvalidRating = errors.New("invalid rating")

	// ErrPoolExhausted indicates no pooled connection became available
	// within the configured wait.
	ErrPoolExhausted = errors.New("connection pool exhausted")

	// ErrConnectFailed indicates the database could not be reached at all.
	ErrConnectFailed = errors.New("database connection failed")

	// ErrConnectionLost indicates the underlying connection dropped
	// mid-query.
	ErrConnectionLost = errors.New("database connection lost")

	// ErrQueryFailed indicates malformed SQL or a constraint violation.
	ErrQueryFailed = errors.New("query failed")
)

// ValidationError reports a rejected request parameter.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Is implements errors.Is support.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidParameter
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// QueryError wraps a database failure with the statement context in
// which it occurred.
type QueryError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// IsClientError reports whether err should be blamed on the request
// rather than the infrastructure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidParameter) ||
		errors.Is(err, ErrInvalidRating) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAmbiguousTarget)
}
