// Package service provides the application-level progression service: it
// loads learner snapshots, runs submitted events through the reducer, and
// persists the outcome atomically.
package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check for these with errors.Is(); the API layer maps them to HTTP
// status codes.
var (
	// ErrUnknownLearner indicates an event or query referenced a learner
	// that has never been provisioned. API layer should map this to
	// HTTP 404 Not Found.
	ErrUnknownLearner = errors.New("learner has not been provisioned")

	// ErrPersistence indicates the state write failed after reduction; no
	// state changed and no sequence number was consumed, so the client may
	// safely retry with the same idempotency key. API layer should map this
	// to HTTP 503 Service Unavailable.
	ErrPersistence = errors.New("failed to persist learner state")
)

// ServiceError wraps an underlying error with operation context while
// preserving the error chain for errors.Is/errors.As checks.
type ServiceError struct {
	// Operation is the service operation that failed (e.g., "SubmitEvent").
	Operation string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a ServiceError for the given operation.
func NewServiceError(operation string, err error) *ServiceError {
	return &ServiceError{Operation: operation, Err: err}
}
