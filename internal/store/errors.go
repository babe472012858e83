package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity (e.g., an event record with an already-used
	// idempotency key).
	ErrDuplicate = errors.New("entity already exists")

	// ErrVersionConflict is returned when a snapshot write loses an
	// optimistic concurrency race. The caller may reload and retry.
	ErrVersionConflict = errors.New("snapshot version conflict")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrLearnerNotFound indicates that the requested learner has no
	// persisted state.
	ErrLearnerNotFound = fmt.Errorf("%w: learner", ErrNotFound)

	// ErrEventKeyExists indicates that an event record with the same
	// learner and idempotency key is already in the log.
	ErrEventKeyExists = fmt.Errorf("%w: event idempotency key", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRetryableError reports whether the failed write may be retried unchanged
// by the caller. Version conflicts and transaction failures leave no partial
// state behind, so a retry with the same idempotency key is always safe.
func IsRetryableError(err error) bool {
	return errors.Is(err, ErrVersionConflict) || errors.Is(err, ErrTransactionFailed)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "learner_state")
	Operation string // The operation that failed (e.g., "load", "save")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
