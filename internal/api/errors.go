package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/muselang/progression-api/internal/domain"
	"github.com/muselang/progression-api/internal/service"
	"github.com/muselang/progression-api/internal/service/auth"
	"github.com/muselang/progression-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, service.ErrUnknownLearner),
		errors.Is(err, store.ErrLearnerNotFound):
		return http.StatusNotFound

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Transient persistence failures: nothing was applied, the client may
	// retry with the same idempotency key.
	case errors.Is(err, service.ErrPersistence),
		errors.Is(err, store.ErrVersionConflict),
		errors.Is(err, store.ErrTransactionFailed):
		return http.StatusServiceUnavailable

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	// Not found errors
	case errors.Is(err, service.ErrUnknownLearner),
		errors.Is(err, store.ErrLearnerNotFound):
		return "Learner not found"

	// Bad request errors: the validation sentinels carry no internals, so
	// naming the failed rule is safe and useful to the client.
	case errors.Is(err, domain.ErrInvalidQualityScore):
		return "Quality score must be between 0 and 5"

	case errors.Is(err, domain.ErrUnknownEventType):
		return "Unknown event type"

	case errors.Is(err, domain.ErrUnknownChallenge):
		return "Unknown challenge"

	case errors.Is(err, domain.ErrEmptyIdempotencyKey):
		return "Idempotency key is required"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid event data"

	// Transient persistence failures
	case errors.Is(err, service.ErrPersistence),
		errors.Is(err, store.ErrVersionConflict),
		errors.Is(err, store.ErrTransactionFailed):
		return "Temporarily unable to save progress, please retry"

	// Default case for unknown errors
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example format: "Key: 'SubmitEventRequest.EventType' Error:Field
	// validation for 'EventType' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "gt", "gte":
		return "value too small"
	default:
		return "validation failed"
	}
}
