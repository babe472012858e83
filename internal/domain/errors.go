package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a submitted event fails validation.
	// Validation failures are rejected before sequencing and are never
	// recorded in the event log.
	ErrValidation = errors.New("validation failed")

	// ErrUnknownLearner is returned when an event or query references a
	// learner that has not been provisioned.
	ErrUnknownLearner = errors.New("unknown learner")

	// ErrUnknownEventType is returned for event types the engine does not recognize.
	ErrUnknownEventType = errors.New("unknown event type")

	// ErrUnknownChallenge is returned when progress is reported against a
	// challenge ID that is not part of today's challenge set.
	ErrUnknownChallenge = errors.New("unknown challenge")

	// ErrInvalidQualityScore is returned when a review quality score is outside [0, 5].
	ErrInvalidQualityScore = errors.New("quality score must be between 0 and 5")

	// ErrInvalidIncrement is returned when a challenge increment is not positive.
	ErrInvalidIncrement = errors.New("increment must be positive")

	// ErrInvalidXPAmount is returned when an XP amount is not positive.
	ErrInvalidXPAmount = errors.New("xp amount must be positive")

	// ErrInvalidDuration is returned when a study session duration is not positive.
	ErrInvalidDuration = errors.New("duration must be positive")

	// ErrEmptyIdempotencyKey is returned when an event carries no idempotency key.
	ErrEmptyIdempotencyKey = errors.New("idempotency key cannot be empty")

	// ErrEmptyLearnerID is returned when an event carries no learner ID.
	ErrEmptyLearnerID = errors.New("learner ID cannot be empty")

	// ErrEmptyItemID is returned when a review references no vocabulary item.
	ErrEmptyItemID = errors.New("item ID cannot be empty")
)
