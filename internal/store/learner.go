package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/muselang/progression-api/internal/domain"
)

// LearnerStore persists learner snapshots together with their append-only
// applied-event records.
type LearnerStore interface {
	// LoadLearnerState retrieves the learner's current snapshot.
	// Returns ErrLearnerNotFound if the learner has not been provisioned.
	LoadLearnerState(ctx context.Context, learnerID uuid.UUID) (*domain.LearnerSnapshot, error)

	// SaveLearnerState writes the snapshot and appends the event records in
	// one atomic operation: either everything becomes durable or nothing
	// does. The snapshot's version must match the stored one; on a
	// concurrent modification the write fails with ErrVersionConflict and
	// nothing is persisted.
	SaveLearnerState(
		ctx context.Context,
		snapshot *domain.LearnerSnapshot,
		records []*domain.EventRecord,
	) error
}
