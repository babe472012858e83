package domain

import (
	"time"

	"github.com/google/uuid"
)

// LearnerSnapshot is the complete authoritative state for one learner: the
// XP/streak aggregate, every vocabulary item's review schedule, today's
// challenge set, and the ledger's dedupe memory. The engine consumes a loaded
// snapshot and produces a new one; it never mutates state in place.
type LearnerSnapshot struct {
	LearnerID uuid.UUID `json:"learner_id"`

	// Version supports optimistic concurrency in the store. Incremented on
	// every durable write.
	Version int64 `json:"version"`

	Progress   LearnerProgress                       `json:"progress"`
	Vocabulary map[uuid.UUID]*VocabularyReviewState  `json:"vocabulary"`
	Challenges *ChallengeDay                         `json:"challenges,omitempty"`

	// LastSequence is the last server sequence assigned for this learner.
	LastSequence int64 `json:"last_sequence"`

	// Applied maps idempotency keys to their applied records.
	Applied map[string]*AppliedRecord `json:"applied"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewLearnerSnapshot provisions a fresh learner at the bottom of the level
// scale with an empty vocabulary set and no challenge day yet.
func NewLearnerSnapshot(learnerID uuid.UUID, catalog *Catalog, now time.Time) *LearnerSnapshot {
	return &LearnerSnapshot{
		LearnerID:  learnerID,
		Progress:   NewLearnerProgress(catalog.Levels, DayOf(now)),
		Vocabulary: make(map[uuid.UUID]*VocabularyReviewState),
		Applied:    make(map[string]*AppliedRecord),
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
	}
}

// Clone returns a deep copy of the snapshot. Applied records are shared:
// once written they are immutable, so only the map itself is copied.
func (s *LearnerSnapshot) Clone() *LearnerSnapshot {
	c := &LearnerSnapshot{
		LearnerID:    s.LearnerID,
		Version:      s.Version,
		Progress:     s.Progress,
		Challenges:   s.Challenges.Clone(),
		LastSequence: s.LastSequence,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}

	c.Vocabulary = make(map[uuid.UUID]*VocabularyReviewState, len(s.Vocabulary))
	for id, state := range s.Vocabulary {
		c.Vocabulary[id] = state.Clone()
	}

	c.Applied = make(map[string]*AppliedRecord, len(s.Applied))
	for key, rec := range s.Applied {
		c.Applied[key] = rec
	}

	return c
}

// ChallengeView returns a copy of the day's challenge instances, safe to hand
// to callers. Nil challenges yield an empty slice.
func (s *LearnerSnapshot) ChallengeView() []*ChallengeInstance {
	if s.Challenges == nil {
		return []*ChallengeInstance{}
	}
	out := make([]*ChallengeInstance, len(s.Challenges.Instances))
	for i, inst := range s.Challenges.Instances {
		out[i] = inst.Clone()
	}
	return out
}
