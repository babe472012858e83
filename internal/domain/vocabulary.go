package domain

import "github.com/google/uuid"

// Default scheduling parameters for a vocabulary item on first exposure.
const (
	InitialEaseFactor = 2.5
	MinEaseFactor     = 1.3
	MaxEaseFactor     = 2.5
	MaxIntervalDays   = 365
)

// VocabularyReviewState tracks a learner's spaced-repetition schedule for a
// single vocabulary item. It is owned by the scheduler and mutated only by
// applying a review-quality event; items are never deleted while they remain
// in the learner's vocabulary set.
type VocabularyReviewState struct {
	ItemID uuid.UUID `json:"item_id"`

	EaseFactor      float64 `json:"ease_factor"`   // in [1.3, 2.5]
	IntervalDays    int     `json:"interval_days"` // capped at 365
	Repetitions     int     `json:"repetitions"`
	NextReviewDay   Day     `json:"next_review_day"`
	LastReviewedDay Day     `json:"last_reviewed_day,omitempty"`

	// Review counters, carried for progress projections.
	TotalReviews   int `json:"total_reviews"`
	TimesCorrect   int `json:"times_correct"`
	TimesIncorrect int `json:"times_incorrect"`
}

// NewVocabularyReviewState creates review state for an item on first
// exposure. The item is due immediately.
func NewVocabularyReviewState(itemID uuid.UUID, today Day) *VocabularyReviewState {
	return &VocabularyReviewState{
		ItemID:        itemID,
		EaseFactor:    InitialEaseFactor,
		IntervalDays:  0,
		Repetitions:   0,
		NextReviewDay: today,
	}
}

// DueOn reports whether the item is due for review as of the given day.
func (s *VocabularyReviewState) DueOn(day Day) bool {
	return !day.Before(s.NextReviewDay)
}

// Clone returns an independent copy of the state.
func (s *VocabularyReviewState) Clone() *VocabularyReviewState {
	c := *s
	return &c
}
