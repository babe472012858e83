package srs

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muselang/progression-api/internal/domain"
)

const today = domain.Day("2026-03-10")

func newItem() *domain.VocabularyReviewState {
	return domain.NewVocabularyReviewState(uuid.New(), today)
}

func TestValidQuality(t *testing.T) {
	for q := MinQuality; q <= MaxQuality; q++ {
		assert.True(t, ValidQuality(q), "quality %d", q)
	}
	assert.False(t, ValidQuality(-1))
	assert.False(t, ValidQuality(6))
}

func TestReviewFirstSuccess(t *testing.T) {
	params := NewDefaultParams()
	state := newItem()

	next := Review(state, 5, today, params)

	assert.Equal(t, 1, next.Repetitions)
	assert.Equal(t, 1, next.IntervalDays)
	assert.Equal(t, domain.Day("2026-03-11"), next.NextReviewDay)
	assert.Equal(t, today, next.LastReviewedDay)
	assert.Equal(t, 1, next.TotalReviews)
	assert.Equal(t, 1, next.TimesCorrect)
	// q=5 would raise ease to 2.6; the ceiling holds it at 2.5.
	assert.InDelta(t, 2.5, next.EaseFactor, 1e-9)
}

func TestReviewSecondSuccessJumpsToSixDays(t *testing.T) {
	params := NewDefaultParams()
	state := newItem()

	state = Review(state, 5, today, params)
	next := Review(state, 5, today.AddDays(1), params)

	assert.Equal(t, 2, next.Repetitions)
	assert.Equal(t, 6, next.IntervalDays)
	assert.Equal(t, domain.Day("2026-03-17"), next.NextReviewDay)
}

func TestReviewThirdSuccessMultipliesByEase(t *testing.T) {
	params := NewDefaultParams()
	state := newItem()

	state = Review(state, 5, today, params)
	state = Review(state, 5, today.AddDays(1), params)
	// q=4 leaves a maxed ease factor unchanged: 2.5 + (0.1 - 0.10) = 2.5.
	next := Review(state, 4, today.AddDays(7), params)

	assert.Equal(t, 3, next.Repetitions)
	assert.InDelta(t, 2.5, next.EaseFactor, 1e-9)
	assert.Equal(t, 15, next.IntervalDays, "round(6 * 2.5)")
}

func TestReviewFailureResets(t *testing.T) {
	params := NewDefaultParams()
	state := newItem()

	state = Review(state, 5, today, params)
	state = Review(state, 5, today.AddDays(1), params)
	easeBefore := state.EaseFactor

	next := Review(state, 2, today.AddDays(7), params)

	assert.Equal(t, 0, next.Repetitions)
	assert.Equal(t, 1, next.IntervalDays)
	assert.Equal(t, domain.Day("2026-03-18"), next.NextReviewDay)
	assert.InDelta(t, easeBefore, next.EaseFactor, 1e-9, "failure leaves ease untouched")
	assert.Equal(t, 1, next.TimesIncorrect)
	assert.Equal(t, 3, next.TotalReviews)
}

func TestReviewQualityThreeIsPassing(t *testing.T) {
	params := NewDefaultParams()
	state := newItem()

	next := Review(state, 3, today, params)

	assert.Equal(t, 1, next.Repetitions)
	assert.Equal(t, 1, next.TimesCorrect)
	// q=3 lowers ease by 0.14.
	assert.InDelta(t, 2.36, next.EaseFactor, 1e-9)
}

func TestReviewEaseFactorFloor(t *testing.T) {
	params := NewDefaultParams()
	state := newItem()

	// Repeated barely-passing reviews drop ease by 0.14 each until the floor.
	day := today
	for i := 0; i < 20; i++ {
		state = Review(state, 3, day, params)
		day = day.AddDays(1)
	}

	assert.InDelta(t, params.MinEaseFactor, state.EaseFactor, 1e-9)
	assert.GreaterOrEqual(t, state.IntervalDays, 1)
}

func TestReviewIntervalCap(t *testing.T) {
	params := NewDefaultParams()
	state := newItem()
	state.Repetitions = 10
	state.IntervalDays = 300
	state.EaseFactor = 2.5

	next := Review(state, 5, today, params)

	assert.Equal(t, params.MaxIntervalDays, next.IntervalDays)
	assert.Equal(t, today.AddDays(params.MaxIntervalDays), next.NextReviewDay)
}

func TestReviewDoesNotModifyInput(t *testing.T) {
	params := NewDefaultParams()
	state := newItem()
	before := state.Clone()

	_ = Review(state, 5, today, params)
	require.Equal(t, before, state)

	_ = Review(state, 1, today, params)
	require.Equal(t, before, state)
}

func TestReviewAfterLapseRebuildsFromOne(t *testing.T) {
	params := NewDefaultParams()
	state := newItem()

	state = Review(state, 5, today, params)
	state = Review(state, 5, today.AddDays(1), params)
	state = Review(state, 0, today.AddDays(7), params) // lapse

	next := Review(state, 5, today.AddDays(8), params)

	assert.Equal(t, 1, next.Repetitions)
	// At a 1-day interval but not the second repetition: the interval grows
	// by the ease multiplier, not the 6-day jump.
	assert.Equal(t, int(3), next.IntervalDays, "round(1 * 2.5)")
}
