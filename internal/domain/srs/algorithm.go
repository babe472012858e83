package srs

import (
	"math"

	"github.com/muselang/progression-api/internal/domain"
)

// ValidQuality reports whether q is a legal recall quality score.
func ValidQuality(q int) bool {
	return q >= MinQuality && q <= MaxQuality
}

// Review applies one recall attempt of the given quality to a vocabulary
// item's review state and returns a new state; the input is never modified.
//
// Failed recall (quality < 3) resets repetitions to zero and schedules the
// item for tomorrow without touching the ease factor. Successful recall grows
// the interval: 1 day after the first success, 6 days after the second when
// the item was at a 1-day interval, and interval × ease factor afterwards.
// The ease factor is adjusted by the SM-2 formula and clamped to
// [MinEaseFactor, MaxEaseFactor]; the interval is clamped to
// [1, MaxIntervalDays].
//
// Reviewing an item before it is due carries no penalty and updates state
// identically.
func Review(
	state *domain.VocabularyReviewState,
	quality int,
	today domain.Day,
	params *Params,
) *domain.VocabularyReviewState {
	next := state.Clone()
	next.TotalReviews++
	next.LastReviewedDay = today

	if quality < PassingQuality {
		next.Repetitions = 0
		next.IntervalDays = params.FailureInterval
		next.TimesIncorrect++
		next.NextReviewDay = today.AddDays(next.IntervalDays)
		return next
	}

	next.TimesCorrect++
	next.Repetitions = state.Repetitions + 1
	next.EaseFactor = adjustEaseFactor(state.EaseFactor, quality, params)

	switch {
	case state.IntervalDays == 0:
		next.IntervalDays = params.FirstInterval
	case state.IntervalDays == params.FirstInterval && next.Repetitions == 2:
		next.IntervalDays = params.SecondInterval
	default:
		next.IntervalDays = int(math.Round(float64(state.IntervalDays) * next.EaseFactor))
	}

	next.IntervalDays = clampInterval(next.IntervalDays, params)
	next.NextReviewDay = today.AddDays(next.IntervalDays)
	return next
}

// adjustEaseFactor applies the SM-2 ease update
// EF' = EF + (0.1 - (5-q)*(0.08 + (5-q)*0.02)), clamped to the configured range.
func adjustEaseFactor(ease float64, quality int, params *Params) float64 {
	diff := float64(MaxQuality - quality)
	ease += 0.1 - diff*(0.08+diff*0.02)

	if ease < params.MinEaseFactor {
		ease = params.MinEaseFactor
	}
	if ease > params.MaxEaseFactor {
		ease = params.MaxEaseFactor
	}
	return ease
}

func clampInterval(days int, params *Params) int {
	if days < 1 {
		return 1
	}
	if days > params.MaxIntervalDays {
		return params.MaxIntervalDays
	}
	return days
}
