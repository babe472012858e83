// Package srs implements the spaced-repetition scheduling algorithm, an SM-2
// variant driven by recall quality scores in [0, 5]. All calculations are pure
// functions over immutable copies of review state.
package srs

import "github.com/muselang/progression-api/internal/domain"

// Quality score boundaries. Scores below PassingQuality count as failed recall.
const (
	MinQuality     = 0
	MaxQuality     = 5
	PassingQuality = 3
)

// Params defines all configurable parameters for the SRS algorithm.
type Params struct {
	// Ease factor limits.
	MinEaseFactor float64
	MaxEaseFactor float64

	// FirstInterval is the interval after the first successful repetition.
	FirstInterval int

	// SecondInterval is the interval after the second successful repetition
	// when the previous interval was FirstInterval.
	SecondInterval int

	// FailureInterval is the interval assigned when recall fails.
	FailureInterval int

	// MaxIntervalDays caps interval growth.
	MaxIntervalDays int
}

// NewDefaultParams creates a Params instance with the standard values.
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor:   domain.MinEaseFactor,
		MaxEaseFactor:   domain.MaxEaseFactor,
		FirstInterval:   1,
		SecondInterval:  6,
		FailureInterval: 1,
		MaxIntervalDays: domain.MaxIntervalDays,
	}
}
