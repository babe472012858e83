package progression

import (
	"fmt"

	"github.com/muselang/progression-api/internal/domain"
)

// DefaultRetentionDays bounds how long applied idempotency keys are
// remembered. The window must cover realistic offline-replay horizons of
// mobile clients; events older than this can no longer be deduplicated.
const DefaultRetentionDays = 30

// effect is an XP grant emitted by the challenge evaluator and fed back
// through the ledger under a derived idempotency key, so replays of the
// triggering event can never double-grant.
type effect struct {
	key    string
	amount int
	reason string
}

// challengeRewardKey derives the idempotency key for a challenge completion
// reward. Keyed by day and challenge ID: one grant per challenge per day.
func challengeRewardKey(day domain.Day, challengeID string) string {
	return fmt.Sprintf("effect:%s:challenge:%s", day, challengeID)
}

// dailyBonusKey derives the idempotency key for the all-challenges-complete
// bonus of a given day.
func dailyBonusKey(day domain.Day) string {
	return fmt.Sprintf("effect:%s:daily-bonus", day)
}

// pruneApplied drops dedupe records older than the retention window.
// Records are pruned by the server day they were applied on.
func pruneApplied(snap *domain.LearnerSnapshot, today domain.Day, retentionDays int) {
	cutoff := today.AddDays(-retentionDays)
	for key, rec := range snap.Applied {
		if rec.Day.Before(cutoff) {
			delete(snap.Applied, key)
		}
	}
}
