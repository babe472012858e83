package progression

import (
	"fmt"
	"time"

	"github.com/muselang/progression-api/internal/domain"
)

// rollChallengeDay replaces the challenge set when the day has advanced.
// The previous day's set is frozen by replacement: it can never be mutated
// again once the day rolls over.
func rollChallengeDay(snap *domain.LearnerSnapshot, catalog *domain.Catalog, today domain.Day) {
	if snap.Challenges != nil && snap.Challenges.Day == today {
		return
	}
	snap.Challenges = catalog.NewChallengeDay(today)
}

// progressChallenge increments one challenge instance, capped at its target.
// On the transition into completion it emits the instance's reward; when the
// whole set completes it additionally emits the one-time daily bonus.
func progressChallenge(
	snap *domain.LearnerSnapshot,
	catalog *domain.Catalog,
	challengeID string,
	increment int,
	now time.Time,
) ([]effect, error) {
	inst := snap.Challenges.Instance(challengeID)
	if inst == nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownChallenge, challengeID)
	}
	return advanceInstance(snap, catalog, inst, increment, now), nil
}

// progressChallengeKind increments every instance of the given kind. Used by
// the event ledger to count vocabulary reviews against the review challenge.
func progressChallengeKind(
	snap *domain.LearnerSnapshot,
	catalog *domain.Catalog,
	kind domain.ChallengeKind,
	increment int,
	now time.Time,
) []effect {
	var effects []effect
	for _, inst := range snap.Challenges.Instances {
		if inst.Kind != kind {
			continue
		}
		effects = append(effects, advanceInstance(snap, catalog, inst, increment, now)...)
	}
	return effects
}

// advanceInstance applies the increment and collects reward effects.
// Completion is idempotent on CompletedAt already being set; the daily bonus
// is guarded by the per-day BonusGranted flag.
func advanceInstance(
	snap *domain.LearnerSnapshot,
	catalog *domain.Catalog,
	inst *domain.ChallengeInstance,
	increment int,
	now time.Time,
) []effect {
	day := snap.Challenges.Day

	inst.Current += increment
	if inst.Current > inst.Target {
		inst.Current = inst.Target
	}

	if inst.Current < inst.Target || inst.Complete() {
		return nil
	}

	completedAt := now.UTC()
	inst.CompletedAt = &completedAt

	effects := []effect{{
		key:    challengeRewardKey(day, inst.ChallengeID),
		amount: inst.XPReward,
		reason: "challenge:" + inst.ChallengeID,
	}}

	if snap.Challenges.AllComplete() && !snap.Challenges.BonusGranted {
		snap.Challenges.BonusGranted = true
		effects = append(effects, effect{
			key:    dailyBonusKey(day),
			amount: catalog.DailyBonusXP,
			reason: "daily_bonus",
		})
	}

	return effects
}
