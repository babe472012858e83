package progression

import "github.com/muselang/progression-api/internal/domain"

// applyXP adds the amount to the learner's total and recomputes level and
// level progress from the threshold scale. TotalXP only ever grows.
func applyXP(progress *domain.LearnerProgress, scale []domain.LevelThreshold, amount int) {
	progress.TotalXP += amount
	progress.CurrentLevel, progress.LevelProgress, progress.XPForNextLevel =
		domain.LevelForXP(scale, progress.TotalXP)
}

// recordStudyActivity evaluates the streak for one study-producing event,
// keyed by the server's UTC calendar day.
//
// A gap before yesterday (or no prior study) starts a new streak at 1;
// studying exactly yesterday extends it; a second event on the same day is
// already counted and changes nothing. Longest never decreases.
func recordStudyActivity(progress *domain.LearnerProgress, today domain.Day) {
	streak := &progress.Streak

	switch {
	case streak.LastStudyDay == today:
		// Already counted today, possibly from another device.
		return
	case streak.LastStudyDay == today.AddDays(-1):
		streak.Current++
	default:
		streak.Current = 1
	}

	if streak.Current > streak.Longest {
		streak.Longest = streak.Current
	}
	streak.LastStudyDay = today
}

// rollDailyProgress resets the daily counters when the observed day has
// advanced past the stored one, before any new contribution is applied.
func rollDailyProgress(progress *domain.LearnerProgress, today domain.Day) {
	if progress.DailyProgress.Day == today {
		return
	}
	progress.DailyProgress = domain.DailyProgress{Day: today}
}
