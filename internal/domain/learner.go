package domain

// Level is a CEFR proficiency level. It is always derived from total XP via
// the configured threshold scale, never set directly.
type Level string

// CEFR levels in ascending order.
const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
	LevelC2 Level = "C2"
)

// LevelThreshold pairs a level with the minimum total XP required to hold it.
type LevelThreshold struct {
	Level Level `json:"level"`
	MinXP int   `json:"min_xp"`
}

// StreakState tracks consecutive-day study streaks.
// Invariant: Longest >= Current at all times.
type StreakState struct {
	Current      int `json:"current"`
	Longest      int `json:"longest"`
	LastStudyDay Day `json:"last_study_day,omitempty"`
}

// DailyProgress aggregates a single UTC day's activity. Counters reset
// whenever the observed day advances past Day.
type DailyProgress struct {
	Day                Day `json:"day"`
	XPEarnedToday      int `json:"xp_earned_today"`
	StudyMinutesToday  int `json:"study_minutes_today"`
	ItemsReviewedToday int `json:"items_reviewed_today"`
}

// LearnerProgress is the level/XP/streak aggregate for one learner.
// TotalXP is monotonically non-decreasing across any sequence of valid events.
type LearnerProgress struct {
	TotalXP       int     `json:"total_xp"`
	CurrentLevel  Level   `json:"current_level"`
	LevelProgress float64 `json:"level_progress"` // percent in [0, 100)

	// XPForNextLevel is the XP remaining until the next threshold,
	// zero at the top level.
	XPForNextLevel int `json:"xp_for_next_level"`

	Streak        StreakState   `json:"streak"`
	DailyProgress DailyProgress `json:"daily_progress"`
}

// NewLearnerProgress returns the progress aggregate of a freshly provisioned
// learner, placed at the bottom of the given level scale.
func NewLearnerProgress(scale []LevelThreshold, today Day) LearnerProgress {
	p := LearnerProgress{
		DailyProgress: DailyProgress{Day: today},
	}
	p.CurrentLevel, p.LevelProgress, p.XPForNextLevel = LevelForXP(scale, 0)
	return p
}

// LevelForXP resolves totalXP against an ascending threshold scale. It returns
// the highest level whose threshold does not exceed totalXP, the percent
// progress toward the next threshold, and the XP remaining until it.
//
// The top level has no ceiling: its progress is pinned at 0 and the remaining
// XP is 0. This mirrors the product's "no progress bar at C2" behavior.
func LevelForXP(scale []LevelThreshold, totalXP int) (Level, float64, int) {
	if len(scale) == 0 {
		return LevelA1, 0, 0
	}

	idx := 0
	for i, t := range scale {
		if totalXP >= t.MinXP {
			idx = i
		}
	}

	if idx == len(scale)-1 {
		return scale[idx].Level, 0, 0
	}

	cur := scale[idx].MinXP
	next := scale[idx+1].MinXP
	progress := float64(totalXP-cur) / float64(next-cur) * 100
	if progress >= 100 {
		progress = 0 // unreachable for a consistent scale, guard anyway
	}
	return scale[idx].Level, progress, next - totalXP
}
