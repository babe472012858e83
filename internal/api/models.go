package api

import (
	"encoding/json"
	"time"

	"github.com/muselang/progression-api/internal/domain"
)

// Common request/response structures

// SubmitEventRequest defines the payload for the event submission endpoint.
// The payload field is decoded per event type by the progression engine.
type SubmitEventRequest struct {
	IdempotencyKey  string          `json:"idempotency_key"  validate:"required,max=200"`
	EventType       string          `json:"event_type"       validate:"required,max=64"`
	Payload         json.RawMessage `json:"payload,omitempty"`
	ClientTimestamp time.Time       `json:"client_timestamp,omitempty"`
}

// StreakResponse represents a learner's consecutive-day streak.
type StreakResponse struct {
	Current      int    `json:"current"`
	Longest      int    `json:"longest"`
	LastStudyDay string `json:"last_study_day,omitempty"`
}

// DailyProgressResponse represents today's activity counters.
type DailyProgressResponse struct {
	Day                string `json:"day"`
	XPEarnedToday      int    `json:"xp_earned_today"`
	StudyMinutesToday  int    `json:"study_minutes_today"`
	ItemsReviewedToday int    `json:"items_reviewed_today"`
}

// ProgressResponse represents a learner's level, XP, and streak standing.
type ProgressResponse struct {
	TotalXP        int                   `json:"total_xp"`
	CurrentLevel   string                `json:"current_level"`
	LevelProgress  float64               `json:"level_progress"`
	XPForNextLevel int                   `json:"xp_for_next_level"`
	Streak         StreakResponse        `json:"streak"`
	DailyProgress  DailyProgressResponse `json:"daily_progress"`
}

// ChallengeResponse represents one daily challenge instance.
type ChallengeResponse struct {
	ChallengeID string     `json:"challenge_id"`
	Kind        string     `json:"kind"`
	Title       string     `json:"title"`
	Target      int        `json:"target"`
	Current     int        `json:"current"`
	XPReward    int        `json:"xp_reward"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// VocabularyStateResponse represents the review schedule of one vocabulary item.
type VocabularyStateResponse struct {
	ItemID          string  `json:"item_id"`
	EaseFactor      float64 `json:"ease_factor"`
	IntervalDays    int     `json:"interval_days"`
	Repetitions     int     `json:"repetitions"`
	NextReviewDay   string  `json:"next_review_day"`
	LastReviewedDay string  `json:"last_reviewed_day,omitempty"`
	TotalReviews    int     `json:"total_reviews"`
	TimesCorrect    int     `json:"times_correct"`
	TimesIncorrect  int     `json:"times_incorrect"`
}

// EventResultResponse defines the successful response for event submission.
type EventResultResponse struct {
	ServerSequence     int64                    `json:"server_sequence"`
	Duplicate          bool                     `json:"duplicate"`
	Progress           ProgressResponse         `json:"progress"`
	Challenges         []ChallengeResponse      `json:"challenges"`
	AffectedVocabulary *VocabularyStateResponse `json:"affected_vocabulary,omitempty"`
}

// DueItemsResponse defines the response for the due-reviews endpoint. Items
// are ordered most overdue first, lower ease factor breaking ties.
type DueItemsResponse struct {
	AsOfDay string                    `json:"as_of_day"`
	Items   []VocabularyStateResponse `json:"items"`
}

// ChallengesResponse defines the response for the daily challenges endpoint.
type ChallengesResponse struct {
	Day        string              `json:"day"`
	Challenges []ChallengeResponse `json:"challenges"`
}

// progressToResponse converts a domain.LearnerProgress to a ProgressResponse
func progressToResponse(p domain.LearnerProgress) ProgressResponse {
	return ProgressResponse{
		TotalXP:        p.TotalXP,
		CurrentLevel:   string(p.CurrentLevel),
		LevelProgress:  p.LevelProgress,
		XPForNextLevel: p.XPForNextLevel,
		Streak: StreakResponse{
			Current:      p.Streak.Current,
			Longest:      p.Streak.Longest,
			LastStudyDay: string(p.Streak.LastStudyDay),
		},
		DailyProgress: DailyProgressResponse{
			Day:                string(p.DailyProgress.Day),
			XPEarnedToday:      p.DailyProgress.XPEarnedToday,
			StudyMinutesToday:  p.DailyProgress.StudyMinutesToday,
			ItemsReviewedToday: p.DailyProgress.ItemsReviewedToday,
		},
	}
}

// challengesToResponse converts challenge instances to response form
func challengesToResponse(instances []*domain.ChallengeInstance) []ChallengeResponse {
	out := make([]ChallengeResponse, len(instances))
	for i, c := range instances {
		out[i] = ChallengeResponse{
			ChallengeID: c.ChallengeID,
			Kind:        string(c.Kind),
			Title:       c.Title,
			Target:      c.Target,
			Current:     c.Current,
			XPReward:    c.XPReward,
			CompletedAt: c.CompletedAt,
		}
	}
	return out
}

// vocabularyToResponse converts a review state to response form
func vocabularyToResponse(v *domain.VocabularyReviewState) VocabularyStateResponse {
	return VocabularyStateResponse{
		ItemID:          v.ItemID.String(),
		EaseFactor:      v.EaseFactor,
		IntervalDays:    v.IntervalDays,
		Repetitions:     v.Repetitions,
		NextReviewDay:   string(v.NextReviewDay),
		LastReviewedDay: string(v.LastReviewedDay),
		TotalReviews:    v.TotalReviews,
		TimesCorrect:    v.TimesCorrect,
		TimesIncorrect:  v.TimesIncorrect,
	}
}

// resultToResponse converts a domain.AppliedResult to an EventResultResponse
func resultToResponse(result *domain.AppliedResult) EventResultResponse {
	resp := EventResultResponse{
		ServerSequence: result.ServerSequence,
		Duplicate:      result.Duplicate,
		Progress:       progressToResponse(result.Progress),
		Challenges:     challengesToResponse(result.Challenges),
	}
	if result.AffectedVocabulary != nil {
		v := vocabularyToResponse(result.AffectedVocabulary)
		resp.AffectedVocabulary = &v
	}
	return resp
}
