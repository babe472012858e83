package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType identifies the kind of progression event.
type EventType string

// Event types accepted by the engine. XPEarned is both a client-submitted
// event and an internally emitted effect (challenge rewards and the daily
// bonus are fed back through the ledger as XPEarned events).
const (
	EventLearnerProvisioned  EventType = "learner_provisioned"
	EventItemReviewed        EventType = "item_reviewed"
	EventStudySessionEnded   EventType = "study_session_ended"
	EventChallengeProgressed EventType = "challenge_progressed"
	EventXPEarned            EventType = "xp_earned"
)

// Valid reports whether t is a recognized event type.
func (t EventType) Valid() bool {
	switch t {
	case EventLearnerProvisioned, EventItemReviewed, EventStudySessionEnded,
		EventChallengeProgressed, EventXPEarned:
		return true
	default:
		return false
	}
}

// ProgressionEvent is a client-submitted progression event. The idempotency
// key is an opaque client-chosen token: resubmitting an event with the same
// key is a no-op that returns the previously computed result.
//
// ClientTimestamp is informational only. Ordering is by server sequence,
// assigned at first-seen acceptance; client clocks are untrusted.
type ProgressionEvent struct {
	IdempotencyKey  string          `json:"idempotency_key"`
	LearnerID       uuid.UUID       `json:"learner_id"`
	Type            EventType       `json:"type"`
	Payload         json.RawMessage `json:"payload,omitempty"`
	ClientTimestamp time.Time       `json:"client_timestamp"`
}

// NewProgressionEvent builds an event with a marshalled payload.
func NewProgressionEvent(
	learnerID uuid.UUID,
	idempotencyKey string,
	eventType EventType,
	payload any,
	clientTimestamp time.Time,
) (*ProgressionEvent, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return &ProgressionEvent{
		IdempotencyKey:  idempotencyKey,
		LearnerID:       learnerID,
		Type:            eventType,
		Payload:         raw,
		ClientTimestamp: clientTimestamp,
	}, nil
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *ProgressionEvent) UnmarshalPayload(v any) error {
	if len(e.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(e.Payload, v)
}

// ItemReviewedPayload reports one recall attempt against a vocabulary item.
type ItemReviewedPayload struct {
	ItemID       uuid.UUID `json:"item_id"`
	QualityScore int       `json:"quality_score"` // in [0, 5]
}

// StudySessionEndedPayload reports a finished study session.
type StudySessionEndedPayload struct {
	DurationMinutes int `json:"duration_minutes"`
}

// ChallengeProgressedPayload reports progress against a daily challenge.
type ChallengeProgressedPayload struct {
	ChallengeID string `json:"challenge_id"`
	Increment   int    `json:"increment"`
}

// XPEarnedPayload awards experience points.
type XPEarnedPayload struct {
	Amount int    `json:"amount"`
	Reason string `json:"reason,omitempty"`
}

// EventRecord is one entry of the append-only applied-event log. Records are
// written atomically together with the snapshot they produced; internally
// emitted effects appear as their own records with their own sequence numbers.
type EventRecord struct {
	LearnerID       uuid.UUID       `json:"learner_id"`
	ServerSequence  int64           `json:"server_sequence"`
	IdempotencyKey  string          `json:"idempotency_key"`
	Type            EventType       `json:"type"`
	Payload         json.RawMessage `json:"payload,omitempty"`
	ClientTimestamp time.Time       `json:"client_timestamp"`
	AppliedAt       time.Time       `json:"applied_at"`
	Effect          bool            `json:"effect"`
}

// AppliedResult is the outcome of one accepted submission, returned to the
// caller and stored so duplicate submissions can replay it verbatim.
type AppliedResult struct {
	ServerSequence int64           `json:"server_sequence"`
	Duplicate      bool            `json:"duplicate"`
	Progress       LearnerProgress `json:"progress"`

	// Challenges is the day's challenge set after the event applied.
	Challenges []*ChallengeInstance `json:"challenges"`

	// AffectedVocabulary is set only for ItemReviewed events.
	AffectedVocabulary *VocabularyReviewState `json:"affected_vocabulary,omitempty"`
}

// AppliedRecord is the ledger's memory of an already-applied idempotency key.
// Records are retained long enough to cover realistic offline-replay windows
// and pruned afterwards.
type AppliedRecord struct {
	ServerSequence int64          `json:"server_sequence"`
	Day            Day            `json:"day"`
	Result         *AppliedResult `json:"result,omitempty"`
}
