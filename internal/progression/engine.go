package progression

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/muselang/progression-api/internal/domain"
	"github.com/muselang/progression-api/internal/domain/srs"
)

// Engine is the progression reducer. It is stateless and safe for concurrent
// use; all learner state travels in and out through snapshots.
type Engine struct {
	catalog       *domain.Catalog
	params        *srs.Params
	retentionDays int
	logger        *slog.Logger
}

// NewEngine creates an engine evaluating against the given catalog.
// A nil srs params uses the defaults; retentionDays <= 0 uses
// DefaultRetentionDays.
func NewEngine(
	catalog *domain.Catalog,
	params *srs.Params,
	retentionDays int,
	logger *slog.Logger,
) *Engine {
	if catalog == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("catalog cannot be nil")
	}
	if params == nil {
		params = srs.NewDefaultParams()
	}
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		catalog:       catalog,
		params:        params,
		retentionDays: retentionDays,
		logger:        logger.With(slog.String("component", "progression_engine")),
	}
}

// Reduction is the outcome of applying one submission: the successor
// snapshot, the result for the caller, and the event records (the submitted
// event plus any emitted effects) to append to the durable log.
//
// For a duplicate submission only Result is set, carrying the previously
// computed outcome; there is nothing new to persist.
type Reduction struct {
	Snapshot *domain.LearnerSnapshot
	Result   *domain.AppliedResult
	Records  []*domain.EventRecord
}

// Duplicate reports whether the reduction replayed a stored result.
func (r *Reduction) Duplicate() bool {
	return r.Snapshot == nil
}

// Reduce applies one submitted event to the learner's snapshot and returns
// the successor state. The input snapshot is never modified: on any error the
// caller's state is untouched and no sequence number is consumed.
//
// Dispatch order per event is fixed: the scheduler first, then the streak &
// XP ledger, then the challenge evaluator, then emitted XP effects. Only
// ItemReviewed touches both the scheduler and a challenge counter.
func (e *Engine) Reduce(
	snap *domain.LearnerSnapshot,
	event *domain.ProgressionEvent,
	now time.Time,
) (*Reduction, error) {
	payload, err := e.decodeAndValidate(event)
	if err != nil {
		return nil, err
	}

	if rec, ok := snap.Applied[event.IdempotencyKey]; ok {
		e.logger.Debug("duplicate event replayed",
			slog.String("learner_id", snap.LearnerID.String()),
			slog.String("idempotency_key", event.IdempotencyKey),
			slog.Int64("server_sequence", rec.ServerSequence))
		return &Reduction{Result: e.replayResult(snap, rec)}, nil
	}

	next := snap.Clone()
	today := domain.DayOf(now)

	rollDailyProgress(&next.Progress, today)
	rollChallengeDay(next, e.catalog, today)
	pruneApplied(next, today, e.retentionDays)

	seq := next.LastSequence + 1
	next.LastSequence = seq

	var affected *domain.VocabularyReviewState
	var effects []effect

	switch p := payload.(type) {
	case nil: // LearnerProvisioned carries no payload


	case *domain.ItemReviewedPayload:
		affected = reviewItem(next, p.ItemID, p.QualityScore, today, e.params).Clone()
		next.Progress.DailyProgress.ItemsReviewedToday++
		recordStudyActivity(&next.Progress, today)
		effects = progressChallengeKind(next, e.catalog, domain.ChallengeKindReview, 1, now)

	case *domain.StudySessionEndedPayload:
		next.Progress.DailyProgress.StudyMinutesToday += p.DurationMinutes
		recordStudyActivity(&next.Progress, today)

	case *domain.ChallengeProgressedPayload:
		effects, err = progressChallenge(next, e.catalog, p.ChallengeID, p.Increment, now)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
		}

	case *domain.XPEarnedPayload:
		applyXP(&next.Progress, e.catalog.Levels, p.Amount)
		next.Progress.DailyProgress.XPEarnedToday += p.Amount
		recordStudyActivity(&next.Progress, today)
	}

	records := []*domain.EventRecord{{
		LearnerID:       next.LearnerID,
		ServerSequence:  seq,
		IdempotencyKey:  event.IdempotencyKey,
		Type:            event.Type,
		Payload:         event.Payload,
		ClientTimestamp: event.ClientTimestamp,
		AppliedAt:       now.UTC(),
	}}
	records = append(records, e.applyEffects(next, effects, today, now)...)

	result := &domain.AppliedResult{
		ServerSequence:     seq,
		Progress:           next.Progress,
		Challenges:         next.ChallengeView(),
		AffectedVocabulary: affected,
	}
	next.Applied[event.IdempotencyKey] = &domain.AppliedRecord{
		ServerSequence: seq,
		Day:            today,
		Result:         result,
	}
	next.UpdatedAt = now.UTC()

	return &Reduction{Snapshot: next, Result: result, Records: records}, nil
}

// applyEffects feeds emitted XP grants back through the ledger. Each effect
// carries a derived idempotency key; one already applied is skipped, so
// effect application stays exactly-once across replays and multi-device races.
func (e *Engine) applyEffects(
	next *domain.LearnerSnapshot,
	effects []effect,
	today domain.Day,
	now time.Time,
) []*domain.EventRecord {
	var records []*domain.EventRecord
	for _, eff := range effects {
		if _, seen := next.Applied[eff.key]; seen {
			continue
		}

		seq := next.LastSequence + 1
		next.LastSequence = seq

		applyXP(&next.Progress, e.catalog.Levels, eff.amount)
		next.Progress.DailyProgress.XPEarnedToday += eff.amount

		payload, err := json.Marshal(&domain.XPEarnedPayload{Amount: eff.amount, Reason: eff.reason})
		if err != nil {
			// Marshalling a flat struct cannot fail; log and carry on with an
			// empty payload rather than losing the grant.
			e.logger.Error("failed to marshal effect payload", slog.String("error", err.Error()))
			payload = nil
		}

		records = append(records, &domain.EventRecord{
			LearnerID:       next.LearnerID,
			ServerSequence:  seq,
			IdempotencyKey:  eff.key,
			Type:            domain.EventXPEarned,
			Payload:         payload,
			ClientTimestamp: now.UTC(),
			AppliedAt:       now.UTC(),
			Effect:          true,
		})
		next.Applied[eff.key] = &domain.AppliedRecord{ServerSequence: seq, Day: today}
	}
	return records
}

// replayResult returns the stored result for an already-applied key. Records
// written for internal effects store no result; a client replaying such a key
// gets the current state projection instead.
func (e *Engine) replayResult(snap *domain.LearnerSnapshot, rec *domain.AppliedRecord) *domain.AppliedResult {
	if rec.Result != nil {
		res := *rec.Result
		res.Duplicate = true
		return &res
	}
	return &domain.AppliedResult{
		ServerSequence: rec.ServerSequence,
		Duplicate:      true,
		Progress:       snap.Progress,
		Challenges:     snap.ChallengeView(),
	}
}

// decodeAndValidate rejects malformed events before any sequencing. The
// returned payload is typed per event; LearnerProvisioned yields nil.
func (e *Engine) decodeAndValidate(event *domain.ProgressionEvent) (any, error) {
	if event.IdempotencyKey == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrEmptyIdempotencyKey)
	}
	if event.LearnerID == uuid.Nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrEmptyLearnerID)
	}

	switch event.Type {
	case domain.EventLearnerProvisioned:
		return nil, nil

	case domain.EventItemReviewed:
		var p domain.ItemReviewedPayload
		if err := event.UnmarshalPayload(&p); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		if p.ItemID == uuid.Nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrEmptyItemID)
		}
		if !srs.ValidQuality(p.QualityScore) {
			return nil, fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrInvalidQualityScore)
		}
		return &p, nil

	case domain.EventStudySessionEnded:
		var p domain.StudySessionEndedPayload
		if err := event.UnmarshalPayload(&p); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		if p.DurationMinutes <= 0 {
			return nil, fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrInvalidDuration)
		}
		return &p, nil

	case domain.EventChallengeProgressed:
		var p domain.ChallengeProgressedPayload
		if err := event.UnmarshalPayload(&p); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		if p.ChallengeID == "" {
			return nil, fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrUnknownChallenge)
		}
		if p.Increment <= 0 {
			return nil, fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrInvalidIncrement)
		}
		return &p, nil

	case domain.EventXPEarned:
		var p domain.XPEarnedPayload
		if err := event.UnmarshalPayload(&p); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		if p.Amount <= 0 {
			return nil, fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrInvalidXPAmount)
		}
		return &p, nil

	default:
		return nil, fmt.Errorf("%w: %w: %q", domain.ErrValidation, domain.ErrUnknownEventType, event.Type)
	}
}

// ProjectProgress returns the learner's progress as of now, with daily
// counters rolled forward if the day advanced since the last event. The
// snapshot is not modified.
func (e *Engine) ProjectProgress(snap *domain.LearnerSnapshot, now time.Time) domain.LearnerProgress {
	progress := snap.Progress
	rollDailyProgress(&progress, domain.DayOf(now))
	return progress
}

// ProjectChallenges returns today's challenge set as of now. A stale or
// missing set projects a fresh, untouched day without modifying the snapshot.
func (e *Engine) ProjectChallenges(snap *domain.LearnerSnapshot, now time.Time) []*domain.ChallengeInstance {
	today := domain.DayOf(now)
	if snap.Challenges == nil || snap.Challenges.Day != today {
		return e.catalog.NewChallengeDay(today).Instances
	}
	return snap.ChallengeView()
}

// NewLearnerSnapshot provisions state for a new learner against the engine's
// catalog.
func (e *Engine) NewLearnerSnapshot(learnerID uuid.UUID, now time.Time) *domain.LearnerSnapshot {
	return domain.NewLearnerSnapshot(learnerID, e.catalog, now)
}
