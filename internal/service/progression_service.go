package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/muselang/progression-api/internal/domain"
	"github.com/muselang/progression-api/internal/platform/logger"
	"github.com/muselang/progression-api/internal/progression"
	"github.com/muselang/progression-api/internal/store"
)

// saveAttempts bounds the optimistic-concurrency retry loop. Conflicts only
// arise from other instances writing the same learner; with per-learner
// locking in-process, contention beyond a few rounds means something is wrong.
const saveAttempts = 3

// ProgressionService drives a learner's progression state: it applies
// submitted events exactly once and answers state queries.
type ProgressionService interface {
	// SubmitEvent applies one event to the learner's state. A replayed
	// idempotency key returns the originally computed result with
	// Duplicate set and changes nothing.
	//
	// Returns ErrUnknownLearner if the learner has never been provisioned
	// (unless the event itself is the provisioning event), a
	// domain.ErrValidation-wrapped error for malformed events, and
	// ErrPersistence if the state write failed.
	SubmitEvent(ctx context.Context, event *domain.ProgressionEvent) (*domain.AppliedResult, error)

	// GetProgress returns the learner's progress as of now, daily counters
	// rolled forward across day boundaries.
	GetProgress(ctx context.Context, learnerID uuid.UUID) (*domain.LearnerProgress, error)

	// GetDueItems returns the vocabulary items due for review as of the
	// returned day, most overdue first, lower ease factor breaking ties.
	// A zero asOf means today; a future asOf previews the upcoming queue.
	GetDueItems(ctx context.Context, learnerID uuid.UUID, asOf domain.Day) (domain.Day, []*domain.VocabularyReviewState, error)

	// GetChallenges returns the learner's challenge set for the returned day.
	GetChallenges(ctx context.Context, learnerID uuid.UUID) (domain.Day, []*domain.ChallengeInstance, error)
}

// Verify interface compliance at compile time
var _ ProgressionService = (*progressionService)(nil)

// progressionService implements ProgressionService.
type progressionService struct {
	engine *progression.Engine
	store  store.LearnerStore
	clock  Clock
	locks  *learnerLocks
	logger *slog.Logger
}

// NewProgressionService creates a ProgressionService backed by the given
// reducer engine and store.
func NewProgressionService(
	engine *progression.Engine,
	learnerStore store.LearnerStore,
	clock Clock,
	logger *slog.Logger,
) ProgressionService {
	if engine == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("engine cannot be nil")
	}
	if learnerStore == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("learnerStore cannot be nil")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &progressionService{
		engine: engine,
		store:  learnerStore,
		clock:  clock,
		locks:  newLearnerLocks(),
		logger: logger.With(slog.String("component", "progression_service")),
	}
}

// SubmitEvent implements ProgressionService.SubmitEvent.
//
// The flow per attempt is load, reduce, save. Reduction never mutates the
// loaded snapshot, so a failed save leaves no trace: the client retries with
// the same idempotency key and the event applies as if for the first time.
func (s *progressionService) SubmitEvent(
	ctx context.Context,
	event *domain.ProgressionEvent,
) (*domain.AppliedResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	release := s.locks.acquire(event.LearnerID)
	defer release()

	var lastErr error
	for attempt := 1; attempt <= saveAttempts; attempt++ {
		snap, err := s.loadOrProvision(ctx, event)
		if err != nil {
			return nil, err
		}

		now := s.clock.Now()
		reduction, err := s.engine.Reduce(snap, event, now)
		if err != nil {
			log.Debug("event rejected",
				slog.String("learner_id", event.LearnerID.String()),
				slog.String("event_type", string(event.Type)),
				slog.String("error", err.Error()))
			return nil, NewServiceError("SubmitEvent", err)
		}

		if reduction.Duplicate() {
			log.Info("duplicate event replayed",
				slog.String("learner_id", event.LearnerID.String()),
				slog.String("idempotency_key", event.IdempotencyKey),
				slog.Int64("server_sequence", reduction.Result.ServerSequence))
			return reduction.Result, nil
		}

		err = s.store.SaveLearnerState(ctx, reduction.Snapshot, reduction.Records)
		if err == nil {
			log.Info("event applied",
				slog.String("learner_id", event.LearnerID.String()),
				slog.String("event_type", string(event.Type)),
				slog.Int64("server_sequence", reduction.Result.ServerSequence),
				slog.Int("records", len(reduction.Records)))
			return reduction.Result, nil
		}

		// Another instance won the write race; reload and reapply. If it
		// applied this very key, the next round replays the stored result.
		if errors.Is(err, store.ErrVersionConflict) || errors.Is(err, store.ErrEventKeyExists) {
			log.Debug("write race on learner state, retrying",
				slog.String("learner_id", event.LearnerID.String()),
				slog.Int("attempt", attempt))
			lastErr = err
			continue
		}

		log.Error("failed to persist learner state",
			slog.String("learner_id", event.LearnerID.String()),
			slog.String("error", err.Error()))
		return nil, NewServiceError("SubmitEvent", fmt.Errorf("%w: %w", ErrPersistence, err))
	}

	return nil, NewServiceError(
		"SubmitEvent",
		fmt.Errorf("%w: gave up after %d attempts: %w", ErrPersistence, saveAttempts, lastErr),
	)
}

// loadOrProvision loads the learner's snapshot. An unprovisioned learner is
// only acceptable when the submitted event is the provisioning event itself,
// in which case a fresh snapshot is started.
func (s *progressionService) loadOrProvision(
	ctx context.Context,
	event *domain.ProgressionEvent,
) (*domain.LearnerSnapshot, error) {
	snap, err := s.store.LoadLearnerState(ctx, event.LearnerID)
	if err == nil {
		return snap, nil
	}

	if errors.Is(err, store.ErrLearnerNotFound) {
		if event.Type == domain.EventLearnerProvisioned {
			return s.engine.NewLearnerSnapshot(event.LearnerID, s.clock.Now()), nil
		}
		return nil, NewServiceError("SubmitEvent", ErrUnknownLearner)
	}

	return nil, NewServiceError("SubmitEvent", fmt.Errorf("%w: %w", ErrPersistence, err))
}

// GetProgress implements ProgressionService.GetProgress.
func (s *progressionService) GetProgress(
	ctx context.Context,
	learnerID uuid.UUID,
) (*domain.LearnerProgress, error) {
	snap, err := s.load(ctx, "GetProgress", learnerID)
	if err != nil {
		return nil, err
	}

	progress := s.engine.ProjectProgress(snap, s.clock.Now())
	return &progress, nil
}

// GetDueItems implements ProgressionService.GetDueItems.
func (s *progressionService) GetDueItems(
	ctx context.Context,
	learnerID uuid.UUID,
	asOf domain.Day,
) (domain.Day, []*domain.VocabularyReviewState, error) {
	snap, err := s.load(ctx, "GetDueItems", learnerID)
	if err != nil {
		return "", nil, err
	}

	if asOf.IsZero() {
		asOf = domain.DayOf(s.clock.Now())
	}
	ids := progression.DueItems(snap, asOf)
	items := make([]*domain.VocabularyReviewState, len(ids))
	for i, id := range ids {
		items[i] = snap.Vocabulary[id]
	}
	return asOf, items, nil
}

// GetChallenges implements ProgressionService.GetChallenges.
func (s *progressionService) GetChallenges(
	ctx context.Context,
	learnerID uuid.UUID,
) (domain.Day, []*domain.ChallengeInstance, error) {
	snap, err := s.load(ctx, "GetChallenges", learnerID)
	if err != nil {
		return "", nil, err
	}

	now := s.clock.Now()
	return domain.DayOf(now), s.engine.ProjectChallenges(snap, now), nil
}

func (s *progressionService) load(
	ctx context.Context,
	operation string,
	learnerID uuid.UUID,
) (*domain.LearnerSnapshot, error) {
	snap, err := s.store.LoadLearnerState(ctx, learnerID)
	if err != nil {
		if errors.Is(err, store.ErrLearnerNotFound) {
			return nil, NewServiceError(operation, ErrUnknownLearner)
		}
		return nil, NewServiceError(operation, fmt.Errorf("%w: %w", ErrPersistence, err))
	}
	return snap, nil
}
