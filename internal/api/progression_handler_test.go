package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muselang/progression-api/internal/api/shared"
	"github.com/muselang/progression-api/internal/domain"
	"github.com/muselang/progression-api/internal/service"
)

// mockProgressionService is a configurable test double for the handler tests.
type mockProgressionService struct {
	submitFn     func(ctx context.Context, event *domain.ProgressionEvent) (*domain.AppliedResult, error)
	progressFn   func(ctx context.Context, learnerID uuid.UUID) (*domain.LearnerProgress, error)
	dueItemsFn   func(ctx context.Context, learnerID uuid.UUID, asOf domain.Day) (domain.Day, []*domain.VocabularyReviewState, error)
	challengesFn func(ctx context.Context, learnerID uuid.UUID) (domain.Day, []*domain.ChallengeInstance, error)
}

var _ service.ProgressionService = (*mockProgressionService)(nil)

func (m *mockProgressionService) SubmitEvent(
	ctx context.Context,
	event *domain.ProgressionEvent,
) (*domain.AppliedResult, error) {
	return m.submitFn(ctx, event)
}

func (m *mockProgressionService) GetProgress(
	ctx context.Context,
	learnerID uuid.UUID,
) (*domain.LearnerProgress, error) {
	return m.progressFn(ctx, learnerID)
}

func (m *mockProgressionService) GetDueItems(
	ctx context.Context,
	learnerID uuid.UUID,
	asOf domain.Day,
) (domain.Day, []*domain.VocabularyReviewState, error) {
	return m.dueItemsFn(ctx, learnerID, asOf)
}

func (m *mockProgressionService) GetChallenges(
	ctx context.Context,
	learnerID uuid.UUID,
) (domain.Day, []*domain.ChallengeInstance, error) {
	return m.challengesFn(ctx, learnerID)
}

// newTestRouter mounts the handler the way the server does, with a stub auth
// middleware placing authedID into the request context.
func newTestRouter(svc service.ProgressionService, authedID uuid.UUID) http.Handler {
	handler := NewProgressionHandler(svc, testLogger())

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()
			if authedID != uuid.Nil {
				ctx = context.WithValue(ctx, shared.LearnerIDContextKey, authedID)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Route("/learners/{learnerID}", func(r chi.Router) {
		r.Post("/events", handler.SubmitEvent)
		r.Get("/progress", handler.GetProgress)
		r.Get("/reviews/due", handler.GetDueItems)
		r.Get("/challenges", handler.GetChallenges)
	})
	return r
}

func submitBody(t *testing.T, key, eventType string, payload any) *bytes.Buffer {
	t.Helper()
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		raw = b
	}
	body, err := json.Marshal(SubmitEventRequest{
		IdempotencyKey: key,
		EventType:      eventType,
		Payload:        raw,
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func sampleProgress() domain.LearnerProgress {
	return domain.LearnerProgress{
		TotalXP:        520,
		CurrentLevel:   domain.LevelA2,
		LevelProgress:  2.0,
		XPForNextLevel: 980,
		Streak:         domain.StreakState{Current: 3, Longest: 5, LastStudyDay: "2026-03-10"},
		DailyProgress:  domain.DailyProgress{Day: "2026-03-10", XPEarnedToday: 30},
	}
}

func TestSubmitEvent(t *testing.T) {
	learnerID := uuid.New()

	t.Run("applies event and returns result", func(t *testing.T) {
		var gotEvent *domain.ProgressionEvent
		svc := &mockProgressionService{
			submitFn: func(ctx context.Context, event *domain.ProgressionEvent) (*domain.AppliedResult, error) {
				gotEvent = event
				return &domain.AppliedResult{
					ServerSequence: 7,
					Progress:       sampleProgress(),
					Challenges:     []*domain.ChallengeInstance{{ChallengeID: "daily_review", Target: 20, Current: 1}},
				}, nil
			},
		}
		router := newTestRouter(svc, learnerID)

		req := httptest.NewRequest(
			http.MethodPost,
			fmt.Sprintf("/learners/%s/events", learnerID),
			submitBody(t, "evt-1", "xp_earned", &domain.XPEarnedPayload{Amount: 30, Reason: "lesson"}),
		)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		require.NotNil(t, gotEvent)
		assert.Equal(t, learnerID, gotEvent.LearnerID)
		assert.Equal(t, "evt-1", gotEvent.IdempotencyKey)
		assert.Equal(t, domain.EventXPEarned, gotEvent.Type)

		var resp EventResultResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, int64(7), resp.ServerSequence)
		assert.False(t, resp.Duplicate)
		assert.Equal(t, "A2", resp.Progress.CurrentLevel)
		require.Len(t, resp.Challenges, 1)
		assert.Equal(t, "daily_review", resp.Challenges[0].ChallengeID)
	})

	t.Run("rejects missing idempotency key", func(t *testing.T) {
		svc := &mockProgressionService{
			submitFn: func(ctx context.Context, event *domain.ProgressionEvent) (*domain.AppliedResult, error) {
				t.Fatal("service must not be called")
				return nil, nil
			},
		}
		router := newTestRouter(svc, learnerID)

		req := httptest.NewRequest(
			http.MethodPost,
			fmt.Sprintf("/learners/%s/events", learnerID),
			submitBody(t, "", "xp_earned", nil),
		)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		svc := &mockProgressionService{}
		router := newTestRouter(svc, learnerID)

		req := httptest.NewRequest(
			http.MethodPost,
			fmt.Sprintf("/learners/%s/events", learnerID),
			bytes.NewBufferString("{not json"),
		)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("maps validation errors to 400", func(t *testing.T) {
		svc := &mockProgressionService{
			submitFn: func(ctx context.Context, event *domain.ProgressionEvent) (*domain.AppliedResult, error) {
				return nil, service.NewServiceError(
					"SubmitEvent",
					fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrInvalidQualityScore),
				)
			},
		}
		router := newTestRouter(svc, learnerID)

		req := httptest.NewRequest(
			http.MethodPost,
			fmt.Sprintf("/learners/%s/events", learnerID),
			submitBody(t, "evt-1", "item_reviewed", map[string]any{"item_id": uuid.New(), "quality_score": 9}),
		)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)

		var resp shared.ErrorResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, "Quality score must be between 0 and 5", resp.Error)
	})

	t.Run("maps unknown learner to 404", func(t *testing.T) {
		svc := &mockProgressionService{
			submitFn: func(ctx context.Context, event *domain.ProgressionEvent) (*domain.AppliedResult, error) {
				return nil, service.NewServiceError("SubmitEvent", service.ErrUnknownLearner)
			},
		}
		router := newTestRouter(svc, learnerID)

		req := httptest.NewRequest(
			http.MethodPost,
			fmt.Sprintf("/learners/%s/events", learnerID),
			submitBody(t, "evt-1", "xp_earned", &domain.XPEarnedPayload{Amount: 30}),
		)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("maps persistence failures to 503", func(t *testing.T) {
		svc := &mockProgressionService{
			submitFn: func(ctx context.Context, event *domain.ProgressionEvent) (*domain.AppliedResult, error) {
				return nil, service.NewServiceError(
					"SubmitEvent",
					fmt.Errorf("%w: connection refused", service.ErrPersistence),
				)
			},
		}
		router := newTestRouter(svc, learnerID)

		req := httptest.NewRequest(
			http.MethodPost,
			fmt.Sprintf("/learners/%s/events", learnerID),
			submitBody(t, "evt-1", "xp_earned", &domain.XPEarnedPayload{Amount: 30}),
		)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})

	t.Run("rejects another learner's path", func(t *testing.T) {
		svc := &mockProgressionService{
			submitFn: func(ctx context.Context, event *domain.ProgressionEvent) (*domain.AppliedResult, error) {
				t.Fatal("service must not be called")
				return nil, nil
			},
		}
		router := newTestRouter(svc, learnerID)

		req := httptest.NewRequest(
			http.MethodPost,
			fmt.Sprintf("/learners/%s/events", uuid.New()),
			submitBody(t, "evt-1", "xp_earned", &domain.XPEarnedPayload{Amount: 30}),
		)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("rejects invalid learner ID format", func(t *testing.T) {
		router := newTestRouter(&mockProgressionService{}, learnerID)

		req := httptest.NewRequest(
			http.MethodPost,
			"/learners/not-a-uuid/events",
			submitBody(t, "evt-1", "xp_earned", nil),
		)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("rejects unauthenticated request", func(t *testing.T) {
		router := newTestRouter(&mockProgressionService{}, uuid.Nil)

		req := httptest.NewRequest(
			http.MethodPost,
			fmt.Sprintf("/learners/%s/events", learnerID),
			submitBody(t, "evt-1", "xp_earned", nil),
		)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestGetProgress(t *testing.T) {
	learnerID := uuid.New()

	t.Run("returns progress", func(t *testing.T) {
		svc := &mockProgressionService{
			progressFn: func(ctx context.Context, id uuid.UUID) (*domain.LearnerProgress, error) {
				assert.Equal(t, learnerID, id)
				p := sampleProgress()
				return &p, nil
			},
		}
		router := newTestRouter(svc, learnerID)

		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/learners/%s/progress", learnerID), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var resp ProgressResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, 520, resp.TotalXP)
		assert.Equal(t, "A2", resp.CurrentLevel)
		assert.Equal(t, 3, resp.Streak.Current)
		assert.Equal(t, "2026-03-10", resp.DailyProgress.Day)
	})

	t.Run("maps unknown learner to 404", func(t *testing.T) {
		svc := &mockProgressionService{
			progressFn: func(ctx context.Context, id uuid.UUID) (*domain.LearnerProgress, error) {
				return nil, service.NewServiceError("GetProgress", service.ErrUnknownLearner)
			},
		}
		router := newTestRouter(svc, learnerID)

		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/learners/%s/progress", learnerID), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestGetDueItems(t *testing.T) {
	learnerID := uuid.New()
	itemID := uuid.New()

	var seenAsOf domain.Day
	svc := &mockProgressionService{
		dueItemsFn: func(ctx context.Context, id uuid.UUID, asOf domain.Day) (domain.Day, []*domain.VocabularyReviewState, error) {
			seenAsOf = asOf
			return "2026-03-10", []*domain.VocabularyReviewState{{
				ItemID:        itemID,
				EaseFactor:    2.5,
				IntervalDays:  6,
				Repetitions:   2,
				NextReviewDay: "2026-03-09",
			}}, nil
		},
	}
	router := newTestRouter(svc, learnerID)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/learners/%s/reviews/due", learnerID), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, seenAsOf.IsZero(), "no as_of param passes the zero day through")

	var resp DueItemsResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "2026-03-10", resp.AsOfDay)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, itemID.String(), resp.Items[0].ItemID)
	assert.Equal(t, "2026-03-09", resp.Items[0].NextReviewDay)

	t.Run("as_of parameter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			fmt.Sprintf("/learners/%s/reviews/due?as_of=2026-03-15", learnerID), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, domain.Day("2026-03-15"), seenAsOf)
	})

	t.Run("malformed as_of", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			fmt.Sprintf("/learners/%s/reviews/due?as_of=15-03-2026", learnerID), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestGetChallenges(t *testing.T) {
	learnerID := uuid.New()

	svc := &mockProgressionService{
		challengesFn: func(ctx context.Context, id uuid.UUID) (domain.Day, []*domain.ChallengeInstance, error) {
			return "2026-03-10", []*domain.ChallengeInstance{
				{ChallengeID: "daily_review", Kind: domain.ChallengeKindReview, Title: "Review 20 vocabulary items", Target: 20, Current: 5, XPReward: 20},
			}, nil
		},
	}
	router := newTestRouter(svc, learnerID)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/learners/%s/challenges", learnerID), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp ChallengesResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "2026-03-10", resp.Day)
	require.Len(t, resp.Challenges, 1)
	assert.Equal(t, 5, resp.Challenges[0].Current)
}
