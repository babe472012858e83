package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/muselang/progression-api/internal/api/middleware"
	"github.com/muselang/progression-api/internal/api/shared"
	"github.com/muselang/progression-api/internal/domain"
	"github.com/muselang/progression-api/internal/platform/logger"
	"github.com/muselang/progression-api/internal/redact"
	"github.com/muselang/progression-api/internal/service"
)

// ProgressionHandler handles learner progression HTTP requests
type ProgressionHandler struct {
	progressionService service.ProgressionService
	logger             *slog.Logger
}

// NewProgressionHandler creates a new ProgressionHandler
func NewProgressionHandler(
	progressionService service.ProgressionService,
	logger *slog.Logger,
) *ProgressionHandler {
	if progressionService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("progressionService cannot be nil for ProgressionHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ProgressionHandler")
	}

	return &ProgressionHandler{
		progressionService: progressionService,
		logger:             logger.With(slog.String("component", "progression_handler")),
	}
}

// learnerFromRequest resolves the learner ID for the request: the path learner
// must exist, parse as a UUID, and match the authenticated learner. Writes the
// error response and returns false otherwise.
func (h *ProgressionHandler) learnerFromRequest(
	w http.ResponseWriter,
	r *http.Request,
) (uuid.UUID, bool) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	pathID := chi.URLParam(r, "learnerID")
	if pathID == "" {
		log.Warn("learner ID not found in URL path")
		shared.RespondWithError(w, r, http.StatusBadRequest, "Learner ID is required")
		return uuid.Nil, false
	}

	learnerID, err := uuid.Parse(pathID)
	if err != nil {
		log.Warn("invalid learner ID format", slog.String("learner_id", pathID))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid learner ID format")
		return uuid.Nil, false
	}

	authedID, ok := middleware.GetLearnerID(r)
	if !ok || authedID == uuid.Nil {
		log.Warn("learner ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Learner ID not found or invalid")
		return uuid.Nil, false
	}

	if authedID != learnerID {
		log.Warn("learner ID mismatch",
			slog.String("path_learner_id", learnerID.String()),
			slog.String("token_learner_id", authedID.String()))
		shared.RespondWithError(w, r, http.StatusForbidden, "Cannot access another learner's progression")
		return uuid.Nil, false
	}

	return learnerID, true
}

// SubmitEvent handles POST /learners/{learnerID}/events requests
// It applies one progression event to the learner's state, exactly once per
// idempotency key.
func (h *ProgressionHandler) SubmitEvent(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	learnerID, ok := h.learnerFromRequest(w, r)
	if !ok {
		return
	}

	var req SubmitEventRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format",
			slog.String("error", redact.Error(err)),
			slog.String("learner_id", learnerID.String()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		log.Warn("validation error",
			slog.String("error", redact.Error(err)),
			slog.String("learner_id", learnerID.String()))
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	event := &domain.ProgressionEvent{
		IdempotencyKey:  req.IdempotencyKey,
		LearnerID:       learnerID,
		Type:            domain.EventType(req.EventType),
		Payload:         req.Payload,
		ClientTimestamp: req.ClientTimestamp,
	}

	result, err := h.progressionService.SubmitEvent(r.Context(), event)
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)
		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to apply event"
		}
		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	log.Debug("event applied",
		slog.String("learner_id", learnerID.String()),
		slog.String("event_type", req.EventType),
		slog.Int64("server_sequence", result.ServerSequence),
		slog.Bool("duplicate", result.Duplicate))
	shared.RespondWithJSON(w, r, http.StatusOK, resultToResponse(result))
}

// GetProgress handles GET /learners/{learnerID}/progress requests
func (h *ProgressionHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := h.learnerFromRequest(w, r)
	if !ok {
		return
	}

	progress, err := h.progressionService.GetProgress(r.Context(), learnerID)
	if err != nil {
		h.respondQueryError(w, r, "Failed to get progress", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, progressToResponse(*progress))
}

// GetDueItems handles GET /learners/{learnerID}/reviews/due requests
func (h *ProgressionHandler) GetDueItems(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := h.learnerFromRequest(w, r)
	if !ok {
		return
	}

	var asOf domain.Day
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := domain.ParseDay(raw)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid as_of date, expected YYYY-MM-DD")
			return
		}
		asOf = parsed
	}

	asOf, items, err := h.progressionService.GetDueItems(r.Context(), learnerID, asOf)
	if err != nil {
		h.respondQueryError(w, r, "Failed to get due reviews", err)
		return
	}

	resp := DueItemsResponse{
		AsOfDay: string(asOf),
		Items:   make([]VocabularyStateResponse, len(items)),
	}
	for i, item := range items {
		resp.Items[i] = vocabularyToResponse(item)
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// GetChallenges handles GET /learners/{learnerID}/challenges requests
func (h *ProgressionHandler) GetChallenges(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := h.learnerFromRequest(w, r)
	if !ok {
		return
	}

	day, challenges, err := h.progressionService.GetChallenges(r.Context(), learnerID)
	if err != nil {
		h.respondQueryError(w, r, "Failed to get challenges", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ChallengesResponse{
		Day:        string(day),
		Challenges: challengesToResponse(challenges),
	})
}

// respondQueryError maps a query failure to its status and safe message.
func (h *ProgressionHandler) respondQueryError(
	w http.ResponseWriter,
	r *http.Request,
	fallback string,
	err error,
) {
	statusCode := MapErrorToStatusCode(err)
	safeMessage := GetSafeErrorMessage(err)
	if statusCode == http.StatusInternalServerError {
		safeMessage = fallback
	}
	shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
}
