package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muselang/progression-api/internal/config"
	"github.com/muselang/progression-api/internal/service/auth"
)

func newJWTService(t *testing.T) auth.JWTService {
	t.Helper()
	svc, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:            "thisisasecretkeythatis32charslong",
		TokenLifetimeMinutes: 60,
	})
	require.NoError(t, err)
	return svc
}

func TestAuthenticate(t *testing.T) {
	jwtService := newJWTService(t)
	middleware := NewAuthMiddleware(jwtService)

	var capturedID uuid.UUID
	var capturedOK bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedID, capturedOK = GetLearnerID(r)
		w.WriteHeader(http.StatusOK)
	})
	handler := middleware.Authenticate(next)

	t.Run("valid token passes learner ID through", func(t *testing.T) {
		learnerID := uuid.New()
		token, err := jwtService.GenerateToken(context.Background(), learnerID)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/learners/x/progress", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, capturedOK)
		assert.Equal(t, learnerID, capturedID)
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/learners/x/progress", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("malformed header is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/learners/x/progress", nil)
		req.Header.Set("Authorization", "Token abc")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/learners/x/progress", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
