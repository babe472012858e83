package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muselang/progression-api/internal/config"
)

const testSecret = "thisisasecretkeythatis32charslong"

func newTestService(t *testing.T, timeFunc func() time.Time) *hmacJWTService {
	t.Helper()
	svc, err := NewJWTService(config.AuthConfig{
		JWTSecret:            testSecret,
		TokenLifetimeMinutes: 60,
	})
	require.NoError(t, err)

	impl, ok := svc.(*hmacJWTService)
	require.True(t, ok)
	if timeFunc != nil {
		impl.timeFunc = timeFunc
	}
	return impl
}

func TestNewJWTServiceRejectsShortSecret(t *testing.T) {
	_, err := NewJWTService(config.AuthConfig{
		JWTSecret:            "tooshort",
		TokenLifetimeMinutes: 60,
	})
	assert.Error(t, err)
}

func TestGenerateAndValidateToken(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)
	learnerID := uuid.New()

	token, err := svc.GenerateToken(ctx, learnerID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, learnerID, claims.LearnerID)
	assert.Equal(t, learnerID.String(), claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateTokenExpired(t *testing.T) {
	ctx := context.Background()
	issued := time.Now().Add(-24 * time.Hour)
	svc := newTestService(t, func() time.Time { return issued })

	token, err := svc.GenerateToken(ctx, uuid.New())
	require.NoError(t, err)

	// Validate with real time: the token expired hours past the skew window.
	svc.timeFunc = time.Now
	_, err = svc.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateTokenWrongSignature(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil)

	other, err := NewJWTService(config.AuthConfig{
		JWTSecret:            "anentirelydifferentsecretthatis32ch",
		TokenLifetimeMinutes: 60,
	})
	require.NoError(t, err)

	token, err := other.GenerateToken(ctx, uuid.New())
	require.NoError(t, err)

	_, err = svc.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenMalformed(t *testing.T) {
	svc := newTestService(t, nil)
	_, err := svc.ValidateToken(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
