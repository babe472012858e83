package auth

import "errors"

// Token validation failures, mapped from the underlying JWT library so
// callers never depend on it directly.
var (
	// ErrInvalidToken covers malformed tokens and signature mismatches.
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken is returned for a token past its expiry.
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrTokenNotYetValid is returned for a token whose nbf claim lies
	// in the future beyond the allowed clock skew.
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")

	// ErrMissingToken is returned when no token was provided at all.
	ErrMissingToken = errors.New("authentication token is missing")
)
