package auth

import "errors"

// Common authentication service errors
var (
	// ErrInvalidToken indicates the token format is invalid or signature doesn't match
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrMissingToken indicates a token was expected but not provided
	ErrMissingToken = errors.New("authentication token is missing")

	// ErrIdentityVerification indicates the identity provider rejected the
	// presented credential. Verification failures are never retried and
	// short-circuit before any store access.
	ErrIdentityVerification = errors.New("identity verification failed")
)
