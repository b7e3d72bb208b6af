package auth

import (
	"context"

	"github.com/google/uuid"
)

// JWTService defines operations for managing the API's own access tokens.
// These are distinct from the identity-provider credential handled by
// Verifier: the provider credential is exchanged once at login for an access
// token, which then authenticates every subsequent request.
type JWTService interface {
	// GenerateToken creates a signed JWT access token for the user.
	GenerateToken(ctx context.Context, userID uuid.UUID, email string) (string, error)

	// ValidateToken validates the provided access token string and extracts
	// the claims, or returns ErrInvalidToken / ErrExpiredToken.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims carries the authenticated identity extracted from an access token.
// Email is included so request handling never needs a user lookup to learn
// the actor's canonical address.
type Claims struct {
	UserID uuid.UUID
	Email  string
}
