package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xeno035/taskhive/internal/domain"
	"github.com/xeno035/taskhive/internal/store"
)

// LoginResult is the outcome of a successful credential exchange: the user
// record, upserted on first sight, and an access token for subsequent
// requests.
type LoginResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// AuthService resolves identity-provider credentials to local users.
// It is the only path that creates or refreshes user records.
type AuthService struct {
	verifier Verifier
	users    store.UserStore
	jwt      JWTService
	logger   *slog.Logger
}

// NewAuthService creates an AuthService. All dependencies are required
// except the logger, which falls back to slog.Default().
func NewAuthService(verifier Verifier, users store.UserStore, jwt JWTService, logger *slog.Logger) (*AuthService, error) {
	if verifier == nil {
		return nil, fmt.Errorf("verifier is required")
	}
	if users == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthService{
		verifier: verifier,
		users:    users,
		jwt:      jwt,
		logger:   logger.With(slog.String("component", "auth_service")),
	}, nil
}

// Login verifies the identity-provider credential, upserts the local user
// record keyed by the provider's stable subject, and issues an access token.
// Verification failures short-circuit before any store access.
func (s *AuthService) Login(ctx context.Context, credential string) (*LoginResult, error) {
	identity, err := s.verifier.VerifyIDToken(ctx, credential)
	if err != nil {
		return nil, err
	}

	user, err := domain.NewUser(identity.ExternalID, identity.Name, identity.Email, identity.AvatarURL, identity.Provider)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityVerification, err)
	}

	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	token, err := s.jwt.GenerateToken(ctx, user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	s.logger.Info("user authenticated",
		slog.String("user_id", user.ID.String()),
		slog.String("provider", user.Provider))

	return &LoginResult{Token: token, User: user}, nil
}
