package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeno035/taskhive/internal/domain"
	"github.com/xeno035/taskhive/internal/service/auth"
	"github.com/xeno035/taskhive/internal/store"
)

// fakeVerifier accepts one known credential.
type fakeVerifier struct {
	credential string
	identity   *auth.ExternalIdentity
}

func (f *fakeVerifier) VerifyIDToken(_ context.Context, token string) (*auth.ExternalIdentity, error) {
	if token != f.credential {
		return nil, auth.ErrIdentityVerification
	}
	return f.identity, nil
}

// fakeUserStore stores at most one user, keyed by external ID.
type fakeUserStore struct {
	users map[string]*domain.User
}

func (f *fakeUserStore) Upsert(_ context.Context, user *domain.User) error {
	if existing, ok := f.users[user.ExternalID]; ok {
		user.ID = existing.ID
		user.CreatedAt = existing.CreatedAt
	}
	copied := *user
	f.users[user.ExternalID] = &copied
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range f.users {
		if user.ID == id {
			copied := *user
			return &copied, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, store.ErrUserNotFound
}

// staticJWTService issues a fixed token.
type staticJWTService struct {
	token string
}

func (s *staticJWTService) GenerateToken(_ context.Context, _ uuid.UUID, _ string) (string, error) {
	return s.token, nil
}

func (s *staticJWTService) ValidateToken(_ context.Context, _ string) (*auth.Claims, error) {
	return nil, auth.ErrInvalidToken
}

func newAuthTestHandler(t *testing.T) *AuthHandler {
	t.Helper()

	verifier := &fakeVerifier{
		credential: "valid-google-credential",
		identity: &auth.ExternalIdentity{
			ExternalID: "google-uid-1",
			Name:       "Ada Lovelace",
			Email:      "Ada@Example.COM",
			Provider:   "google.com",
		},
	}

	svc, err := auth.NewAuthService(
		verifier,
		&fakeUserStore{users: make(map[string]*domain.User)},
		&staticJWTService{token: "api-token"},
		nil,
	)
	require.NoError(t, err)

	return NewAuthHandler(svc, nil)
}

func TestAuthHandlerLogin(t *testing.T) {
	t.Run("valid credential signs in", func(t *testing.T) {
		handler := newAuthTestHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"token":"valid-google-credential"}`))
		rec := doRequest(handler.Login, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp AuthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "api-token", resp.Token)
		assert.Equal(t, "ada@example.com", resp.User.Email, "email should be canonicalized")
		assert.Equal(t, "Ada Lovelace", resp.User.Name)
	})

	t.Run("bad credential is unauthorized", func(t *testing.T) {
		handler := newAuthTestHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"token":"forged"}`))
		rec := doRequest(handler.Login, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing token field is a bad request", func(t *testing.T) {
		handler := newAuthTestHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{}`))
		rec := doRequest(handler.Login, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		handler := newAuthTestHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
			strings.NewReader(`{"token":`))
		rec := doRequest(handler.Login, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
