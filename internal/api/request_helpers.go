package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/xeno035/taskhive/internal/api/shared"
	"github.com/xeno035/taskhive/internal/domain"
)

// getIdentityFromContext extracts the authenticated identity placed in the
// request context by the authentication middleware.
func getIdentityFromContext(r *http.Request) (domain.Identity, bool) {
	identity, ok := shared.GetIdentity(r.Context())
	if !ok || identity.ID == uuid.Nil {
		return domain.Identity{}, false
	}
	return identity, true
}

// getPathUUID extracts and parses a UUID path parameter.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "has invalid format", domain.ErrInvalidID)
	}

	return id, nil
}

// requireIdentityAndTaskID extracts the caller's identity and the task ID
// path parameter, writing an error response if either is missing.
func requireIdentityAndTaskID(
	w http.ResponseWriter,
	r *http.Request,
) (domain.Identity, uuid.UUID, bool) {
	identity, ok := getIdentityFromContext(r)
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return domain.Identity{}, uuid.Nil, false
	}

	taskID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return domain.Identity{}, uuid.Nil, false
	}

	return identity, taskID, true
}
