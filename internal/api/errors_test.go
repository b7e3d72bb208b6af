package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/xeno035/taskhive/internal/domain"
	"github.com/xeno035/taskhive/internal/hub"
	"github.com/xeno035/taskhive/internal/service"
	"github.com/xeno035/taskhive/internal/service/auth"
	"github.com/xeno035/taskhive/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"identity verification", auth.ErrIdentityVerification, http.StatusUnauthorized},
		{"missing identity", domain.ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", service.ErrForbidden, http.StatusForbidden},
		{"task not found", store.ErrTaskNotFound, http.StatusNotFound},
		{"user not found", store.ErrUserNotFound, http.StatusNotFound},
		{"duplicate", store.ErrDuplicate, http.StatusConflict},
		{"invalid input", service.ErrInvalidInput, http.StatusBadRequest},
		{"validation", domain.ErrValidation, http.StatusBadRequest},
		{"empty title", domain.ErrEmptyTitle, http.StatusBadRequest},
		{"invalid priority", domain.ErrInvalidPriority, http.StatusBadRequest},
		{
			"malformed id field",
			domain.NewValidationError("id", "has invalid format", domain.ErrInvalidID),
			http.StatusBadRequest,
		},
		{"invalid query", store.ErrInvalidQuery, http.StatusBadRequest},
		{"hub down", hub.ErrNotRunning, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
		{
			"wrapped forbidden",
			fmt.Errorf("share task: %w", service.ErrForbidden),
			http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestMapErrorToStatusCodeUnparseableDueDate(t *testing.T) {
	_, err := parseDueDate("next tuesday")

	assert.ErrorIs(t, err, domain.ErrInvalidDueDate)
	assert.Equal(t, http.StatusBadRequest, MapErrorToStatusCode(err))
	assert.Contains(t, GetSafeErrorMessage(err), "due_date")
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Run("known errors map to friendly text", func(t *testing.T) {
		assert.Equal(t, "Task not found", GetSafeErrorMessage(store.ErrTaskNotFound))
		assert.Equal(t, "You do not have access to this task",
			GetSafeErrorMessage(service.ErrForbidden))
		assert.Equal(t, "Invalid token", GetSafeErrorMessage(auth.ErrExpiredToken))
	})

	t.Run("field validation errors surface the field", func(t *testing.T) {
		err := domain.NewValidationError("due_date", "must be an RFC 3339 timestamp",
			domain.ErrInvalidDueDate)
		assert.Contains(t, GetSafeErrorMessage(err), "due_date")
	})

	t.Run("unknown errors never leak detail", func(t *testing.T) {
		err := errors.New("pq: connection to db.internal:5432 refused")
		got := GetSafeErrorMessage(err)
		assert.Equal(t, "An unexpected error occurred", got)
	})

	t.Run("nil error", func(t *testing.T) {
		assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
	})
}

func TestSanitizeValidationError(t *testing.T) {
	type payload struct {
		Email string `validate:"required,email"`
	}

	err := validator.New().Struct(payload{Email: "nope"})
	msg := SanitizeValidationError(err)

	assert.Contains(t, msg, "Email")
	assert.NotContains(t, msg, "nope")
}
