package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/xeno035/taskhive/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Upsert creates the user on first sight of their external identity, or
	// refreshes the mutable profile fields (name, email, avatar, provider)
	// when a user with the same ExternalID already exists. The stored user,
	// including its stable internal ID, is written back to the argument.
	Upsert(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their internal ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by their canonical email address.
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}
