package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User validation errors.
var (
	ErrEmptyUserID     = NewValidationError("id", "cannot be empty", ErrValidation)
	ErrEmptyExternalID = NewValidationError("external_id", "cannot be empty", ErrValidation)
	ErrEmptyEmail      = NewValidationError("email", "cannot be empty", ErrValidation)
)

// User represents a registered user of the application. Users are created on
// first successful identity verification and keyed by the stable ExternalID
// issued by the identity provider; subsequent verifications refresh the
// mutable profile fields.
type User struct {
	ID         uuid.UUID `json:"id"`
	ExternalID string    `json:"-"` // identity provider subject, never exposed
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	AvatarURL  string    `json:"avatar,omitempty"`
	Provider   string    `json:"provider,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewUser creates a new User from a verified external identity. It generates
// a new UUID, canonicalizes the email to lowercase, and sets the timestamps.
// Returns an error if validation fails.
func NewUser(externalID, name, email, avatarURL, provider string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:         uuid.New(),
		ExternalID: externalID,
		Name:       name,
		Email:      NormalizeEmail(email),
		AvatarURL:  avatarURL,
		Provider:   provider,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}

	if u.ExternalID == "" {
		return ErrEmptyExternalID
	}

	if u.Email == "" {
		return ErrEmptyEmail
	}

	if !validEmail(u.Email) {
		return ErrInvalidEmail
	}

	return nil
}

// Identity is the resolved acting identity attached to each authenticated
// request: the internal user ID plus the canonical (lowercased) email. It is
// the subject the access policy evaluates.
type Identity struct {
	ID    uuid.UUID
	Email string
}

// NormalizeEmail returns the canonical form of an email address used for all
// comparisons and storage: trimmed and lowercased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validEmail performs a basic structural check of an email address. The
// identity provider is the authority on deliverability; this only rejects
// values that cannot possibly be addresses.
func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}

	domainPart := email[at+1:]
	dot := strings.Index(domainPart, ".")
	return dot > 0 && dot < len(domainPart)-1
}
