package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// Callers use errors.Is() to check for specific conditions; the API layer maps
// them onto HTTP status codes.
var (
	// ErrForbidden indicates the access policy denied the attempted action.
	// API layer should map this to HTTP 403 Forbidden.
	ErrForbidden = errors.New("action not permitted")

	// ErrInvalidInput indicates request data failed validation before any
	// store mutation. API layer should map this to HTTP 400 Bad Request.
	ErrInvalidInput = errors.New("invalid input")
)
