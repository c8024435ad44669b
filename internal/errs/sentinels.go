// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist
	// (or belongs to another user, which callers must not distinguish).
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates a request that fails service-level validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates failed authentication.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyExists indicates a unique constraint violation (username/email taken).
	ErrAlreadyExists = errors.New("already exists")
)
