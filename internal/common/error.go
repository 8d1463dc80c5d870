// Package common defines shared constants and sentinel errors used across
// the bot backend. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// ErrAmbiguousMatch is returned when a credential pair matches more
	// than one secret. The source data guarantees uniqueness; a duplicate
	// is rejected rather than resolved by an arbitrary pick.
	ErrAmbiguousMatch = errors.New("ambiguous match")

	// ErrClaimConflict is returned when a secret was claimed by another
	// user between the credential lookup and the claim commit.
	ErrClaimConflict = errors.New("secret already claimed")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
