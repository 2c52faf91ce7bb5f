// Package common defines shared constants and sentinel errors used across
// client and server layers of Afterlight. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Cryptographic core errors.
	ErrEntropyUnavailable      = errors.New("secure random source unavailable")
	ErrDerivationParamsInvalid = errors.New("key derivation parameters out of supported range")
	ErrAuthenticationFailed    = errors.New("authentication failed")
	ErrMalformedEncoding       = errors.New("malformed encoding")
	ErrKeyReleased             = errors.New("key material has been released")
	ErrEmptyPassphrase         = errors.New("passphrase must not be empty")

	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrConflict   = errors.New("conflict")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
