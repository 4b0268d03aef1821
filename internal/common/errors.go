// Package common defines shared constants, sentinel errors and small helpers
// used by the server, the backup pipeline and the CLI client. Callers should
// use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound          = errors.New("not found")
	ErrConstraintViolation = errors.New("constraint violation")

	// Service-level errors.
	ErrorInternal      = errors.New("internal error")
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrFeatureDisabled = errors.New("feature not configured")

	// Backup pipeline errors.
	ErrInvalidDocument = errors.New("invalid backup document")
	ErrInvalidMode     = errors.New("invalid import mode")
	ErrPurgeFailed     = errors.New("purge failed")
	ErrRowRejected     = errors.New("row rejected")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
