// Package common defines shared constants, sentinel errors and small helpers
// used across the creadev auth service. Callers should use errors.Is to match
// the error values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Credential errors.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountNotFound    = errors.New("user not found")

	// Access token errors.
	ErrInvalidAccessToken = errors.New("invalid access token")
	ErrAccessTokenRevoked = errors.New("access token has been revoked")

	// Refresh token lifecycle errors.
	ErrInvalidRefreshToken  = errors.New("invalid refresh token")
	ErrRefreshTokenExpired  = errors.New("refresh token expired")
	ErrRefreshTokenMismatch = errors.New("refresh token does not belong to current user")
)

var clientErrors = []error{
	ErrorUnauthorized,
	ErrInvalidCredentials,
	ErrAccountNotFound,
	ErrInvalidAccessToken,
	ErrAccessTokenRevoked,
	ErrInvalidRefreshToken,
	ErrRefreshTokenExpired,
	ErrRefreshTokenMismatch,
}

// IsClientError reports whether err is one of the terminal, caller-caused
// failures that should be returned to the client as-is.
func IsClientError(err error) bool {
	for _, e := range clientErrors {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
