package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fakhri2406/creadev/internal/common"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Timestamp time.Time         `json:"timestamp"`
	Status    int               `json:"status"`
	ErrorCode string            `json:"error_code"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
}

// Error codes.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeNotFound            = "NOT_FOUND"
	CodeMethodNotAllowed    = "METHOD_NOT_ALLOWED"
	CodeRateLimited         = "RATE_LIMITED"
	CodeInternal            = "INTERNAL_ERROR"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeInvalidAccessToken  = "INVALID_ACCESS_TOKEN"
	CodeAccessTokenRevoked  = "ACCESS_TOKEN_REVOKED"
	CodeInvalidRefreshToken = "INVALID_REFRESH_TOKEN"
	CodeRefreshTokenExpired = "REFRESH_TOKEN_EXPIRED"
	CodeRefreshMismatch     = "REFRESH_TOKEN_MISMATCH"
	CodeAccountNotFound     = "ACCOUNT_NOT_FOUND"
)

var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{common.ErrInvalidCredentials, http.StatusUnauthorized, CodeInvalidCredentials},
	{common.ErrInvalidAccessToken, http.StatusUnauthorized, CodeInvalidAccessToken},
	{common.ErrAccessTokenRevoked, http.StatusUnauthorized, CodeAccessTokenRevoked},
	{common.ErrInvalidRefreshToken, http.StatusUnauthorized, CodeInvalidRefreshToken},
	{common.ErrRefreshTokenExpired, http.StatusUnauthorized, CodeRefreshTokenExpired},
	{common.ErrRefreshTokenMismatch, http.StatusForbidden, CodeRefreshMismatch},
	{common.ErrAccountNotFound, http.StatusNotFound, CodeAccountNotFound},
	{common.ErrorUnauthorized, http.StatusUnauthorized, CodeUnauthorized},
}

// mapError returns the status, code and client-safe message for err.
// Wrapped causes never reach the client.
func mapError(err error) (int, string, string) {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			return m.status, m.code, m.err.Error()
		}
	}
	return http.StatusInternalServerError, CodeInternal, "internal server error"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // the client may be gone
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string, details map[string]string) {
	writeJSON(w, status, ErrorResponse{
		Timestamp: time.Now().UTC(),
		Status:    status,
		ErrorCode: code,
		Message:   message,
		Details:   details,
	})
}

func writeServiceError(w http.ResponseWriter, err error) {
	status, code, message := mapError(err)
	writeError(w, status, code, message, nil)
}
