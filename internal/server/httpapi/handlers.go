package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/fakhri2406/creadev/internal/server/auth"
)

// maxRequestBodySize caps JSON request bodies (1 MB).
const maxRequestBodySize = 1 << 20

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Token string `json:"token"`
}

// decodeJSON reads the request body into v and writes a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "malformed request body", nil)
		return false
	}
	return true
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	details := map[string]string{}
	if strings.TrimSpace(req.Username) == "" {
		details["username"] = "must not be blank"
	}
	if req.Password == "" {
		details["password"] = "must not be blank"
	}
	if len(details) > 0 {
		writeError(w, http.StatusBadRequest, CodeValidation, "validation failed", details)
		return
	}

	pair, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		writeError(w, http.StatusBadRequest, CodeValidation, "validation failed", map[string]string{"token": "must not be blank"})
		return
	}

	pair, err := s.auth.RefreshToken(r.Context(), req.Token)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, _ := auth.BearerToken(r.Header.Get("Authorization"))
	if err := s.auth.Logout(r.Context(), token); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	token, ok := auth.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "full authentication is required", nil)
		return
	}

	info, err := s.auth.GetUserInfo(r.Context(), token)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	if s.maintenance == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "maintenance is not enabled", nil)
		return
	}

	res, err := s.maintenance.PurgeExpired(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), "purge failed", "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, "internal server error", nil)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Warn(r.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "DOWN"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "UP"})
}
