package httpapi

import (
	"net/http"

	"github.com/fakhri2406/creadev/internal/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if s.trustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.authenticate)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "resource not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed", nil)
	})

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(s.rateLimit).Post("/login", s.handleLogin)
		r.Post("/refresh", s.handleRefresh)
		r.Get("/me", s.handleMe)

		r.With(s.requireAuthenticated).Post("/logout", s.handleLogout)
		r.With(s.requireRole(common.RoleAdmin)).Post("/maintenance/purge", s.handlePurge)
	})

	return r
}
