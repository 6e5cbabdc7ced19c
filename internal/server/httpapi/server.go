// Package httpapi exposes the authentication service over REST.
//
// Every request passes through the request authenticator; routes under
// /api/v1/auth then decide whether an identity is required:
//
//	POST /api/v1/auth/login              public, rate limited per client IP
//	POST /api/v1/auth/refresh            identity checked by the service
//	GET  /api/v1/auth/me                 bearer token required
//	POST /api/v1/auth/logout             authenticated
//	POST /api/v1/auth/maintenance/purge  role ADMIN
//	GET  /health                         public
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/fakhri2406/creadev/internal/logging"
	"github.com/fakhri2406/creadev/internal/server/services"
)

// gracefulShutdownTimeout bounds how long in-flight requests may run after
// the context is cancelled.
const gracefulShutdownTimeout = 10 * time.Second

// AuthService is the part of services.AuthService the handlers use.
type AuthService interface {
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, accessToken string) error
	GetUserInfo(ctx context.Context, accessToken string) (*services.UserInfo, error)
}

// Authenticator resolves the caller of a request from its authorization header.
type Authenticator interface {
	AuthenticateContext(ctx context.Context, header string) (context.Context, error)
}

type Purger interface {
	PurgeExpired(ctx context.Context) (*services.PurgeResult, error)
}

// Pinger reports database health; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps holds the collaborators of the HTTP server.
//
// TrustProxyHeaders makes the client IP come from X-Forwarded-For or
// X-Real-IP. Without it the login limiter keys on the TCP peer address, so
// a client cannot pick its own bucket by sending those headers.
type Deps struct {
	Address                 string
	Auth                    AuthService
	Authenticator           Authenticator
	Maintenance             Purger
	DB                      Pinger
	LoginRateLimitPerMinute int
	TrustProxyHeaders       bool
	Logger                  logging.Logger
}

type Server struct {
	address       string
	auth          AuthService
	authenticator Authenticator
	maintenance   Purger
	db            Pinger
	limiter       *RateLimiter
	trustProxy    bool
	logger        logging.Logger
}

func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Auth == nil || deps.Authenticator == nil {
		return nil, fmt.Errorf("auth service and authenticator are required")
	}

	s := &Server{
		address:       deps.Address,
		auth:          deps.Auth,
		authenticator: deps.Authenticator,
		maintenance:   deps.Maintenance,
		db:            deps.DB,
		trustProxy:    deps.TrustProxyHeaders,
		logger:        deps.Logger.With("module", "http_server"),
	}
	if deps.LoginRateLimitPerMinute > 0 {
		s.limiter = NewRateLimiter(deps.LoginRateLimitPerMinute)
	}
	return s, nil
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.buildRouter(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
