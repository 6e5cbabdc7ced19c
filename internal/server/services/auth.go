// Package services contains server-side business logic. This file implements
// AuthService: login, refresh-token rotation, logout with access-token
// revocation, and reading back the claims of an access token.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fakhri2406/creadev/internal/common"
	"github.com/fakhri2406/creadev/internal/cryptox"
	"github.com/fakhri2406/creadev/internal/dbx"
	"github.com/fakhri2406/creadev/internal/logging"
	"github.com/fakhri2406/creadev/internal/server/auth"
	"github.com/fakhri2406/creadev/internal/server/config"
	"github.com/fakhri2406/creadev/internal/server/models"
	"github.com/fakhri2406/creadev/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// UserInfo is the claim set of an access token as it was issued.
type UserInfo struct {
	Issuer      string    `json:"issuer"`
	Audience    string    `json:"audience"`
	Subject     string    `json:"subject"`
	IssuedAt    time.Time `json:"issuedAt"`
	Expiration  time.Time `json:"expiration"`
	Username    string    `json:"username"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phoneNumber"`
	Role        string    `json:"role"`
}

// AuthService owns the token lifecycle:
//   - Login: verify credentials, replace the account's session, mint tokens
//   - RefreshToken: rotate a refresh token in place and mint a new access token
//   - Logout: drop the account's session and revoke the presented access token
//   - GetUserInfo: return the claims of an access token
//
// Every state change runs in one transaction; the account row lock (login,
// logout) or the refresh-token row lock (refresh) serializes competing calls.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      cryptox.Hasher
	codec       *auth.Codec
	generator   *auth.Generator
	accessTTL   time.Duration
	refreshTTL  time.Duration
	now         func() time.Time
	logger      logging.Logger
}

type AuthOption func(*AuthService)

// WithClock makes the service, its generator and its codec read time from now.
func WithClock(now func() time.Time) AuthOption {
	return func(s *AuthService) {
		s.now = now
	}
}

// NewAuthService constructs an AuthService using repositories and server config.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, hasher cryptox.Hasher, cfg *config.Config, logger logging.Logger, opts ...AuthOption) *AuthService {
	s := &AuthService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		accessTTL:   cfg.AccessTokenValidityDuration,
		refreshTTL:  cfg.RefreshTokenValidityDuration,
		now:         time.Now,
		logger:      logger.With("module", "auth"),
	}
	for _, o := range opts {
		o(s)
	}
	s.codec = auth.NewCodec([]byte(cfg.SecretKey), cfg.TokenIssuer, cfg.TokenAudience).WithClock(s.now)
	s.generator = auth.NewGenerator(s.codec, s.accessTTL, s.now)
	return s
}

// Codec returns the codec the service signs with, for the request authenticator.
func (s *AuthService) Codec() *auth.Codec {
	return s.codec
}

// Login checks username and password and opens a new session, dropping any
// refresh tokens the account already had.
func (s *AuthService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.repomanager.Users(s.db).GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, s.fail(ctx, "login", err)
	}
	if !s.hasher.Matches(password+user.PasswordSalt, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, dbx.ReadCommitted, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).UpdateLastLogin(ctx, user.ID, s.now()); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidCredentials
			}
			return fmt.Errorf("error updating last login: %w", err)
		}
		if _, err := s.repomanager.RefreshTokens(tx).DeleteByUserID(ctx, user.ID); err != nil {
			return fmt.Errorf("error deleting refresh tokens: %w", err)
		}

		var err error
		pair, err = s.issueTokenPair(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, "login", err)
	}

	s.logger.Info(ctx, "user logged in", "username", user.UserName)
	return pair, nil
}

// RefreshToken exchanges a refresh token for a new pair. The caller must be
// authenticated as the token's owner. The stored record is overwritten, so
// the old value stops working the moment the transaction commits.
// Expired tokens are deleted and yield ErrRefreshTokenExpired.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, common.ErrInvalidRefreshToken
	}

	var (
		pair    *TokenPair
		expired bool
	)
	err := dbx.WithTx(ctx, s.db, dbx.ReadCommitted, func(ctx context.Context, tx dbx.DBTX) error {
		tokens := s.repomanager.RefreshTokens(tx)

		record, err := tokens.FindForUpdate(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidRefreshToken
			}
			return fmt.Errorf("error searching refresh token: %w", err)
		}

		if record.ExpiredAt(s.now()) {
			// the deletion is committed before ErrRefreshTokenExpired is returned
			expired = true
			if err := tokens.Delete(ctx, refreshToken); err != nil {
				return fmt.Errorf("error deleting refresh token: %w", err)
			}
			return nil
		}

		user, err := s.repomanager.Users(tx).GetUserByID(ctx, record.UserID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrAccountNotFound
			}
			return fmt.Errorf("error loading account: %w", err)
		}

		caller, ok := auth.IdentityFromContext(ctx)
		if !ok {
			return common.ErrorUnauthorized
		}
		if caller.Username != user.UserName {
			return common.ErrRefreshTokenMismatch
		}

		next, err := s.generator.GenerateRefreshToken()
		if err != nil {
			return err
		}
		if err := tokens.Rotate(ctx, record.ID, next, s.now().Add(s.refreshTTL)); err != nil {
			return fmt.Errorf("error rotating refresh token: %w", err)
		}

		access, err := s.generator.GenerateAccessToken(user)
		if err != nil {
			return err
		}
		pair = &TokenPair{AccessToken: access, RefreshToken: next}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, "refresh", err)
	}
	if expired {
		return nil, common.ErrRefreshTokenExpired
	}
	return pair, nil
}

// Logout ends the caller's session. When accessToken is not empty it is also
// revoked until its own expiry.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	caller, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return common.ErrorUnauthorized
	}

	user, err := s.repomanager.Users(s.db).GetUserByUsername(ctx, caller.Username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrAccountNotFound
		}
		return s.fail(ctx, "logout", err)
	}

	accessToken = strings.TrimSpace(accessToken)
	var expires time.Time
	if accessToken != "" {
		// the token already passed the authenticator; only its expiry is needed
		claims, err := s.codec.Decode(accessToken)
		if err != nil {
			return s.fail(ctx, "logout", err)
		}
		if claims.ExpiresAt != nil {
			expires = claims.ExpiresAt.Time
		} else {
			expires = s.now().Add(s.accessTTL)
		}
	}

	err = dbx.WithTx(ctx, s.db, dbx.ReadCommitted, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).LockByID(ctx, user.ID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrAccountNotFound
			}
			return fmt.Errorf("error locking account: %w", err)
		}
		if _, err := s.repomanager.RefreshTokens(tx).DeleteByUserID(ctx, user.ID); err != nil {
			return fmt.Errorf("error deleting refresh tokens: %w", err)
		}
		if accessToken == "" {
			return nil
		}
		// kept last: an external revocation store cannot roll back
		if err := s.repomanager.RevokedTokens(tx).Create(ctx, accessToken, expires); err != nil {
			return fmt.Errorf("error revoking access token: %w", err)
		}
		return nil
	})
	if err != nil {
		return s.fail(ctx, "logout", err)
	}

	s.logger.Info(ctx, "user logged out", "username", user.UserName, "revoked", accessToken != "")
	return nil
}

// GetUserInfo returns the claims of accessToken after checking its signature.
// Expiry and revocation are not checked here; the request authenticator does that.
func (s *AuthService) GetUserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, common.ErrInvalidAccessToken
	}

	claims, err := s.codec.Inspect(accessToken)
	if err != nil {
		s.logger.Debug(ctx, "user info rejected", "expired", auth.IsExpired(err), "error", err)
		return nil, err
	}

	info := &UserInfo{
		Issuer:      claims.Issuer,
		Audience:    strings.Join(claims.Audience, ","),
		Subject:     claims.Subject,
		Username:    claims.Username,
		FirstName:   claims.FirstName,
		LastName:    claims.LastName,
		Email:       claims.Email,
		PhoneNumber: claims.PhoneNumber,
		Role:        claims.Role,
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.Expiration = claims.ExpiresAt.Time
	}
	return info, nil
}

func (s *AuthService) issueTokenPair(ctx context.Context, tx dbx.DBTX, user *models.User) (*TokenPair, error) {
	access, err := s.generator.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}
	refresh, err := s.generator.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}
	if err := s.repomanager.RefreshTokens(tx).Create(ctx, user.ID, refresh, s.now().Add(s.refreshTTL)); err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// fail passes client errors through and turns everything else into
// common.ErrorInternal after logging it.
func (s *AuthService) fail(ctx context.Context, op string, err error) error {
	if common.IsClientError(err) {
		return err
	}
	s.logger.Error(ctx, op+" failed", "error", err)
	return common.ErrorInternal
}
