package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fakhri2406/creadev/internal/common"
	"github.com/fakhri2406/creadev/internal/logging"
	"github.com/fakhri2406/creadev/internal/server/auth"
	"github.com/fakhri2406/creadev/internal/server/repositories/repomanager"
)

// Authenticator turns the authorization header of an incoming request into
// an auth.Identity. It is shared by the HTTP middleware and the gRPC
// interceptor.
type Authenticator struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	codec       *auth.Codec
	logger      logging.Logger
}

func NewAuthenticator(db *sql.DB, m repomanager.RepositoryManager, codec *auth.Codec, logger logging.Logger) *Authenticator {
	return &Authenticator{
		db:          db,
		repomanager: m,
		codec:       codec,
		logger:      logger.With("module", "authenticator"),
	}
}

// Authenticate resolves the caller from an authorization header value.
// A missing or non-bearer header yields (nil, nil): the request continues
// anonymously and protected routes reject it later.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (*auth.Identity, error) {
	token, ok := auth.BearerToken(header)
	if !ok {
		return nil, nil
	}

	revoked, err := a.repomanager.RevokedTokens(a.db).Exists(ctx, token)
	if err != nil {
		a.logger.Error(ctx, "revocation lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	if revoked {
		return nil, common.ErrAccessTokenRevoked
	}

	claims, err := a.codec.Verify(token)
	if err != nil {
		a.logger.Debug(ctx, "access token rejected", "expired", auth.IsExpired(err), "error", err)
		return nil, common.ErrInvalidAccessToken
	}

	username := claims.Subject
	if username == "" {
		username = claims.Username
	}
	if username == "" {
		return nil, common.ErrInvalidAccessToken
	}

	if claims.Role != "" {
		return &auth.Identity{Username: username, Role: claims.Role, Source: auth.SourceClaims}, nil
	}

	user, err := a.repomanager.Users(a.db).GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidAccessToken
		}
		a.logger.Error(ctx, "account lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	return &auth.Identity{Username: user.UserName, Role: user.Role, Source: auth.SourceStore}, nil
}

// AuthenticateContext runs Authenticate and attaches the identity to ctx.
// An identity already present in ctx is kept.
func (a *Authenticator) AuthenticateContext(ctx context.Context, header string) (context.Context, error) {
	id, err := a.Authenticate(ctx, header)
	if err != nil {
		return ctx, err
	}
	return auth.WithIdentity(ctx, id), nil
}
