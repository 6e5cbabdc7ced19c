// Package revokedtokens keeps the deny-list of access tokens that were
// invalidated before their natural expiry.
package revokedtokens

import (
	"context"
	"time"
)

type Repository interface {
	// Create records token as revoked until expires. Revoking the same token
	// twice is not an error.
	Create(ctx context.Context, token string, expires time.Time) error
	Exists(ctx context.Context, token string) (bool, error)
	// DeleteExpired drops records whose expiry is before now and reports how
	// many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
