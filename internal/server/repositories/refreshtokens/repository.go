// Package refreshtokens declares the server-side repository contract for
// refresh token records: one row per login session, keyed by the opaque
// token value.
package refreshtokens

import (
	"context"
	"time"

	"github.com/fakhri2406/creadev/internal/server/models"
)

// Repository defines operations for issuing, rotating and revoking refresh tokens.
type Repository interface {
	// Create stores a new refresh token for userID expiring at expires.
	Create(ctx context.Context, userID string, token string, expires time.Time) error

	// FindForUpdate looks up a refresh token by its opaque value and locks
	// the row until the surrounding transaction ends. A concurrent caller
	// holding the same value blocks and then sees the row as gone once it was
	// rotated or deleted. Implementations return common.ErrorNotFound when the
	// token is absent.
	FindForUpdate(ctx context.Context, token string) (*models.RefreshToken, error)

	// FindByUserID lists the records owned by userID, newest first.
	FindByUserID(ctx context.Context, userID string) ([]*models.RefreshToken, error)

	// Rotate overwrites the value and expiry of record id in place.
	Rotate(ctx context.Context, id string, token string, expires time.Time) error

	// Delete removes a refresh token by its value. Deleting a non-existent
	// token is not an error.
	Delete(ctx context.Context, token string) error

	// DeleteByUserID removes every record of userID and reports how many.
	DeleteByUserID(ctx context.Context, userID string) (int64, error)

	// DeleteExpired removes records whose expiry is before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
