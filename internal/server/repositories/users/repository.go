// Package users is the credential store: account records with their salted
// password hash and role.
package users

import (
	"context"
	"time"

	"github.com/fakhri2406/creadev/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills in its ID and RegisteredAt.
	// A taken username yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByUsername(ctx context.Context, userName string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// UpdateLastLogin also takes the row lock on the account for the rest
	// of the transaction.
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	// LockByID takes the account row lock without changing it.
	LockByID(ctx context.Context, id string) error
	GetRoleID(ctx context.Context, title string) (int64, error)
}
