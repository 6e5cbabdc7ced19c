package services

import (
	"context"
	"errors"

	"github.com/fakhri2406/creadev/internal/common"
	"github.com/fakhri2406/creadev/internal/logging"
	"github.com/fakhri2406/creadev/internal/server/config"
)

// Seeder creates the bootstrap admin account at startup. Roles themselves
// come from the schema migrations.
type Seeder struct {
	accounts *AuthService
	username string
	password string
	email    string
	logger   logging.Logger
}

func NewSeeder(accounts *AuthService, cfg *config.Config, logger logging.Logger) *Seeder {
	return &Seeder{
		accounts: accounts,
		username: cfg.AdminUsername,
		password: cfg.AdminPassword,
		email:    cfg.AdminEmail,
		logger:   logger.With("module", "seeder"),
	}
}

// Run creates the admin account if one is configured and missing.
// It reports whether an account was created.
func (s *Seeder) Run(ctx context.Context) (bool, error) {
	if s.username == "" || s.password == "" {
		s.logger.Debug(ctx, "no admin account configured")
		return false, nil
	}

	_, err := s.accounts.CreateAccount(ctx, NewAccount{
		Username:  s.username,
		Password:  s.password,
		FirstName: "Admin",
		LastName:  "Admin",
		Email:     s.email,
		Role:      common.RoleAdmin,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			s.logger.Debug(ctx, "admin account already exists", "username", s.username)
			return false, nil
		}
		return false, err
	}
	return true, nil
}
