package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fakhri2406/creadev/internal/common"
	"github.com/fakhri2406/creadev/internal/server/models"
)

// NewAccount is the input for CreateAccount.
type NewAccount struct {
	Username    string
	Password    string
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Role        string
}

// CreateAccount stores a new account with a fresh salt and a digest of
// password+salt. Returns common.ErrorAlreadyExists if the username is taken.
func (s *AuthService) CreateAccount(ctx context.Context, in NewAccount) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, errors.New("username and password are required")
	}
	role := strings.ToUpper(strings.TrimSpace(in.Role))
	if role == "" {
		role = common.RoleEditor
	}

	repo := s.repomanager.Users(s.db)

	roleID, err := repo.GetRoleID(ctx, role)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("unknown role %q", role)
		}
		return nil, fmt.Errorf("error loading role: %w", err)
	}

	salt, err := common.MakeRandHexString(common.PasswordSaltBytes)
	if err != nil {
		return nil, fmt.Errorf("error generating salt: %w", err)
	}
	hash, err := s.hasher.Hash(in.Password + salt)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		UserName:     username,
		PasswordHash: hash,
		PasswordSalt: salt,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PhoneNumber:  in.PhoneNumber,
		RoleID:       roleID,
		Role:         role,
	}
	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "account created", "username", u.UserName, "role", role)
	return u, nil
}

// Session describes one stored refresh token without exposing its value.
type Session struct {
	ID        string
	CreatedAt time.Time
	ExpiresAt time.Time
	Expired   bool
}

// Sessions lists the refresh tokens currently stored for username.
func (s *AuthService) Sessions(ctx context.Context, username string) ([]Session, error) {
	user, err := s.repomanager.Users(s.db).GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrAccountNotFound
		}
		return nil, fmt.Errorf("error loading account: %w", err)
	}

	records, err := s.repomanager.RefreshTokens(s.db).FindByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("error listing refresh tokens: %w", err)
	}

	now := s.now()
	sessions := make([]Session, 0, len(records))
	for _, r := range records {
		sessions = append(sessions, Session{
			ID:        r.ID,
			CreatedAt: r.CreatedAt,
			ExpiresAt: r.Expires,
			Expired:   r.ExpiredAt(now),
		})
	}
	return sessions, nil
}
