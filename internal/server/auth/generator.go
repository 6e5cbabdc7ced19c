package auth

import (
	"fmt"
	"time"

	"github.com/fakhri2406/creadev/internal/common"
	"github.com/fakhri2406/creadev/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Generator builds access tokens from an account's current state and mints
// opaque refresh tokens.
type Generator struct {
	codec     *Codec
	accessTTL time.Duration
	now       func() time.Time
}

// NewGenerator returns a generator signing with codec. A nil now means time.Now.
func NewGenerator(codec *Codec, accessTTL time.Duration, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{codec: codec, accessTTL: accessTTL, now: now}
}

// NewClaims snapshots user into an access-token claim set issued now.
func (g *Generator) NewClaims(user *models.User) *Claims {
	now := g.now()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    g.codec.Issuer(),
			Audience:  jwt.ClaimStrings{g.codec.Audience()},
			Subject:   user.UserName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.accessTTL)),
		},
		Username:    user.UserName,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Email:       user.Email,
		PhoneNumber: user.PhoneNumber,
		Role:        user.Role,
	}
}

func (g *Generator) GenerateAccessToken(user *models.User) (string, error) {
	return g.codec.Sign(g.NewClaims(user))
}

// GenerateRefreshToken returns a hex string over common.RefreshTokenBytes of
// crypto/rand output. It carries no account data.
func (g *Generator) GenerateRefreshToken() (string, error) {
	token, err := common.MakeRandHexString(common.RefreshTokenBytes)
	if err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return token, nil
}
