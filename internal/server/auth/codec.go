package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/fakhri2406/creadev/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Codec signs and verifies HS256 access tokens with one shared key and a
// fixed issuer and audience.
//
// Every verification failure wraps common.ErrInvalidAccessToken; the
// underlying cause is kept in the chain for logging only.
type Codec struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

func NewCodec(secret []byte, issuer, audience string) *Codec {
	return &Codec{secret: secret, issuer: issuer, audience: audience, now: time.Now}
}

// WithClock returns a copy of the codec that validates expiry against now.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	return &cp
}

func (c *Codec) Issuer() string   { return c.issuer }
func (c *Codec) Audience() string { return c.audience }

func (c *Codec) Sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer, audience and expiry.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	return c.parse(tokenString,
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
}

// Inspect checks only the signature and returns the claims as issued, even
// when the token is expired.
func (c *Codec) Inspect(tokenString string) (*Claims, error) {
	return c.parse(tokenString, jwt.WithoutClaimsValidation())
}

// Decode reads the claims without checking the signature or any claim.
// Only use it on tokens that were verified earlier in the request.
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidAccessToken, err)
	}
	return claims, nil
}

func (c *Codec) parse(tokenString string, opts ...jwt.ParserOption) (*Claims, error) {
	claims := &Claims{}
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidAccessToken, err)
	}
	if !token.Valid {
		return nil, common.ErrInvalidAccessToken
	}
	return claims, nil
}

// IsExpired reports whether err came from an expired token.
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}
