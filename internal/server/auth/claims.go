// Package auth signs and verifies access tokens, mints refresh tokens and
// carries the caller's identity through a request context.
package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the fixed claim set of an access token: the registered claims
// plus a snapshot of the account taken at issuance.
type Claims struct {
	jwt.RegisteredClaims
	Username    string `json:"username"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Role        string `json:"role,omitempty"`
}
