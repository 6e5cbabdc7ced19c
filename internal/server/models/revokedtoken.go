package models

import "time"

// RevokedToken records an access token invalidated before its natural
// expiry. The record is safe to drop once Expires has passed.
type RevokedToken struct {
	Token     string
	Expires   time.Time
	RevokedAt time.Time
}
