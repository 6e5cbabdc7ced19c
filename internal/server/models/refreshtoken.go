package models

import "time"

type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}

// ExpiredAt reports whether the token's expiry lies before now.
func (t *RefreshToken) ExpiredAt(now time.Time) bool {
	return t.Expires.Before(now)
}
