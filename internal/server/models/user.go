package models

import "time"

// User is an account in the credential store. PasswordHash is computed over
// password+PasswordSalt. Role holds the title of RoleID.
type User struct {
	ID           string
	UserName     string
	PasswordHash string
	PasswordSalt string
	FirstName    string
	LastName     string
	Email        string
	PhoneNumber  string
	RoleID       int64
	Role         string
	RegisteredAt time.Time
	LastLoginAt  *time.Time
}

type Role struct {
	ID    int64
	Title string
}
