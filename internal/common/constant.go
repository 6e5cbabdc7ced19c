package common

const (
	// AuthorizationHeaderName carries the bearer access token on HTTP requests
	// and as gRPC metadata.
	AuthorizationHeaderName = "authorization"

	// BearerScheme is the auth scheme expected in the authorization header.
	// Matching is case-insensitive.
	BearerScheme = "bearer"

	// RefreshTokenBytes is the amount of random data behind a refresh token.
	RefreshTokenBytes = 32

	// PasswordSaltBytes is the amount of random data behind a password salt.
	PasswordSaltBytes = 8
)

// Role titles seeded by the initial migration.
const (
	RoleAdmin  = "ADMIN"
	RoleEditor = "EDITOR"
)
