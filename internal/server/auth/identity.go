package auth

import (
	"context"
	"strings"

	"github.com/fakhri2406/creadev/internal/common"
)

// Source tells where an identity's role came from.
type Source int

const (
	// SourceClaims means the role was read from the token itself.
	SourceClaims Source = iota + 1
	// SourceStore means the token had no role claim and the account was
	// loaded from the credential store.
	SourceStore
)

func (s Source) String() string {
	switch s {
	case SourceClaims:
		return "claims"
	case SourceStore:
		return "store"
	default:
		return "unknown"
	}
}

// Identity is the authenticated caller of a request.
type Identity struct {
	Username string
	Role     string
	Source   Source
}

func (i *Identity) HasRole(role string) bool {
	return i != nil && strings.EqualFold(i.Role, role)
}

type ctxKey string

const identityKey ctxKey = "identity"

// WithIdentity attaches id to ctx. An identity already present is never
// replaced; ctx is returned unchanged in that case.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	if id == nil {
		return ctx
	}
	if _, ok := IdentityFromContext(ctx); ok {
		return ctx
	}
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil
}

// BearerToken extracts the token from an Authorization header value. The
// scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
