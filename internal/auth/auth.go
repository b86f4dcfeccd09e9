package auth

import (
	"context"
	"strings"
)

type ctxKey string

const ContextIdentityKey ctxKey = "identity"

const RoleManager = "manager"

// Identity is the authenticated caller. UserID is the canonical id the leave
// store keys requests by.
type Identity struct {
	UserID string
	Email  string
	Roles  []string
}

func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	for _, r := range i.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, ContextIdentityKey, identity)
}

func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(ContextIdentityKey).(*Identity)
	return identity, ok && identity != nil
}
