// Package tenant carries the authenticated caller through a request context.
package tenant

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const principalKey contextKey = "principal"

const (
	RoleAdmin  = "ADMIN"
	RoleSeller = "SELLER"
	RoleSystem = "SYSTEM"
)

// Principal is the caller resolved from the access token. StoreID is the
// tenant boundary for every scoped collection.
type Principal struct {
	UserID  uuid.UUID
	StoreID uuid.UUID
	Role    string
}

// HasStore reports whether the principal is bound to a store.
func (p Principal) HasStore() bool { return p.StoreID != uuid.Nil }

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin || p.Role == RoleSystem }

// System returns the principal used by background workers acting on behalf
// of a store.
func System(storeID uuid.UUID) Principal {
	return Principal{StoreID: storeID, Role: RoleSystem}
}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// FromContext returns the principal in ctx and whether one was set.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
