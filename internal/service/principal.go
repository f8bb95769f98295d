package service

import (
	"context"

	"github.com/Code-Vida/apistock/internal/apierror"
	"github.com/Code-Vida/apistock/internal/tenant"
)

// storePrincipal returns the caller bound to a store, or an authorization
// error when the context carries none.
func storePrincipal(ctx context.Context) (tenant.Principal, error) {
	p, ok := tenant.FromContext(ctx)
	if !ok {
		return tenant.Principal{}, apierror.ErrUnauthenticated
	}
	if !p.HasStore() {
		return tenant.Principal{}, apierror.ErrUnauthorizedCollection
	}
	return p, nil
}

func adminPrincipal(ctx context.Context) (tenant.Principal, error) {
	p, err := storePrincipal(ctx)
	if err != nil {
		return p, err
	}
	if !p.IsAdmin() {
		return p, apierror.ErrForbidden
	}
	return p, nil
}
