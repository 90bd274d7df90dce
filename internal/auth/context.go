package auth

import (
	"context"

	"github.com/Kauasx09-Henrique/Mava-connect/internal/domain"
)

type ctxKey struct{}

// WithIdentity returns a copy of ctx carrying the authenticated identity.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFrom returns the identity attached by the authenticate middleware.
func IdentityFrom(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(domain.Identity)
	return id, ok
}

// Authorize fails with ErrForbidden unless the identity holds role.
func Authorize(id domain.Identity, role domain.Role) error {
	if id.Role != role {
		return ErrForbidden
	}
	return nil
}
