package httputil

import (
	"context"
	"net/http"

	"filestorage/internal/domain"
	"filestorage/internal/domain/services"
)

// Context key type to avoid collisions
type contextKey string

const identityKey contextKey = "identity"

// WithIdentity adds the authenticated caller to the request context
func WithIdentity(r *http.Request, ident services.Identity) *http.Request {
	return r.WithContext(ContextWithIdentity(r.Context(), ident))
}

// ContextWithIdentity acts on behalf of ident outside an HTTP request.
func ContextWithIdentity(ctx context.Context, ident services.Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

// IdentityFrom retrieves the caller from ctx
func IdentityFrom(ctx context.Context) (services.Identity, bool) {
	ident, ok := ctx.Value(identityKey).(services.Identity)
	return ident, ok
}

// ContextIdentity resolves the caller placed in the context by the auth middleware.
type ContextIdentity struct{}

var _ services.IdentityProvider = ContextIdentity{}

func (ContextIdentity) Identity(ctx context.Context) (services.Identity, error) {
	ident, ok := IdentityFrom(ctx)
	if !ok {
		return services.Identity{}, &domain.UnauthorizedError{Message: "authentication required"}
	}
	return ident, nil
}
