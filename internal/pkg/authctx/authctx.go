// Package authctx carries the signed-in identity through a context so the
// store layer can enforce that writes come from an established identity.
package authctx

import (
	"context"

	"campaign-session/internal/entity"
)

type contextKey int

const identityKey contextKey = iota

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *entity.ExternalIdentity) context.Context {
	if id == nil {
		return ctx
	}
	return context.WithValue(ctx, identityKey, id.Clone())
}

// IdentityFromContext extracts the identity placed by WithIdentity.
func IdentityFromContext(ctx context.Context) (*entity.ExternalIdentity, bool) {
	id, ok := ctx.Value(identityKey).(*entity.ExternalIdentity)
	if !ok || id == nil || id.UID == "" {
		return nil, false
	}
	return id, true
}

// RequireUID returns the identity only when it belongs to uid.
func RequireUID(ctx context.Context, uid string) (*entity.ExternalIdentity, bool) {
	id, ok := IdentityFromContext(ctx)
	if !ok || id.UID != uid {
		return nil, false
	}
	return id, true
}
