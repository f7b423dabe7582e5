// Package identity is the boundary to the external identity provider.
package identity

import (
	"context"

	"campaign-session/internal/entity"
)

// Unsubscribe stops an identity observation. It is safe to call more than
// once and from inside the observer callback.
type Unsubscribe func()

type Client interface {
	// SignInInteractive runs the provider's interactive flow and blocks until
	// the user finishes or cancels it.
	SignInInteractive(ctx context.Context) (*entity.ExternalIdentity, error)

	// SignOut clears the provider's current user. Signing out twice succeeds.
	SignOut(ctx context.Context) error

	// ObserveIdentityChanges calls fn with the current identity (nil when
	// signed out) before returning, then once per change. Calls are
	// serialized.
	ObserveIdentityChanges(fn func(*entity.ExternalIdentity)) (Unsubscribe, error)

	// CurrentIdentityToken returns a bearer token for the current identity.
	CurrentIdentityToken(ctx context.Context) (string, error)

	Current() *entity.ExternalIdentity
}
