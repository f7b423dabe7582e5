package contract

import "context"

// TokenStore keeps the bearer token artifact under a well-known key.
type TokenStore interface {
	Save(ctx context.Context, token string) error
	Get(ctx context.Context) (string, bool, error)
	Delete(ctx context.Context) error
}
