package contract

import (
	"context"

	"campaign-session/internal/entity"
)

// ProfileRepository owns the one-document-per-uid profile collection.
// Writes that need an established identity read it from the context
// (see authctx).
type ProfileRepository interface {
	// GetProfile returns (nil, nil) when no document exists.
	GetProfile(ctx context.Context, uid string) (*entity.UserProfile, error)

	// CreateProfileIfAbsent writes defaults (with an empty history) only when
	// no document exists and returns whatever is stored afterwards.
	CreateProfileIfAbsent(ctx context.Context, uid string, defaults entity.UserProfile) (*entity.UserProfile, error)

	// MergeProfileFields upserts the mentioned fields, never removing others.
	MergeProfileFields(ctx context.Context, uid string, fields entity.ProfileFields) (*entity.UserProfile, error)

	// AppendMessage appends prompt at most once. A missing document is
	// created as {email, messages:[prompt]}.
	AppendMessage(ctx context.Context, uid string, prompt entity.Prompt) error
}
