package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"campaign-session/internal/entity"
	"campaign-session/internal/mapper"
	"campaign-session/internal/pkg/apperror"
	"campaign-session/internal/pkg/authctx"
	"campaign-session/internal/repository/contract"
)

// ProfileRepository is the in-process profile store. It follows the same
// create-if-absent, merge and at-most-once append rules as the Postgres
// implementation; every read and write copies, so callers never alias the
// stored documents.
type ProfileRepository struct {
	mu       sync.Mutex
	profiles map[string]*entity.UserProfile
	mapper   *mapper.ProfileMapper
}

func NewProfileRepository() *ProfileRepository {
	return &ProfileRepository{
		profiles: make(map[string]*entity.UserProfile),
		mapper:   mapper.NewProfileMapper(),
	}
}

var _ contract.ProfileRepository = (*ProfileRepository)(nil)

func (r *ProfileRepository) GetProfile(ctx context.Context, uid string) (*entity.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperror.ReadFailure(err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.profiles[uid].Clone(), nil
}

func (r *ProfileRepository) CreateProfileIfAbsent(ctx context.Context, uid string, defaults entity.UserProfile) (*entity.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperror.WriteFailure(err)
	}
	defaults.UID = uid
	defaults.Messages = entity.Messages{}
	if err := r.mapper.Validate(&defaults); err != nil {
		return nil, apperror.WriteFailure(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.profiles[uid]; ok {
		return existing.Clone(), nil
	}
	now := time.Now()
	defaults.CreatedAt = now
	defaults.UpdatedAt = now
	r.profiles[uid] = defaults.Clone()
	return defaults.Clone(), nil
}

func (r *ProfileRepository) MergeProfileFields(ctx context.Context, uid string, fields entity.ProfileFields) (*entity.UserProfile, error) {
	if _, ok := authctx.RequireUID(ctx, uid); !ok {
		return nil, apperror.NotAuthenticatedStore(uid)
	}
	if err := ctx.Err(); err != nil {
		return nil, apperror.WriteFailure(err)
	}
	if err := r.mapper.ValidateFields(fields); err != nil {
		return nil, apperror.WriteFailure(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	profile, ok := r.profiles[uid]
	if !ok {
		profile = &entity.UserProfile{UID: uid, Messages: entity.Messages{}, CreatedAt: now}
		r.profiles[uid] = profile
	}
	fields.Apply(profile)
	profile.UpdatedAt = now
	return profile.Clone(), nil
}

func (r *ProfileRepository) AppendMessage(ctx context.Context, uid string, prompt entity.Prompt) error {
	id, ok := authctx.RequireUID(ctx, uid)
	if !ok {
		return apperror.NotAuthenticatedStore(uid)
	}
	if err := ctx.Err(); err != nil {
		return apperror.WriteFailure(err)
	}
	if prompt == nil {
		return apperror.WriteFailure(errors.New("empty prompt"))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	profile, ok := r.profiles[uid]
	if !ok {
		r.profiles[uid] = &entity.UserProfile{
			UID:       uid,
			Email:     id.Email,
			Messages:  entity.Messages{prompt.Clone()},
			CreatedAt: now,
			UpdatedAt: now,
		}
		return nil
	}

	updated, added := profile.Messages.AppendUnique(prompt)
	if added {
		profile.Messages = updated
		profile.UpdatedAt = now
	}
	return nil
}

// Count reports the number of stored documents.
func (r *ProfileRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.profiles)
}
