package memory

import (
	"context"
	"sync"
	"testing"

	"campaign-session/internal/entity"
	"campaign-session/internal/pkg/apperror"
	"campaign-session/internal/pkg/authctx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedIn(uid, email string) context.Context {
	return authctx.WithIdentity(context.Background(), &entity.ExternalIdentity{UID: uid, Email: email})
}

func TestCreateProfileIfAbsentIsIdempotent(t *testing.T) {
	repo := NewProfileRepository()
	defaults := entity.UserProfile{UID: "u1", Email: "u1@example.com", Name: "First"}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.CreateProfileIfAbsent(context.Background(), "u1", defaults)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, repo.Count())

	stale := entity.UserProfile{UID: "u1", Email: "other@example.com", Name: "Second"}
	got, err := repo.CreateProfileIfAbsent(context.Background(), "u1", stale)
	require.NoError(t, err)
	assert.Equal(t, "First", got.Name)
	assert.Equal(t, "u1@example.com", got.Email)
	assert.Empty(t, got.Messages)
}

func TestCreateProfileIfAbsentResetsMessages(t *testing.T) {
	repo := NewProfileRepository()

	got, err := repo.CreateProfileIfAbsent(context.Background(), "u1", entity.UserProfile{
		Email:    "u1@example.com",
		Messages: entity.Messages{{"text": "smuggled"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "u1", got.UID)
	assert.NotNil(t, got.Messages)
	assert.Empty(t, got.Messages)
}

func TestGetProfileAbsentIsNotAnError(t *testing.T) {
	repo := NewProfileRepository()

	got, err := repo.GetProfile(context.Background(), "missing")

	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestAppendMessageAtMostOnce(t *testing.T) {
	repo := NewProfileRepository()
	ctx := signedIn("u1", "u1@example.com")
	prompt := entity.Prompt{"text": "hi"}

	require.NoError(t, repo.AppendMessage(ctx, "u1", prompt))
	require.NoError(t, repo.AppendMessage(ctx, "u1", prompt))

	got, err := repo.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1@example.com", got.Email)
	assert.Equal(t, entity.Messages{{"text": "hi"}}, got.Messages)
}

func TestAppendMessagePreservesOrder(t *testing.T) {
	repo := NewProfileRepository()
	ctx := signedIn("u1", "u1@example.com")
	_, err := repo.CreateProfileIfAbsent(ctx, "u1", entity.UserProfile{Email: "u1@example.com"})
	require.NoError(t, err)

	require.NoError(t, repo.AppendMessage(ctx, "u1", entity.Prompt{"text": "one"}))
	require.NoError(t, repo.AppendMessage(ctx, "u1", entity.Prompt{"text": "two"}))
	require.NoError(t, repo.AppendMessage(ctx, "u1", entity.Prompt{"text": "one"}))

	got, err := repo.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, entity.Messages{{"text": "one"}, {"text": "two"}}, got.Messages)
}

func TestAppendMessageConcurrentDuplicates(t *testing.T) {
	repo := NewProfileRepository()
	ctx := signedIn("u1", "u1@example.com")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.AppendMessage(ctx, "u1", entity.Prompt{"text": "hi"}))
		}()
	}
	wg.Wait()

	got, err := repo.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, got.Messages, 1)
}

func TestWritesRequireIdentity(t *testing.T) {
	repo := NewProfileRepository()
	name := "Ada"

	tests := []struct {
		name string
		ctx  context.Context
	}{
		{name: "no identity", ctx: context.Background()},
		{name: "identity for another uid", ctx: signedIn("u2", "u2@example.com")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.AppendMessage(tt.ctx, "u1", entity.Prompt{"text": "hi"})
			assert.ErrorIs(t, err, apperror.ErrStoreNotAuthenticated)

			_, err = repo.MergeProfileFields(tt.ctx, "u1", entity.ProfileFields{Name: &name})
			assert.ErrorIs(t, err, apperror.ErrStoreNotAuthenticated)
		})
	}
	assert.Equal(t, 0, repo.Count())
}

func TestMergeProfileFieldsUpserts(t *testing.T) {
	repo := NewProfileRepository()
	ctx := signedIn("u1", "u1@example.com")
	name := "Ada"
	phone := "555"

	created, err := repo.MergeProfileFields(ctx, "u1", entity.ProfileFields{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ada", created.Name)

	require.NoError(t, repo.AppendMessage(ctx, "u1", entity.Prompt{"text": "keep me"}))

	merged, err := repo.MergeProfileFields(ctx, "u1", entity.ProfileFields{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Ada", merged.Name)
	assert.Equal(t, "555", merged.Phone)
	assert.Len(t, merged.Messages, 1)
}

func TestMergeProfileFieldsValidates(t *testing.T) {
	repo := NewProfileRepository()
	ctx := signedIn("u1", "u1@example.com")
	image := "not a url"

	_, err := repo.MergeProfileFields(ctx, "u1", entity.ProfileFields{Image: &image})

	assert.ErrorIs(t, err, apperror.ErrStoreWriteFailure)
}

func TestReturnedProfilesAreCopies(t *testing.T) {
	repo := NewProfileRepository()
	ctx := signedIn("u1", "u1@example.com")
	require.NoError(t, repo.AppendMessage(ctx, "u1", entity.Prompt{"text": "hi"}))

	got, err := repo.GetProfile(ctx, "u1")
	require.NoError(t, err)
	got.Messages[0]["text"] = "mutated"

	again, err := repo.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "hi", again.Messages[0]["text"])
}
