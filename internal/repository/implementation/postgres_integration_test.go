package implementation

import (
	"context"
	"errors"
	"os"
	"testing"

	"campaign-session/internal/entity"
	"campaign-session/internal/model"
	"campaign-session/internal/pkg/apperror"
	"campaign-session/internal/pkg/authctx"
	"campaign-session/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("DB_CONNECTION_STRING not set")
	}
	db, err := database.NewGormDBFromDSN(dsn, false)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.UserProfile{}, &model.Campaign{}))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func freshUID(t *testing.T, db *gorm.DB) string {
	uid := "it-" + uuid.NewString()
	t.Cleanup(func() {
		db.Where("uid = ?", uid).Delete(&model.UserProfile{})
	})
	return uid
}

func asUser(uid, email string) context.Context {
	return authctx.WithIdentity(context.Background(), &entity.ExternalIdentity{UID: uid, Email: email})
}

func TestPostgresProfileLifecycle(t *testing.T) {
	db := openTestDB(t)
	repo := NewProfileRepository(db)
	uid := freshUID(t, db)

	got, err := repo.GetProfile(context.Background(), uid)
	require.NoError(t, err)
	assert.Nil(t, got)

	created, err := repo.CreateProfileIfAbsent(context.Background(), uid, entity.UserProfile{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", created.Name)
	assert.Empty(t, created.Messages)

	again, err := repo.CreateProfileIfAbsent(context.Background(), uid, entity.UserProfile{Name: "Other"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", again.Name)

	phone := "+44 20"
	merged, err := repo.MergeProfileFields(asUser(uid, "ada@example.com"), uid, entity.ProfileFields{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Ada", merged.Name)
	assert.Equal(t, phone, merged.Phone)

	ctx := asUser(uid, "ada@example.com")
	prompt := entity.Prompt{"text": "hello", "n": float64(1)}
	require.NoError(t, repo.AppendMessage(ctx, uid, prompt))
	require.NoError(t, repo.AppendMessage(ctx, uid, entity.Prompt{"n": float64(1), "text": "hello"}))

	stored, err := repo.GetProfile(context.Background(), uid)
	require.NoError(t, err)
	require.Len(t, stored.Messages, 1)
	assert.True(t, stored.Messages[0].Equal(prompt))
}

func TestPostgresAppendMessageCreatesDocument(t *testing.T) {
	db := openTestDB(t)
	repo := NewProfileRepository(db)
	uid := freshUID(t, db)

	require.NoError(t, repo.AppendMessage(asUser(uid, "new@example.com"), uid, entity.Prompt{"text": "first"}))

	stored, err := repo.GetProfile(context.Background(), uid)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "new@example.com", stored.Email)
	assert.Len(t, stored.Messages, 1)
}

func TestPostgresWritesRequireIdentity(t *testing.T) {
	db := openTestDB(t)
	repo := NewProfileRepository(db)
	uid := freshUID(t, db)

	name := "x"
	_, err := repo.MergeProfileFields(context.Background(), uid, entity.ProfileFields{Name: &name})
	assert.True(t, errors.Is(err, apperror.ErrStoreNotAuthenticated))

	err = repo.AppendMessage(asUser("someone-else", ""), uid, entity.Prompt{"text": "x"})
	assert.True(t, errors.Is(err, apperror.ErrStoreNotAuthenticated))
}

func TestPostgresCampaignUpsert(t *testing.T) {
	db := openTestDB(t)
	repo := NewCampaignRepository(db)
	id := "it-" + uuid.NewString()
	t.Cleanup(func() { db.Where("id = ?", id).Delete(&model.Campaign{}) })

	require.NoError(t, repo.Upsert(context.Background(), entity.Campaign{ID: id, Fields: map[string]interface{}{"name": "A"}}))
	require.NoError(t, repo.Upsert(context.Background(), entity.Campaign{ID: id, Fields: map[string]interface{}{"name": "B", "budget": 10}}))

	all, err := repo.FindAll(context.Background())
	require.NoError(t, err)

	var found *entity.Campaign
	for i := range all {
		if all[i].ID == id {
			found = &all[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "B", found.Fields["name"])
	assert.Equal(t, float64(10), found.Fields["budget"])
}
