package memory

import (
	"context"
	"testing"

	"campaign-session/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCampaignCacheReplacesSnapshot(t *testing.T) {
	c := NewCampaignCache()
	assert.Empty(t, c.Snapshot())

	c.Replace([]entity.Campaign{{ID: "c1"}, {ID: "c2"}})
	c.Replace([]entity.Campaign{{ID: "c3"}})

	snap := c.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "c3", snap[0].ID)

	snap[0].ID = "mutated"
	assert.Equal(t, "c3", c.Snapshot()[0].ID)

	c.Clear()
	assert.Empty(t, c.Snapshot())
}

func TestCampaignRepositoryFindAll(t *testing.T) {
	repo := NewCampaignRepository(
		entity.Campaign{ID: "c2", Fields: map[string]interface{}{"name": "B"}},
		entity.Campaign{ID: "c1", Fields: map[string]interface{}{"name": "A"}},
	)

	got, err := repo.FindAll(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c1", got[0].ID)
	assert.Equal(t, "B", got[1].Fields["name"])
}

func TestTokenStore(t *testing.T) {
	ctx := context.Background()
	s := NewTokenStore("authToken")

	_, ok, err := s.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, "tok"))
	tok, ok, err := s.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", tok)

	require.NoError(t, s.Delete(ctx))
	require.NoError(t, s.Delete(ctx))
	_, ok, _ = s.Get(ctx)
	assert.False(t, ok)
}
