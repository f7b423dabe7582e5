package memory

import (
	"time"

	"campaign-session/internal/entity"

	"github.com/patrickmn/go-cache"
)

const campaignSnapshotKey = "campaigns"

// CampaignCache holds the last fetched campaign list. Every fetch replaces
// the whole snapshot; entries never expire on their own.
type CampaignCache struct {
	cache *cache.Cache
}

func NewCampaignCache() *CampaignCache {
	return &CampaignCache{
		cache: cache.New(cache.NoExpiration, 10*time.Minute),
	}
}

func (c *CampaignCache) Replace(campaigns []entity.Campaign) {
	c.cache.Set(campaignSnapshotKey, cloneCampaigns(campaigns), cache.NoExpiration)
}

// Snapshot returns a copy of the cached list, empty before the first fetch.
func (c *CampaignCache) Snapshot() []entity.Campaign {
	if x, found := c.cache.Get(campaignSnapshotKey); found {
		return cloneCampaigns(x.([]entity.Campaign))
	}
	return []entity.Campaign{}
}

func (c *CampaignCache) Clear() {
	c.cache.Delete(campaignSnapshotKey)
}

func cloneCampaigns(in []entity.Campaign) []entity.Campaign {
	out := make([]entity.Campaign, 0, len(in))
	for _, c := range in {
		out = append(out, c.Clone())
	}
	return out
}
