package memory

import (
	"context"
	"sort"
	"sync"

	"campaign-session/internal/entity"
	"campaign-session/internal/pkg/apperror"
	"campaign-session/internal/repository/contract"
)

type CampaignRepository struct {
	mu        sync.RWMutex
	campaigns map[string]entity.Campaign
}

func NewCampaignRepository(seed ...entity.Campaign) *CampaignRepository {
	r := &CampaignRepository{campaigns: make(map[string]entity.Campaign, len(seed))}
	for _, c := range seed {
		r.campaigns[c.ID] = c.Clone()
	}
	return r
}

var _ contract.CampaignRepository = (*CampaignRepository)(nil)

func (r *CampaignRepository) FindAll(ctx context.Context) ([]entity.Campaign, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperror.ReadFailure(err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entity.Campaign, 0, len(r.campaigns))
	for _, c := range r.campaigns {
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *CampaignRepository) Upsert(ctx context.Context, campaign entity.Campaign) error {
	if err := ctx.Err(); err != nil {
		return apperror.WriteFailure(err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.campaigns[campaign.ID] = campaign.Clone()
	return nil
}
