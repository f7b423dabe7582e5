package service

import (
	"context"

	"campaign-session/internal/entity"
	"campaign-session/internal/pkg/logger"
	"campaign-session/internal/repository/contract"
	"campaign-session/internal/repository/memory"
)

type ICampaignService interface {
	// FetchAll lists the campaign collection and replaces the cached
	// snapshot with it.
	FetchAll(ctx context.Context) ([]entity.Campaign, error)
	Snapshot() []entity.Campaign
}

type campaignService struct {
	repo  contract.CampaignRepository
	cache *memory.CampaignCache
	log   logger.ILogger
}

func NewCampaignService(repo contract.CampaignRepository, cache *memory.CampaignCache, log logger.ILogger) ICampaignService {
	return &campaignService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

func (s *campaignService) FetchAll(ctx context.Context) ([]entity.Campaign, error) {
	campaigns, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Replace(campaigns)
	s.log.Debug("CampaignService", "Campaign snapshot replaced", map[string]interface{}{"count": len(campaigns)})
	return s.cache.Snapshot(), nil
}

func (s *campaignService) Snapshot() []entity.Campaign {
	return s.cache.Snapshot()
}
