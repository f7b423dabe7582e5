package contract

import (
	"context"

	"campaign-session/internal/entity"
)

type CampaignRepository interface {
	FindAll(ctx context.Context) ([]entity.Campaign, error)

	// Upsert is used by seeding tools only; the session layer never writes
	// campaigns.
	Upsert(ctx context.Context, campaign entity.Campaign) error
}
