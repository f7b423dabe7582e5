package unitofwork

import (
	"context"

	"campaign-session/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	CampaignRepository() contract.CampaignRepository
}
