package implementation

import (
	"context"

	"campaign-session/internal/entity"
	"campaign-session/internal/mapper"
	"campaign-session/internal/model"
	"campaign-session/internal/pkg/apperror"
	"campaign-session/internal/repository/contract"
	"campaign-session/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CampaignRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CampaignMapper
}

func NewCampaignRepository(db *gorm.DB) contract.CampaignRepository {
	return &CampaignRepositoryImpl{
		db:     db,
		mapper: mapper.NewCampaignMapper(),
	}
}

func (r *CampaignRepositoryImpl) FindAll(ctx context.Context) ([]entity.Campaign, error) {
	var rows []*model.Campaign
	query := specification.OrderBy{Field: "id"}.Apply(r.db.WithContext(ctx))
	if err := query.Find(&rows).Error; err != nil {
		return nil, apperror.ReadFailure(err)
	}

	campaigns, err := r.mapper.ToEntities(rows)
	if err != nil {
		return nil, apperror.ReadFailure(err)
	}
	return campaigns, nil
}

func (r *CampaignRepositoryImpl) Upsert(ctx context.Context, campaign entity.Campaign) error {
	row := r.mapper.ToModel(campaign)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(row).Error
	if err != nil {
		return apperror.WriteFailure(err)
	}
	return nil
}
