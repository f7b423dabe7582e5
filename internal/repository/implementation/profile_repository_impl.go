package implementation

import (
	"context"
	"errors"
	"fmt"

	"campaign-session/internal/entity"
	"campaign-session/internal/mapper"
	"campaign-session/internal/model"
	"campaign-session/internal/pkg/apperror"
	"campaign-session/internal/pkg/authctx"
	"campaign-session/internal/repository/contract"
	"campaign-session/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ProfileMapper
}

func NewProfileRepository(db *gorm.DB) contract.ProfileRepository {
	return &ProfileRepositoryImpl{
		db:     db,
		mapper: mapper.NewProfileMapper(),
	}
}

func (r *ProfileRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ProfileRepositoryImpl) GetProfile(ctx context.Context, uid string) (*entity.UserProfile, error) {
	return r.findOne(r.db.WithContext(ctx), specification.ByUID{UID: uid})
}

func (r *ProfileRepositoryImpl) findOne(db *gorm.DB, specs ...specification.Specification) (*entity.UserProfile, error) {
	var row model.UserProfile
	if err := r.applySpecifications(db, specs...).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperror.ReadFailure(err)
	}

	profile, err := r.mapper.ToEntity(&row)
	if err != nil {
		return nil, apperror.ReadFailure(err)
	}
	return profile, nil
}

func (r *ProfileRepositoryImpl) CreateProfileIfAbsent(ctx context.Context, uid string, defaults entity.UserProfile) (*entity.UserProfile, error) {
	defaults.UID = uid
	defaults.Messages = entity.Messages{}

	row, err := r.mapper.ToModel(&defaults)
	if err != nil {
		return nil, apperror.WriteFailure(err)
	}

	// Concurrent first sign-ins race here; the primary key makes the loser a
	// no-op instead of an overwrite.
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "uid"}}, DoNothing: true}).
		Create(row).Error
	if err != nil {
		return nil, apperror.WriteFailure(err)
	}

	profile, err := r.GetProfile(ctx, uid)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, apperror.ReadFailure(fmt.Errorf("profile %s missing after create", uid))
	}
	return profile, nil
}

func (r *ProfileRepositoryImpl) MergeProfileFields(ctx context.Context, uid string, fields entity.ProfileFields) (*entity.UserProfile, error) {
	if _, ok := authctx.RequireUID(ctx, uid); !ok {
		return nil, apperror.NotAuthenticatedStore(uid)
	}
	if err := r.mapper.ValidateFields(fields); err != nil {
		return nil, apperror.WriteFailure(err)
	}

	seed := entity.UserProfile{UID: uid, Messages: entity.Messages{}}
	fields.Apply(&seed)
	row, err := r.mapper.ToModel(&seed)
	if err != nil {
		return nil, apperror.WriteFailure(err)
	}

	conflict := clause.OnConflict{Columns: []clause.Column{{Name: "uid"}}, DoNothing: true}
	if cols := r.mapper.FieldColumns(fields); len(cols) > 0 {
		names := make([]string, 0, len(cols)+1)
		for name := range cols {
			names = append(names, name)
		}
		names = append(names, "updated_at")
		conflict = clause.OnConflict{
			Columns:   []clause.Column{{Name: "uid"}},
			DoUpdates: clause.AssignmentColumns(names),
		}
	}

	if err := r.db.WithContext(ctx).Clauses(conflict).Create(row).Error; err != nil {
		return nil, apperror.WriteFailure(err)
	}

	profile, err := r.GetProfile(ctx, uid)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, apperror.ReadFailure(fmt.Errorf("profile %s missing after merge", uid))
	}
	return profile, nil
}

func (r *ProfileRepositoryImpl) AppendMessage(ctx context.Context, uid string, prompt entity.Prompt) error {
	id, ok := authctx.RequireUID(ctx, uid)
	if !ok {
		return apperror.NotAuthenticatedStore(uid)
	}
	if prompt == nil {
		return apperror.WriteFailure(errors.New("empty prompt"))
	}

	first, err := mapper.EncodeMessages(entity.Messages{prompt})
	if err != nil {
		return apperror.WriteFailure(err)
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "uid"}}, DoNothing: true}).
			Create(&model.UserProfile{UID: uid, Email: id.Email, Messages: first})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			return nil
		}

		var row model.UserProfile
		query := r.applySpecifications(tx, specification.ByUID{UID: uid}, specification.ForUpdate{})
		if err := query.First(&row).Error; err != nil {
			return err
		}

		messages, err := mapper.DecodeMessages(row.Messages)
		if err != nil {
			return err
		}
		updated, added := messages.AppendUnique(prompt)
		if !added {
			return nil
		}
		raw, err := mapper.EncodeMessages(updated)
		if err != nil {
			return err
		}
		return tx.Model(&model.UserProfile{}).Where("uid = ?", uid).Update("messages", raw).Error
	})
	if err != nil {
		return apperror.WriteFailure(err)
	}
	return nil
}
