package mapper

import (
	"bytes"
	"encoding/json"
	"fmt"

	"campaign-session/internal/entity"
	"campaign-session/internal/model"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

// ProfileMapper converts between the stored profile row and the entity and
// validates both directions, so malformed documents never leave the store
// layer.
type ProfileMapper struct {
	validate *validator.Validate
}

func NewProfileMapper() *ProfileMapper {
	return &ProfileMapper{validate: validator.New()}
}

func (m *ProfileMapper) ToEntity(p *model.UserProfile) (*entity.UserProfile, error) {
	if p == nil {
		return nil, nil
	}
	messages, err := DecodeMessages(p.Messages)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", p.UID, err)
	}
	out := &entity.UserProfile{
		UID:       p.UID,
		Name:      p.Name,
		Email:     p.Email,
		Phone:     p.Phone,
		Image:     p.Image,
		Messages:  messages,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if err := m.Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *ProfileMapper) ToModel(p *entity.UserProfile) (*model.UserProfile, error) {
	if p == nil {
		return nil, nil
	}
	if err := m.Validate(p); err != nil {
		return nil, err
	}
	messages, err := EncodeMessages(p.Messages)
	if err != nil {
		return nil, err
	}
	return &model.UserProfile{
		UID:       p.UID,
		Name:      p.Name,
		Email:     p.Email,
		Phone:     p.Phone,
		Image:     p.Image,
		Messages:  messages,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}, nil
}

func (m *ProfileMapper) Validate(p *entity.UserProfile) error {
	if err := m.validate.Struct(p); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}
	return nil
}

func (m *ProfileMapper) ValidateFields(f entity.ProfileFields) error {
	if err := m.validate.Struct(f); err != nil {
		return fmt.Errorf("invalid profile fields: %w", err)
	}
	return nil
}

// FieldColumns lists the columns a partial update mentions, with values.
func (m *ProfileMapper) FieldColumns(f entity.ProfileFields) map[string]interface{} {
	cols := make(map[string]interface{}, 4)
	if f.Name != nil {
		cols["name"] = *f.Name
	}
	if f.Email != nil {
		cols["email"] = *f.Email
	}
	if f.Phone != nil {
		cols["phone"] = *f.Phone
	}
	if f.Image != nil {
		cols["image"] = *f.Image
	}
	return cols
}

// DecodeMessages accepts a JSON array of objects. An empty column decodes
// to an empty history.
func DecodeMessages(raw datatypes.JSON) (entity.Messages, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return entity.Messages{}, nil
	}
	var messages entity.Messages
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	if messages == nil {
		messages = entity.Messages{}
	}
	return messages, nil
}

func EncodeMessages(messages entity.Messages) (datatypes.JSON, error) {
	if messages == nil {
		messages = entity.Messages{}
	}
	raw, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("encode messages: %w", err)
	}
	return datatypes.JSON(raw), nil
}
