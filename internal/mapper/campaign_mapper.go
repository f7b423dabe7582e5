package mapper

import (
	"fmt"

	"campaign-session/internal/entity"
	"campaign-session/internal/model"
)

type CampaignMapper struct{}

func NewCampaignMapper() *CampaignMapper {
	return &CampaignMapper{}
}

func (m *CampaignMapper) ToEntity(c *model.Campaign) (entity.Campaign, error) {
	if c == nil || c.ID == "" {
		return entity.Campaign{}, fmt.Errorf("campaign document without id")
	}
	fields := make(map[string]interface{}, len(c.Data))
	for k, v := range c.Data {
		if k == "id" {
			continue
		}
		fields[k] = v
	}
	return entity.Campaign{ID: c.ID, Fields: fields}, nil
}

// ToEntities rejects the whole batch on a malformed document or a
// duplicated id.
func (m *CampaignMapper) ToEntities(rows []*model.Campaign) ([]entity.Campaign, error) {
	out := make([]entity.Campaign, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		c, err := m.ToEntity(row)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("duplicate campaign id %q", c.ID)
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}

func (m *CampaignMapper) ToModel(c entity.Campaign) *model.Campaign {
	data := make(map[string]interface{}, len(c.Fields))
	for k, v := range c.Fields {
		if k == "id" {
			continue
		}
		data[k] = v
	}
	return &model.Campaign{ID: c.ID, Data: data}
}
