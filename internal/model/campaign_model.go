package model

import (
	"time"

	"gorm.io/datatypes"
)

// Campaign stores arbitrary campaign fields as a JSONB document.
type Campaign struct {
	ID        string            `gorm:"type:varchar(128);primaryKey"`
	Data      datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt time.Time         `gorm:"autoCreateTime"`
	UpdatedAt time.Time         `gorm:"autoUpdateTime"`
}

func (Campaign) TableName() string {
	return "campaigns"
}
