package model

import (
	"time"

	"gorm.io/datatypes"
)

type UserProfile struct {
	UID       string         `gorm:"column:uid;type:varchar(128);primaryKey"`
	Name      string         `gorm:"type:varchar(255);not null;default:''"`
	Email     string         `gorm:"type:varchar(320);not null;default:''"`
	Phone     string         `gorm:"type:varchar(50);not null;default:''"`
	Image     string         `gorm:"type:text;not null;default:''"`
	Messages  datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}
