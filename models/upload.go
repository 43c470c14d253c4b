package models

import (
	"time"
)

// Upload records an avatar file stored for a profile.
type Upload struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	FileName    string   `gorm:"size:255;not null"`                   // original client file name
	StorePath   string   `gorm:"column:store_path;size:512;not null"` // public relative path (e.g. media/avatars/xxx.png)
	ProfileID   uint     `gorm:"index;not null"`
	Profile     *Profile `gorm:"foreignKey:ProfileID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ContentType string   `gorm:"size:128"`
}
