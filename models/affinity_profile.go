package models

import "time"

// AffinityProfile is the optional "women in tech" extension of an account.
type AffinityProfile struct {
	ID              uint `gorm:"primaryKey"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
	UserID          uint   `gorm:"uniqueIndex;not null"`
	User            *User  `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	RoleTitle       string `gorm:"size:120"`
	YearsExperience int    `gorm:"not null;default:0"`
	Interests       string `gorm:"size:500"`
	OpenToSpeaking  bool   `gorm:"not null;default:false"`
}
