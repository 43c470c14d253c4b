package models

import "time"

// MentorProfile is the optional mentor extension of an account.
type MentorProfile struct {
	ID               uint `gorm:"primaryKey"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
	UserID           uint   `gorm:"uniqueIndex;not null"`
	User             *User  `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Expertise        string `gorm:"size:200;not null"`
	Capacity         int    `gorm:"not null"` // max concurrent mentees
	AcceptingMentees bool   `gorm:"not null"`
}
