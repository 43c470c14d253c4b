package models

import "time"

// Donation represents a single donation to a project.
// UserID is nulled when the donor deletes their account so totals stay intact.
type Donation struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	ProjectID uint      `gorm:"index;not null"`
	Project   Project   `gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	UserID    *uint     `gorm:"index"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	Amount    int64     `gorm:"not null"` // smallest currency unit (e.g. cents)
	Message   string    `gorm:"size:280"`
	Date      time.Time `gorm:"not null"`
}
