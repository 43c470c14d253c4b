package models

import "time"

// Project is a fundraising project that users can donate to and favourite.
type Project struct {
	ID           uint `gorm:"primaryKey"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Title        string `gorm:"size:200;not null"`
	Summary      string `gorm:"size:1000"`
	Goal         int64  `gorm:"not null;default:0"` // smallest currency unit (e.g. cents)
	AmountRaised int64  `gorm:"not null;default:0"` // kept in sync by the donation callbacks
}

// Percent returns how much of the goal has been raised, capped at 100.
func (p Project) Percent() int {
	if p.Goal <= 0 {
		return 0
	}
	pct := int(p.AmountRaised * 100 / p.Goal)
	if pct > 100 {
		return 100
	}
	return pct
}
