package models

import "time"

// Profile represents a user's profile (one-to-one with User)
type Profile struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    uint   `gorm:"uniqueIndex;not null"` // one-to-one relation
	User      *User  `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Bio       string `gorm:"size:500"`
	Location  string `gorm:"size:100"`
	Website   string `gorm:"size:200"`
	// Avatar is the public store path of the current avatar (e.g. media/avatars/<uuid>.png)
	Avatar string `gorm:"size:512"`
	// FavouriteProjects is a set; row order carries no meaning.
	FavouriteProjects []Project `gorm:"many2many:profile_favourite_projects;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
