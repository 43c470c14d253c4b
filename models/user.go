package models

import (
	"time"
)

// User is the account record. One User owns exactly one Profile; the
// specialised sub-profiles are optional and exist only for accounts that opted in.
type User struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Username       string `gorm:"size:150;not null;uniqueIndex"`
	FirstName      string `gorm:"size:150"`
	LastName       string `gorm:"size:150"`
	Email          string `gorm:"size:254"`
	HashedPassword []byte `gorm:"not null"`
}

// FullName returns "First Last", falling back to the username.
func (u User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Username
}
