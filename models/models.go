// Package models holds the gorm models for accounts, profiles and donations.
package models

// All lists every model in migration order (referenced tables first).
func All() []any {
	return []any{
		&User{},
		&Project{},
		&Profile{},
		&AffinityProfile{},
		&MentorProfile{},
		&Donation{},
		&Session{},
		&Upload{},
	}
}
