package profile

import (
	"context"
	"fmt"

	"giveback/models"
)

// DetailView is everything the public profile page shows.
type DetailView struct {
	Account    models.User
	Profile    models.Profile
	Favourites []models.Project
	Affinity   *models.AffinityProfile
	Mentor     *models.MentorProfile
}

// Detail resolves username to its account, profile and favourites.
// An unknown username or a missing profile yields ErrNotFound.
func (s *Service) Detail(ctx context.Context, username string) (*DetailView, error) {
	db := s.db.WithContext(ctx)
	var v DetailView
	if err := db.Where("username = ?", username).First(&v.Account).Error; err != nil {
		return nil, fmt.Errorf("load user %q: %w", username, notFound(err, "user"))
	}
	if err := db.Where("user_id = ?", v.Account.ID).First(&v.Profile).Error; err != nil {
		return nil, fmt.Errorf("load profile of %q: %w", username, notFound(err, "profile"))
	}
	favs, err := s.favourites(ctx, v.Profile.ID)
	if err != nil {
		return nil, err
	}
	v.Favourites = favs
	if v.Affinity, err = optional[models.AffinityProfile](db, v.Account.ID); err != nil {
		return nil, fmt.Errorf("load affinity profile: %w", err)
	}
	if v.Mentor, err = optional[models.MentorProfile](db, v.Account.ID); err != nil {
		return nil, fmt.Errorf("load mentor profile: %w", err)
	}
	return &v, nil
}

// favourites is ordered by project id so pages render stably; callers must treat it as a set.
func (s *Service) favourites(ctx context.Context, profileID uint) ([]models.Project, error) {
	favs := []models.Project{}
	err := s.db.WithContext(ctx).
		Joins("JOIN profile_favourite_projects pf ON pf.project_id = projects.id").
		Where("pf.profile_id = ?", profileID).
		Order("projects.id").
		Find(&favs).Error
	if err != nil {
		return nil, fmt.Errorf("load favourites: %w", err)
	}
	return favs, nil
}
