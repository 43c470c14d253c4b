package profile

import (
	"context"
	"fmt"
	"slices"

	"giveback/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Delete removes the account and everything it owns in one transaction, in
// dependency order, so the result does not depend on the driver enforcing
// ON DELETE rules. Donations are kept with their donor cleared.
// Stored avatar files are removed after the commit.
func (s *Service) Delete(ctx context.Context, userID uint) error {
	var files []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return fmt.Errorf("load user %d: %w", userID, notFound(err, "user"))
		}

		prof, err := optional[models.Profile](tx, userID)
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		if prof != nil {
			if err := tx.Model(prof).Association("FavouriteProjects").Clear(); err != nil {
				return fmt.Errorf("clear favourites: %w", err)
			}
			if err := tx.Model(&models.Upload{}).Where("profile_id = ?", prof.ID).Pluck("store_path", &files).Error; err != nil {
				return fmt.Errorf("list uploads: %w", err)
			}
			if prof.Avatar != "" && !slices.Contains(files, prof.Avatar) {
				files = append(files, prof.Avatar)
			}
			if err := tx.Where("profile_id = ?", prof.ID).Delete(&models.Upload{}).Error; err != nil {
				return fmt.Errorf("delete uploads: %w", err)
			}
		}

		if err := tx.Model(&models.Donation{}).Where("user_id = ?", userID).Update("user_id", nil).Error; err != nil {
			return fmt.Errorf("detach donations: %w", err)
		}
		steps := []struct {
			what  string
			model any
		}{
			{"affinity profile", &models.AffinityProfile{}},
			{"mentor profile", &models.MentorProfile{}},
			{"sessions", &models.Session{}},
			{"profile", &models.Profile{}},
		}
		for _, st := range steps {
			if err := tx.Where("user_id = ?", userID).Delete(st.model).Error; err != nil {
				return fmt.Errorf("delete %s: %w", st.what, err)
			}
		}
		if err := tx.Delete(&user).Error; err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, f := range files {
		if err := s.media.Remove(f); err != nil {
			s.log.Warn("failed to remove avatar file", zap.String("path", f), zap.Error(err))
		}
	}
	s.log.Info("account deleted", zap.Uint("user_id", userID))
	return nil
}
