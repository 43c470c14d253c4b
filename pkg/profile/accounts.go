package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"giveback/models"
	"giveback/pkg/database"
	"giveback/pkg/forms"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CreateAccount creates a user and its profile in one transaction.
func (s *Service) CreateAccount(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("username required")
	}
	if len(password) < 6 {
		return nil, errors.New("password too short (min 6)")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := models.User{Username: username, Email: forms.NormalizeEmail(email), HashedPassword: hashed}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&models.Profile{UserID: user.ID}).Error
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return &user, nil
}

// AddAffinity opts username into the affinity group sub-profile.
func (s *Service) AddAffinity(ctx context.Context, username string, rec models.AffinityProfile) (*models.AffinityProfile, error) {
	return addExtension(ctx, s.db, username, &rec, func(uid uint) { rec.UserID = uid })
}

// AddMentor opts username into the mentor sub-profile.
func (s *Service) AddMentor(ctx context.Context, username string, rec models.MentorProfile) (*models.MentorProfile, error) {
	return addExtension(ctx, s.db, username, &rec, func(uid uint) { rec.UserID = uid })
}

func addExtension[T any](ctx context.Context, db *gorm.DB, username string, rec *T, setOwner func(uint)) (*T, error) {
	db = db.WithContext(ctx)
	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, fmt.Errorf("load user %q: %w", username, notFound(err, "user"))
	}
	existing, err := optional[T](db, user.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyExists
	}
	setOwner(user.ID)
	if err := db.Create(rec).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return rec, nil
}

// ToggleFavourite adds projectID to the user's favourites, or removes it if already there.
// It reports whether the project is a favourite afterwards.
func (s *Service) ToggleFavourite(ctx context.Context, userID, projectID uint) (bool, error) {
	var added bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prof models.Profile
		if err := tx.Where("user_id = ?", userID).First(&prof).Error; err != nil {
			return fmt.Errorf("load profile: %w", notFound(err, "profile"))
		}
		var project models.Project
		if err := tx.First(&project, projectID).Error; err != nil {
			return fmt.Errorf("load project %d: %w", projectID, notFound(err, "project"))
		}
		var n int64
		if err := tx.Table("profile_favourite_projects").
			Where("profile_id = ? AND project_id = ?", prof.ID, project.ID).
			Count(&n).Error; err != nil {
			return err
		}
		assoc := tx.Model(&prof).Association("FavouriteProjects")
		if n > 0 {
			return assoc.Delete(&project)
		}
		added = true
		return assoc.Append(&project)
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

// IsFavourite reports whether projectID is among userID's favourites.
func (s *Service) IsFavourite(ctx context.Context, userID, projectID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Table("profile_favourite_projects").
		Joins("JOIN profiles ON profiles.id = profile_favourite_projects.profile_id").
		Where("profiles.user_id = ? AND profile_favourite_projects.project_id = ?", userID, projectID).
		Count(&n).Error
	return n > 0, err
}

// SetPassword replaces username's password hash.
func (s *Service) SetPassword(ctx context.Context, username, password string) error {
	if len(password) < 6 {
		return errors.New("password too short (min 6)")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", username).
		Update("hashed_password", hashed)
	if res.Error != nil {
		return fmt.Errorf("update password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %q %w", username, ErrNotFound)
	}
	return nil
}

// UserID resolves username.
func (s *Service) UserID(ctx context.Context, username string) (uint, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Select("id").Where("username = ?", username).First(&user).Error; err != nil {
		return 0, fmt.Errorf("load user %q: %w", username, notFound(err, "user"))
	}
	return user.ID, nil
}
