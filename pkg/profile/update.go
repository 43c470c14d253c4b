package profile

import (
	"context"
	"fmt"
	"path/filepath"

	"giveback/models"
	"giveback/pkg/database"
	"giveback/pkg/forms"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const usernameTakenMsg = "A user with that username already exists."

// Editable is an account with its profile and whichever sub-profiles exist.
// A nil sub-profile means the account never opted in.
type Editable struct {
	Account  models.User
	Profile  models.Profile
	Affinity *models.AffinityProfile
	Mentor   *models.MentorProfile
}

// Load returns the editable records of userID.
func (s *Service) Load(ctx context.Context, userID uint) (*Editable, error) {
	db := s.db.WithContext(ctx)
	var ed Editable
	if err := db.First(&ed.Account, userID).Error; err != nil {
		return nil, fmt.Errorf("load user %d: %w", userID, notFound(err, "user"))
	}
	if err := db.Where("user_id = ?", userID).First(&ed.Profile).Error; err != nil {
		return nil, fmt.Errorf("load profile of user %d: %w", userID, notFound(err, "profile"))
	}
	var err error
	if ed.Affinity, err = optional[models.AffinityProfile](db, userID); err != nil {
		return nil, fmt.Errorf("load affinity profile: %w", err)
	}
	if ed.Mentor, err = optional[models.MentorProfile](db, userID); err != nil {
		return nil, fmt.Errorf("load mentor profile: %w", err)
	}
	return &ed, nil
}

// Submission holds the bound forms of one update request.
// Affinity and Mentor are nil unless the matching sub-profile exists.
type Submission struct {
	Account  forms.AccountForm
	Profile  forms.ProfileForm
	Affinity *forms.AffinityForm
	Mentor   *forms.MentorForm
}

// NewSubmission returns forms filled with the current values of ed.
func NewSubmission(ed *Editable) *Submission {
	sub := &Submission{
		Account: forms.NewAccountForm(ed.Account),
		Profile: forms.NewProfileForm(ed.Profile),
	}
	if ed.Affinity != nil {
		f := forms.NewAffinityForm(*ed.Affinity)
		sub.Affinity = &f
	}
	if ed.Mentor != nil {
		f := forms.NewMentorForm(*ed.Mentor)
		sub.Mentor = &f
	}
	return sub
}

type FormResult struct {
	Included bool
	Saved    bool
	Errors   forms.FieldErrors
}

// Failed reports an included form that was not saved.
func (r FormResult) Failed() bool { return r.Included && !r.Saved }

// UpdateResult reports each form separately. Account and Profile are saved
// together or not at all; each sub-profile is saved on its own afterwards.
type UpdateResult struct {
	Account  FormResult
	Profile  FormResult
	Affinity FormResult
	Mentor   FormResult
}

func (r *UpdateResult) CoreSaved() bool { return r.Account.Saved && r.Profile.Saved }

// Update validates sub against ed and persists it in two phases.
//
// Core phase: the account and profile forms must both be valid; they are then
// written in one transaction. If either is invalid nothing is written.
// Extension phase: runs only after the core phase committed. Each included
// sub-profile form is saved when valid; an invalid one is left untouched and
// does not undo the core phase.
//
// On success ed reflects the saved state. The returned error is reserved for
// storage failures of the core phase.
func (s *Service) Update(ctx context.Context, ed *Editable, sub *Submission) (*UpdateResult, error) {
	res := &UpdateResult{
		Account: FormResult{Included: true, Errors: sub.Account.Validate()},
		Profile: FormResult{Included: true, Errors: sub.Profile.Validate()},
	}
	if sub.Affinity != nil && ed.Affinity != nil {
		res.Affinity = FormResult{Included: true, Errors: sub.Affinity.Validate()}
	}
	if sub.Mentor != nil && ed.Mentor != nil {
		res.Mentor = FormResult{Included: true, Errors: sub.Mentor.Validate()}
	}

	if !res.Account.Errors.Any() && sub.Account.Username != ed.Account.Username {
		taken, err := s.usernameTaken(ctx, sub.Account.Username, ed.Account.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			res.Account.Errors.Add("username", usernameTakenMsg)
		}
	}
	if res.Account.Errors.Any() || res.Profile.Errors.Any() {
		return res, nil
	}

	if err := s.commitCore(ctx, ed, sub); err != nil {
		if database.IsUniqueViolation(err) {
			res.Account.Errors.Add("username", usernameTakenMsg)
			return res, nil
		}
		return nil, err
	}
	res.Account.Saved = true
	res.Profile.Saved = true

	if res.Affinity.Included && !res.Affinity.Errors.Any() {
		rec := *ed.Affinity
		sub.Affinity.Apply(&rec)
		if s.saveExtension(ctx, "affinity", &rec, &res.Affinity) {
			ed.Affinity = &rec
		}
	}
	if res.Mentor.Included && !res.Mentor.Errors.Any() {
		rec := *ed.Mentor
		sub.Mentor.Apply(&rec)
		if s.saveExtension(ctx, "mentor", &rec, &res.Mentor) {
			ed.Mentor = &rec
		}
	}
	return res, nil
}

func (s *Service) usernameTaken(ctx context.Context, username string, exceptID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? AND id <> ?", username, exceptID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return n > 0, nil
}

func (s *Service) commitCore(ctx context.Context, ed *Editable, sub *Submission) error {
	account := ed.Account
	sub.Account.Apply(&account)
	prof := ed.Profile
	sub.Profile.Apply(&prof)

	var upload *models.Upload
	if img := sub.Profile.AvatarImage(); img != nil {
		storePath, err := s.media.SaveAvatar(img)
		if err != nil {
			return fmt.Errorf("store avatar: %w", err)
		}
		prof.Avatar = storePath
		upload = &models.Upload{
			ProfileID:   prof.ID,
			FileName:    clip(filepath.Base(sub.Profile.Avatar.Filename), 255),
			StorePath:   storePath,
			ContentType: "image/png",
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(&account).Error; err != nil {
			return fmt.Errorf("save account: %w", err)
		}
		if err := tx.Omit(clause.Associations).Save(&prof).Error; err != nil {
			return fmt.Errorf("save profile: %w", err)
		}
		if upload != nil {
			if err := tx.Omit(clause.Associations).Create(upload).Error; err != nil {
				return fmt.Errorf("record upload: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if upload != nil {
			if rmErr := s.media.Remove(upload.StorePath); rmErr != nil {
				s.log.Warn("failed to remove orphaned avatar", zap.String("path", upload.StorePath), zap.Error(rmErr))
			}
		}
		return err
	}
	ed.Account = account
	ed.Profile = prof
	return nil
}

// saveExtension writes one sub-profile. A storage failure is reported on the
// form instead of failing the request, since the core phase already committed.
func (s *Service) saveExtension(ctx context.Context, name string, rec any, res *FormResult) bool {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(rec).Error; err != nil {
		s.log.Error("failed to save sub-profile", zap.String("extension", name), zap.Error(err))
		res.Errors.Add(forms.NonField, "Could not be saved, please try again.")
		return false
	}
	res.Saved = true
	return true
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
