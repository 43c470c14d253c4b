package forms

import (
	"errors"
	"fmt"
	"image"
	"mime/multipart"
	"strings"

	"giveback/models"

	"github.com/disintegration/imaging"
)

// MaxAvatarBytes caps avatar uploads.
const MaxAvatarBytes = 5 * 1024 * 1024

// ProfileForm edits the main profile. Avatar is optional; when present it must decode as an image.
type ProfileForm struct {
	Bio      string                `form:"bio" validate:"max=500"`
	Location string                `form:"location" validate:"max=100"`
	Website  string                `form:"website" validate:"omitempty,url,max=200"`
	Avatar   *multipart.FileHeader `form:"-" validate:"-"`

	avatar image.Image
}

func NewProfileForm(p models.Profile) ProfileForm {
	return ProfileForm{Bio: p.Bio, Location: p.Location, Website: p.Website}
}

func (f *ProfileForm) Validate() FieldErrors {
	f.Bio = strings.TrimSpace(f.Bio)
	f.Location = strings.TrimSpace(f.Location)
	f.Website = strings.TrimSpace(f.Website)
	errs := check(f)
	if f.Avatar != nil {
		img, err := decodeAvatar(f.Avatar)
		if err != nil {
			errs.Add("avatar", err.Error())
		} else {
			f.avatar = img
		}
	}
	return errs
}

// AvatarImage returns the decoded avatar after a successful Validate, or nil.
func (f *ProfileForm) AvatarImage() image.Image { return f.avatar }

func (f ProfileForm) Apply(p *models.Profile) {
	p.Bio = f.Bio
	p.Location = f.Location
	p.Website = f.Website
}

func decodeAvatar(fh *multipart.FileHeader) (image.Image, error) {
	if fh.Size > MaxAvatarBytes {
		return nil, fmt.Errorf("File too large (max %d MB).", MaxAvatarBytes/(1024*1024))
	}
	file, err := fh.Open()
	if err != nil {
		return nil, errors.New("The submitted file could not be read.")
	}
	defer file.Close()
	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.New("Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}
	return img, nil
}
