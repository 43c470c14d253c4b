// Package media stores user-uploaded images on local disk.
package media

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	// PublicPrefix is the URL prefix stored files are served under.
	PublicPrefix = "media"
	// AvatarSize bounds both avatar dimensions.
	AvatarSize = 512
)

var ErrBadPath = errors.New("media: path outside store")

// Store writes files below BaseDir and hands out public paths of the form media/<rel>.
type Store struct {
	BaseDir string
}

func NewStore(baseDir string) *Store {
	return &Store{BaseDir: baseDir}
}

// Ensure creates the base directory.
func (s *Store) Ensure() error {
	return os.MkdirAll(filepath.Join(s.BaseDir, "avatars"), 0o755)
}

// SaveAvatar shrinks img to fit AvatarSize x AvatarSize and stores it as PNG.
// It returns the public store path.
func (s *Store) SaveAvatar(img image.Image) (string, error) {
	if img == nil {
		return "", errors.New("media: nil image")
	}
	b := img.Bounds()
	if b.Dx() > AvatarSize || b.Dy() > AvatarSize {
		img = imaging.Fit(img, AvatarSize, AvatarSize, imaging.Lanczos)
	}
	if err := s.Ensure(); err != nil {
		return "", fmt.Errorf("create avatar dir: %w", err)
	}
	rel := "avatars/" + uuid.NewString() + ".png"
	if err := imaging.Save(img, filepath.Join(s.BaseDir, filepath.FromSlash(rel))); err != nil {
		return "", fmt.Errorf("save avatar: %w", err)
	}
	return PublicPrefix + "/" + rel, nil
}

// Path maps a public store path back to its file on disk.
func (s *Store) Path(storePath string) (string, error) {
	rel, ok := strings.CutPrefix(storePath, PublicPrefix+"/")
	if !ok || rel == "" {
		return "", ErrBadPath
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", ErrBadPath
	}
	return filepath.Join(s.BaseDir, clean), nil
}

// Remove deletes a stored file. Missing files are not an error.
func (s *Store) Remove(storePath string) error {
	p, err := s.Path(storePath)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
