package media

import (
	"image/color"
	"os"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

func TestSaveAvatarShrinksLargeImages(t *testing.T) {
	s := NewStore(t.TempDir())
	img := imaging.New(2048, 1024, color.NRGBA{0, 128, 255, 255})

	storePath, err := s.SaveAvatar(img)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(storePath, "media/avatars/"))
	require.True(t, strings.HasSuffix(storePath, ".png"))

	p, err := s.Path(storePath)
	require.NoError(t, err)
	saved, err := imaging.Open(p)
	require.NoError(t, err)
	require.Equal(t, 512, saved.Bounds().Dx())
	require.Equal(t, 256, saved.Bounds().Dy())
}

func TestSaveAvatarKeepsSmallImages(t *testing.T) {
	s := NewStore(t.TempDir())
	storePath, err := s.SaveAvatar(imaging.New(64, 48, color.NRGBA{A: 255}))
	require.NoError(t, err)

	p, err := s.Path(storePath)
	require.NoError(t, err)
	saved, err := imaging.Open(p)
	require.NoError(t, err)
	require.Equal(t, 64, saved.Bounds().Dx())
}

func TestRemove(t *testing.T) {
	s := NewStore(t.TempDir())
	storePath, err := s.SaveAvatar(imaging.New(8, 8, color.NRGBA{A: 255}))
	require.NoError(t, err)

	require.NoError(t, s.Remove(storePath))
	p, _ := s.Path(storePath)
	_, err = os.Stat(p)
	require.True(t, os.IsNotExist(err))

	// already gone
	require.NoError(t, s.Remove(storePath))
}

func TestPathRejectsEscapes(t *testing.T) {
	s := NewStore(t.TempDir())
	for _, bad := range []string{"", "avatars/x.png", "media/", "media/../secret", "media/../../etc/passwd"} {
		_, err := s.Path(bad)
		require.ErrorIs(t, err, ErrBadPath, bad)
	}
}
