package profile

import (
	"bytes"
	"context"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"giveback/models"
	"giveback/pkg/database/dbtest"
	"giveback/pkg/media"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	store *media.Store
	svc   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	store := media.NewStore(t.TempDir())
	return &fixture{db: db, store: store, svc: NewService(db, store, zap.NewNop())}
}

func (f *fixture) account(t *testing.T, username string) *models.User {
	t.Helper()
	u, err := f.svc.CreateAccount(context.Background(), username, username+"@example.com", "password1")
	require.NoError(t, err)
	return u
}

func (f *fixture) project(t *testing.T, title string) models.Project {
	t.Helper()
	p := models.Project{Title: title, Goal: 10000}
	require.NoError(t, f.db.Create(&p).Error)
	return p
}

func TestDetail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.account(t, "alice")
	p1 := f.project(t, "Wells")
	p2 := f.project(t, "Schools")
	f.project(t, "Unrelated")

	_, err := f.svc.ToggleFavourite(ctx, alice.ID, p2.ID)
	require.NoError(t, err)
	_, err = f.svc.ToggleFavourite(ctx, alice.ID, p1.ID)
	require.NoError(t, err)

	t.Run("known username", func(t *testing.T) {
		v, err := f.svc.Detail(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, alice.ID, v.Account.ID)
		require.Equal(t, alice.ID, v.Profile.UserID)
		require.ElementsMatch(t, []uint{p1.ID, p2.ID}, projectIDs(v.Favourites))
		require.Nil(t, v.Affinity)
		require.Nil(t, v.Mentor)
	})

	t.Run("unknown username", func(t *testing.T) {
		_, err := f.svc.Detail(ctx, "nobody")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("account without profile", func(t *testing.T) {
		orphan := models.User{Username: "orphan", HashedPassword: []byte("x")}
		require.NoError(t, f.db.Create(&orphan).Error)
		_, err := f.svc.Detail(ctx, "orphan")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("no favourites is an empty list", func(t *testing.T) {
		f.account(t, "dave")
		v, err := f.svc.Detail(ctx, "dave")
		require.NoError(t, err)
		require.NotNil(t, v.Favourites)
		require.Empty(t, v.Favourites)
	})
}

func TestUpdateWithoutSubProfiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.account(t, "alice")

	ed, err := f.svc.Load(ctx, alice.ID)
	require.NoError(t, err)
	sub := NewSubmission(ed)
	require.Nil(t, sub.Affinity)
	require.Nil(t, sub.Mentor)

	sub.Account.FirstName = "Alice"
	sub.Profile.Bio = "I build wells."
	res, err := f.svc.Update(ctx, ed, sub)
	require.NoError(t, err)
	require.True(t, res.CoreSaved())
	require.False(t, res.Affinity.Included)
	require.False(t, res.Mentor.Included)

	reloaded, err := f.svc.Load(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, "I build wells.", reloaded.Profile.Bio)
	require.Equal(t, "Alice", reloaded.Account.FirstName)

	next := NewSubmission(reloaded)
	require.Nil(t, next.Affinity)
	require.Nil(t, next.Mentor)
}

func TestUpdateInvalidCorePersistsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.account(t, "alice")

	t.Run("invalid account form", func(t *testing.T) {
		ed, err := f.svc.Load(ctx, alice.ID)
		require.NoError(t, err)
		sub := NewSubmission(ed)
		sub.Account.Email = "not-an-email"
		sub.Profile.Bio = "should not be saved"

		res, err := f.svc.Update(ctx, ed, sub)
		require.NoError(t, err)
		require.False(t, res.CoreSaved())
		require.False(t, res.Profile.Saved)
		require.Equal(t, "Enter a valid email address.", res.Account.Errors.Get("email"))
		// submitted values survive for re-display
		require.Equal(t, "should not be saved", sub.Profile.Bio)

		reloaded, err := f.svc.Load(ctx, alice.ID)
		require.NoError(t, err)
		require.Empty(t, reloaded.Profile.Bio)
		require.Equal(t, "alice@example.com", reloaded.Account.Email)
	})

	t.Run("invalid profile form", func(t *testing.T) {
		ed, err := f.svc.Load(ctx, alice.ID)
		require.NoError(t, err)
		sub := NewSubmission(ed)
		sub.Account.FirstName = "Changed"
		sub.Profile.Website = "nope"

		res, err := f.svc.Update(ctx, ed, sub)
		require.NoError(t, err)
		require.False(t, res.Account.Saved)
		require.NotEmpty(t, res.Profile.Errors.Get("website"))

		reloaded, err := f.svc.Load(ctx, alice.ID)
		require.NoError(t, err)
		require.Empty(t, reloaded.Account.FirstName)
	})

	t.Run("username taken", func(t *testing.T) {
		f.account(t, "bob")
		ed, err := f.svc.Load(ctx, alice.ID)
		require.NoError(t, err)
		sub := NewSubmission(ed)
		sub.Account.Username = "bob"

		res, err := f.svc.Update(ctx, ed, sub)
		require.NoError(t, err)
		require.False(t, res.CoreSaved())
		require.Equal(t, usernameTakenMsg, res.Account.Errors.Get("username"))
	})
}

func TestUpdateInvalidMentorKeepsCoreChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bob := f.account(t, "bob")
	_, err := f.svc.AddMentor(ctx, "bob", models.MentorProfile{Expertise: "Go", Capacity: 2, AcceptingMentees: true})
	require.NoError(t, err)

	ed, err := f.svc.Load(ctx, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, ed.Mentor)
	require.Nil(t, ed.Affinity)

	sub := NewSubmission(ed)
	require.NotNil(t, sub.Mentor)
	sub.Account.LastName = "Builder"
	sub.Profile.Bio = "Mentoring Go developers."
	sub.Mentor.Capacity = "99"
	sub.Mentor.Expertise = "Rust"

	res, err := f.svc.Update(ctx, ed, sub)
	require.NoError(t, err)
	require.True(t, res.CoreSaved())
	require.True(t, res.Mentor.Failed())
	require.Equal(t, "Ensure this value is between 1 and 20.", res.Mentor.Errors.Get("mentor_capacity"))

	reloaded, err := f.svc.Load(ctx, bob.ID)
	require.NoError(t, err)
	require.Equal(t, "Builder", reloaded.Account.LastName)
	require.Equal(t, "Mentoring Go developers.", reloaded.Profile.Bio)
	require.Equal(t, "Go", reloaded.Mentor.Expertise)
	require.Equal(t, 2, reloaded.Mentor.Capacity)
}

func TestUpdateSavesValidSubProfilesIndependently(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	carol := f.account(t, "carol")
	_, err := f.svc.AddMentor(ctx, "carol", models.MentorProfile{Expertise: "Go", Capacity: 2})
	require.NoError(t, err)
	_, err = f.svc.AddAffinity(ctx, "carol", models.AffinityProfile{RoleTitle: "SRE", YearsExperience: 4})
	require.NoError(t, err)

	ed, err := f.svc.Load(ctx, carol.ID)
	require.NoError(t, err)
	sub := NewSubmission(ed)
	sub.Affinity.YearsExperience = "5"
	sub.Mentor.Expertise = ""

	res, err := f.svc.Update(ctx, ed, sub)
	require.NoError(t, err)
	require.True(t, res.CoreSaved())
	require.True(t, res.Affinity.Saved)
	require.True(t, res.Mentor.Failed())

	reloaded, err := f.svc.Load(ctx, carol.ID)
	require.NoError(t, err)
	require.Equal(t, 5, reloaded.Affinity.YearsExperience)
	require.Equal(t, "Go", reloaded.Mentor.Expertise)
}

func TestUpdateInvalidCoreSkipsSubProfiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bob := f.account(t, "bob")
	_, err := f.svc.AddMentor(ctx, "bob", models.MentorProfile{Expertise: "Go", Capacity: 2})
	require.NoError(t, err)

	ed, err := f.svc.Load(ctx, bob.ID)
	require.NoError(t, err)
	sub := NewSubmission(ed)
	sub.Account.Email = ""
	sub.Mentor.Capacity = "3"

	res, err := f.svc.Update(ctx, ed, sub)
	require.NoError(t, err)
	require.False(t, res.CoreSaved())
	require.False(t, res.Mentor.Saved)

	reloaded, err := f.svc.Load(ctx, bob.ID)
	require.NoError(t, err)
	require.Equal(t, 2, reloaded.Mentor.Capacity)
}

func TestUpdateStoresAvatar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.account(t, "alice")

	ed, err := f.svc.Load(ctx, alice.ID)
	require.NoError(t, err)
	sub := NewSubmission(ed)
	sub.Profile.Avatar = pngHeader(t, "me.png", 900, 600)

	res, err := f.svc.Update(ctx, ed, sub)
	require.NoError(t, err)
	require.True(t, res.CoreSaved())
	require.NotEmpty(t, ed.Profile.Avatar)

	p, err := f.store.Path(ed.Profile.Avatar)
	require.NoError(t, err)
	_, err = os.Stat(p)
	require.NoError(t, err)

	var uploads []models.Upload
	require.NoError(t, f.db.Where("profile_id = ?", ed.Profile.ID).Find(&uploads).Error)
	require.Len(t, uploads, 1)
	require.Equal(t, "me.png", uploads[0].FileName)
	require.Equal(t, ed.Profile.Avatar, uploads[0].StorePath)
}

func TestDeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bob := f.account(t, "bob")
	keep := f.account(t, "keep")
	project := f.project(t, "Wells")

	_, err := f.svc.AddMentor(ctx, "bob", models.MentorProfile{Expertise: "Go", Capacity: 1})
	require.NoError(t, err)
	_, err = f.svc.AddAffinity(ctx, "bob", models.AffinityProfile{RoleTitle: "Dev"})
	require.NoError(t, err)
	_, err = f.svc.ToggleFavourite(ctx, bob.ID, project.ID)
	require.NoError(t, err)
	_, err = f.svc.ToggleFavourite(ctx, keep.ID, project.ID)
	require.NoError(t, err)
	require.NoError(t, f.db.Create(&models.Session{UserID: bob.ID, TokenHash: "h1", ExpiresAt: time.Now().Add(time.Hour)}).Error)
	donation := models.Donation{ProjectID: project.ID, UserID: &bob.ID, Amount: 500, Date: time.Now()}
	require.NoError(t, f.db.Create(&donation).Error)

	ed, err := f.svc.Load(ctx, bob.ID)
	require.NoError(t, err)
	sub := NewSubmission(ed)
	sub.Profile.Avatar = pngHeader(t, "bob.png", 32, 32)
	_, err = f.svc.Update(ctx, ed, sub)
	require.NoError(t, err)
	avatarFile, err := f.store.Path(ed.Profile.Avatar)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, bob.ID))

	_, err = f.svc.Detail(ctx, "bob")
	require.ErrorIs(t, err, ErrNotFound)
	for _, m := range []any{&models.Profile{}, &models.MentorProfile{}, &models.AffinityProfile{}, &models.Session{}} {
		var n int64
		require.NoError(t, f.db.Model(m).Where("user_id = ?", bob.ID).Count(&n).Error)
		require.Zero(t, n, "%T", m)
	}
	var uploads int64
	require.NoError(t, f.db.Model(&models.Upload{}).Where("profile_id = ?", ed.Profile.ID).Count(&uploads).Error)
	require.Zero(t, uploads)
	_, err = os.Stat(avatarFile)
	require.True(t, os.IsNotExist(err))

	var kept models.Donation
	require.NoError(t, f.db.First(&kept, donation.ID).Error)
	require.Nil(t, kept.UserID)

	v, err := f.svc.Detail(ctx, "keep")
	require.NoError(t, err)
	require.Len(t, v.Favourites, 1)

	require.ErrorIs(t, f.svc.Delete(ctx, bob.ID), ErrNotFound)
}

func TestCreateAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.account(t, "erin")

	var prof models.Profile
	require.NoError(t, f.db.Where("user_id = ?", u.ID).First(&prof).Error)

	_, err := f.svc.CreateAccount(ctx, "erin", "other@example.com", "password1")
	require.ErrorIs(t, err, ErrUsernameTaken)

	_, err = f.svc.CreateAccount(ctx, "frank", "", "short")
	require.Error(t, err)

	hal, err := f.svc.CreateAccount(ctx, "hal", " Hal.Jordan@Example.ORG ", "password1")
	require.NoError(t, err)
	require.Equal(t, "Hal.Jordan@example.org", hal.Email)
}

func TestAddExtensionTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.account(t, "gina")

	_, err := f.svc.AddAffinity(ctx, "gina", models.AffinityProfile{})
	require.NoError(t, err)
	_, err = f.svc.AddAffinity(ctx, "gina", models.AffinityProfile{})
	require.ErrorIs(t, err, ErrAlreadyExists)

	_, err = f.svc.AddMentor(ctx, "nobody", models.MentorProfile{Expertise: "x", Capacity: 1})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestToggleFavourite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.account(t, "hana")
	p := f.project(t, "Books")

	added, err := f.svc.ToggleFavourite(ctx, u.ID, p.ID)
	require.NoError(t, err)
	require.True(t, added)
	fav, err := f.svc.IsFavourite(ctx, u.ID, p.ID)
	require.NoError(t, err)
	require.True(t, fav)

	added, err = f.svc.ToggleFavourite(ctx, u.ID, p.ID)
	require.NoError(t, err)
	require.False(t, added)
	fav, err = f.svc.IsFavourite(ctx, u.ID, p.ID)
	require.NoError(t, err)
	require.False(t, fav)

	_, err = f.svc.ToggleFavourite(ctx, u.ID, 9999)
	require.ErrorIs(t, err, ErrNotFound)
}

func projectIDs(ps []models.Project) []uint {
	ids := make([]uint, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.ID)
	}
	return ids
}

func pngHeader(t *testing.T, name string, w, h int) *multipart.FileHeader {
	t.Helper()
	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, imaging.New(w, h, color.NRGBA{200, 100, 50, 255})))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("avatar", name)
	require.NoError(t, err)
	_, _ = fw.Write(img.Bytes())
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(10<<20))
	return req.MultipartForm.File["avatar"][0]
}

func TestSetPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.account(t, "ivan")

	require.Error(t, f.svc.SetPassword(ctx, "ivan", "short"))
	require.ErrorIs(t, f.svc.SetPassword(ctx, "nobody", "password2"), ErrNotFound)
	require.NoError(t, f.svc.SetPassword(ctx, "ivan", "password2"))

	var reloaded models.User
	require.NoError(t, f.db.First(&reloaded, u.ID).Error)
	require.NoError(t, bcrypt.CompareHashAndPassword(reloaded.HashedPassword, []byte("password2")))

	id, err := f.svc.UserID(ctx, "ivan")
	require.NoError(t, err)
	require.Equal(t, u.ID, id)
	_, err = f.svc.UserID(ctx, "nobody")
	require.ErrorIs(t, err, ErrNotFound)
}
