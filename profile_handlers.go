package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"giveback/pkg/forms"
	"giveback/pkg/profile"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func profileDetailHandler(c *gin.Context) {
	v, err := profiles.Detail(c.Request.Context(), c.Param("username"))
	if errors.Is(err, profile.ErrNotFound) {
		notFound(c)
		return
	}
	if err != nil {
		serverError(c, err)
		return
	}
	viewer, _ := getUserFromContext(c)
	renderPage(c, http.StatusOK, "profile_detail.html", gin.H{
		"View":    v,
		"IsOwner": viewer != nil && viewer.ID == v.Account.ID,
	})
}

// loadEditable loads the signed-in user's records, writing the error page itself on failure.
func loadEditable(c *gin.Context) (*profile.Editable, bool) {
	user, _ := getUserFromContext(c)
	ed, err := profiles.Load(c.Request.Context(), user.ID)
	if errors.Is(err, profile.ErrNotFound) {
		notFound(c)
		return nil, false
	}
	if err != nil {
		serverError(c, err)
		return nil, false
	}
	return ed, true
}

func profileEditPage(c *gin.Context) {
	ed, ok := loadEditable(c)
	if !ok {
		return
	}
	renderEditForm(c, http.StatusOK, profile.NewSubmission(ed), forms.FieldErrors{})
}

func profileEditHandler(c *gin.Context) {
	ed, ok := loadEditable(c)
	if !ok {
		return
	}
	sub, err := bindSubmission(c, ed)
	if err != nil {
		badRequest(c, err)
		return
	}
	res, err := profiles.Update(c.Request.Context(), ed, sub)
	if err != nil {
		serverError(c, err)
		return
	}
	if !res.CoreSaved() {
		renderEditForm(c, http.StatusOK, sub, editErrors(res))
		return
	}

	addFlash(c, flashSuccess, "Your profile has been updated!")
	extensions := []struct {
		label  string
		result profile.FormResult
	}{
		{"Women in tech profile", res.Affinity},
		{"Mentor profile", res.Mentor},
	}
	for _, ext := range extensions {
		if ext.result.Failed() {
			addFlash(c, flashWarning, fmt.Sprintf("%s was not saved: %s", ext.label, ext.result.Errors.String()))
		}
	}
	c.Redirect(http.StatusFound, "/profiles/"+url.PathEscape(ed.Account.Username))
}

// bindSubmission binds a fresh form per record, so unchecked boxes and
// cleared fields arrive empty. Sub-profile forms are bound only for records
// that exist.
func bindSubmission(c *gin.Context, ed *profile.Editable) (*profile.Submission, error) {
	sub := &profile.Submission{}
	if err := c.ShouldBindWith(&sub.Account, binding.Form); err != nil {
		return nil, err
	}
	if err := c.ShouldBindWith(&sub.Profile, binding.Form); err != nil {
		return nil, err
	}
	if fh, err := c.FormFile("avatar"); err == nil {
		sub.Profile.Avatar = fh
	}
	if ed.Affinity != nil {
		sub.Affinity = &forms.AffinityForm{}
		if err := c.ShouldBindWith(sub.Affinity, binding.Form); err != nil {
			return nil, err
		}
	}
	if ed.Mentor != nil {
		sub.Mentor = &forms.MentorForm{}
		if err := c.ShouldBindWith(sub.Mentor, binding.Form); err != nil {
			return nil, err
		}
	}
	return sub, nil
}

// editErrors flattens the per-form errors for the template. Field names are
// unique across the forms; sub-profile form-level errors get their own keys.
func editErrors(res *profile.UpdateResult) forms.FieldErrors {
	errs := forms.FieldErrors{}
	errs.Merge(res.Account.Errors)
	errs.Merge(res.Profile.Errors)
	for prefix, fe := range map[string]forms.FieldErrors{"wit": res.Affinity.Errors, "mentor": res.Mentor.Errors} {
		for k, v := range fe {
			if k == forms.NonField {
				k = prefix + forms.NonField
			}
			errs.Add(k, v)
		}
	}
	return errs
}

func renderEditForm(c *gin.Context, status int, sub *profile.Submission, errs forms.FieldErrors) {
	renderPage(c, status, "profile_form.html", gin.H{"Form": sub, "Errors": errs})
}

func profileDeletePage(c *gin.Context) {
	user, _ := getUserFromContext(c)
	renderPage(c, http.StatusOK, "profile_confirm_delete.html", gin.H{"Account": user})
}

func profileDeleteHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	err := profiles.Delete(c.Request.Context(), user.ID)
	if errors.Is(err, profile.ErrNotFound) {
		notFound(c)
		return
	}
	if err != nil {
		serverError(c, err)
		return
	}
	// the session row went with the account
	setCookie(c, sessionCookie, "", -1)
	c.Set(ctxUser, nil)
	addFlash(c, flashSuccess, "Your account has been deleted.")
	c.Redirect(http.StatusFound, "/")
}
