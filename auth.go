package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"giveback/models"
	"giveback/pkg/forms"
	"giveback/pkg/profile"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"golang.org/x/crypto/bcrypt"
)

var errInvalidCredentials = errors.New("invalid credentials")

// RegisterUser creates the account and its profile together.
func RegisterUser(ctx context.Context, f forms.RegisterForm) (*models.User, error) {
	return profiles.CreateAccount(ctx, f.Username, f.Email, f.Password)
}

func Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	var user models.User
	if err := db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(password)); err != nil {
		return nil, errInvalidCredentials
	}
	return &user, nil
}

func registerPage(c *gin.Context) {
	renderPage(c, http.StatusOK, "register.html", gin.H{"Form": forms.RegisterForm{}, "Errors": forms.FieldErrors{}})
}

func registerHandler(c *gin.Context) {
	var f forms.RegisterForm
	if err := c.ShouldBindWith(&f, binding.Form); err != nil {
		badRequest(c, err)
		return
	}
	errs := f.Validate()
	if !errs.Any() {
		user, err := RegisterUser(c.Request.Context(), f)
		switch {
		case errors.Is(err, profile.ErrUsernameTaken):
			errs.Add("username", "A user with that username already exists.")
		case err != nil:
			serverError(c, err)
			return
		default:
			if err := login(c, user); err != nil {
				serverError(c, err)
				return
			}
			addFlash(c, flashSuccess, fmt.Sprintf("Welcome, %s! Your account has been created.", user.Username))
			c.Redirect(http.StatusFound, "/profiles/"+url.PathEscape(user.Username))
			return
		}
	}
	f.Password, f.Password2 = "", ""
	renderPage(c, http.StatusOK, "register.html", gin.H{"Form": f, "Errors": errs})
}

func loginPage(c *gin.Context) {
	if _, ok := getUserFromContext(c); ok {
		c.Redirect(http.StatusFound, safeNext(c.Query("next")))
		return
	}
	renderPage(c, http.StatusOK, "login.html", gin.H{
		"Form":   forms.LoginForm{Next: c.Query("next")},
		"Errors": forms.FieldErrors{},
	})
}

func loginHandler(c *gin.Context) {
	var f forms.LoginForm
	if err := c.ShouldBindWith(&f, binding.Form); err != nil {
		badRequest(c, err)
		return
	}
	errs := f.Validate()
	if !errs.Any() {
		user, err := Authenticate(c.Request.Context(), f.Username, f.Password)
		if err == nil {
			if err := login(c, user); err != nil {
				serverError(c, err)
				return
			}
			c.Redirect(http.StatusFound, safeNext(f.Next))
			return
		}
		errs.Add(forms.NonField, "Please enter a correct username and password.")
	}
	f.Password = ""
	renderPage(c, http.StatusOK, "login.html", gin.H{"Form": f, "Errors": errs})
}

func logoutHandler(c *gin.Context) {
	logout(c)
	addFlash(c, flashInfo, "You have been logged out.")
	c.Redirect(http.StatusFound, "/")
}
