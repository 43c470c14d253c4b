package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"giveback/pkg/donations"
	"giveback/pkg/forms"
	"giveback/pkg/profile"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"
)

func setupRoutes(r *gin.Engine, limiter *ipLimiter) {
	r.GET("/", homeHandler)
	r.GET("/profiles/:username", profileDetailHandler)
	r.GET("/register", registerPage)
	r.POST("/register", registerHandler)
	r.GET("/login", loginPage)
	r.POST("/login", limiter.loginThrottle(), loginHandler)
	r.POST("/logout", logoutHandler)
	r.GET("/projects/:id", projectHandler)

	authGroup := r.Group("")
	authGroup.Use(loginRequired())
	authGroup.GET("/profile/edit", profileEditPage)
	authGroup.POST("/profile/edit", profileEditHandler)
	authGroup.GET("/profile/delete", profileDeletePage)
	authGroup.POST("/profile/delete", profileDeleteHandler)
	authGroup.POST("/projects/:id/donate", donateHandler)
	authGroup.POST("/projects/:id/favourite", favouriteHandler)
	authGroup.GET("/donations", donationsHandler)
}

// renderPage adds the signed-in user and pending flash messages to data and renders name.
func renderPage(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	user, _ := getUserFromContext(c)
	data["CurrentUser"] = user
	data["Flashes"] = popFlashes(c)
	c.HTML(status, name, data)
}

func notFound(c *gin.Context) {
	renderPage(c, http.StatusNotFound, "not_found.html", nil)
}

func serverError(c *gin.Context, err error) {
	_ = c.Error(err)
	reqLogger(c).Error("request failed", zap.Error(err))
	renderPage(c, http.StatusInternalServerError, "error.html", nil)
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	renderPage(c, http.StatusBadRequest, "error.html", gin.H{"Message": "The submitted data could not be read."})
}

func homeHandler(c *gin.Context) {
	projects, err := donationSvc.ListProjects(c.Request.Context())
	if err != nil {
		serverError(c, err)
		return
	}
	renderPage(c, http.StatusOK, "home.html", gin.H{"Projects": projects})
}

// projectID parses the :id parameter. Anything unparsable is treated as an unknown project.
func projectID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func projectHandler(c *gin.Context) {
	renderProject(c, http.StatusOK, forms.DonationForm{}, forms.FieldErrors{})
}

func renderProject(c *gin.Context, status int, form forms.DonationForm, errs forms.FieldErrors) {
	id, ok := projectID(c)
	if !ok {
		notFound(c)
		return
	}
	ctx := c.Request.Context()
	p, err := donationSvc.GetProject(ctx, id)
	if errors.Is(err, donations.ErrNotFound) {
		notFound(c)
		return
	}
	if err != nil {
		serverError(c, err)
		return
	}
	favourite := false
	if user, ok := getUserFromContext(c); ok {
		if favourite, err = profiles.IsFavourite(ctx, user.ID, p.ID); err != nil {
			serverError(c, err)
			return
		}
	}
	renderPage(c, status, "project_detail.html", gin.H{
		"Project":   p,
		"Favourite": favourite,
		"Form":      form,
		"Errors":    errs,
	})
}

func donateHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	id, ok := projectID(c)
	if !ok {
		notFound(c)
		return
	}
	var f forms.DonationForm
	if err := c.ShouldBindWith(&f, binding.Form); err != nil {
		badRequest(c, err)
		return
	}
	if errs := f.Validate(); errs.Any() {
		renderProject(c, http.StatusOK, f, errs)
		return
	}
	_, err := donationSvc.Donate(c.Request.Context(), user.ID, id, f.Cents(), f.Message)
	if errors.Is(err, donations.ErrNotFound) {
		notFound(c)
		return
	}
	if err != nil {
		serverError(c, err)
		return
	}
	addFlash(c, flashSuccess, fmt.Sprintf("Thank you for your donation of %s!", forms.FormatAmount(f.Cents())))
	c.Redirect(http.StatusFound, fmt.Sprintf("/projects/%d", id))
}

func favouriteHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	id, ok := projectID(c)
	if !ok {
		notFound(c)
		return
	}
	added, err := profiles.ToggleFavourite(c.Request.Context(), user.ID, id)
	if errors.Is(err, profile.ErrNotFound) {
		notFound(c)
		return
	}
	if err != nil {
		serverError(c, err)
		return
	}
	if added {
		addFlash(c, flashInfo, "Added to your favourite projects.")
	} else {
		addFlash(c, flashInfo, "Removed from your favourite projects.")
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("/projects/%d", id))
}

func donationsHandler(c *gin.Context) {
	user, _ := getUserFromContext(c)
	rows, err := donationSvc.ListForUser(c.Request.Context(), user.ID)
	if err != nil {
		serverError(c, err)
		return
	}
	renderPage(c, http.StatusOK, "donations.html", gin.H{
		"Donations": rows,
		"Months":    donations.MonthlySummary(rows),
	})
}
