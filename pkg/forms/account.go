package forms

import (
	"strings"

	"giveback/models"
)

// AccountForm edits the base account fields.
type AccountForm struct {
	Username  string `form:"username" validate:"required,max=150,username"`
	FirstName string `form:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" validate:"max=150"`
	Email     string `form:"email" validate:"required,email,max=254"`
}

func NewAccountForm(u models.User) AccountForm {
	return AccountForm{Username: u.Username, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
}

func (f *AccountForm) Validate() FieldErrors {
	f.Username = strings.TrimSpace(f.Username)
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Email = NormalizeEmail(f.Email)
	return check(f)
}

func (f AccountForm) Apply(u *models.User) {
	u.Username = f.Username
	u.FirstName = f.FirstName
	u.LastName = f.LastName
	u.Email = f.Email
}
