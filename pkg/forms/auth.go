package forms

import "strings"

// RegisterForm creates an account (and its profile).
type RegisterForm struct {
	Username  string `form:"username" validate:"required,max=150,username"`
	Email     string `form:"email" validate:"required,email,max=254"`
	Password  string `form:"password" validate:"required,min=6,max=128"`
	Password2 string `form:"password2" validate:"required,eqfield=Password"`
}

func (f *RegisterForm) Validate() FieldErrors {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = NormalizeEmail(f.Email)
	return check(f)
}

type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
	Next     string `form:"next"`
}

func (f *LoginForm) Validate() FieldErrors {
	f.Username = strings.TrimSpace(f.Username)
	return check(f)
}
