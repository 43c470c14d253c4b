// Package forms binds submitted fields into typed forms and validates them.
// Every bound field is a string so malformed input becomes a field error
// rather than a binding failure.
package forms

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NonField is the FieldErrors key for errors that belong to the whole form.
const NonField = "_form"

// FieldErrors maps a form field name to its error message.
type FieldErrors map[string]string

// Add records msg for field, keeping the first message if one is already set.
func (e FieldErrors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

func (e FieldErrors) Get(field string) string { return e[field] }

func (e FieldErrors) Any() bool { return len(e) > 0 }

// Merge copies other into e without overwriting existing messages.
func (e FieldErrors) Merge(other FieldErrors) {
	for k, v := range other {
		e.Add(k, v)
	}
}

// String renders the errors as "field: message; ..." in field order.
func (e FieldErrors) String() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == NonField {
			parts = append(parts, e[k])
			continue
		}
		parts = append(parts, k+": "+e[k])
	}
	return strings.Join(parts, "; ")
}

var (
	validate = newValidator()
	// same character set the login form accepts
	usernameRE = regexp.MustCompile(`^[\w.@+-]+$`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRE.MatchString(fl.Field().String())
	})
	return v
}

// check runs the struct tag rules on form and converts failures into FieldErrors.
func check(form any) FieldErrors {
	errs := FieldErrors{}
	err := validate.Struct(form)
	if err == nil {
		return errs
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs.Add(NonField, err.Error())
		return errs
	}
	for _, fe := range verrs {
		errs.Add(fe.Field(), message(fe))
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "url":
		return "Enter a valid URL."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	case "numeric", "number":
		return "Enter a whole number."
	case "eqfield":
		return "The two password fields didn't match."
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	}
	return "Enter a valid value."
}

// intInRange parses a whole number and checks lo <= n <= hi.
func intInRange(errs FieldErrors, field, raw string, lo, hi int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		errs.Add(field, "Enter a whole number.")
		return 0
	}
	if n < lo || n > hi {
		errs.Add(field, fmt.Sprintf("Ensure this value is between %d and %d.", lo, hi))
	}
	return n
}

// NormalizeEmail trims the address and lowercases its domain part.
// The local part is kept as entered.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

// Checked interprets an HTML checkbox value.
func Checked(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

func checkbox(b bool) string {
	if b {
		return "true"
	}
	return ""
}
