package forms

import (
	"strconv"
	"strings"

	"giveback/models"
)

// AffinityForm edits the "women in tech" sub-profile.
type AffinityForm struct {
	RoleTitle       string `form:"wit_role_title" validate:"max=120"`
	YearsExperience string `form:"wit_years_experience" validate:"required"`
	Interests       string `form:"wit_interests" validate:"max=500"`
	OpenToSpeaking  string `form:"wit_open_to_speaking"`

	years int
}

func NewAffinityForm(a models.AffinityProfile) AffinityForm {
	return AffinityForm{
		RoleTitle:       a.RoleTitle,
		YearsExperience: strconv.Itoa(a.YearsExperience),
		Interests:       a.Interests,
		OpenToSpeaking:  checkbox(a.OpenToSpeaking),
	}
}

func (f *AffinityForm) Validate() FieldErrors {
	f.RoleTitle = strings.TrimSpace(f.RoleTitle)
	f.Interests = strings.TrimSpace(f.Interests)
	errs := check(f)
	if f.YearsExperience != "" {
		f.years = intInRange(errs, "wit_years_experience", f.YearsExperience, 0, 80)
	}
	return errs
}

func (f AffinityForm) Apply(a *models.AffinityProfile) {
	a.RoleTitle = f.RoleTitle
	a.YearsExperience = f.years
	a.Interests = f.Interests
	a.OpenToSpeaking = Checked(f.OpenToSpeaking)
}

// MentorForm edits the mentor sub-profile.
type MentorForm struct {
	Expertise        string `form:"mentor_expertise" validate:"required,max=200"`
	Capacity         string `form:"mentor_capacity" validate:"required"`
	AcceptingMentees string `form:"mentor_accepting_mentees"`

	capacity int
}

func NewMentorForm(m models.MentorProfile) MentorForm {
	return MentorForm{
		Expertise:        m.Expertise,
		Capacity:         strconv.Itoa(m.Capacity),
		AcceptingMentees: checkbox(m.AcceptingMentees),
	}
}

func (f *MentorForm) Validate() FieldErrors {
	f.Expertise = strings.TrimSpace(f.Expertise)
	errs := check(f)
	if f.Capacity != "" {
		f.capacity = intInRange(errs, "mentor_capacity", f.Capacity, 1, 20)
	}
	return errs
}

func (f MentorForm) Apply(m *models.MentorProfile) {
	m.Expertise = f.Expertise
	m.Capacity = f.capacity
	m.AcceptingMentees = Checked(f.AcceptingMentees)
}
