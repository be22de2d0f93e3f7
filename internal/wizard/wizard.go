// Package wizard holds the profile-completion flow: an ordered,
// role-dependent list of data-collection steps with per-step required-field
// validation and an unconditional skip path.
package wizard

import (
	"errors"
	"strings"

	"github.com/tasklink-app/tasklink-web/internal/models"
)

var ErrUnsupportedRole = errors.New("wizard: no completion steps for this role")

type Step struct {
	Title    string   `json:"title"`
	Fields   []string `json:"fields"`
	Required []string `json:"required"`
}

// Steps returns the ordered step list for a role. Required sets are always a
// subset of the step's fields.
func Steps(role models.Role) []Step {
	switch role {
	case models.RoleAgent:
		return []Step{
			{
				Title:    "Informations personnelles",
				Fields:   []string{"location", "phone"},
				Required: []string{"location"},
			},
			{
				Title:    "Présentation professionnelle",
				Fields:   []string{"bio"},
				Required: []string{"bio"},
			},
			{
				Title:    "Compétences",
				Fields:   []string{"skills"},
				Required: nil,
			},
			{
				Title:    "Informations de paiement",
				Fields:   []string{"paymentMethod", "paymentNumber"},
				Required: nil,
			},
		}
	case models.RoleEnterprise:
		return []Step{
			{
				Title:    "Informations de l'entreprise",
				Fields:   []string{"companyName", "sector"},
				Required: []string{"companyName"},
			},
			{
				Title:    "Description de l'entreprise",
				Fields:   []string{"description"},
				Required: []string{"description"},
			},
			{
				Title:    "Coordonnées",
				Fields:   []string{"location", "phone", "website"},
				Required: []string{"location"},
			},
		}
	}
	return nil
}

// Data collects everything the wizard can gather across both role paths.
type Data struct {
	Location string `json:"location"`
	Phone    string `json:"phone"`

	Bio           string   `json:"bio"`
	Skills        []string `json:"skills"`
	PaymentMethod string   `json:"paymentMethod"`
	PaymentNumber string   `json:"paymentNumber"`

	CompanyName string `json:"companyName"`
	Sector      string `json:"sector"`
	Description string `json:"description"`
	Website     string `json:"website"`
}

func (d *Data) value(field string) string {
	switch field {
	case "location":
		return d.Location
	case "phone":
		return d.Phone
	case "bio":
		return d.Bio
	case "skills":
		return strings.Join(d.Skills, ",")
	case "paymentMethod":
		return d.PaymentMethod
	case "paymentNumber":
		return d.PaymentNumber
	case "companyName":
		return d.CompanyName
	case "sector":
		return d.Sector
	case "description":
		return d.Description
	case "website":
		return d.Website
	}
	return ""
}

// State is one user's wizard position. It serializes into the session record
// so the flow survives reloads.
type State struct {
	Role models.Role `json:"role"`
	Step int         `json:"step"`
	Data Data        `json:"data"`
}

func New(role models.Role) (*State, error) {
	if Steps(role) == nil {
		return nil, ErrUnsupportedRole
	}
	return &State{Role: role}, nil
}

func (s *State) Steps() []Step { return Steps(s.Role) }

func (s *State) Current() Step {
	steps := s.Steps()
	if s.Step < 0 || s.Step >= len(steps) {
		return Step{}
	}
	return steps[s.Step]
}

func (s *State) Last() bool { return s.Step >= len(s.Steps())-1 }

// StepValid reports whether every required field of the current step is
// non-blank after trimming.
func (s *State) StepValid() bool {
	for _, f := range s.Current().Required {
		if strings.TrimSpace(s.Data.value(f)) == "" {
			return false
		}
	}
	return true
}

// Advance moves to the next step, or asks for submission on the last one.
// It is a no-op while the current step's required fields are blank.
func (s *State) Advance() (submit, ok bool) {
	if !s.StepValid() {
		return false, false
	}
	if s.Last() {
		return true, true
	}
	s.Step++
	return false, true
}

// Skip bypasses validation on purpose: it always advances, or submits when
// already on the last step.
func (s *State) Skip() (submit bool) {
	if s.Last() {
		return true
	}
	s.Step++
	return false
}

// AddSkill appends a trimmed skill, silently rejecting duplicates and blanks.
// Insertion order is preserved.
func (s *State) AddSkill(skill string) bool {
	skill = strings.TrimSpace(skill)
	if skill == "" {
		return false
	}
	for _, existing := range s.Data.Skills {
		if existing == skill {
			return false
		}
	}
	s.Data.Skills = append(s.Data.Skills, skill)
	return true
}

func (s *State) RemoveSkill(skill string) {
	kept := s.Data.Skills[:0]
	for _, existing := range s.Data.Skills {
		if existing != skill {
			kept = append(kept, existing)
		}
	}
	s.Data.Skills = kept
}

// Payload assembles the single aggregate submission: role, common fields,
// then the role-specific group.
func (s *State) Payload() map[string]any {
	p := map[string]any{
		"role":     string(s.Role),
		"location": s.Data.Location,
		"phone":    s.Data.Phone,
	}
	switch s.Role {
	case models.RoleAgent:
		skills := s.Data.Skills
		if skills == nil {
			skills = []string{}
		}
		p["bio"] = s.Data.Bio
		p["skills"] = skills
		p["paymentMethod"] = s.Data.PaymentMethod
		p["paymentNumber"] = s.Data.PaymentNumber
	case models.RoleEnterprise:
		p["companyName"] = s.Data.CompanyName
		p["sector"] = s.Data.Sector
		p["description"] = s.Data.Description
		p["website"] = s.Data.Website
	}
	return p
}
