package models

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MonthLayout is the layout of experience role dates.
const MonthLayout = "2006-01"

const periodLayout = "Jan 2006"

// ExperienceRole is a position held within one organization.
type ExperienceRole struct {
	JobTitle    string `json:"job_title" yaml:"job_title"`
	StartDate   string `json:"start_date" yaml:"start_date"`
	EndDate     string `json:"end_date" yaml:"end_date,omitempty"`
	IsCurrent   bool   `json:"is_current" yaml:"is_current"`
	Description string `json:"description" yaml:"description"`
}

// Validate checks a role. Current roles have no end date; past roles need one
// that does not precede the start date.
func (r ExperienceRole) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.JobTitle, validation.Required, validation.Length(1, 120)),
		validation.Field(&r.StartDate, validation.Required, validation.Date(MonthLayout)),
		validation.Field(&r.EndDate,
			validation.When(r.IsCurrent, validation.Empty.Error("must be empty for a current role")),
			validation.When(!r.IsCurrent,
				validation.Required.Error("is required unless the role is current"),
				validation.Date(MonthLayout),
				validation.By(notBefore(r.StartDate)),
			),
		),
		validation.Field(&r.Description, validation.Length(0, 2000)),
	)
}

func notBefore(start string) validation.RuleFunc {
	return func(value any) error {
		end, _ := value.(string)
		s, err := time.Parse(MonthLayout, start)
		if err != nil {
			return nil
		}
		e, err := time.Parse(MonthLayout, end)
		if err != nil {
			return nil
		}
		if e.Before(s) {
			return errors.New("must not be before the start date")
		}
		return nil
	}
}

// ExperienceEntry groups the roles held at one organization.
type ExperienceEntry struct {
	Meta          `yaml:",inline"`
	Position      `yaml:",inline"`
	Organization  string           `json:"organization" yaml:"organization"`
	Roles         []ExperienceRole `json:"roles" yaml:"roles"`
	OverallPeriod string           `json:"overall_period" yaml:"overall_period,omitempty"`
}

// Normalize trims the form values and derives the overall period from the
// roles when it was left empty.
func (e *ExperienceEntry) Normalize() {
	e.Organization = strings.TrimSpace(e.Organization)
	for i := range e.Roles {
		r := &e.Roles[i]
		r.JobTitle = strings.TrimSpace(r.JobTitle)
		r.StartDate = strings.TrimSpace(r.StartDate)
		r.EndDate = strings.TrimSpace(r.EndDate)
		r.Description = sanitize(r.Description)
	}
	e.OverallPeriod = strings.TrimSpace(e.OverallPeriod)
	if e.OverallPeriod == "" {
		e.OverallPeriod = OverallPeriod(e.Roles)
	}
}

func (e *ExperienceEntry) Validate() error {
	return validation.ValidateStruct(e,
		validation.Field(&e.Organization, validation.Required, validation.Length(1, 150)),
		validation.Field(&e.Roles, validation.Required.Error("at least one role is required")),
		validation.Field(&e.OverallPeriod, validation.Length(0, 60)),
	)
}

func (e *ExperienceEntry) Clone() *ExperienceEntry {
	c := *e
	if e.Roles != nil {
		c.Roles = make([]ExperienceRole, len(e.Roles))
		copy(c.Roles, e.Roles)
	}
	return &c
}

func (e *ExperienceEntry) Attrs() map[string]any {
	titles := make([]string, len(e.Roles))
	current := false
	for i, r := range e.Roles {
		titles[i] = r.JobTitle
		current = current || r.IsCurrent
	}
	return map[string]any{
		"organization":   e.Organization,
		"job_titles":     titles,
		"is_current":     current,
		"overall_period": e.OverallPeriod,
		"order_index":    e.OrderIndex,
		"created_at":     e.CreatedAt,
		"updated_at":     e.UpdatedAt,
	}
}

// OverallPeriod renders the span covered by roles, e.g. "Mar 2019 - Present".
// Roles with unparsable dates are ignored; no valid role yields "".
func OverallPeriod(roles []ExperienceRole) string {
	var first, last time.Time
	current := false
	for _, r := range roles {
		start, err := time.Parse(MonthLayout, r.StartDate)
		if err != nil {
			continue
		}
		if first.IsZero() || start.Before(first) {
			first = start
		}
		if r.IsCurrent {
			current = true
			continue
		}
		if end, err := time.Parse(MonthLayout, r.EndDate); err == nil && end.After(last) {
			last = end
		}
	}
	switch {
	case first.IsZero():
		return ""
	case current:
		return first.Format(periodLayout) + " - Present"
	case last.IsZero():
		return first.Format(periodLayout)
	default:
		return first.Format(periodLayout) + " - " + last.Format(periodLayout)
	}
}
