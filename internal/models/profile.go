package models

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// PersonalProfile is the hero block of the portfolio. Exactly one profile is
// the default one shown on the public site.
type PersonalProfile struct {
	Meta        `yaml:",inline"`
	Name        string   `json:"name" yaml:"name"`
	TitlePrefix string   `json:"title_prefix" yaml:"title_prefix"`
	Description string   `json:"description" yaml:"description"`
	Roles       []string `json:"roles" yaml:"roles"`
	CVFileName  string   `json:"cv_file_name" yaml:"cv_file_name,omitempty"`
	CVFileURL   string   `json:"cv_file_url" yaml:"cv_file_url,omitempty"`
	IsDefault   bool     `json:"is_default" yaml:"is_default"`
}

// Normalize trims the form values and drops blank roles.
func (p *PersonalProfile) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.TitlePrefix = strings.TrimSpace(p.TitlePrefix)
	p.Description = sanitize(p.Description)
	p.Roles = dedupe(compact(p.Roles))
	p.CVFileName = strings.TrimSpace(p.CVFileName)
	p.CVFileURL = strings.TrimSpace(p.CVFileURL)
}

// Validate checks the profile form schema.
func (p *PersonalProfile) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&p.TitlePrefix, validation.Length(0, 50)),
		validation.Field(&p.Description, validation.Required, validation.Length(1, 2000)),
		validation.Field(&p.Roles,
			validation.Required.Error("at least one role is required"),
			validation.Each(validation.Length(1, 80)),
		),
		validation.Field(&p.CVFileURL,
			validation.When(p.CVFileName != "", validation.Required.Error("is required when a CV file name is set")),
			validation.By(urlOrUploadPath),
		),
	)
}

// Clone returns a deep copy.
func (p *PersonalProfile) Clone() *PersonalProfile {
	c := *p
	c.Roles = cloneStrings(p.Roles)
	return &c
}

// Attrs exposes the listable attributes.
func (p *PersonalProfile) Attrs() map[string]any {
	return map[string]any{
		"name":         p.Name,
		"title_prefix": p.TitlePrefix,
		"description":  p.Description,
		"roles":        p.Roles,
		"is_default":   p.IsDefault,
		"created_at":   p.CreatedAt,
		"updated_at":   p.UpdatedAt,
	}
}

// urlOrUploadPath accepts absolute URLs and paths served from /uploads/.
func urlOrUploadPath(value any) error {
	s, _ := value.(string)
	if s == "" || strings.HasPrefix(s, "/uploads/") {
		return nil
	}
	if err := is.URL.Validate(s); err != nil {
		return errors.New("must be a valid URL or an /uploads/ path")
	}
	return nil
}
