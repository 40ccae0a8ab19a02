package models

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Contact item types.
const (
	ContactEmail    = "email"
	ContactPhone    = "phone"
	ContactLocation = "location"
	ContactWebsite  = "website"
)

// ContactInfoItem is one line of the contact block.
type ContactInfoItem struct {
	Meta     `yaml:",inline"`
	Position `yaml:",inline"`
	Type     string `json:"type" yaml:"type"`
	Label    string `json:"label" yaml:"label"`
	Value    string `json:"value" yaml:"value"`
	URL      string `json:"url,omitempty" yaml:"url,omitempty"`
}

func (c *ContactInfoItem) Normalize() {
	c.Type = strings.ToLower(strings.TrimSpace(c.Type))
	c.Label = strings.TrimSpace(c.Label)
	c.Value = strings.TrimSpace(c.Value)
	c.URL = strings.TrimSpace(c.URL)
	if c.URL == "" && c.Type == ContactEmail && c.Value != "" {
		c.URL = "mailto:" + c.Value
	}
}

func (c *ContactInfoItem) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Type, validation.Required, validation.In(ContactEmail, ContactPhone, ContactLocation, ContactWebsite)),
		validation.Field(&c.Label, validation.Required, validation.Length(1, 60)),
		validation.Field(&c.Value,
			validation.Required,
			validation.Length(1, 200),
			validation.When(c.Type == ContactEmail, is.EmailFormat),
		),
		validation.Field(&c.URL, validation.When(!strings.HasPrefix(c.URL, "mailto:") && !strings.HasPrefix(c.URL, "tel:"), is.URL)),
	)
}

func (c *ContactInfoItem) Clone() *ContactInfoItem {
	cp := *c
	return &cp
}

func (c *ContactInfoItem) Attrs() map[string]any {
	return map[string]any{
		"type":        c.Type,
		"label":       c.Label,
		"value":       c.Value,
		"order_index": c.OrderIndex,
		"created_at":  c.CreatedAt,
		"updated_at":  c.UpdatedAt,
	}
}

// SocialLink points at a profile on another platform.
type SocialLink struct {
	Meta     `yaml:",inline"`
	Position `yaml:",inline"`
	Platform string `json:"platform" yaml:"platform"`
	Label    string `json:"label" yaml:"label"`
	URL      string `json:"url" yaml:"url"`
}

func (s *SocialLink) Normalize() {
	s.Platform = strings.ToLower(strings.TrimSpace(s.Platform))
	s.Label = strings.TrimSpace(s.Label)
	s.URL = strings.TrimSpace(s.URL)
	if s.Label == "" && s.Platform != "" {
		s.Label = cases.Title(language.English).String(s.Platform)
	}
}

func (s *SocialLink) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Platform, validation.Required, validation.Length(1, 40)),
		validation.Field(&s.Label, validation.Length(0, 60)),
		validation.Field(&s.URL, validation.Required, is.URL),
	)
}

func (s *SocialLink) Clone() *SocialLink {
	c := *s
	return &c
}

func (s *SocialLink) Attrs() map[string]any {
	return map[string]any{
		"platform":    s.Platform,
		"label":       s.Label,
		"url":         s.URL,
		"order_index": s.OrderIndex,
		"created_at":  s.CreatedAt,
		"updated_at":  s.UpdatedAt,
	}
}
