package models

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Skill is a rated skill shown under a category tab.
type Skill struct {
	Meta     `yaml:",inline"`
	Position `yaml:",inline"`
	Name     string `json:"name" yaml:"name"`
	Level    int    `json:"level" yaml:"level"`
	Category string `json:"category" yaml:"category"`
}

func (s *Skill) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Category = strings.TrimSpace(s.Category)
}

func (s *Skill) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Name, validation.Required, validation.Length(1, 60)),
		validation.Field(&s.Level, validation.Min(0), validation.Max(100)),
		validation.Field(&s.Category, validation.Required, validation.Length(1, 40)),
	)
}

func (s *Skill) Clone() *Skill {
	c := *s
	return &c
}

func (s *Skill) Attrs() map[string]any {
	return map[string]any{
		"name":        s.Name,
		"level":       s.Level,
		"category":    s.Category,
		"order_index": s.OrderIndex,
		"created_at":  s.CreatedAt,
		"updated_at":  s.UpdatedAt,
	}
}
