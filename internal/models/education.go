package models

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// EducationEntry is one row of the education timeline.
type EducationEntry struct {
	Meta        `yaml:",inline"`
	Position    `yaml:",inline"`
	Period      string `json:"period" yaml:"period"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

func (e *EducationEntry) Normalize() {
	e.Period = strings.TrimSpace(e.Period)
	e.Title = strings.TrimSpace(e.Title)
	e.Description = sanitize(e.Description)
}

func (e *EducationEntry) Validate() error {
	return validation.ValidateStruct(e,
		validation.Field(&e.Period, validation.Required, validation.Length(1, 50)),
		validation.Field(&e.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&e.Description, validation.Required, validation.Length(1, 2000)),
	)
}

func (e *EducationEntry) Clone() *EducationEntry {
	c := *e
	return &c
}

func (e *EducationEntry) Attrs() map[string]any {
	return map[string]any{
		"period":      e.Period,
		"title":       e.Title,
		"description": e.Description,
		"order_index": e.OrderIndex,
		"created_at":  e.CreatedAt,
		"updated_at":  e.UpdatedAt,
	}
}
