package models

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Stat is a headline figure shown next to an about section, e.g. "Years" / "8+".
type Stat struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// Validate checks a single stat row.
func (s Stat) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Label, validation.Required, validation.Length(1, 40)),
		validation.Field(&s.Value, validation.Required, validation.Length(1, 20)),
	)
}

// AboutSection is one "about me" block, written for a given role.
type AboutSection struct {
	Meta       `yaml:",inline"`
	Position   `yaml:",inline"`
	RoleTitle  string   `json:"role_title" yaml:"role_title"`
	Paragraphs []string `json:"paragraphs" yaml:"paragraphs"`
	Stats      []Stat   `json:"stats" yaml:"stats"`
}

func (a *AboutSection) Normalize() {
	a.RoleTitle = strings.TrimSpace(a.RoleTitle)
	paragraphs := make([]string, 0, len(a.Paragraphs))
	for _, p := range a.Paragraphs {
		if p = sanitize(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	a.Paragraphs = paragraphs
	for i := range a.Stats {
		a.Stats[i].Label = strings.TrimSpace(a.Stats[i].Label)
		a.Stats[i].Value = strings.TrimSpace(a.Stats[i].Value)
	}
}

func (a *AboutSection) Validate() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.RoleTitle, validation.Required, validation.Length(1, 100)),
		validation.Field(&a.Paragraphs,
			validation.Required.Error("at least one paragraph is required"),
			validation.Each(validation.Length(1, 4000)),
		),
		validation.Field(&a.Stats, validation.Length(0, 6)),
	)
}

func (a *AboutSection) Clone() *AboutSection {
	c := *a
	c.Paragraphs = cloneStrings(a.Paragraphs)
	if a.Stats != nil {
		c.Stats = make([]Stat, len(a.Stats))
		copy(c.Stats, a.Stats)
	}
	return &c
}

func (a *AboutSection) Attrs() map[string]any {
	return map[string]any{
		"role_title":  a.RoleTitle,
		"paragraphs":  a.Paragraphs,
		"order_index": a.OrderIndex,
		"created_at":  a.CreatedAt,
		"updated_at":  a.UpdatedAt,
	}
}
