package models

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/folio/internal/slug"
)

// Project statuses.
const (
	StatusCompleted  = "completed"
	StatusInProgress = "in-progress"
	StatusPlanned    = "planned"
)

// Project is a portfolio project card. Only published projects reach the
// public site.
type Project struct {
	Meta        `yaml:",inline"`
	Position    `yaml:",inline"`
	Title       string   `json:"title" yaml:"title"`
	Slug        string   `json:"slug" yaml:"slug,omitempty"`
	Description string   `json:"description" yaml:"description"`
	Tech        []string `json:"tech" yaml:"tech"`
	Status      string   `json:"status" yaml:"status"`
	IsPublished bool     `json:"is_published" yaml:"is_published"`
	GitHubURL   string   `json:"github_url,omitempty" yaml:"github_url,omitempty"`
	LiveURL     string   `json:"live_url,omitempty" yaml:"live_url,omitempty"`
	ImageURL    string   `json:"image_url,omitempty" yaml:"image_url,omitempty"`
}

// Normalize trims the form values, dedupes the tech list and derives the slug
// from the title unless one was given. An empty status defaults to planned.
func (p *Project) Normalize() {
	p.Title = strings.TrimSpace(p.Title)
	p.Description = sanitize(p.Description)
	p.Tech = dedupe(compact(p.Tech))
	p.Status = strings.ToLower(strings.TrimSpace(p.Status))
	if p.Status == "" {
		p.Status = StatusPlanned
	}
	if s := slug.Make(p.Slug); s != "" {
		p.Slug = s
	} else {
		p.Slug = slug.Make(p.Title)
	}
	p.GitHubURL = strings.TrimSpace(p.GitHubURL)
	p.LiveURL = strings.TrimSpace(p.LiveURL)
	p.ImageURL = strings.TrimSpace(p.ImageURL)
}

func (p *Project) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Title, validation.Required, validation.Length(1, 150)),
		validation.Field(&p.Slug, validation.Required),
		validation.Field(&p.Description, validation.Required, validation.Length(1, 4000)),
		validation.Field(&p.Tech,
			validation.Required.Error("at least one technology is required"),
			validation.Each(validation.Length(1, 40)),
		),
		validation.Field(&p.Status, validation.Required, validation.In(StatusCompleted, StatusInProgress, StatusPlanned)),
		validation.Field(&p.GitHubURL, is.URL),
		validation.Field(&p.LiveURL, is.URL),
		validation.Field(&p.ImageURL, validation.By(urlOrUploadPath)),
	)
}

func (p *Project) Clone() *Project {
	c := *p
	c.Tech = cloneStrings(p.Tech)
	return &c
}

func (p *Project) Attrs() map[string]any {
	return map[string]any{
		"title":        p.Title,
		"slug":         p.Slug,
		"description":  p.Description,
		"tech":         p.Tech,
		"status":       p.Status,
		"is_published": p.IsPublished,
		"order_index":  p.OrderIndex,
		"created_at":   p.CreatedAt,
		"updated_at":   p.UpdatedAt,
	}
}
