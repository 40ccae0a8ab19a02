// Package models defines the portfolio content types and their form schemas.
package models

import (
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// Content kinds, used as collection names and URL segments.
const (
	KindProfiles   = "profiles"
	KindAbout      = "about"
	KindEducation  = "education"
	KindExperience = "experience"
	KindSkills     = "skills"
	KindProjects   = "projects"
	KindContacts   = "contacts"
	KindSocials    = "socials"
)

// Kinds lists every content kind in display order.
var Kinds = []string{
	KindProfiles, KindAbout, KindEducation, KindExperience,
	KindSkills, KindProjects, KindContacts, KindSocials,
}

// Meta carries the identity and timestamps shared by every record.
type Meta struct {
	ID        string    `json:"id" yaml:"id,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at,omitempty"`
}

// Key returns the record id.
func (m *Meta) Key() string { return m.ID }

// SetKey sets the record id.
func (m *Meta) SetKey(id string) { m.ID = id }

// Created returns the creation time.
func (m *Meta) Created() time.Time { return m.CreatedAt }

// Touch sets both timestamps.
func (m *Meta) Touch(created, updated time.Time) {
	m.CreatedAt = created
	m.UpdatedAt = updated
}

// Position is embedded by records the admin can reorder.
type Position struct {
	OrderIndex int `json:"order_index" yaml:"order_index"`
}

// Order returns the zero-based display position.
func (p *Position) Order() int { return p.OrderIndex }

// SetOrder sets the display position.
func (p *Position) SetOrder(i int) { p.OrderIndex = i }

// richText strips scripts, event handlers and other unsafe markup from
// free-form descriptions while keeping basic formatting.
var richText = bluemonday.UGCPolicy()

// sanitize removes unsafe markup and keeps the typed text as entered:
// bluemonday escapes text nodes, so its output is unescaped again. Text that
// unescapes into new markup is sanitized once more until it is stable.
func sanitize(s string) string {
	s = strings.TrimSpace(s)
	for range maxSanitizePasses {
		clean := richText.Sanitize(s)
		next := strings.TrimSpace(html.UnescapeString(clean))
		if next == s {
			return next
		}
		s = next
	}
	return strings.TrimSpace(richText.Sanitize(s))
}

const maxSanitizePasses = 4

// compact trims every entry and drops the blank ones.
func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// dedupe removes case-insensitive duplicates, keeping the first spelling.
func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		k := strings.ToLower(s)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
