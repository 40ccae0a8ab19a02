package content

import (
	"context"
	"strings"

	"github.com/starford/folio/internal/models"
)

// Category is one skills tab.
type Category struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// SkillGroup is the skills of one category, in display order.
type SkillGroup struct {
	Category string          `json:"category"`
	Skills   []*models.Skill `json:"skills"`
}

// SkillResource adds category tabs to the skill CRUD.
type SkillResource struct {
	*Resource[*models.Skill]
}

// Categories returns the distinct categories in order of first appearance.
// Categories differing only in case are one tab, named by its first spelling.
func (s *SkillResource) Categories(_ context.Context) []Category {
	groups := s.groups()
	out := make([]Category, len(groups))
	for i, g := range groups {
		out[i] = Category{Name: g.Category, Count: len(g.Skills)}
	}
	return out
}

// Grouped returns the skills grouped by category.
func (s *SkillResource) Grouped(_ context.Context) []SkillGroup {
	return s.groups()
}

func (s *SkillResource) groups() []SkillGroup {
	index := make(map[string]int)
	out := []SkillGroup{}
	for _, sk := range s.coll.All() {
		key := strings.ToLower(sk.Category)
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, SkillGroup{Category: sk.Category})
		}
		out[i].Skills = append(out[i].Skills, sk)
	}
	return out
}
