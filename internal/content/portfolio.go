package content

import (
	"context"
	"errors"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
)

// Portfolio is the public view of the content: what the site renders.
type Portfolio struct {
	Profile    *models.PersonalProfile   `json:"profile"`
	About      []*models.AboutSection    `json:"about"`
	Education  []*models.EducationEntry  `json:"education"`
	Experience []*models.ExperienceEntry `json:"experience"`
	Skills     []SkillGroup              `json:"skills"`
	Projects   []*models.Project         `json:"projects"`
	Contacts   []*models.ContactInfoItem `json:"contacts"`
	Socials    []*models.SocialLink      `json:"socials"`
}

// Portfolio assembles the public snapshot. Profile is nil when no profile
// exists; unpublished projects are left out.
func (s *Service) Portfolio(ctx context.Context) (*Portfolio, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	profile, err := s.Profiles.Default(ctx)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	return &Portfolio{
		Profile:    profile,
		About:      s.About.all(),
		Education:  s.Education.all(),
		Experience: s.Experience.all(),
		Skills:     s.Skills.Grouped(ctx),
		Projects:   s.Projects.Published(ctx),
		Contacts:   s.Contacts.all(),
		Socials:    s.Socials.all(),
	}, nil
}
