package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/listing"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/seed"
)

// Service groups the CRUD services of every content kind.
type Service struct {
	Profiles   *ProfileResource
	About      *Resource[*models.AboutSection]
	Education  *Resource[*models.EducationEntry]
	Experience *Resource[*models.ExperienceEntry]
	Skills     *SkillResource
	Projects   *ProjectResource
	Contacts   *Resource[*models.ContactInfoItem]
	Socials    *Resource[*models.SocialLink]

	kinds    map[string]kindResource
	logger   *slog.Logger
	notifier Notifier

	// importMu serializes whole-data-set replacement.
	importMu sync.Mutex
}

// New builds a Service with empty collections.
func New(opts ...Option) *Service {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	s := &Service{
		Profiles: &ProfileResource{Resource: newResource(models.KindProfiles,
			func() *models.PersonalProfile { return &models.PersonalProfile{} }, o,
			"is_default", "roles")},
		About: newResource(models.KindAbout,
			func() *models.AboutSection { return &models.AboutSection{} }, o,
			"role_title"),
		Education: newResource(models.KindEducation,
			func() *models.EducationEntry { return &models.EducationEntry{} }, o,
			"period"),
		Experience: newResource(models.KindExperience,
			func() *models.ExperienceEntry { return &models.ExperienceEntry{} }, o,
			"organization", "is_current", "job_titles"),
		Skills: &SkillResource{Resource: newResource(models.KindSkills,
			func() *models.Skill { return &models.Skill{} }, o,
			"category", "level")},
		Projects: &ProjectResource{Resource: newResource(models.KindProjects,
			func() *models.Project { return &models.Project{} }, o,
			"status", "is_published", "tech")},
		Contacts: newResource(models.KindContacts,
			func() *models.ContactInfoItem { return &models.ContactInfoItem{} }, o,
			"type"),
		Socials: newResource(models.KindSocials,
			func() *models.SocialLink { return &models.SocialLink{} }, o,
			"platform"),
		logger:   o.logger,
		notifier: o.notifier,
	}
	s.kinds = map[string]kindResource{
		models.KindProfiles:   s.Profiles,
		models.KindAbout:      s.About,
		models.KindEducation:  s.Education,
		models.KindExperience: s.Experience,
		models.KindSkills:     s.Skills,
		models.KindProjects:   s.Projects,
		models.KindContacts:   s.Contacts,
		models.KindSocials:    s.Socials,
	}
	return s
}

// Load restores every collection from the persister.
func (s *Service) Load(ctx context.Context) error {
	for _, kind := range models.Kinds {
		if err := s.kinds[kind].load(ctx); err != nil {
			return fmt.Errorf("content: load %s: %w", kind, err)
		}
	}
	return nil
}

// Empty reports whether no collection holds a record.
func (s *Service) Empty() bool {
	for _, r := range s.kinds {
		if r.size() > 0 {
			return false
		}
	}
	return true
}

// Import replaces all content with the data set. Every record is checked
// first; invalid records yield an error wrapping apperr.ErrInvalidInput that
// lists each of them. When storing a kind fails, the kinds already replaced
// are restored.
func (s *Service) Import(ctx context.Context, ds *seed.Dataset) error {
	if errs := seed.Check(ds); len(errs) > 0 {
		joined := make([]error, 0, len(errs)+1)
		joined = append(joined, apperr.ErrInvalidInput)
		for _, e := range errs {
			joined = append(joined, e)
		}
		return fmt.Errorf("content: import: %w", errors.Join(joined...))
	}

	profiles, err := prepare(ds.Profiles)
	if err != nil {
		return err
	}
	ensureDefault(profiles)
	about, err := prepare(ds.About)
	if err != nil {
		return err
	}
	education, err := prepare(ds.Education)
	if err != nil {
		return err
	}
	experience, err := prepare(ds.Experience)
	if err != nil {
		return err
	}
	skills, err := prepare(ds.Skills)
	if err != nil {
		return err
	}
	projects, err := prepare(ds.Projects)
	if err != nil {
		return err
	}
	contacts, err := prepare(ds.Contacts)
	if err != nil {
		return err
	}
	socials, err := prepare(ds.Socials)
	if err != nil {
		return err
	}

	s.importMu.Lock()
	defer s.importMu.Unlock()
	s.Profiles.mu.Lock()
	defer s.Profiles.mu.Unlock()

	steps := []struct {
		r   kindResource
		run func() error
	}{
		{s.Profiles, func() error { return s.Profiles.reset(ctx, profiles) }},
		{s.About, func() error { return s.About.reset(ctx, about) }},
		{s.Education, func() error { return s.Education.reset(ctx, education) }},
		{s.Experience, func() error { return s.Experience.reset(ctx, experience) }},
		{s.Skills, func() error { return s.Skills.reset(ctx, skills) }},
		{s.Projects, func() error { return s.Projects.reset(ctx, projects) }},
		{s.Contacts, func() error { return s.Contacts.reset(ctx, contacts) }},
		{s.Socials, func() error { return s.Socials.reset(ctx, socials) }},
	}
	undo := make([]func(context.Context) error, 0, len(steps))
	for _, step := range steps {
		restore := step.r.snapshot()
		if err := step.run(); err != nil {
			s.rollback(ctx, undo)
			return fmt.Errorf("content: import: %s: %w", step.r.Kind(), err)
		}
		undo = append(undo, restore)
	}
	s.logger.Info("content imported", slog.Int("records", ds.Len()))
	return nil
}

// rollback restores the kinds an import already replaced, newest first.
func (s *Service) rollback(ctx context.Context, undo []func(context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	for i := len(undo) - 1; i >= 0; i-- {
		if err := undo[i](ctx); err != nil {
			s.logger.Error("import rollback failed", slog.String("error", err.Error()))
		}
	}
}

// Export dumps the current content as a data set.
func (s *Service) Export() *seed.Dataset {
	return &seed.Dataset{
		Profiles:   s.Profiles.all(),
		About:      s.About.all(),
		Education:  s.Education.all(),
		Experience: s.Experience.all(),
		Skills:     s.Skills.all(),
		Projects:   s.Projects.all(),
		Contacts:   s.Contacts.all(),
		Socials:    s.Socials.all(),
	}
}

// Kinds returns every content kind in display order.
func (s *Service) Kinds() []string {
	return append([]string(nil), models.Kinds...)
}

// Filterable returns the filter attributes of kind.
func (s *Service) Filterable(kind string) ([]string, error) {
	r, err := s.kind(kind)
	if err != nil {
		return nil, err
	}
	return r.Filterable(), nil
}

// ListKind lists records of a kind named at runtime.
func (s *Service) ListKind(ctx context.Context, kind string, q listing.Query) (any, int, error) {
	r, err := s.kind(kind)
	if err != nil {
		return nil, 0, err
	}
	return r.listAny(ctx, q)
}

// GetKind returns one record of a kind named at runtime.
func (s *Service) GetKind(ctx context.Context, kind, id string) (any, error) {
	r, err := s.kind(kind)
	if err != nil {
		return nil, err
	}
	return r.getAny(ctx, id)
}

func (s *Service) kind(kind string) (kindResource, error) {
	r, ok := s.kinds[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown content kind %q", apperr.ErrInvalidInput, kind)
	}
	return r, nil
}
