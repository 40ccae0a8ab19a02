package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/storage"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *content.Service, uploads storage.Provider, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, uploads)
	uh := NewUploadHandler(uploads)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	mountCRUD[*models.PersonalProfile](r, svc.Profiles, func(r chi.Router) {
		r.Post("/{id}/default", h.SetDefaultProfile)
		r.Post("/{id}/cv", h.UploadCV)
	})
	mountCRUD[*models.AboutSection](r, svc.About)
	mountCRUD[*models.EducationEntry](r, svc.Education)
	mountCRUD[*models.ExperienceEntry](r, svc.Experience)
	mountCRUD[*models.Skill](r, svc.Skills, func(r chi.Router) {
		r.Get("/categories", h.SkillCategories)
	})
	mountCRUD[*models.Project](r, svc.Projects, func(r chi.Router) {
		r.Post("/{id}/publish", h.TogglePublish)
	})
	mountCRUD[*models.ContactInfoItem](r, svc.Contacts)
	mountCRUD[*models.SocialLink](r, svc.Socials)

	r.Get("/portfolio", h.Portfolio)
	r.Get("/export", h.Export)
	r.Post("/import", h.Import)

	r.Get("/uploads", uh.List)
	r.Delete("/uploads/{filename}", uh.Delete)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
