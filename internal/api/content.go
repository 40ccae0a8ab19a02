package api

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/seed"
	"github.com/starford/folio/internal/storage"
)

const (
	maxCVBytes     = 10 << 20 // 10 MB
	maxImportBytes = 5 << 20
)

var cvExtensions = map[string]bool{".pdf": true, ".doc": true, ".docx": true}

// Handler serves the routes that go beyond plain CRUD.
type Handler struct {
	svc     *content.Service
	uploads storage.Provider
}

// NewHandler creates a new Handler.
func NewHandler(svc *content.Service, uploads storage.Provider) *Handler {
	return &Handler{svc: svc, uploads: uploads}
}

// SetDefaultProfile handles POST /api/profiles/{id}/default.
func (h *Handler) SetDefaultProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Profiles.SetDefault(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "set default profile", err)
		return
	}
	setETag(w, h.svc.Profiles.ETag(p))
	writeJSON(w, http.StatusOK, p)
}

// UploadCV handles POST /api/profiles/{id}/cv (multipart/form-data, field
// "file"). The file is stored under uploads and linked from the profile.
func (h *Handler) UploadCV(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, err := h.svc.Profiles.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, "upload cv", err)
		return
	}
	prior := storage.NameFromURL(existing.CVFileURL)

	r.Body = http.MaxBytesReader(w, r.Body, maxCVBytes+1<<20)
	if err := r.ParseMultipartForm(maxCVBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	name := storage.CleanName(header.Filename)
	if name == "" || !cvExtensions[filepath.Ext(name)] {
		writeJSON(w, http.StatusBadRequest, errorBody("CV must be a .pdf, .doc or .docx file"))
		return
	}
	stored, err := h.uploads.Save(storage.OwnedName(id, name), file)
	if err != nil {
		writeError(w, r, "upload cv", err)
		return
	}

	p, err := h.svc.Profiles.AttachCV(r.Context(), id, header.Filename, storage.URLPath(stored.Name))
	if err != nil {
		// The same name was overwritten in place and is still linked.
		if stored.Name != prior {
			logDiscard(storage.Discard(h.uploads, stored.Name), stored.Name)
		}
		writeError(w, r, "upload cv", err)
		return
	}
	logDiscard(storage.Replace(h.uploads, prior, stored.Name), prior)
	setETag(w, h.svc.Profiles.ETag(p))
	writeJSON(w, http.StatusOK, p)
}

func logDiscard(err error, name string) {
	if err != nil {
		slog.Warn("remove upload failed",
			slog.String("file", name),
			slog.String("error", err.Error()))
	}
}

// TogglePublish handles POST /api/projects/{id}/publish.
func (h *Handler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Projects.TogglePublish(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "toggle publish", err)
		return
	}
	setETag(w, h.svc.Projects.ETag(p))
	writeJSON(w, http.StatusOK, p)
}

// SkillCategories handles GET /api/skills/categories.
func (h *Handler) SkillCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": h.svc.Skills.Categories(r.Context()),
	})
}

// Portfolio handles GET /api/portfolio.
func (h *Handler) Portfolio(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Portfolio(r.Context())
	if err != nil {
		writeError(w, r, "portfolio", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Export handles GET /api/export: every record as a YAML data set.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := seed.Marshal(h.svc.Export())
	if err != nil {
		writeError(w, r, "export", err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="folio.yaml"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Import handles POST /api/import. The body is a YAML (or JSON) data set
// that replaces all content. Nothing changes unless every record is valid.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	ds, err := seed.Parse(bytes.TrimSpace(body))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if errs := seed.Check(ds); len(errs) > 0 {
		resp := ImportErrorResponse{Error: "invalid data set", Records: make([]RecordError, len(errs))}
		for i, e := range errs {
			resp.Records[i] = RecordError{Kind: e.Kind, Index: e.Index, Error: e.Err.Error()}
		}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}
	if err := h.svc.Import(r.Context(), ds); err != nil {
		if errors.Is(err, apperr.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		writeError(w, r, "import", err)
		return
	}
	writeJSON(w, http.StatusOK, ImportResponse{Imported: ds.Len()})
}
