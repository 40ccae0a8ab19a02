package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/storage"
)

// UploadHandler serves stored uploads.
type UploadHandler struct {
	store storage.Provider
}

// NewUploadHandler creates a handler over the uploads store.
func NewUploadHandler(store storage.Provider) *UploadHandler {
	return &UploadHandler{store: store}
}

// ServeFile handles GET /uploads/{filename}.
func (h *UploadHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	f, meta, err := h.store.Open(name)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrInvalidInput):
			http.Error(w, "invalid file name", http.StatusBadRequest)
		case errors.Is(err, apperr.ErrNotFound):
			http.NotFound(w, r)
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}
	defer f.Close()
	http.ServeContent(w, r, meta.Name, meta.UpdatedAt, f)
}

// List handles GET /api/uploads.
func (h *UploadHandler) List(w http.ResponseWriter, r *http.Request) {
	files, err := h.store.List()
	if err != nil {
		writeError(w, r, "list uploads", err)
		return
	}
	writeJSON(w, http.StatusOK, UploadListResponse{Files: files})
}

// Delete handles DELETE /api/uploads/{filename}.
func (h *UploadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(chi.URLParam(r, "filename")); err != nil {
		writeError(w, r, "delete upload", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
