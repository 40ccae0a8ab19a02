package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/listing"
)

// crudHandler serves the common routes of one content kind.
type crudHandler[T any] struct {
	crud content.CRUD[T]
}

// mountCRUD registers the list/get/create/update/delete routes of crud
// under /{kind}, plus /{kind}/reorder for ordered kinds. extra adds
// kind-specific routes to the same subrouter.
func mountCRUD[T any](r chi.Router, crud content.CRUD[T], extra ...func(chi.Router)) {
	h := &crudHandler[T]{crud: crud}
	r.Route("/"+crud.Kind(), func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		if crud.Ordered() {
			r.Post("/reorder", h.reorder)
		}
		for _, fn := range extra {
			fn(r)
		}
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

// list handles GET /api/{kind}?field=value&q=&sort=&limit=&offset=.
func (h *crudHandler[T]) list(w http.ResponseWriter, r *http.Request) {
	q := listing.ParseQuery(r.URL.Query(), h.crud.Filterable()...)
	items, total, err := h.crud.List(r.Context(), q)
	if err != nil {
		writeError(w, r, "list "+h.crud.Kind(), err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[T]{Items: items, Total: total})
}

// get handles GET /api/{kind}/{id}.
func (h *crudHandler[T]) get(w http.ResponseWriter, r *http.Request) {
	item, err := h.crud.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "get "+h.crud.Kind(), err)
		return
	}
	setETag(w, h.crud.ETag(item))
	writeJSON(w, http.StatusOK, item)
}

// create handles POST /api/{kind}.
func (h *crudHandler[T]) create(w http.ResponseWriter, r *http.Request) {
	item := h.crud.New()
	if !decodeJSON(w, r, item) {
		return
	}
	created, err := h.crud.Create(r.Context(), item)
	if err != nil {
		writeError(w, r, "create "+h.crud.Kind(), err)
		return
	}
	setETag(w, h.crud.ETag(created))
	writeJSON(w, http.StatusCreated, created)
}

// update handles PUT /api/{kind}/{id}. If-Match, when sent, must carry the
// current ETag.
func (h *crudHandler[T]) update(w http.ResponseWriter, r *http.Request) {
	item := h.crud.New()
	if !decodeJSON(w, r, item) {
		return
	}
	updated, err := h.crud.Update(r.Context(), chi.URLParam(r, "id"), item, ifMatch(r))
	if err != nil {
		writeError(w, r, "update "+h.crud.Kind(), err)
		return
	}
	setETag(w, h.crud.ETag(updated))
	writeJSON(w, http.StatusOK, updated)
}

// delete handles DELETE /api/{kind}/{id}.
func (h *crudHandler[T]) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.crud.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, "delete "+h.crud.Kind(), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// reorder handles POST /api/{kind}/reorder.
func (h *crudHandler[T]) reorder(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	items, err := h.crud.Reorder(r.Context(), req.IDs)
	if err != nil {
		writeError(w, r, "reorder "+h.crud.Kind(), err)
		return
	}
	writeJSON(w, http.StatusOK, ListResponse[T]{Items: items, Total: len(items)})
}
