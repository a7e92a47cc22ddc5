package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/KshitijThareja/Orbyq/internal/db/models"
	"github.com/KshitijThareja/Orbyq/internal/repository"
	"github.com/KshitijThareja/Orbyq/internal/services/iam"
	"github.com/KshitijThareja/Orbyq/internal/services/resources"
	"github.com/KshitijThareja/Orbyq/internal/services/validation"
)

// crudService is what the generic handlers need from an owned-kind service.
type crudService[T models.Owned] interface {
	Get(ctx context.Context, p iam.Principal, id string) (T, error)
	List(ctx context.Context, p iam.Principal, q resources.ListQuery) ([]T, error)
	Create(ctx context.Context, p iam.Principal, item T) (T, error)
	Update(ctx context.Context, p iam.Principal, id string, expectedVersion *int64, mutate func(T) error) (T, error)
	Delete(ctx context.Context, p iam.Principal, id string) error
}

var (
	_ crudService[*models.Todo] = (*resources.TodoService)(nil)
	_ crudService[*models.Task] = (*resources.TaskService)(nil)
	_ crudService[*models.Idea] = (*resources.Service[*models.Idea])(nil)
)

// versionField picks the optimistic-concurrency version out of an update body.
type versionField struct {
	Version *int64 `json:"version"`
}

// resourceHandlers serves list, create, get, update and delete for one kind.
type resourceHandlers[T models.Owned] struct {
	svc       crudService[T]
	newFn     func() T
	validator *validation.RequestValidator
	// where adds kind-specific list conditions from the query string.
	where func(r *http.Request) []repository.Condition
}

func (h *resourceHandlers[T]) mount(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

// listQuery reads ?filter= and ?limit= shared by every list endpoint.
func listQuery(r *http.Request) (resources.ListQuery, error) {
	q := resources.ListQuery{Filter: r.URL.Query().Get("filter")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return q, models.Invalid("limit", "must be a positive integer")
		}
		q.Limit = limit
	}
	return q, nil
}

func (h *resourceHandlers[T]) list(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q, err := listQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if h.where != nil {
		q.Where = h.where(r)
	}

	items, err := h.svc.List(r.Context(), p, q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *resourceHandlers[T]) create(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	item := h.newFn()
	if err := decodeBody(w, r, h.validator, validation.SchemaResource, item); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := h.svc.Create(r.Context(), p, item)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *resourceHandlers[T]) get(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	item, err := h.svc.Get(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// update merges the body onto the stored resource: fields absent from the
// body keep their stored values. PUT and PATCH behave the same.
func (h *resourceHandlers[T]) update(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := readBody(w, r, h.validator, validation.SchemaResource)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var v versionField
	if err := unmarshal(body, &v); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := h.svc.Update(r.Context(), p, chi.URLParam(r, "id"), v.Version, func(item T) error {
		return unmarshal(body, item)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *resourceHandlers[T]) delete(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), p, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// mountResource mounts the CRUD routes of one kind under pattern. extra
// registers kind-specific routes on the same subrouter.
func mountResource[T models.Owned](r chi.Router, pattern string, h *resourceHandlers[T], extra func(chi.Router)) {
	r.Route(pattern, func(r chi.Router) {
		if extra != nil {
			extra(r)
		}
		h.mount(r)
	})
}
