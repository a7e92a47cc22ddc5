package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/KshitijThareja/Orbyq/internal/db/models"
	"github.com/KshitijThareja/Orbyq/internal/services/dataport"
	"github.com/KshitijThareja/Orbyq/internal/services/resources"
	"github.com/KshitijThareja/Orbyq/internal/services/validation"
)

// StatusRequest is the body of PATCH /api/tasks/{id}/status.
type StatusRequest struct {
	Status string `json:"status"`
}

// HandleToggleTodo flips a todo's completed flag.
func HandleToggleTodo(svc *resources.TodoService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := principalFrom(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		todo, err := svc.Toggle(r.Context(), p, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, todo)
	}
}

// HandleTaskStatus moves a task to another board column.
func HandleTaskStatus(svc *resources.TaskService, v *validation.RequestValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := principalFrom(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var req StatusRequest
		if err := decodeBody(w, r, v, validation.SchemaStatus, &req); err != nil {
			writeError(w, r, err)
			return
		}
		task, err := svc.UpdateStatus(r.Context(), p, chi.URLParam(r, "id"), req.Status)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	}
}

// HandleTaskBoard returns the caller's tasks grouped by status, optionally for one project.
func HandleTaskBoard(svc *resources.TaskService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := principalFrom(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		board, err := svc.Board(r.Context(), p, r.URL.Query().Get("projectId"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, board)
	}
}

// canvasItemHandlers serves /api/canvases/{id}/items. The canvas is {id} so
// the route shares its node with the canvas routes; the item is {itemID}.
type canvasItemHandlers struct {
	svc       *resources.CanvasItemService
	validator *validation.RequestValidator
}

func (h *canvasItemHandlers) mount(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{itemID}", h.get)
	r.Put("/{itemID}", h.update)
	r.Patch("/{itemID}", h.update)
	r.Delete("/{itemID}", h.delete)
}

func (h *canvasItemHandlers) list(w http.ResponseWriter, r *http.Request) {
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
	items, err := h.svc.List(r.Context(), p, chi.URLParam(r, "id"), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *canvasItemHandlers) create(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	item := new(models.CanvasItem)
	if err := decodeBody(w, r, h.validator, validation.SchemaResource, item); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := h.svc.Create(r.Context(), p, chi.URLParam(r, "id"), item)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *canvasItemHandlers) get(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	item, err := h.svc.Get(r.Context(), p, chi.URLParam(r, "id"), chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *canvasItemHandlers) update(w http.ResponseWriter, r *http.Request) {
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
	updated, err := h.svc.Update(r.Context(), p, chi.URLParam(r, "id"), chi.URLParam(r, "itemID"), v.Version,
		func(item *models.CanvasItem) error { return unmarshal(body, item) })
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *canvasItemHandlers) delete(w http.ResponseWriter, r *http.Request) {
	p, err := principalFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), p, chi.URLParam(r, "id"), chi.URLParam(r, "itemID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleExport returns everything the caller owns as one bundle.
func HandleExport(svc *dataport.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := principalFrom(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		bundle, err := svc.Export(r.Context(), p)
		if err != nil {
			writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Disposition", `attachment; filename="orbyq-export.json"`)
		writeJSON(w, http.StatusOK, bundle)
	}
}

// HandleImport creates the records of an exported bundle in the caller's account.
func HandleImport(svc *dataport.Service, v *validation.RequestValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := principalFrom(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var bundle map[string]any
		if err := decodeBody(w, r, v, validation.SchemaImport, &bundle); err != nil {
			writeError(w, r, err)
			return
		}
		result, err := svc.Import(r.Context(), p, bundle)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
