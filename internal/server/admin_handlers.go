package server

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/KshitijThareja/Orbyq/internal/services/validation"
)

// SetRolesRequest is the body of PUT /admin/users/{id}/roles.
type SetRolesRequest struct {
	Roles []string `json:"roles"`
}

// HandleListUsers handles GET /admin/users. The route is ADMIN-only by policy.
func HandleListUsers(svc iamService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := svc.ListUsers(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}

// HandleSetRoles handles PUT /admin/users/{id}/roles.
func HandleSetRoles(svc iamService, v *validation.RequestValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SetRolesRequest
		if err := decodeBody(w, r, v, validation.SchemaRoles, &req); err != nil {
			writeError(w, r, err)
			return
		}

		userID := chi.URLParam(r, "id")
		user, err := svc.SetRoles(r.Context(), userID, req.Roles)
		if err != nil {
			writeError(w, r, err)
			return
		}

		if p, err := principalFrom(r); err == nil {
			log.Printf("roles of user %s set to %v by %s", userID, user.Roles, p.Email)
		}
		writeJSON(w, http.StatusOK, user)
	}
}
