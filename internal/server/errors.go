package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/KshitijThareja/Orbyq/internal/db/models"
	"github.com/KshitijThareja/Orbyq/internal/repository"
	"github.com/KshitijThareja/Orbyq/internal/services/iam"
	"github.com/KshitijThareja/Orbyq/internal/services/resources"
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// classify maps a service error to a status and a client-safe message.
// Forbidden is reported as not found so that ids of other users' resources
// cannot be probed.
func classify(err error) (int, errorResponse) {
	switch {
	case errors.Is(err, models.ErrInvalid):
		return http.StatusBadRequest, errorResponse{Error: "validation failed", Detail: err.Error()}
	case errors.Is(err, iam.ErrEmailTaken):
		return http.StatusConflict, errorResponse{Error: "email already registered"}
	case errors.Is(err, iam.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "invalid credentials"}
	case errors.Is(err, iam.ErrInvalidRefreshToken):
		return http.StatusUnauthorized, errorResponse{Error: "invalid refresh token"}
	case errors.Is(err, iam.ErrUnauthenticated):
		return http.StatusUnauthorized, errorResponse{Error: "unauthenticated"}
	case errors.Is(err, resources.ErrForbidden), errors.Is(err, resources.ErrResourceNotFound):
		return http.StatusNotFound, errorResponse{Error: "resource not found"}
	case errors.Is(err, iam.ErrUserNotFound):
		return http.StatusNotFound, errorResponse{Error: "user not found"}
	case errors.Is(err, repository.ErrStaleVersion):
		return http.StatusConflict, errorResponse{Error: "version conflict"}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, errorResponse{Error: "store timeout"}
	default:
		return http.StatusInternalServerError, errorResponse{Error: "internal error"}
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}
