package server

import (
	"errors"
	"net/http"

	"github.com/KshitijThareja/Orbyq/internal/services/iam"
	"github.com/KshitijThareja/Orbyq/internal/services/validation"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the body of POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// HandleRegister creates an account and returns its first token pair.
func HandleRegister(svc iamService, v *validation.RequestValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req iam.RegisterInput
		if err := decodeBody(w, r, v, validation.SchemaRegister, &req); err != nil {
			writeError(w, r, err)
			return
		}

		pair, err := svc.Register(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, pair)
	}
}

// HandleLogin exchanges email and password for a token pair.
func HandleLogin(svc iamService, v *validation.RequestValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := decodeBody(w, r, v, validation.SchemaLogin, &req); err != nil {
			writeError(w, r, err)
			return
		}

		pair, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, pair)
	}
}

// HandleRefresh rotates a refresh token into a new pair. A token whose user
// was deleted is an authentication failure here, not a missing resource.
func HandleRefresh(svc iamService, v *validation.RequestValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RefreshRequest
		if err := decodeBody(w, r, v, validation.SchemaRefresh, &req); err != nil {
			writeError(w, r, err)
			return
		}

		pair, err := svc.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			if errors.Is(err, iam.ErrUserNotFound) {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "user not found"})
				return
			}
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, pair)
	}
}
