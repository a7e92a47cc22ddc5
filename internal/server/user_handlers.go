package server

import (
	"net/http"

	"github.com/KshitijThareja/Orbyq/internal/services/iam"
	"github.com/KshitijThareja/Orbyq/internal/services/validation"
)

// HandleMe returns the caller's account.
func HandleMe(svc iamService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := principalFrom(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		user, err := svc.Me(r.Context(), p)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

// HandleUpdateProfile applies a partial profile update.
func HandleUpdateProfile(svc iamService, v *validation.RequestValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := principalFrom(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var in iam.ProfileInput
		if err := decodeBody(w, r, v, validation.SchemaProfile, &in); err != nil {
			writeError(w, r, err)
			return
		}
		user, err := svc.UpdateProfile(r.Context(), p, in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

// HandleDeleteAccount removes the caller and everything they own.
func HandleDeleteAccount(svc iamService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := principalFrom(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := svc.DeleteAccount(r.Context(), p); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
