package middleware

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/KshitijThareja/Orbyq/internal/auth"
	"github.com/KshitijThareja/Orbyq/internal/services/iam"
)

// RequireAuthentication rejects requests without a valid access token and
// binds the verified principal to the request context otherwise.
//
// The authenticator only checks the token; it never reads the store, so a
// request is never both authenticated and served from a stale lookup here.
// The failure cause is logged, the client only sees 401.
func RequireAuthentication(authenticator iam.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := authenticator.Authenticate(r.Context(), iam.AuthRequest{Headers: r.Header})
			if err != nil || principal == nil {
				log.Printf("authentication failed for %s %s: %v", r.Method, r.URL.Path, err)
				unauthenticated(w)
				return
			}

			ctx := auth.SetUserContext(r.Context(), *principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthenticated(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="orbyq"`)
	writeError(w, http.StatusUnauthorized, "unauthenticated")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
