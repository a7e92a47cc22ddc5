package middleware

import (
	"errors"
	"log"
	"net/http"

	"github.com/casbin/casbin/v2"

	"github.com/KshitijThareja/Orbyq/internal/auth"
)

// NewAuthzMiddleware enforces the role/route policy. It must run after
// RequireAuthentication. A request is allowed when any of the principal's
// role claims grants the method on the path.
func NewAuthzMiddleware(enforcer casbin.IEnforcer) (func(http.Handler) http.Handler, error) {
	if enforcer == nil {
		return nil, errors.New("authz middleware requires casbin enforcer")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := auth.GetUserFromContext(r.Context())
			if !ok || principal.Email == "" {
				unauthenticated(w)
				return
			}

			allowed := false
			for _, role := range principal.Roles {
				ok, err := enforcer.Enforce(role, r.URL.Path, r.Method)
				if err != nil {
					log.Printf("casbin enforce for %s on %s %s: %v", principal.Email, r.Method, r.URL.Path, err)
					writeError(w, http.StatusInternalServerError, "authorization error")
					return
				}
				if ok {
					allowed = true
					break
				}
			}
			if !allowed {
				log.Printf("forbidden: %s (roles %v) on %s %s", principal.Email, principal.Roles, r.Method, r.URL.Path)
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}
