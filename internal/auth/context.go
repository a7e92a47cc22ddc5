package auth

import (
	"context"
	"slices"
	"time"
)

// AuthenticatedPrincipal captures the caller identity bound to a request after
// the access token has been verified. It is built purely from token claims.
type AuthenticatedPrincipal struct {
	// Email is the token subject.
	Email string
	// Roles are the role claims embedded at issuance.
	Roles []string
	// TokenID is the jti of the access token, useful for log correlation.
	TokenID string
	// IssuedAt is the token's iat. Zero when the principal was not built from a token.
	IssuedAt time.Time
}

// PredatesAccount reports whether the token was issued before the account
// created at createdAt existed. Such a token belongs to an earlier holder of the
// same email and must not resolve to this account. Token timestamps have second
// precision, so createdAt is truncated before comparing.
func (p AuthenticatedPrincipal) PredatesAccount(createdAt time.Time) bool {
	return !p.IssuedAt.IsZero() && p.IssuedAt.Before(createdAt.Truncate(time.Second))
}

// HasRole reports whether the principal carries role.
func (p AuthenticatedPrincipal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

type principalContextKey struct{}

// SetUserContext stores the authenticated principal on the context for downstream consumers.
func SetUserContext(ctx context.Context, principal AuthenticatedPrincipal) context.Context {
	principal.Roles = append([]string(nil), principal.Roles...)
	return context.WithValue(ctx, principalContextKey{}, principal)
}

// GetUserFromContext retrieves the authenticated principal from the context.
func GetUserFromContext(ctx context.Context) (AuthenticatedPrincipal, bool) {
	principal, ok := ctx.Value(principalContextKey{}).(AuthenticatedPrincipal)
	return principal, ok
}
