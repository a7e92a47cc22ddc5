package iam

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/KshitijThareja/Orbyq/internal/auth"
	"github.com/KshitijThareja/Orbyq/internal/telemetry"
)

// Authenticator validates request credentials and returns the caller.
//
// Return values:
//   - (principal, nil): authentication succeeded
//   - (nil, error): the error wraps ErrUnauthenticated together with the internal cause
type Authenticator interface {
	Authenticate(ctx context.Context, req AuthRequest) (*Principal, error)
}

// AuthRequest wraps the request data authenticators look at.
type AuthRequest struct {
	Headers http.Header
}

// ExtractBearer returns the token from an "Authorization: Bearer <token>"
// header value. The scheme is matched case-insensitively.
func ExtractBearer(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

// BearerAuthenticator verifies access tokens with the token codec.
// It holds no mutable state and never touches the credential store.
type BearerAuthenticator struct {
	codec   *auth.TokenCodec
	now     func() time.Time
	metrics *telemetry.AuthMetrics
}

var _ Authenticator = (*BearerAuthenticator)(nil)

// NewBearerAuthenticator creates an authenticator. metrics may be nil.
func NewBearerAuthenticator(codec *auth.TokenCodec, metrics *telemetry.AuthMetrics) *BearerAuthenticator {
	return &BearerAuthenticator{codec: codec, now: time.Now, metrics: metrics}
}

// WithClock overrides the verification clock.
func (a *BearerAuthenticator) WithClock(now func() time.Time) *BearerAuthenticator {
	a.now = now
	return a
}

func (a *BearerAuthenticator) Authenticate(ctx context.Context, req AuthRequest) (*Principal, error) {
	start := time.Now()
	principal, err := a.authenticate(req)
	if a.metrics != nil {
		a.metrics.RecordAuth(ctx, "bearer", err == nil, float64(time.Since(start).Microseconds())/1000)
	}
	return principal, err
}

func (a *BearerAuthenticator) authenticate(req AuthRequest) (*Principal, error) {
	raw := req.Headers.Get("Authorization")
	if raw == "" {
		return nil, fmt.Errorf("%w: missing authorization header", ErrUnauthenticated)
	}
	token, ok := ExtractBearer(raw)
	if !ok {
		return nil, fmt.Errorf("%w: authorization header is not a bearer token", ErrUnauthenticated)
	}

	claims, err := a.codec.Verify(auth.TokenAccess, token, a.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	return &Principal{
		Email:    claims.Subject,
		Roles:    append([]string(nil), claims.Roles...),
		TokenID:  claims.ID,
		IssuedAt: claims.IssuedAt.Time,
	}, nil
}
