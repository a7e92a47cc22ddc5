package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/KshitijThareja/Orbyq/internal/config"
)

// TokenKind selects the signing key and lifetime used by the codec.
type TokenKind string

const (
	// TokenAccess is the short-lived bearer credential sent on every request.
	TokenAccess TokenKind = "access"
	// TokenRefresh is the long-lived credential exchanged for a new pair.
	TokenRefresh TokenKind = "refresh"
)

var (
	// ErrTokenMalformed is returned when a token cannot be parsed or lacks required claims.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenSignature is returned when a token was not signed with the expected key.
	ErrTokenSignature = errors.New("token signature invalid")
	// ErrTokenExpired is returned when the verification instant is at or past the expiry.
	ErrTokenExpired = errors.New("token expired")
)

// Claims is the claim set carried by both token kinds.
// Roles is only populated on access tokens. Generation is only populated on
// refresh tokens issued while strict rotation is enabled.
type Claims struct {
	Roles      []string `json:"roles,omitempty"`
	Generation int64    `json:"gen,omitempty"`
	jwt.RegisteredClaims
}

// ExtraClaims are the kind-specific claims passed to Issue.
type ExtraClaims struct {
	Roles      []string
	Generation int64
}

type tokenKey struct {
	secret []byte
	ttl    time.Duration
}

// TokenCodec issues and verifies HS256 JWTs. Each kind has its own secret and TTL.
// The codec holds no mutable state and is safe for concurrent use.
type TokenCodec struct {
	keys map[TokenKind]tokenKey
}

// NewTokenCodec builds a codec from the immutable auth configuration.
func NewTokenCodec(cfg config.AuthConfig) (*TokenCodec, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("token codec config: %w", err)
	}
	return &TokenCodec{
		keys: map[TokenKind]tokenKey{
			TokenAccess:  {secret: []byte(cfg.AccessTokenSecret), ttl: cfg.AccessTokenTTL},
			TokenRefresh: {secret: []byte(cfg.RefreshTokenSecret), ttl: cfg.RefreshTokenTTL},
		},
	}, nil
}

// TTL returns the configured lifetime for a token kind.
func (c *TokenCodec) TTL(kind TokenKind) time.Duration {
	return c.keys[kind].ttl
}

// Issue signs a new token of the given kind for subject.
func (c *TokenCodec) Issue(kind TokenKind, subject string, extra ExtraClaims, now time.Time) (string, error) {
	key, ok := c.keys[kind]
	if !ok {
		return "", fmt.Errorf("unknown token kind %q", kind)
	}
	if subject == "" {
		return "", fmt.Errorf("issue %s token: empty subject", kind)
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(key.ttl)),
			ID:        uuid.NewString(),
		},
	}
	switch kind {
	case TokenAccess:
		claims.Roles = append([]string(nil), extra.Roles...)
	case TokenRefresh:
		claims.Generation = extra.Generation
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Verify checks the token against the key for kind at the instant now.
// The signature is verified before any claim is inspected, so a tampered
// token fails with ErrTokenSignature regardless of its expiry claim.
func (c *TokenCodec) Verify(kind TokenKind, token string, now time.Time) (*Claims, error) {
	key, ok := c.keys[kind]
	if !ok {
		return nil, fmt.Errorf("unknown token kind %q", kind)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return key.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, classifyJWTError(err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenMalformed)
	}
	if claims.IssuedAt == nil {
		return nil, fmt.Errorf("%w: missing issued-at", ErrTokenMalformed)
	}
	return claims, nil
}

// classifyJWTError maps golang-jwt's error chain onto the codec's three failure kinds.
func classifyJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrTokenSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}
