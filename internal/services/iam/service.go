package iam

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"github.com/KshitijThareja/Orbyq/internal/auth"
	"github.com/KshitijThareja/Orbyq/internal/config"
	"github.com/KshitijThareja/Orbyq/internal/db/models"
	"github.com/KshitijThareja/Orbyq/internal/repository"
	"github.com/KshitijThareja/Orbyq/internal/telemetry"
)

// bcrypt ignores everything past 72 bytes; longer passwords are rejected instead.
const maxPasswordBytes = 72

// TokenPair is returned by every successful register, login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64 `json:"expiresIn"`
}

// RegisterInput is the payload of POST /auth/register.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// Service implements the auth protocol and account management.
type Service struct {
	users   repository.UserRepository
	codec   *auth.TokenCodec
	hasher  *auth.PasswordHasher
	auth    config.AuthConfig
	timeout time.Duration
	metrics *telemetry.AuthMetrics
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides time.Now for token issuance and verification.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithAuthMetrics records register, login and refresh attempts.
func WithAuthMetrics(m *telemetry.AuthMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService wires the auth protocol. cfg is read once; later changes to it are not observed.
func NewService(users repository.UserRepository, codec *auth.TokenCodec, hasher *auth.PasswordHasher, cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		users:   users,
		codec:   codec,
		hasher:  hasher,
		auth:    cfg.Auth,
		timeout: cfg.StoreTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// storeCtx bounds one credential-store call by the configured timeout.
func (s *Service) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Service) observe(ctx context.Context, method string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.RecordAuth(ctx, method, err == nil, float64(time.Since(start).Microseconds())/1000)
	}
}

// Register creates an account with the USER role and returns its first token pair.
func (s *Service) Register(ctx context.Context, in RegisterInput) (_ *TokenPair, err error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerIAM, "iam.Register",
		attribute.String(telemetry.AttrUserEmail, in.Email),
	)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
		s.observe(ctx, "register", start, err)
	}()

	if err := s.validateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := s.validatePassword(in.Password); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(in.Name) > 255 {
		return nil, fmt.Errorf("%w: name must be at most 255 characters", ErrValidation)
	}

	storeCtx, cancel := s.storeCtx(ctx)
	exists, err := s.users.ExistsByEmail(storeCtx, in.Email)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &models.User{
		Email:        in.Email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		Roles:        models.RoleList{auth.RoleUser},
		CreatedAt:    now,
	}
	storeCtx, cancel = s.storeCtx(ctx)
	err = s.users.Create(storeCtx, user)
	cancel()
	if err != nil {
		// Lost a race with a concurrent registration of the same email.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	log.Printf("registered user %s", user.ID)
	return s.issuePair(user, now)
}

// Login exchanges credentials for a token pair carrying the user's persisted roles.
// An unknown email and a wrong password are indistinguishable to the caller,
// including in timing: an unknown email still costs one bcrypt comparison.
func (s *Service) Login(ctx context.Context, email, password string) (_ *TokenPair, err error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerIAM, "iam.Login",
		attribute.String(telemetry.AttrUserEmail, email),
	)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
		s.observe(ctx, "login", start, err)
	}()

	storeCtx, cancel := s.storeCtx(ctx)
	user, err := s.users.GetByEmail(storeCtx, email)
	cancel()
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = s.hasher.CompareDummy(password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	return s.issuePair(user, s.now())
}

// Refresh verifies a refresh token and issues a brand-new pair bound to the
// user's current roles.
//
// Without strict rotation the old refresh token stays valid until it expires,
// so presenting it twice succeeds twice. With strict rotation the token's
// generation must match the stored one, which is then advanced atomically;
// a replayed or raced token is rejected.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (_ *TokenPair, err error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerIAM, "iam.Refresh",
		attribute.String(telemetry.AttrTokenKind, string(auth.TokenRefresh)),
	)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
		s.observe(ctx, "refresh", start, err)
	}()

	now := s.now()
	claims, err := s.codec.Verify(auth.TokenRefresh, refreshToken, now)
	if err != nil {
		log.Printf("refresh token rejected: %v", err)
		return nil, ErrInvalidRefreshToken
	}

	storeCtx, cancel := s.storeCtx(ctx)
	user, err := s.users.GetByEmail(storeCtx, claims.Subject)
	cancel()
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if claims.IssuedAt.Time.Before(user.CreatedAt.Truncate(time.Second)) {
		log.Printf("refresh token for %s predates account %s", claims.Subject, user.ID)
		return nil, ErrInvalidRefreshToken
	}

	if s.auth.StrictRefreshRotation {
		if claims.Generation != user.RefreshGeneration {
			log.Printf("refresh token reuse for user %s: token generation %d, current %d",
				user.ID, claims.Generation, user.RefreshGeneration)
			return nil, ErrInvalidRefreshToken
		}
		storeCtx, cancel := s.storeCtx(ctx)
		next, err := s.users.BumpRefreshGeneration(storeCtx, user.ID, claims.Generation)
		cancel()
		switch {
		case errors.Is(err, repository.ErrStaleVersion):
			log.Printf("refresh token raced for user %s at generation %d", user.ID, claims.Generation)
			return nil, ErrInvalidRefreshToken
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		case err != nil:
			return nil, fmt.Errorf("refresh: %w", err)
		}
		user.RefreshGeneration = next
	}

	return s.issuePair(user, now)
}

func (s *Service) issuePair(user *models.User, now time.Time) (*TokenPair, error) {
	access, err := s.codec.Issue(auth.TokenAccess, user.Email, auth.ExtraClaims{Roles: user.Roles}, now)
	if err != nil {
		return nil, err
	}

	var extra auth.ExtraClaims
	if s.auth.StrictRefreshRotation {
		extra.Generation = user.RefreshGeneration
	}
	refresh, err := s.codec.Issue(auth.TokenRefresh, user.Email, extra, now)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.codec.TTL(auth.TokenAccess) / time.Second),
	}, nil
}

func (s *Service) validateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: email is not a valid address", ErrValidation)
	}
	return nil
}

func (s *Service) validatePassword(password string) error {
	minLen := max(s.auth.MinPasswordLength, 1)
	if utf8.RuneCountInString(password) < minLen {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minLen)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", ErrValidation, maxPasswordBytes)
	}
	return nil
}
