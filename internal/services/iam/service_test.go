package iam

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/KshitijThareja/Orbyq/internal/auth"
	"github.com/KshitijThareja/Orbyq/internal/config"
	"github.com/KshitijThareja/Orbyq/internal/db/bunx"
	"github.com/KshitijThareja/Orbyq/internal/migrations"
	"github.com/KshitijThareja/Orbyq/internal/repository"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func testConfig(strict bool) *config.Config {
	return &config.Config{
		StoreTimeout: 2 * time.Second,
		Auth: config.AuthConfig{
			AccessTokenSecret:     "access-secret-for-tests",
			AccessTokenTTL:        15 * time.Minute,
			RefreshTokenSecret:    "refresh-secret-for-tests",
			RefreshTokenTTL:       7 * 24 * time.Hour,
			StrictRefreshRotation: strict,
			BcryptCost:            bcrypt.MinCost,
			MinPasswordLength:     5,
		},
	}
}

type testEnv struct {
	svc   *Service
	users *repository.BunUserRepository
	codec *auth.TokenCodec
	clock *testClock
}

func newTestEnv(t *testing.T, strict bool) *testEnv {
	t.Helper()

	db, err := bunx.NewDB(":memory:", bunx.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = migrations.Apply(context.Background(), db)
	require.NoError(t, err)

	cfg := testConfig(strict)
	codec, err := auth.NewTokenCodec(cfg.Auth)
	require.NoError(t, err)
	hasher, err := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	require.NoError(t, err)

	clock := &testClock{now: time.Date(2025, 5, 28, 9, 0, 0, 0, time.UTC)}
	users := repository.NewBunUserRepository(db)
	return &testEnv{
		svc:   NewService(users, codec, hasher, cfg, WithClock(clock.Now)),
		users: users,
		codec: codec,
		clock: clock,
	}
}

func (e *testEnv) accessClaims(t *testing.T, pair *TokenPair) *auth.Claims {
	t.Helper()
	claims, err := e.codec.Verify(auth.TokenAccess, pair.AccessToken, e.clock.Now())
	require.NoError(t, err)
	return claims
}

func TestService_RegisterThenLogin(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	registered, err := env.svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "pw123"})
	require.NoError(t, err)
	assert.NotEmpty(t, registered.AccessToken)
	assert.NotEmpty(t, registered.RefreshToken)
	assert.Equal(t, "Bearer", registered.TokenType)
	assert.Equal(t, int64(900), registered.ExpiresIn)

	claims := env.accessClaims(t, registered)
	assert.Equal(t, "a@x.com", claims.Subject)
	assert.Equal(t, []string{auth.RoleUser}, claims.Roles)

	loggedIn, err := env.svc.Login(ctx, "a@x.com", "pw123")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", env.accessClaims(t, loggedIn).Subject)
	assert.NotEqual(t, registered.AccessToken, loggedIn.AccessToken)

	_, err = env.svc.Login(ctx, "a@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.svc.Login(ctx, "nobody@x.com", "pw123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.svc.Login(ctx, "A@x.com", "pw123")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "email match is case-sensitive")
}

func TestService_RegisterRejectsTakenEmail(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	_, err := env.svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "pw123"})
	require.NoError(t, err)

	_, err = env.svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "other-password"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = env.svc.Login(ctx, "a@x.com", "pw123")
	assert.NoError(t, err, "original credentials untouched")
}

func TestService_RegisterValidation(t *testing.T) {
	env := newTestEnv(t, false)

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{name: "empty email", in: RegisterInput{Email: "", Password: "pw123"}},
		{name: "not an address", in: RegisterInput{Email: "not-an-email", Password: "pw123"}},
		{name: "display name form", in: RegisterInput{Email: "Alice <a@x.com>", Password: "pw123"}},
		{name: "short password", in: RegisterInput{Email: "a@x.com", Password: "pw"}},
		{name: "empty password", in: RegisterInput{Email: "a@x.com"}},
		{name: "password over 72 bytes", in: RegisterInput{Email: "a@x.com", Password: string(make([]byte, 73))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Register(context.Background(), tt.in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	exists, err := env.users.ExistsByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.False(t, exists, "no user row is written on validation failure")
}

func TestService_RefreshWithoutStrictRotation(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	pair, err := env.svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "pw123"})
	require.NoError(t, err)

	env.clock.Advance(time.Minute)
	first, err := env.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, first.RefreshToken)
	assert.Equal(t, "a@x.com", env.accessClaims(t, first).Subject)

	// The old refresh token is not invalidated; replaying it succeeds.
	second, err := env.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", env.accessClaims(t, second).Subject)
}

func TestService_RefreshUsesCurrentRoles(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	pair, err := env.svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "pw123"})
	require.NoError(t, err)

	user, err := env.users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	_, err = env.svc.SetRoles(ctx, user.ID, []string{"user", "ADMIN"})
	require.NoError(t, err)

	assert.Equal(t, []string{auth.RoleUser}, env.accessClaims(t, pair).Roles, "old access token keeps its embedded roles")

	refreshed, err := env.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, []string{auth.RoleUser, auth.RoleAdmin}, env.accessClaims(t, refreshed).Roles)
}

func TestService_RefreshRejections(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	pair, err := env.svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "pw123"})
	require.NoError(t, err)

	t.Run("access token presented as refresh", func(t *testing.T) {
		_, err := env.svc.Refresh(ctx, pair.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := env.svc.Refresh(ctx, "garbage")
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("expired", func(t *testing.T) {
		saved := env.clock.now
		t.Cleanup(func() { env.clock.now = saved })

		env.clock.Advance(7 * 24 * time.Hour)
		_, err := env.svc.Refresh(ctx, pair.RefreshToken)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("account deleted", func(t *testing.T) {
		require.NoError(t, env.svc.DeleteAccount(ctx, Principal{Email: "a@x.com"}))
		_, err := env.svc.Refresh(ctx, pair.RefreshToken)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestService_TokensDoNotFollowEmailToNewAccount(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	first, err := env.svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "pw123"})
	require.NoError(t, err)
	claims := env.accessClaims(t, first)
	stale := Principal{Email: claims.Subject, Roles: claims.Roles, TokenID: claims.ID, IssuedAt: claims.IssuedAt.Time}

	moved := "a2@x.com"
	_, err = env.svc.UpdateProfile(ctx, stale, ProfileInput{Email: &moved})
	require.NoError(t, err)

	env.clock.Advance(time.Minute)
	second, err := env.svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "other-pw"})
	require.NoError(t, err)

	_, err = env.svc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = env.svc.Me(ctx, stale)
	assert.ErrorIs(t, err, ErrUserNotFound)

	assert.ErrorIs(t, env.svc.DeleteAccount(ctx, stale), ErrUserNotFound)
	_, err = env.users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err, "the new account survives the old token")

	_, err = env.svc.Refresh(ctx, second.RefreshToken)
	assert.NoError(t, err)
}

func TestService_StrictRefreshRotation(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	pair, err := env.svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "pw123"})
	require.NoError(t, err)

	rotated, err := env.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	_, err = env.svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "a rotated refresh token cannot be replayed")

	again, err := env.svc.Refresh(ctx, rotated.RefreshToken)
	require.NoError(t, err)

	claims, err := env.codec.Verify(auth.TokenRefresh, again.RefreshToken, env.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(2), claims.Generation)

	user, err := env.users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, int64(2), user.RefreshGeneration)
}

func TestService_Profile(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	_, err := env.svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "pw123", Name: "Alice"})
	require.NoError(t, err)
	_, err = env.svc.Register(ctx, RegisterInput{Email: "b@x.com", Password: "pw123"})
	require.NoError(t, err)

	alice := Principal{Email: "a@x.com", Roles: []string{auth.RoleUser}}

	me, err := env.svc.Me(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "Alice", me.Name)

	bio := "Likes lists"
	updated, err := env.svc.UpdateProfile(ctx, alice, ProfileInput{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "Likes lists", updated.Bio)
	assert.Equal(t, int64(2), updated.Version)

	stale := int64(1)
	_, err = env.svc.UpdateProfile(ctx, alice, ProfileInput{Bio: &bio, Version: &stale})
	assert.ErrorIs(t, err, repository.ErrStaleVersion)

	taken := "b@x.com"
	_, err = env.svc.UpdateProfile(ctx, alice, ProfileInput{Email: &taken})
	assert.ErrorIs(t, err, ErrEmailTaken)

	invalid := "nope"
	_, err = env.svc.UpdateProfile(ctx, alice, ProfileInput{Email: &invalid})
	assert.ErrorIs(t, err, ErrValidation)

	newEmail := "alice@x.com"
	_, err = env.svc.UpdateProfile(ctx, alice, ProfileInput{Email: &newEmail})
	require.NoError(t, err)

	_, err = env.svc.Me(ctx, alice)
	assert.ErrorIs(t, err, ErrUserNotFound, "tokens bound to the old email no longer resolve")

	_, err = env.svc.Login(ctx, "alice@x.com", "pw123")
	assert.NoError(t, err)
}

func TestService_AdminOperations(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	_, err := env.svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "pw123"})
	require.NoError(t, err)

	users, err := env.svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)

	_, err = env.svc.SetRoles(ctx, users[0].ID, []string{"SUPERUSER"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.svc.SetRoles(ctx, users[0].ID, nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.svc.SetRoles(ctx, "0190d1a8-0000-7000-8000-000000000000", []string{auth.RoleAdmin})
	assert.ErrorIs(t, err, ErrUserNotFound)

	user, err := env.svc.SetRoles(ctx, users[0].ID, []string{"admin", "USER", "ADMIN"})
	require.NoError(t, err)
	assert.Equal(t, []string{auth.RoleAdmin, auth.RoleUser}, []string(user.Roles))
}
