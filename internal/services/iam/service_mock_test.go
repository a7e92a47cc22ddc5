package iam

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/KshitijThareja/Orbyq/internal/auth"
	"github.com/KshitijThareja/Orbyq/internal/db/models"
	"github.com/KshitijThareja/Orbyq/internal/repository"
)

// mockUserRepository is a testify mock for the error paths a real store cannot easily produce.
type mockUserRepository struct {
	mock.Mock
}

var _ repository.UserRepository = (*mockUserRepository)(nil)

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepository) UpdateRoles(ctx context.Context, id string, roles []string) error {
	return m.Called(ctx, id, roles).Error(0)
}

func (m *mockUserRepository) BumpRefreshGeneration(ctx context.Context, id string, expected int64) (int64, error) {
	args := m.Called(ctx, id, expected)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUserRepository) List(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}

func newMockService(t *testing.T, strict bool) (*Service, *mockUserRepository, *auth.TokenCodec) {
	t.Helper()

	cfg := testConfig(strict)
	codec, err := auth.NewTokenCodec(cfg.Auth)
	require.NoError(t, err)
	hasher, err := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	require.NoError(t, err)

	users := new(mockUserRepository)
	t.Cleanup(func() { users.AssertExpectations(t) })
	return NewService(users, codec, hasher, cfg), users, codec
}

func hasDeadline(ctx context.Context) bool {
	_, ok := ctx.Deadline()
	return ok
}

func TestService_RegisterRaceMapsDuplicateToEmailTaken(t *testing.T) {
	svc, users, _ := newMockService(t, false)

	users.On("ExistsByEmail", mock.MatchedBy(hasDeadline), "a@x.com").Return(false, nil).Once()
	users.On("Create", mock.MatchedBy(hasDeadline), mock.AnythingOfType("*models.User")).
		Return(fmt.Errorf("create user: %w", repository.ErrDuplicate)).Once()

	_, err := svc.Register(context.Background(), RegisterInput{Email: "a@x.com", Password: "pw123"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestService_RegisterStoresHashedPasswordAndUserRole(t *testing.T) {
	svc, users, _ := newMockService(t, false)

	var stored *models.User
	users.On("ExistsByEmail", mock.Anything, "a@x.com").Return(false, nil).Once()
	users.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*models.User) }).
		Return(nil).Once()

	_, err := svc.Register(context.Background(), RegisterInput{Email: "a@x.com", Password: "pw123"})
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEqual(t, "pw123", stored.PasswordHash)
	assert.Equal(t, models.RoleList{auth.RoleUser}, stored.Roles)
}

func TestService_StoreFailuresAreNotAuthErrors(t *testing.T) {
	svc, users, _ := newMockService(t, false)
	boom := errors.New("connection reset")

	users.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, boom).Once()

	_, err := svc.Login(context.Background(), "a@x.com", "pw123")
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_StrictRefreshLosesRace(t *testing.T) {
	svc, users, codec := newMockService(t, true)

	user := &models.User{ID: "u1", Email: "a@x.com", Roles: models.RoleList{auth.RoleUser}, RefreshGeneration: 4}
	token, err := codec.Issue(auth.TokenRefresh, "a@x.com", auth.ExtraClaims{Generation: 4}, svc.now())
	require.NoError(t, err)

	users.On("GetByEmail", mock.Anything, "a@x.com").Return(user, nil).Once()
	users.On("BumpRefreshGeneration", mock.MatchedBy(hasDeadline), "u1", int64(4)).
		Return(int64(0), fmt.Errorf("user u1: %w", repository.ErrStaleVersion)).Once()

	_, err = svc.Refresh(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}
