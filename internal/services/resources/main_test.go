package resources

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/KshitijThareja/Orbyq/internal/auth"
	"github.com/KshitijThareja/Orbyq/internal/db/bunx"
	"github.com/KshitijThareja/Orbyq/internal/db/models"
	"github.com/KshitijThareja/Orbyq/internal/migrations"
	"github.com/KshitijThareja/Orbyq/internal/repository"
	"github.com/KshitijThareja/Orbyq/internal/services/iam"
)

var testToday = time.Date(2025, 5, 28, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	svc   *Services
	users *repository.BunUserRepository
	now   time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := bunx.NewDB(":memory:", bunx.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = migrations.Apply(context.Background(), db)
	require.NoError(t, err)

	filters, err := auth.NewFilterEvaluator(16)
	require.NoError(t, err)

	env := &testEnv{users: repository.NewBunUserRepository(db), now: testToday}
	env.svc = NewServices(env.users, repository.NewBunOwnedRepositories(db), Config{
		StoreTimeout: 2 * time.Second,
		Filters:      filters,
		Now:          func() time.Time { return env.now },
	})
	return env
}

// principal stores a user and returns the principal its access token would carry.
func (e *testEnv) principal(t *testing.T, email string) iam.Principal {
	t.Helper()
	user := &models.User{Email: email, PasswordHash: "hash", Roles: models.RoleList{auth.RoleUser}}
	require.NoError(t, e.users.Create(context.Background(), user))
	return iam.Principal{Email: email, Roles: []string{auth.RoleUser}}
}

func date(t *testing.T, s string) *models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	require.NoError(t, err)
	return &d
}
