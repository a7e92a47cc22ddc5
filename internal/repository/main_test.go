package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/KshitijThareja/Orbyq/internal/db/bunx"
	"github.com/KshitijThareja/Orbyq/internal/db/models"
	"github.com/KshitijThareja/Orbyq/internal/migrations"
)

// setupTestDB opens a private in-memory SQLite database with the real schema.
func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := bunx.NewDB(":memory:", bunx.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = migrations.Apply(context.Background(), db)
	require.NoError(t, err)
	return db
}

func createTestUser(t *testing.T, repo *BunUserRepository, email string) *models.User {
	t.Helper()

	user := &models.User{Email: email, PasswordHash: "hash", Roles: models.RoleList{"USER"}}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}
