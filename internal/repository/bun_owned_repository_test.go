package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KshitijThareja/Orbyq/internal/db/models"
)

func newTodo(owner, title string) *models.Todo {
	return &models.Todo{
		OwnedRow: models.OwnedRow{UserID: owner},
		Title:    title,
		Category: models.CategoryWork,
		Priority: models.PriorityMedium,
	}
}

func TestBunOwnedRepository_CRUD(t *testing.T) {
	db := setupTestDB(t)
	users := NewBunUserRepository(db)
	repo := NewBunOwnedRepository(db, func() *models.Todo { return new(models.Todo) })
	ctx := context.Background()

	alice := createTestUser(t, users, "a@x.com")

	due := models.NewDate(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	todo := newTodo(alice.ID, "Write report")
	todo.DueDate = &due
	require.NoError(t, repo.Create(ctx, todo))
	assert.NotEmpty(t, todo.ID)
	assert.Equal(t, int64(1), todo.Version)

	loaded, err := repo.GetByID(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, "Write report", loaded.Title)
	assert.Equal(t, alice.ID, loaded.OwnerID())
	require.NotNil(t, loaded.DueDate)
	assert.Equal(t, "2025-06-01", loaded.DueDate.String())

	loaded.Title = "Write final report"
	loaded.Completed = true
	require.NoError(t, repo.Update(ctx, loaded))
	assert.Equal(t, int64(2), loaded.Version)

	reloaded, err := repo.GetByID(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, "Write final report", reloaded.Title)
	assert.True(t, reloaded.Completed)
	assert.Equal(t, int64(2), reloaded.Version)

	require.NoError(t, repo.Delete(ctx, todo.ID))
	_, err = repo.GetByID(ctx, todo.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, todo.ID), ErrNotFound)
}

func TestBunOwnedRepository_StaleVersionLeavesRowUntouched(t *testing.T) {
	db := setupTestDB(t)
	users := NewBunUserRepository(db)
	repo := NewBunOwnedRepository(db, func() *models.Todo { return new(models.Todo) })
	ctx := context.Background()

	alice := createTestUser(t, users, "a@x.com")
	todo := newTodo(alice.ID, "original")
	require.NoError(t, repo.Create(ctx, todo))

	first, err := repo.GetByID(ctx, todo.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, todo.ID)
	require.NoError(t, err)

	first.Title = "first writer"
	require.NoError(t, repo.Update(ctx, first))

	second.Title = "second writer"
	err = repo.Update(ctx, second)
	require.ErrorIs(t, err, ErrStaleVersion)
	assert.Equal(t, int64(1), second.Version)

	stored, err := repo.GetByID(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, "first writer", stored.Title)
}

func TestBunOwnedRepository_UpdateNeverReassignsOwner(t *testing.T) {
	db := setupTestDB(t)
	users := NewBunUserRepository(db)
	repo := NewBunOwnedRepository(db, func() *models.Idea { return new(models.Idea) })
	ctx := context.Background()

	alice := createTestUser(t, users, "a@x.com")
	bob := createTestUser(t, users, "b@x.com")

	idea := &models.Idea{OwnedRow: models.OwnedRow{UserID: alice.ID}, Title: "idea"}
	require.NoError(t, repo.Create(ctx, idea))

	idea.UserID = bob.ID
	idea.Title = "renamed"
	require.NoError(t, repo.Update(ctx, idea))

	stored, err := repo.GetByID(ctx, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, stored.UserID)
	assert.Equal(t, "renamed", stored.Title)
}

func TestBunOwnedRepository_ListScopedAndFiltered(t *testing.T) {
	db := setupTestDB(t)
	users := NewBunUserRepository(db)
	repo := NewBunOwnedRepository(db, func() *models.Todo { return new(models.Todo) })
	ctx := context.Background()

	alice := createTestUser(t, users, "a@x.com")
	bob := createTestUser(t, users, "b@x.com")

	for _, title := range []string{"one", "two", "three"} {
		require.NoError(t, repo.Create(ctx, newTodo(alice.ID, title)))
	}
	done := newTodo(alice.ID, "done")
	done.Completed = true
	require.NoError(t, repo.Create(ctx, done))
	require.NoError(t, repo.Create(ctx, newTodo(bob.ID, "bob's")))

	all, err := repo.List(ctx, alice.ID, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
	for _, item := range all {
		assert.Equal(t, alice.ID, item.UserID)
	}
	assert.Equal(t, "done", all[0].Title, "newest first by default")

	open, err := repo.List(ctx, alice.ID, ListOptions{Where: []Condition{{Column: "completed", Value: false}}})
	require.NoError(t, err)
	assert.Len(t, open, 3)

	limited, err := repo.List(ctx, alice.ID, ListOptions{OrderBy: []string{"title ASC"}, Limit: 2})
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "done", limited[0].Title)
	assert.Equal(t, "one", limited[1].Title)

	none, err := repo.List(ctx, "0190d1a8-0000-7000-8000-000000000000", ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestBunOwnedRepository_CanvasItemsCascadeWithCanvas(t *testing.T) {
	db := setupTestDB(t)
	users := NewBunUserRepository(db)
	canvases := NewBunOwnedRepository(db, func() *models.Canvas { return new(models.Canvas) })
	items := NewBunOwnedRepository(db, func() *models.CanvasItem { return new(models.CanvasItem) })
	ctx := context.Background()

	alice := createTestUser(t, users, "a@x.com")
	canvas := &models.Canvas{OwnedRow: models.OwnedRow{UserID: alice.ID}, Title: "board"}
	require.NoError(t, canvases.Create(ctx, canvas))

	item := &models.CanvasItem{
		OwnedRow: models.OwnedRow{UserID: alice.ID},
		CanvasID: canvas.ID,
		Type:     "note",
		Style:    map[string]any{"color": "red"},
	}
	require.NoError(t, items.Create(ctx, item))

	loaded, err := items.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "red", loaded.Style["color"])

	listed, err := items.List(ctx, alice.ID, ListOptions{Where: []Condition{{Column: "canvas_id", Value: canvas.ID}}})
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	require.NoError(t, canvases.Delete(ctx, canvas.ID))
	_, err = items.GetByID(ctx, item.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
