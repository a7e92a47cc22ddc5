package resources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KshitijThareja/Orbyq/internal/db/models"
	"github.com/KshitijThareja/Orbyq/internal/repository"
	"github.com/KshitijThareja/Orbyq/internal/services/iam"
)

func TestOwnership_ForeignUserCannotTouchResource(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.principal(t, "alice@example.com")
	bob := env.principal(t, "bob@example.com")

	todo, err := env.svc.Todos.Create(ctx, alice, &models.Todo{Title: "original"})
	require.NoError(t, err)

	_, err = env.svc.Todos.Update(ctx, bob, todo.ID, nil, func(td *models.Todo) error {
		td.Title = "hijacked"
		return nil
	})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.svc.Todos.Get(ctx, bob, todo.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.svc.Todos.Toggle(ctx, bob, todo.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	err = env.svc.Todos.Delete(ctx, bob, todo.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	list, err := env.svc.Todos.List(ctx, bob, ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, list)

	stored, err := env.svc.Todos.Get(ctx, alice, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", stored.Title)
	assert.False(t, stored.Completed)
	assert.Equal(t, int64(1), stored.Version)
}

func TestService_CreateAssignsCallerAsOwner(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.principal(t, "alice@example.com")
	bob := env.principal(t, "bob@example.com")
	bobUser, err := env.svc.Guard.ResolveCaller(ctx, bob)
	require.NoError(t, err)

	idea := &models.Idea{Title: "spark"}
	idea.UserID = bobUser.ID
	idea.ID = "client-chosen"
	idea.Version = 42

	created, err := env.svc.Ideas.Create(ctx, alice, idea)
	require.NoError(t, err)
	assert.NotEqual(t, bobUser.ID, created.UserID)
	assert.NotEqual(t, "client-chosen", created.ID)
	assert.Equal(t, int64(1), created.Version)

	_, err = env.svc.Ideas.Get(ctx, bob, created.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestService_CreateAppliesDefaultsAndValidates(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.principal(t, "alice@example.com")

	todo, err := env.svc.Todos.Create(ctx, alice, &models.Todo{Title: "defaults"})
	require.NoError(t, err)
	assert.Equal(t, models.CategoryWork, todo.Category)
	assert.Equal(t, models.PriorityMedium, todo.Priority)

	_, err = env.svc.Todos.Create(ctx, alice, &models.Todo{Title: "  "})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.svc.Todos.Create(ctx, alice, &models.Todo{Title: "x", Priority: "URGENT"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestService_UnknownCaller(t *testing.T) {
	env := newTestEnv(t)
	ghost := iam.Principal{Email: "ghost@example.com"}

	_, err := env.svc.Documents.Create(context.Background(), ghost, &models.Document{})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = env.svc.Documents.List(context.Background(), ghost, ListQuery{})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestService_GetMissing(t *testing.T) {
	env := newTestEnv(t)
	alice := env.principal(t, "alice@example.com")

	for _, id := range []string{"not-a-uuid", "0195f0a2-0000-7000-8000-0000000000ff"} {
		_, err := env.svc.Projects.Get(context.Background(), alice, id)
		assert.ErrorIs(t, err, ErrResourceNotFound, id)
	}
}

func TestService_UpdateVersioning(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.principal(t, "alice@example.com")

	doc, err := env.svc.Documents.Create(ctx, alice, &models.Document{Title: "Notes"})
	require.NoError(t, err)

	stale := int64(7)
	_, err = env.svc.Documents.Update(ctx, alice, doc.ID, &stale, func(d *models.Document) error {
		d.Content = "lost"
		return nil
	})
	assert.ErrorIs(t, err, ErrStaleVersion)

	current := doc.Version
	updated, err := env.svc.Documents.Update(ctx, alice, doc.ID, &current, func(d *models.Document) error {
		d.Content = "kept"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)

	// The same version cannot win twice.
	_, err = env.svc.Documents.Update(ctx, alice, doc.ID, &current, func(d *models.Document) error {
		d.Content = "second writer"
		return nil
	})
	assert.ErrorIs(t, err, ErrStaleVersion)

	stored, err := env.svc.Documents.Get(ctx, alice, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "kept", stored.Content)
}

func TestService_UpdateCannotReassignOwner(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.principal(t, "alice@example.com")
	bob := env.principal(t, "bob@example.com")
	bobUser, err := env.svc.Guard.ResolveCaller(ctx, bob)
	require.NoError(t, err)

	project, err := env.svc.Projects.Create(ctx, alice, &models.Project{Name: "Launch"})
	require.NoError(t, err)
	aliceID := project.UserID

	updated, err := env.svc.Projects.Update(ctx, alice, project.ID, nil, func(p *models.Project) error {
		p.UserID = bobUser.ID
		p.ID = "elsewhere"
		p.Name = "Relaunch"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, aliceID, updated.UserID)
	assert.Equal(t, project.ID, updated.ID)

	_, err = env.svc.Projects.Get(ctx, bob, project.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestService_UpdateValidationLeavesRowUntouched(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.principal(t, "alice@example.com")

	project, err := env.svc.Projects.Create(ctx, alice, &models.Project{Name: "Launch"})
	require.NoError(t, err)

	_, err = env.svc.Projects.Update(ctx, alice, project.ID, nil, func(p *models.Project) error {
		p.Color = "blue"
		return nil
	})
	assert.ErrorIs(t, err, ErrValidation)

	stored, err := env.svc.Projects.Get(ctx, alice, project.ID)
	require.NoError(t, err)
	assert.Equal(t, project.Color, stored.Color)
	assert.Equal(t, int64(1), stored.Version)
}

func TestService_ListFilterAndWhere(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.principal(t, "alice@example.com")

	for _, todo := range []*models.Todo{
		{Title: "a", Priority: models.PriorityHigh},
		{Title: "b", Priority: models.PriorityLow, Completed: true},
		{Title: "c", Priority: models.PriorityHigh, Completed: true},
	} {
		_, err := env.svc.Todos.Create(ctx, alice, todo)
		require.NoError(t, err)
	}

	got, err := env.svc.Todos.List(ctx, alice, ListQuery{Filter: `priority == "HIGH" and completed == true`})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].Title)

	got, err = env.svc.Todos.List(ctx, alice, ListQuery{Where: []repository.Condition{{Column: "priority", Value: "LOW"}}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Title)

	_, err = env.svc.Todos.List(ctx, alice, ListQuery{Filter: `priority ==`})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestService_DeleteRecordsActivity(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.principal(t, "alice@example.com")
	bob := env.principal(t, "bob@example.com")

	item, err := env.svc.MoodBoard.Create(ctx, alice, &models.MoodBoardItem{ImageURL: "https://example.com/a.png"})
	require.NoError(t, err)
	require.NoError(t, env.svc.MoodBoard.Delete(ctx, alice, item.ID))

	_, err = env.svc.MoodBoard.Get(ctx, alice, item.ID)
	assert.ErrorIs(t, err, ErrResourceNotFound)

	feed, err := env.svc.Activity.List(ctx, alice, ListQuery{})
	require.NoError(t, err)
	actions := make([]string, 0, len(feed))
	for _, entry := range feed {
		actions = append(actions, entry.Action)
		assert.Equal(t, item.ID, entry.Details)
	}
	assert.ElementsMatch(t, []string{"MoodBoardItem created", "MoodBoardItem deleted"}, actions)

	bobFeed, err := env.svc.Activity.List(ctx, bob, ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, bobFeed)
}
