package resources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KshitijThareja/Orbyq/internal/db/models"
)

func TestCanvasItemService_ScopedToCanvas(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.principal(t, "alice@example.com")
	bob := env.principal(t, "bob@example.com")

	first, err := env.svc.Canvases.Create(ctx, alice, &models.Canvas{})
	require.NoError(t, err)
	assert.Equal(t, "Untitled canvas", first.Title)
	second, err := env.svc.Canvases.Create(ctx, alice, &models.Canvas{Title: "Second"})
	require.NoError(t, err)

	item, err := env.svc.CanvasItems.Create(ctx, alice, first.ID, &models.CanvasItem{
		Type: "sticky", Content: "hello", Width: 120, Height: 80,
		Style: map[string]any{"color": "yellow"},
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, item.CanvasID)

	items, err := env.svc.CanvasItems.List(ctx, alice, first.ID, ListQuery{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "yellow", items[0].Style["color"])

	items, err = env.svc.CanvasItems.List(ctx, alice, second.ID, ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = env.svc.CanvasItems.Get(ctx, alice, second.ID, item.ID)
	assert.ErrorIs(t, err, ErrResourceNotFound)

	err = env.svc.CanvasItems.Delete(ctx, alice, second.ID, item.ID)
	assert.ErrorIs(t, err, ErrResourceNotFound)

	_, err = env.svc.CanvasItems.List(ctx, bob, first.ID, ListQuery{})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.svc.CanvasItems.Create(ctx, bob, first.ID, &models.CanvasItem{Type: "sticky"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCanvasItemService_UpdateKeepsCanvas(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.principal(t, "alice@example.com")

	canvas, err := env.svc.Canvases.Create(ctx, alice, &models.Canvas{Title: "Board"})
	require.NoError(t, err)
	other, err := env.svc.Canvases.Create(ctx, alice, &models.Canvas{Title: "Other"})
	require.NoError(t, err)
	item, err := env.svc.CanvasItems.Create(ctx, alice, canvas.ID, &models.CanvasItem{Type: "text"})
	require.NoError(t, err)

	moved, err := env.svc.CanvasItems.Update(ctx, alice, canvas.ID, item.ID, nil, func(ci *models.CanvasItem) error {
		ci.CanvasID = other.ID
		ci.X = 40
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, canvas.ID, moved.CanvasID)
	assert.InDelta(t, 40.0, moved.X, 0.001)

	_, err = env.svc.CanvasItems.Update(ctx, alice, other.ID, item.ID, nil, func(ci *models.CanvasItem) error {
		ci.Content = "wrong canvas"
		return nil
	})
	assert.ErrorIs(t, err, ErrResourceNotFound)
}

func TestCanvasDeleteCascadesItems(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.principal(t, "alice@example.com")

	canvas, err := env.svc.Canvases.Create(ctx, alice, &models.Canvas{Title: "Temp"})
	require.NoError(t, err)
	item, err := env.svc.CanvasItems.Create(ctx, alice, canvas.ID, &models.CanvasItem{Type: "text"})
	require.NoError(t, err)

	require.NoError(t, env.svc.Canvases.Delete(ctx, alice, canvas.ID))

	_, err = env.svc.CanvasItems.items.Get(ctx, alice, item.ID)
	assert.ErrorIs(t, err, ErrResourceNotFound)
}
