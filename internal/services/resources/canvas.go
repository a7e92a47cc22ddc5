package resources

import (
	"context"
	"fmt"

	"github.com/KshitijThareja/Orbyq/internal/db/models"
	"github.com/KshitijThareja/Orbyq/internal/repository"
	"github.com/KshitijThareja/Orbyq/internal/services/iam"
)

// CanvasItemService scopes canvas items under their parent canvas. The caller
// must own the canvas, and an item addressed through the wrong canvas is
// reported as not found.
type CanvasItemService struct {
	canvases *Service[*models.Canvas]
	items    *Service[*models.CanvasItem]
}

// NewCanvasItemService creates the nested item service.
func NewCanvasItemService(canvases *Service[*models.Canvas], items *Service[*models.CanvasItem]) *CanvasItemService {
	return &CanvasItemService{canvases: canvases, items: items}
}

func inCanvas(canvasID string) func(*models.CanvasItem) error {
	return func(item *models.CanvasItem) error {
		if item.CanvasID != canvasID {
			return fmt.Errorf("%s %s: %w", item.Kind(), item.ID, ErrResourceNotFound)
		}
		return nil
	}
}

// List returns the items on one of the caller's canvases.
func (s *CanvasItemService) List(ctx context.Context, principal iam.Principal, canvasID string, q ListQuery) ([]*models.CanvasItem, error) {
	if _, err := s.canvases.Get(ctx, principal, canvasID); err != nil {
		return nil, err
	}
	q.Where = append(q.Where, repository.Condition{Column: "canvas_id", Value: canvasID})
	if len(q.OrderBy) == 0 {
		q.OrderBy = []string{"created_at ASC", "id ASC"}
	}
	return s.items.List(ctx, principal, q)
}

// Get returns one item of the canvas.
func (s *CanvasItemService) Get(ctx context.Context, principal iam.Principal, canvasID, id string) (*models.CanvasItem, error) {
	if _, err := s.canvases.Get(ctx, principal, canvasID); err != nil {
		return nil, err
	}
	item, err := s.items.Get(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if err := inCanvas(canvasID)(item); err != nil {
		return nil, err
	}
	return item, nil
}

// Create places a new item on the canvas.
func (s *CanvasItemService) Create(ctx context.Context, principal iam.Principal, canvasID string, item *models.CanvasItem) (*models.CanvasItem, error) {
	if _, err := s.canvases.Get(ctx, principal, canvasID); err != nil {
		return nil, err
	}
	item.CanvasID = canvasID
	return s.items.Create(ctx, principal, item)
}

// Update edits an item. Items cannot move between canvases.
func (s *CanvasItemService) Update(ctx context.Context, principal iam.Principal, canvasID, id string, expectedVersion *int64, mutate func(*models.CanvasItem) error) (*models.CanvasItem, error) {
	if _, err := s.canvases.Get(ctx, principal, canvasID); err != nil {
		return nil, err
	}
	check := inCanvas(canvasID)
	return s.items.Update(ctx, principal, id, expectedVersion, func(item *models.CanvasItem) error {
		if err := check(item); err != nil {
			return err
		}
		if err := mutate(item); err != nil {
			return err
		}
		item.CanvasID = canvasID
		return nil
	})
}

// Delete removes an item from the canvas.
func (s *CanvasItemService) Delete(ctx context.Context, principal iam.Principal, canvasID, id string) error {
	if _, err := s.canvases.Get(ctx, principal, canvasID); err != nil {
		return err
	}
	return s.items.DeleteIf(ctx, principal, id, inCanvas(canvasID))
}

// ListAll returns the caller's items across all canvases.
func (s *CanvasItemService) ListAll(ctx context.Context, principal iam.Principal) ([]*models.CanvasItem, error) {
	return s.items.List(ctx, principal, ListQuery{OrderBy: []string{"created_at ASC", "id ASC"}})
}
