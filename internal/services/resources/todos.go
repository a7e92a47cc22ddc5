package resources

import (
	"context"

	"github.com/KshitijThareja/Orbyq/internal/db/models"
	"github.com/KshitijThareja/Orbyq/internal/services/iam"
)

// TodoService adds toggling and due-date ordering to the generic todo CRUD.
type TodoService struct {
	*Service[*models.Todo]
}

// todoDueOrder sorts by due date, earliest first, with undated todos last.
// It runs in the store so that a limit keeps the earliest-due todos.
var todoDueOrder = []string{"due_date ASC NULLS LAST", "created_at ASC", "id ASC"}

// List returns the caller's todos. Without an explicit order they are sorted
// by due date.
func (s *TodoService) List(ctx context.Context, principal iam.Principal, q ListQuery) ([]*models.Todo, error) {
	if len(q.OrderBy) == 0 {
		q.OrderBy = todoDueOrder
	}
	return s.Service.List(ctx, principal, q)
}

// Toggle flips the completed flag.
func (s *TodoService) Toggle(ctx context.Context, principal iam.Principal, id string) (*models.Todo, error) {
	return s.Update(ctx, principal, id, nil, func(t *models.Todo) error {
		t.Completed = !t.Completed
		return nil
	})
}
