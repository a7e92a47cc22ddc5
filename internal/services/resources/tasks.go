package resources

import (
	"context"
	"errors"

	"github.com/KshitijThareja/Orbyq/internal/auth"
	"github.com/KshitijThareja/Orbyq/internal/db/models"
	"github.com/KshitijThareja/Orbyq/internal/repository"
	"github.com/KshitijThareja/Orbyq/internal/services/iam"
)

// TaskService adds kanban semantics to the generic task CRUD: completion
// follows the DONE status, due dates cannot be set in the past and a task may
// only reference one of its owner's projects.
type TaskService struct {
	*Service[*models.Task]
	projects repository.OwnedRepository[*models.Project]
}

// BoardColumn holds the tasks in one status.
type BoardColumn struct {
	Status models.TaskStatus `json:"status"`
	Tasks  []*models.Task    `json:"tasks"`
}

// NewTaskService wires the project reference check into the task service.
func NewTaskService(guard *Guard, tasks repository.OwnedRepository[*models.Task], projects repository.OwnedRepository[*models.Project], filters *auth.FilterEvaluator, opts ...Option[*models.Task]) *TaskService {
	s := &TaskService{projects: projects}
	opts = append(opts, WithSaveCheck(s.checkProject))
	s.Service = NewService(guard, tasks, filters, opts...)
	return s
}

func (s *TaskService) checkProject(ctx context.Context, t *models.Task) error {
	if t.ProjectID != nil && *t.ProjectID == "" {
		t.ProjectID = nil
	}
	if t.ProjectID == nil {
		return nil
	}

	storeCtx, cancel := s.guard.storeCtx(ctx)
	project, err := s.projects.GetByID(storeCtx, *t.ProjectID)
	cancel()
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	// A foreign project is reported exactly like a missing one.
	if err != nil || project.OwnerID() != t.OwnerID() {
		return models.Invalid("projectId", "does not reference one of your projects")
	}
	return nil
}

func (s *TaskService) checkDueDate(due *models.Date) error {
	if due == nil {
		return nil
	}
	if due.Before(models.NewDate(s.now())) {
		return models.Invalid("dueDate", "cannot be in the past")
	}
	return nil
}

// Create stores a new task. The due date must not lie before today.
func (s *TaskService) Create(ctx context.Context, principal iam.Principal, t *models.Task) (*models.Task, error) {
	if err := s.checkDueDate(t.DueDate); err != nil {
		return nil, err
	}
	if t.Status != "" {
		t.SetStatus(t.Status, s.now())
	}
	return s.Service.Create(ctx, principal, t)
}

// Update applies mutate and re-syncs completion with the status. The past-date
// rule only applies when mutate changed the due date, so an overdue task can
// still be edited.
func (s *TaskService) Update(ctx context.Context, principal iam.Principal, id string, expectedVersion *int64, mutate func(*models.Task) error) (*models.Task, error) {
	return s.Service.Update(ctx, principal, id, expectedVersion, func(t *models.Task) error {
		prevStatus, prevDue := t.Status, t.DueDate
		if err := mutate(t); err != nil {
			return err
		}
		if !models.SameDate(prevDue, t.DueDate) {
			if err := s.checkDueDate(t.DueDate); err != nil {
				return err
			}
		}
		if t.Status != prevStatus || t.Completed != (t.Status == models.StatusDone) {
			t.SetStatus(t.Status, s.now())
		}
		return nil
	})
}

// UpdateStatus moves a task to another board column.
func (s *TaskService) UpdateStatus(ctx context.Context, principal iam.Principal, id, status string) (*models.Task, error) {
	st, err := models.ParseTaskStatus(status)
	if err != nil {
		return nil, err
	}
	return s.Service.Update(ctx, principal, id, nil, func(t *models.Task) error {
		t.SetStatus(st, s.now())
		return nil
	})
}

// Board groups the caller's tasks by status in column order.
func (s *TaskService) Board(ctx context.Context, principal iam.Principal, projectID string) ([]BoardColumn, error) {
	q := ListQuery{OrderBy: []string{"due_date ASC", "created_at ASC"}}
	if projectID != "" {
		q.Where = []repository.Condition{{Column: "project_id", Value: projectID}}
	}
	tasks, err := s.List(ctx, principal, q)
	if err != nil {
		return nil, err
	}

	columns := make([]BoardColumn, len(models.TaskStatuses))
	index := make(map[models.TaskStatus]int, len(models.TaskStatuses))
	for i, st := range models.TaskStatuses {
		columns[i] = BoardColumn{Status: st, Tasks: []*models.Task{}}
		index[st] = i
	}
	for _, t := range tasks {
		if i, ok := index[t.Status]; ok {
			columns[i].Tasks = append(columns[i].Tasks, t)
		}
	}
	return columns, nil
}
