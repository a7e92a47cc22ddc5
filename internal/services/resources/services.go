package resources

import (
	"time"

	"github.com/KshitijThareja/Orbyq/internal/auth"
	"github.com/KshitijThareja/Orbyq/internal/db/models"
	"github.com/KshitijThareja/Orbyq/internal/repository"
)

// Services holds one service per owned kind, all sharing a single Guard.
type Services struct {
	Guard       *Guard
	Canvases    *Service[*models.Canvas]
	CanvasItems *CanvasItemService
	Documents   *Service[*models.Document]
	MoodBoard   *Service[*models.MoodBoardItem]
	Todos       *TodoService
	Tasks       *TaskService
	Projects    *Service[*models.Project]
	Activity    *Service[*models.ActivityLog]
	Ideas       *Service[*models.Idea]
}

// Config carries the cross-cutting settings for NewServices.
type Config struct {
	// StoreTimeout bounds each store call. Zero disables the bound.
	StoreTimeout time.Duration
	// Filters evaluates list filter expressions. Nil disables filtering.
	Filters *auth.FilterEvaluator
	// Now overrides time.Now. Tests pin it to a fixed day.
	Now func() time.Time
}

// NewServices wires every owned-kind service. Writes to other kinds are
// mirrored to the activity log; activity entries themselves are not.
func NewServices(users repository.UserRepository, repos *repository.OwnedRepositories, cfg Config) *Services {
	guard := NewGuard(users, cfg.StoreTimeout)
	recorder := NewActivityLogRecorder(guard, repos.Activity)

	canvases := NewService(guard, repos.Canvases, cfg.Filters, common[*models.Canvas](recorder, cfg.Now)...)
	items := NewService(guard, repos.CanvasItems, cfg.Filters, common[*models.CanvasItem](recorder, cfg.Now)...)

	return &Services{
		Guard:       guard,
		Canvases:    canvases,
		CanvasItems: NewCanvasItemService(canvases, items),
		Documents:   NewService(guard, repos.Documents, cfg.Filters, common[*models.Document](recorder, cfg.Now)...),
		MoodBoard:   NewService(guard, repos.MoodBoard, cfg.Filters, common[*models.MoodBoardItem](recorder, cfg.Now)...),
		Todos:       &TodoService{NewService(guard, repos.Todos, cfg.Filters, common[*models.Todo](recorder, cfg.Now)...)},
		Tasks:       NewTaskService(guard, repos.Tasks, repos.Projects, cfg.Filters, common[*models.Task](recorder, cfg.Now)...),
		Projects:    NewService(guard, repos.Projects, cfg.Filters, common[*models.Project](recorder, cfg.Now)...),
		Activity:    NewService(guard, repos.Activity, cfg.Filters, common[*models.ActivityLog](nil, cfg.Now)...),
		Ideas:       NewService(guard, repos.Ideas, cfg.Filters, common[*models.Idea](recorder, cfg.Now)...),
	}
}

func common[T models.Owned](rec ActivityRecorder, now func() time.Time) []Option[T] {
	var opts []Option[T]
	if rec != nil {
		opts = append(opts, WithActivity[T](rec))
	}
	if now != nil {
		opts = append(opts, WithClock[T](now))
	}
	return opts
}
