// Package dataport exports a user's data as one JSON bundle and imports such
// a bundle back into an account.
package dataport

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/KshitijThareja/Orbyq/internal/db/models"
	"github.com/KshitijThareja/Orbyq/internal/services/iam"
	"github.com/KshitijThareja/Orbyq/internal/services/resources"
)

// CanvasExport is a canvas together with its items.
type CanvasExport struct {
	*models.Canvas
	Items []*models.CanvasItem `json:"items"`
}

// Bundle is everything a user owns.
type Bundle struct {
	ExportedAt time.Time               `json:"exportedAt"`
	Documents  []*models.Document      `json:"documents"`
	Todos      []*models.Todo          `json:"todos"`
	Tasks      []*models.Task          `json:"tasks"`
	Projects   []*models.Project       `json:"projects"`
	Ideas      []*models.Idea          `json:"ideas"`
	MoodBoard  []*models.MoodBoardItem `json:"moodBoard"`
	Canvases   []CanvasExport          `json:"canvases"`
	Activity   []*models.ActivityLog   `json:"activity"`
}

// Service moves whole accounts in and out.
type Service struct {
	res *resources.Services
	now func() time.Time
}

// NewService creates a dataport service over the owned-resource services.
func NewService(res *resources.Services) *Service {
	return &Service{res: res, now: time.Now}
}

// Export gathers every kind for the caller concurrently. Each kind is read
// through its owner-scoped service, so nothing of another user can leak in.
func (s *Service) Export(ctx context.Context, principal iam.Principal) (*Bundle, error) {
	if _, err := s.res.Guard.ResolveCaller(ctx, principal); err != nil {
		return nil, err
	}

	b := &Bundle{ExportedAt: s.now().UTC()}
	var (
		canvases []*models.Canvas
		items    []*models.CanvasItem
	)
	all := resources.ListQuery{OrderBy: []string{"created_at ASC", "id ASC"}}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { b.Documents, err = s.res.Documents.List(ctx, principal, all); return })
	g.Go(func() (err error) { b.Todos, err = s.res.Todos.Service.List(ctx, principal, all); return })
	g.Go(func() (err error) { b.Tasks, err = s.res.Tasks.List(ctx, principal, all); return })
	g.Go(func() (err error) { b.Projects, err = s.res.Projects.List(ctx, principal, all); return })
	g.Go(func() (err error) { b.Ideas, err = s.res.Ideas.List(ctx, principal, all); return })
	g.Go(func() (err error) { b.MoodBoard, err = s.res.MoodBoard.List(ctx, principal, all); return })
	g.Go(func() (err error) { b.Activity, err = s.res.Activity.List(ctx, principal, all); return })
	g.Go(func() (err error) { canvases, err = s.res.Canvases.List(ctx, principal, all); return })
	g.Go(func() (err error) { items, err = s.res.CanvasItems.ListAll(ctx, principal); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byCanvas := make(map[string][]*models.CanvasItem, len(canvases))
	for _, item := range items {
		byCanvas[item.CanvasID] = append(byCanvas[item.CanvasID], item)
	}
	b.Canvases = make([]CanvasExport, 0, len(canvases))
	for _, c := range canvases {
		ci := byCanvas[c.ID]
		if ci == nil {
			ci = []*models.CanvasItem{}
		}
		b.Canvases = append(b.Canvases, CanvasExport{Canvas: c, Items: ci})
	}
	return b, nil
}
