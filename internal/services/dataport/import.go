package dataport

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"

	"github.com/KshitijThareja/Orbyq/internal/db/models"
	"github.com/KshitijThareja/Orbyq/internal/services/iam"
	"github.com/KshitijThareja/Orbyq/internal/services/resources"
)

// ImportIssue describes one record that was skipped.
type ImportIssue struct {
	Section string `json:"section"`
	Index   int    `json:"index"`
	Reason  string `json:"reason"`
}

// ImportResult counts the created rows per section.
type ImportResult struct {
	Created map[string]int `json:"created"`
	Skipped []ImportIssue  `json:"skipped"`
}

func (r *ImportResult) skip(section string, index int, err error) {
	r.Skipped = append(r.Skipped, ImportIssue{Section: section, Index: index, Reason: err.Error()})
}

type idRecord struct {
	ID string `json:"id"`
}

// canvasRecord mirrors CanvasExport for decoding.
type canvasRecord struct {
	ID    string               `json:"id"`
	Title string               `json:"title"`
	Items []*models.CanvasItem `json:"items"`
}

var dateType = reflect.TypeOf(models.Date{})

// dateHook turns the wire form of a calendar date back into models.Date.
func dateHook(from, to reflect.Type, data any) (any, error) {
	if to != dateType || from.Kind() != reflect.String {
		return data, nil
	}
	s := data.(string)
	if s == "" {
		return models.Date{}, nil
	}
	return models.ParseDate(s)
}

func decode(input, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       dateHook,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// section decodes bundle[name] into a slice of T. A missing section is empty.
func section[T any](bundle map[string]any, name string) ([]T, error) {
	raw, ok := bundle[name]
	if !ok || raw == nil {
		return nil, nil
	}
	var out []T
	if err := decode(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", resources.ErrValidation, name, err)
	}
	return out, nil
}

// Import creates rows owned by the caller from an exported bundle. Ids in the
// bundle are only used to re-link tasks to projects and items to canvases;
// every row gets a fresh id. Records that fail validation are skipped and
// reported; any other failure stops the import.
//
// The activity feed is not imported.
func (s *Service) Import(ctx context.Context, principal iam.Principal, bundle map[string]any) (*ImportResult, error) {
	if _, err := s.res.Guard.ResolveCaller(ctx, principal); err != nil {
		return nil, err
	}

	documents, err := section[*models.Document](bundle, "documents")
	if err != nil {
		return nil, err
	}
	todos, err := section[*models.Todo](bundle, "todos")
	if err != nil {
		return nil, err
	}
	projects, err := section[*models.Project](bundle, "projects")
	if err != nil {
		return nil, err
	}
	tasks, err := section[*models.Task](bundle, "tasks")
	if err != nil {
		return nil, err
	}
	ideas, err := section[*models.Idea](bundle, "ideas")
	if err != nil {
		return nil, err
	}
	moodBoard, err := section[*models.MoodBoardItem](bundle, "moodBoard")
	if err != nil {
		return nil, err
	}
	canvases, err := section[canvasRecord](bundle, "canvases")
	if err != nil {
		return nil, err
	}
	// The embedded row is not addressable by json tag, so old ids are read separately.
	projectIDs, err := section[idRecord](bundle, "projects")
	if err != nil {
		return nil, err
	}

	res := &ImportResult{Created: map[string]int{}}

	if err := importAll(ctx, res, "documents", documents, func(d *models.Document) error {
		_, err := s.res.Documents.Create(ctx, principal, d)
		return err
	}); err != nil {
		return nil, err
	}

	if err := importAll(ctx, res, "todos", todos, func(t *models.Todo) error {
		t.Category = fallback(t.Category, models.CategoryWork, models.CategoryPersonal, models.CategoryLearning)
		t.Priority = fallback(t.Priority, models.PriorityHigh, models.PriorityMedium, models.PriorityLow)
		_, err := s.res.Todos.Create(ctx, principal, t)
		return err
	}); err != nil {
		return nil, err
	}

	newProjectID := make(map[string]string, len(projects))
	for i, p := range projects {
		created, err := s.res.Projects.Create(ctx, principal, p)
		if err != nil {
			if errors.Is(err, resources.ErrValidation) {
				res.skip("projects", i, err)
				continue
			}
			return nil, err
		}
		res.Created["projects"]++
		if old := projectIDs[i].ID; old != "" {
			newProjectID[old] = created.ID
		}
	}

	if err := importAll(ctx, res, "tasks", tasks, func(t *models.Task) error {
		if t.ProjectID != nil {
			if id, ok := newProjectID[*t.ProjectID]; ok {
				t.ProjectID = &id
			} else {
				t.ProjectID = nil
			}
		}
		t.Priority = fallback(t.Priority, models.PriorityHigh, models.PriorityMedium, models.PriorityLow)
		if st := fallback(t.Status, models.TaskStatuses...); st != "" {
			t.SetStatus(st, s.now())
		} else {
			t.SetStatus(models.StatusTodo, s.now())
		}
		// Imported tasks keep their historical due dates, so the past-date rule is skipped.
		_, err := s.res.Tasks.Service.Create(ctx, principal, t)
		return err
	}); err != nil {
		return nil, err
	}

	if err := importAll(ctx, res, "ideas", ideas, func(i *models.Idea) error {
		_, err := s.res.Ideas.Create(ctx, principal, i)
		return err
	}); err != nil {
		return nil, err
	}

	if err := importAll(ctx, res, "moodBoard", moodBoard, func(m *models.MoodBoardItem) error {
		_, err := s.res.MoodBoard.Create(ctx, principal, m)
		return err
	}); err != nil {
		return nil, err
	}

	for i, c := range canvases {
		canvas, err := s.res.Canvases.Create(ctx, principal, &models.Canvas{Title: c.Title})
		if err != nil {
			if errors.Is(err, resources.ErrValidation) {
				res.skip("canvases", i, err)
				continue
			}
			return nil, err
		}
		res.Created["canvases"]++

		if err := importAll(ctx, res, "canvasItems", c.Items, func(item *models.CanvasItem) error {
			_, err := s.res.CanvasItems.Create(ctx, principal, canvas.ID, item)
			return err
		}); err != nil {
			return nil, err
		}
	}

	return res, nil
}

func importAll[T any](ctx context.Context, res *ImportResult, name string, records []T, create func(T) error) error {
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := create(rec); err != nil {
			if errors.Is(err, resources.ErrValidation) {
				res.skip(name, i, err)
				continue
			}
			return err
		}
		res.Created[name]++
	}
	return nil
}

// fallback returns v when it is one of allowed, otherwise the zero value so
// model defaults apply.
func fallback[E ~string](v E, allowed ...E) E {
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return ""
}
