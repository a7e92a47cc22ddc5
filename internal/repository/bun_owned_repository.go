package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/KshitijThareja/Orbyq/internal/db/bunx"
	"github.com/KshitijThareja/Orbyq/internal/db/models"
)

// BunOwnedRepository implements OwnedRepository for any owned model.
// newFn returns an empty model, e.g. func() *models.Todo { return new(models.Todo) }.
type BunOwnedRepository[T models.Owned] struct {
	db    *bun.DB
	newFn func() T
}

// NewBunOwnedRepository creates a repository for one owned kind.
func NewBunOwnedRepository[T models.Owned](db *bun.DB, newFn func() T) *BunOwnedRepository[T] {
	return &BunOwnedRepository[T]{db: db, newFn: newFn}
}

func (r *BunOwnedRepository[T]) kind() models.Kind {
	return r.newFn().Kind()
}

// Create inserts item with a fresh id and version 1.
func (r *BunOwnedRepository[T]) Create(ctx context.Context, item T) error {
	row := item.Row()
	if row.ID == "" {
		row.ID = bunx.NewUUIDv7()
	}
	now := time.Now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now
	row.Version = 1

	if _, err := r.db.NewInsert().Model(item).Exec(ctx); err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create %s: %w", item.Kind(), ErrDuplicate)
		}
		return fmt.Errorf("create %s: %w", item.Kind(), err)
	}
	return nil
}

// GetByID loads one row regardless of owner. Ownership is the caller's check.
func (r *BunOwnedRepository[T]) GetByID(ctx context.Context, id string) (T, error) {
	var zero T
	if _, err := uuid.Parse(id); err != nil {
		return zero, fmt.Errorf("%s %s: %w", r.kind(), id, ErrNotFound)
	}

	item := r.newFn()
	err := r.db.NewSelect().
		Model(item).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, fmt.Errorf("%s %s: %w", r.kind(), id, ErrNotFound)
		}
		return zero, fmt.Errorf("get %s: %w", r.kind(), err)
	}
	return item, nil
}

// List returns the rows owned by ownerID. Without an explicit order the newest come first.
func (r *BunOwnedRepository[T]) List(ctx context.Context, ownerID string, opts ListOptions) ([]T, error) {
	items := make([]T, 0)
	q := r.db.NewSelect().
		Model(&items).
		Where("user_id = ?", ownerID)
	for _, c := range opts.Where {
		q = q.Where("? = ?", bun.Ident(c.Column), c.Value)
	}
	if len(opts.OrderBy) > 0 {
		q = q.Order(opts.OrderBy...)
	} else {
		q = q.Order("created_at DESC", "id DESC")
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.kind(), err)
	}
	return items, nil
}

// Update writes item if the stored version still matches. user_id and
// created_at are never rewritten.
func (r *BunOwnedRepository[T]) Update(ctx context.Context, item T) error {
	row := item.Row()
	prev := row.Version
	prevUpdated := row.UpdatedAt
	row.Version = prev + 1
	row.UpdatedAt = time.Now().UTC()

	result, err := r.db.NewUpdate().
		Model(item).
		ExcludeColumn("user_id", "created_at").
		WherePK().
		Where("version = ?", prev).
		Exec(ctx)
	if err == nil {
		err = r.checkAffected(ctx, result, row.ID)
	}
	if err != nil {
		row.Version = prev
		row.UpdatedAt = prevUpdated
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrStaleVersion) {
			return err
		}
		return fmt.Errorf("update %s: %w", item.Kind(), err)
	}
	return nil
}

// Delete removes one row by id.
func (r *BunOwnedRepository[T]) Delete(ctx context.Context, id string) error {
	result, err := r.db.NewDelete().
		Model(r.newFn()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.kind(), err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", r.kind(), id, ErrNotFound)
	}
	return nil
}

func (r *BunOwnedRepository[T]) checkAffected(ctx context.Context, result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	exists, err := r.db.NewSelect().Model(r.newFn()).Where("id = ?", id).Exists(ctx)
	if err != nil {
		return fmt.Errorf("check %s exists: %w", r.kind(), err)
	}
	if !exists {
		return fmt.Errorf("%s %s: %w", r.kind(), id, ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w", r.kind(), id, ErrStaleVersion)
}

// NewBunOwnedRepositories builds the bun repository for every owned kind.
func NewBunOwnedRepositories(db *bun.DB) *OwnedRepositories {
	return &OwnedRepositories{
		Canvases:    NewBunOwnedRepository(db, func() *models.Canvas { return new(models.Canvas) }),
		CanvasItems: NewBunOwnedRepository(db, func() *models.CanvasItem { return new(models.CanvasItem) }),
		Documents:   NewBunOwnedRepository(db, func() *models.Document { return new(models.Document) }),
		MoodBoard:   NewBunOwnedRepository(db, func() *models.MoodBoardItem { return new(models.MoodBoardItem) }),
		Todos:       NewBunOwnedRepository(db, func() *models.Todo { return new(models.Todo) }),
		Tasks:       NewBunOwnedRepository(db, func() *models.Task { return new(models.Task) }),
		Projects:    NewBunOwnedRepository(db, func() *models.Project { return new(models.Project) }),
		Activity:    NewBunOwnedRepository(db, func() *models.ActivityLog { return new(models.ActivityLog) }),
		Ideas:       NewBunOwnedRepository(db, func() *models.Idea { return new(models.Idea) }),
	}
}
