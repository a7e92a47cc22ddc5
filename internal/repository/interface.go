package repository

import (
	"context"

	"github.com/KshitijThareja/Orbyq/internal/db/models"
)

// UserRepository is the credential store.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Update saves profile fields guarded by user.Version and bumps it on success.
	Update(ctx context.Context, user *models.User) error
	UpdateRoles(ctx context.Context, id string, roles []string) error
	// BumpRefreshGeneration advances the refresh generation from expected to
	// expected+1, failing with ErrStaleVersion if another refresh got there first.
	BumpRefreshGeneration(ctx context.Context, id string, expected int64) (int64, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.User, error)
}

// Condition is an equality predicate on a column named by the caller's code.
type Condition struct {
	Column string
	Value  any
}

// ListOptions narrows and orders an owner-scoped listing.
type ListOptions struct {
	Where   []Condition
	OrderBy []string
	Limit   int
}

// OwnedRepository persists one owned resource kind.
type OwnedRepository[T models.Owned] interface {
	Create(ctx context.Context, item T) error
	GetByID(ctx context.Context, id string) (T, error)
	List(ctx context.Context, ownerID string, opts ListOptions) ([]T, error)
	// Update saves item guarded by its row version and bumps the version on success.
	Update(ctx context.Context, item T) error
	Delete(ctx context.Context, id string) error
}

// OwnedRepositories bundles one repository per owned kind.
type OwnedRepositories struct {
	Canvases    OwnedRepository[*models.Canvas]
	CanvasItems OwnedRepository[*models.CanvasItem]
	Documents   OwnedRepository[*models.Document]
	MoodBoard   OwnedRepository[*models.MoodBoardItem]
	Todos       OwnedRepository[*models.Todo]
	Tasks       OwnedRepository[*models.Task]
	Projects    OwnedRepository[*models.Project]
	Activity    OwnedRepository[*models.ActivityLog]
	Ideas       OwnedRepository[*models.Idea]
}
