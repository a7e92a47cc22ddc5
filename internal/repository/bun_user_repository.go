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

// BunUserRepository implements UserRepository using Bun ORM
type BunUserRepository struct {
	db *bun.DB
}

var _ UserRepository = (*BunUserRepository)(nil)

// NewBunUserRepository creates a new Bun-based user repository
func NewBunUserRepository(db *bun.DB) *BunUserRepository {
	return &BunUserRepository{db: db}
}

// Create inserts a new user. A unique violation on email yields ErrDuplicate.
// A preset CreatedAt is kept so callers can align it with their own clock.
func (r *BunUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = bunx.NewUUIDv7()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.CreatedAt
	user.Version = 1
	if user.Roles == nil {
		user.Roles = models.RoleList{}
	}

	if _, err := r.db.NewInsert().Model(user).Exec(ctx); err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create user %s: %w", user.Email, ErrDuplicate)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by their ID
func (r *BunUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return r.getWhere(ctx, "id = ?", id)
}

// GetByEmail retrieves a user by exact, case-sensitive email.
func (r *BunUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getWhere(ctx, "email = ?", email)
}

func (r *BunUserRepository) getWhere(ctx context.Context, where string, arg any) (*models.User, error) {
	user := new(models.User)
	err := r.db.NewSelect().
		Model(user).
		Where(where, arg).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %v: %w", arg, ErrNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ExistsByEmail reports whether an account uses email.
func (r *BunUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*models.User)(nil)).
		Where("email = ?", email).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return exists, nil
}

// Update writes the profile columns if the stored version still equals user.Version.
func (r *BunUserRepository) Update(ctx context.Context, user *models.User) error {
	prev := user.Version
	user.Version = prev + 1
	user.UpdatedAt = time.Now().UTC()

	result, err := r.db.NewUpdate().
		Model(user).
		Column("email", "name", "bio", "version", "updated_at").
		WherePK().
		Where("version = ?", prev).
		Exec(ctx)
	if err != nil {
		user.Version = prev
		if isDuplicateKeyError(err) {
			return fmt.Errorf("update user %s: %w", user.ID, ErrDuplicate)
		}
		return fmt.Errorf("update user: %w", err)
	}

	if err := r.checkAffected(ctx, result, user.ID); err != nil {
		user.Version = prev
		return err
	}
	return nil
}

// UpdateRoles replaces the role set and bumps the row version.
func (r *BunUserRepository) UpdateRoles(ctx context.Context, id string, roles []string) error {
	result, err := r.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("roles = ?", models.RoleList(roles)).
		Set("version = version + 1").
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update user roles: %w", err)
	}
	return r.checkAffected(ctx, result, id)
}

// BumpRefreshGeneration is a compare-and-swap on users.refresh_generation.
func (r *BunUserRepository) BumpRefreshGeneration(ctx context.Context, id string, expected int64) (int64, error) {
	next := expected + 1
	result, err := r.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("refresh_generation = ?", next).
		Where("id = ?", id).
		Where("refresh_generation = ?", expected).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("bump refresh generation: %w", err)
	}
	if err := r.checkAffected(ctx, result, id); err != nil {
		return 0, err
	}
	return next, nil
}

// Delete removes the user. Owned rows go with it through ON DELETE CASCADE.
func (r *BunUserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.NewDelete().
		Model((*models.User)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return nil
}

// List retrieves all users
func (r *BunUserRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.NewSelect().
		Model(&users).
		Order("created_at DESC", "id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// checkAffected turns a zero-row conditional update into ErrNotFound or ErrStaleVersion.
func (r *BunUserRepository) checkAffected(ctx context.Context, result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	exists, err := r.db.NewSelect().Model((*models.User)(nil)).Where("id = ?", id).Exists(ctx)
	if err != nil {
		return fmt.Errorf("check user exists: %w", err)
	}
	if !exists {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return fmt.Errorf("user %s: %w", id, ErrStaleVersion)
}
