package iam

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/KshitijThareja/Orbyq/internal/auth"
	"github.com/KshitijThareja/Orbyq/internal/db/models"
	"github.com/KshitijThareja/Orbyq/internal/repository"
)

// ProfileInput is a partial profile update. Nil fields are left unchanged.
type ProfileInput struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Bio   *string `json:"bio,omitempty"`
	// Version, when set, must equal the stored user version.
	Version *int64 `json:"version,omitempty"`
}

// Me returns the account behind the principal.
func (s *Service) Me(ctx context.Context, p Principal) (*models.User, error) {
	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.principalUser(storeCtx, p)
}

// principalUser resolves p to its account, refusing tokens minted before the
// account existed.
func (s *Service) principalUser(ctx context.Context, p Principal) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, p.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	if p.PredatesAccount(user.CreatedAt) {
		log.Printf("token %s for %s predates account %s", p.TokenID, p.Email, user.ID)
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile changes name, email or bio. Tokens are bound to the email, so
// after an email change the caller must log in again.
func (s *Service) UpdateProfile(ctx context.Context, p Principal, in ProfileInput) (*models.User, error) {
	storeCtx, cancel := s.storeCtx(ctx)
	user, err := s.principalUser(storeCtx, p)
	cancel()
	if err != nil {
		return nil, err
	}

	if in.Version != nil && *in.Version != user.Version {
		return nil, fmt.Errorf("user %s: %w", user.ID, repository.ErrStaleVersion)
	}
	if in.Name != nil {
		if utf8.RuneCountInString(*in.Name) > 255 {
			return nil, fmt.Errorf("%w: name must be at most 255 characters", ErrValidation)
		}
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Bio != nil {
		if utf8.RuneCountInString(*in.Bio) > 2000 {
			return nil, fmt.Errorf("%w: bio must be at most 2000 characters", ErrValidation)
		}
		user.Bio = *in.Bio
	}
	if in.Email != nil && *in.Email != user.Email {
		if err := s.validateEmail(*in.Email); err != nil {
			return nil, err
		}
		storeCtx, cancel := s.storeCtx(ctx)
		taken, err := s.users.ExistsByEmail(storeCtx, *in.Email)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("update profile: %w", err)
		}
		if taken {
			return nil, ErrEmailTaken
		}
		user.Email = *in.Email
	}

	storeCtx, cancel = s.storeCtx(ctx)
	err = s.users.Update(storeCtx, user)
	cancel()
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return nil, ErrEmailTaken
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrUserNotFound
	case err != nil:
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

// DeleteAccount removes the caller's account and, by cascade, everything it owns.
// Access tokens already issued keep authenticating until they expire, but every
// store-backed operation then fails with ErrUserNotFound.
func (s *Service) DeleteAccount(ctx context.Context, p Principal) error {
	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	user, err := s.principalUser(storeCtx, p)
	if err != nil {
		return err
	}
	if err := s.users.Delete(storeCtx, user.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete account: %w", err)
	}
	log.Printf("deleted user %s", user.ID)
	return nil
}

// ListUsers returns every account, newest first.
func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.users.List(storeCtx)
}

// SetRoles replaces a user's roles. The change reaches the user's tokens on their next refresh.
func (s *Service) SetRoles(ctx context.Context, userID string, roles []string) (*models.User, error) {
	normalized, err := NormalizeRoles(roles)
	if err != nil {
		return nil, err
	}

	storeCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	if err := s.users.UpdateRoles(storeCtx, userID, normalized); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("set roles: %w", err)
	}
	user, err := s.users.GetByID(storeCtx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("set roles: %w", err)
	}
	return user, nil
}

// NormalizeRoles validates role names and removes duplicates, keeping order.
func NormalizeRoles(roles []string) ([]string, error) {
	if len(roles) == 0 {
		return nil, fmt.Errorf("%w: at least one role is required", ErrValidation)
	}
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.ToUpper(strings.TrimSpace(r))
		if !auth.IsKnownRole(r) {
			return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, r)
		}
		if !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	return out, nil
}
