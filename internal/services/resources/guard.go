package resources

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/KshitijThareja/Orbyq/internal/db/models"
	"github.com/KshitijThareja/Orbyq/internal/repository"
	"github.com/KshitijThareja/Orbyq/internal/services/iam"
)

// Guard resolves the calling principal to a stored user and checks resource ownership.
// It is shared by every owned kind so the rule lives in exactly one place.
type Guard struct {
	users   repository.UserRepository
	timeout time.Duration
}

// NewGuard creates a guard. timeout bounds each store call; zero means no bound.
func NewGuard(users repository.UserRepository, timeout time.Duration) *Guard {
	return &Guard{users: users, timeout: timeout}
}

// ResolveCaller loads the account behind principal. The lookup is keyed by the
// token subject (email) and never trusts identifiers from the request body.
// A token issued before the account existed belonged to an earlier holder of
// the email and resolves to nothing.
func (g *Guard) ResolveCaller(ctx context.Context, principal iam.Principal) (*models.User, error) {
	ctx, cancel := g.storeCtx(ctx)
	defer cancel()

	user, err := g.users.GetByEmail(ctx, principal.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("resolve caller: %w", err)
	}
	if principal.PredatesAccount(user.CreatedAt) {
		log.Printf("token %s for %s predates account %s", principal.TokenID, principal.Email, user.ID)
		return nil, ErrUserNotFound
	}
	return user, nil
}

// AuthorizeOwner allows the operation only when caller owns the resource.
func AuthorizeOwner(caller *models.User, ownerID string) error {
	if caller == nil || ownerID == "" || caller.ID != ownerID {
		return ErrForbidden
	}
	return nil
}

func (g *Guard) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}
