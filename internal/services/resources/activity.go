package resources

import (
	"context"
	"log"

	"github.com/KshitijThareja/Orbyq/internal/db/models"
	"github.com/KshitijThareja/Orbyq/internal/repository"
)

// ActivityRecorder appends entries to a user's activity feed.
type ActivityRecorder interface {
	Record(ctx context.Context, ownerID, action, details string)
}

// ActivityLogRecorder writes activity entries straight to the activity log
// store. The owner has already been authorized by the operation being recorded.
// A failed write is logged and does not fail that operation.
type ActivityLogRecorder struct {
	repo  repository.OwnedRepository[*models.ActivityLog]
	guard *Guard
}

// NewActivityLogRecorder creates a recorder backed by repo.
func NewActivityLogRecorder(guard *Guard, repo repository.OwnedRepository[*models.ActivityLog]) *ActivityLogRecorder {
	return &ActivityLogRecorder{repo: repo, guard: guard}
}

func (r *ActivityLogRecorder) Record(ctx context.Context, ownerID, action, details string) {
	entry := &models.ActivityLog{Action: action, Details: details}
	entry.UserID = ownerID

	ctx, cancel := r.guard.storeCtx(ctx)
	defer cancel()
	if err := r.repo.Create(ctx, entry); err != nil {
		log.Printf("record activity %q for user %s: %v", action, ownerID, err)
	}
}
