package server

import (
	"context"

	"github.com/KshitijThareja/Orbyq/internal/db/models"
	"github.com/KshitijThareja/Orbyq/internal/services/iam"
)

// iamService defines the exact IAM methods used by server handlers.
type iamService interface {
	Register(ctx context.Context, in iam.RegisterInput) (*iam.TokenPair, error)
	Login(ctx context.Context, email, password string) (*iam.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*iam.TokenPair, error)

	Me(ctx context.Context, p iam.Principal) (*models.User, error)
	UpdateProfile(ctx context.Context, p iam.Principal, in iam.ProfileInput) (*models.User, error)
	DeleteAccount(ctx context.Context, p iam.Principal) error

	ListUsers(ctx context.Context) ([]models.User, error)
	SetRoles(ctx context.Context, userID string, roles []string) (*models.User, error)
}

// Compile-time assertion: *iam.Service must implement iamService.
var _ iamService = (*iam.Service)(nil)
