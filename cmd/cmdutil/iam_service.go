package cmdutil

import (
	"fmt"

	"github.com/uptrace/bun"

	"github.com/KshitijThareja/Orbyq/internal/auth"
	"github.com/KshitijThareja/Orbyq/internal/config"
	"github.com/KshitijThareja/Orbyq/internal/db/bunx"
	"github.com/KshitijThareja/Orbyq/internal/repository"
	"github.com/KshitijThareja/Orbyq/internal/services/iam"
)

// OpenDB connects to the configured database with the pool size from cfg.
func OpenDB(cfg *config.Config, hooks ...bun.QueryHook) (*bun.DB, error) {
	db, err := bunx.NewDB(cfg.DatabaseURL, bunx.Options{MaxConns: cfg.MaxDBConnections, Hooks: hooks})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// IAMServiceBundle bundles the service with its underlying DB connection so callers can
// reuse the connection for other repositories when necessary.
type IAMServiceBundle struct {
	Service *iam.Service
	Users   repository.UserRepository
	DB      *bun.DB
}

// Close releases the underlying database connection.
func (b *IAMServiceBundle) Close() {
	if b == nil || b.DB == nil {
		return
	}
	_ = bunx.Close(b.DB)
}

// NewIAMServiceBundle centralizes IAM service construction for CLI commands.
func NewIAMServiceBundle(cfg *config.Config) (*IAMServiceBundle, error) {
	db, err := OpenDB(cfg)
	if err != nil {
		return nil, err
	}

	codec, err := auth.NewTokenCodec(cfg.Auth)
	if err != nil {
		_ = bunx.Close(db)
		return nil, fmt.Errorf("failed to create token codec: %w", err)
	}
	hasher, err := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	if err != nil {
		_ = bunx.Close(db)
		return nil, fmt.Errorf("failed to create password hasher: %w", err)
	}

	users := repository.NewBunUserRepository(db)
	return &IAMServiceBundle{
		Service: iam.NewService(users, codec, hasher, cfg),
		Users:   users,
		DB:      db,
	}, nil
}
