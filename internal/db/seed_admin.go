package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/reelops/reelops-api/internal/config"
	"github.com/reelops/reelops-api/internal/domain/user"
	"github.com/reelops/reelops-api/internal/security"
)

// AdminUsers is the slice of the credential store needed to bootstrap an admin.
type AdminUsers interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, nu user.NewUser) (user.User, error)
}

// EnsureAdminUser creates the configured admin account once. Registration
// cannot be relied on for this in deployments that restrict roles.
func EnsureAdminUser(ctx context.Context, users AdminUsers, cfg config.Config, log *slog.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	_, err := users.GetByEmail(ctx, cfg.AdminEmail)

	if err == nil {
		return nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return fmt.Errorf("look up admin: %w", err)
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	u, err := users.Create(ctx, user.NewUser{
		Name:         cfg.AdminName,
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Role:         user.RoleAdmin,
	})

	// another instance may have seeded it first
	if errors.Is(err, user.ErrEmailTaken) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	log.Info("bootstrap admin created", "user_id", u.ID, "email", u.Email)
	return nil
}
