package impl

import (
	"context"
	"log/slog"

	"roster/config"
	"roster/internal/domain/entity"
	"roster/internal/domain/lifecycle"
	"roster/internal/domain/repository"
	"roster/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// AdminSeederParams holds dependencies for the startup admin seed.
type AdminSeederParams struct {
	fx.In

	TxManager repository.TransactionManager
	Hasher    service.PasswordHasher
	Config    *config.Config
	Logger    *slog.Logger
}

// SeedDefaultAdmin creates the configured administrator account if no
// account with its email or phone exists yet. It runs once at startup and
// is a no-op when admin config is absent or the account already exists.
func SeedDefaultAdmin(params AdminSeederParams) error {
	cfg := params.Config.Admin
	if cfg == nil || cfg.Email == "" {
		params.Logger.Debug("No admin account configured, skipping seed")

		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), lifecycle.DefaultTimeout)
	defer cancel()

	hashedPassword, err := params.Hasher.Hash(cfg.Password)
	if err != nil {
		return errors.Wrap(err, "failed to hash admin password")
	}

	err = params.TxManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		_, err := repoFactory.CredentialRepo().FindByIdentifier(ctx, cfg.Email)
		if err == nil {
			// Already seeded.
			return nil
		}
		if !errors.Is(err, repository.ErrCredentialNotFound) {
			return errors.Wrap(err, "failed to check for existing admin account")
		}

		admin := &entity.User{
			Name:    cfg.Name,
			Email:   cfg.Email,
			Phone:   cfg.Phone,
			Role:    entity.RoleAdmin,
			State:   "-",
			City:    "-",
			Country: "-",
			Pincode: "0000",
		}

		if err := repoFactory.UserRepo().Create(ctx, admin, hashedPassword); err != nil {
			return errors.Wrap(err, "failed to create admin account")
		}

		params.Logger.Info("Seeded default admin account", slog.Any("userID", admin.ID))

		return nil
	})
	if err != nil {
		return errors.Wrap(err, "admin seed failed")
	}

	return nil
}
