package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/portfolio/internal/apperr"
	"github.com/Skotchmaster/portfolio/internal/models"
	pkg_hash "github.com/Skotchmaster/portfolio/pkg/hash"
	"github.com/Skotchmaster/portfolio/pkg/logging"
)

type SeedAdmin struct {
	Email    string
	Password string
	Name     string
}

// Seed creates the bootstrap admin when it is configured and missing, then
// inserts any default settings that are absent. Running it again is a no-op.
func Seed(ctx context.Context, users UserStore, settings *SettingsService, admin SeedAdmin, bcryptCost int) error {
	l := logging.FromContext(ctx).With("svc", "seed")

	if email := strings.TrimSpace(admin.Email); email != "" {
		pwHash, err := pkg_hash.HashPassword(admin.Password, bcryptCost)
		if err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		name := strings.TrimSpace(admin.Name)
		if name == "" {
			name = "Administrator"
		}
		u := models.User{Email: email, PasswordHash: pwHash, Name: name, Role: models.RoleAdmin}
		switch err := users.CreateUserIfNotExists(ctx, &u); {
		case err == nil:
			l.Info("admin_seeded", "user_id", u.ID.String(), "email", email)
		case errors.Is(err, apperr.ErrConflict):
			l.Debug("admin_seed_skipped", "reason", "user exists", "email", email)
		default:
			return fmt.Errorf("seed admin: %w", err)
		}
	}

	if settings != nil {
		n, err := settings.SeedDefaults(ctx)
		if err != nil {
			return fmt.Errorf("seed settings: %w", err)
		}
		if n > 0 {
			l.Info("settings_seeded", "count", n)
		}
	}
	return nil
}
