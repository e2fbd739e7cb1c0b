package seeders

import (
	"context"
	"errors"

	"github.com/shashiranjanraj/souq/app/models"
	"github.com/shashiranjanraj/souq/app/repositories"
	"github.com/shashiranjanraj/souq/config"
	"github.com/shashiranjanraj/souq/pkg/auth"
)

func init() {
	Register("admin", SeedAdmin)
}

// SeedAdmin creates the admin account from SEED_ADMIN_EMAIL and
// SEED_ADMIN_PASSWORD unless it already exists.
func SeedAdmin(ctx context.Context, d Deps) error {
	email := config.Get("SEED_ADMIN_EMAIL", "admin@souq.local")
	password := config.Get("SEED_ADMIN_PASSWORD", "")
	if password == "" {
		return errors.New("SEED_ADMIN_PASSWORD is required")
	}

	_, err := d.Users.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	return d.Users.Create(ctx, &models.User{Name: "Administrator", Email: email, Password: hash, Role: models.RoleAdmin})
}
