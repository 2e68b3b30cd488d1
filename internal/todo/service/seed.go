package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/todoauth/internal/todo/domain"
	"github.com/aussiebroadwan/todoauth/internal/todo/store"
	"github.com/aussiebroadwan/todoauth/pkg/cryptox"
)

// SeedUser is a directory entry with its plaintext password.
type SeedUser struct {
	Name     string
	Password string
	Todos    []string
}

// DemoUsers is the fixed directory the service ships with.
var DemoUsers = []SeedUser{
	{Name: "sally", Password: "123", Todos: []string{"Learn GraphQL", "Learn JWT"}},
	{Name: "jane", Password: "123", Todos: []string{"Learn C", "Learn C++"}},
}

// SeedDirectory hashes and inserts users. Users that already exist are left
// untouched so a persistent directory can be seeded on every start.
func SeedDirectory(ctx context.Context, dir store.Directory, hasher cryptox.Hasher, users []SeedUser, logger *slog.Logger) error {
	for _, u := range users {
		hash, err := hasher.HashPassword(u.Password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", u.Name, err)
		}

		err = dir.CreateUser(ctx, domain.User{
			Name:         u.Name,
			PasswordHash: hash,
			Todos:        u.Todos,
		})
		switch {
		case errors.Is(err, store.ErrAlreadyExists):
			logger.Debug("seed user already present", slog.String("name", u.Name))
		case err != nil:
			return fmt.Errorf("create user %s: %w", u.Name, err)
		default:
			logger.Info("seeded user", slog.String("name", u.Name))
		}
	}
	return nil
}
