package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/todoauth/internal/todo/store"
)

type TodoService struct {
	Directory store.Directory
}

// List returns the to-do list of identity. An empty identity, or one the
// directory no longer knows, is ErrUnauthenticated.
func (s *TodoService) List(ctx context.Context, identity string) ([]string, error) {
	if identity == "" {
		return nil, ErrUnauthenticated
	}

	user, err := s.Directory.GetUser(ctx, identity)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if user.Todos == nil {
		return []string{}, nil
	}
	return user.Todos, nil
}
