package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aussiebroadwan/todoauth/internal/todo/domain"
	"github.com/aussiebroadwan/todoauth/internal/todo/store"
)

// Directory is a map-backed credential directory.
type Directory struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

var _ store.Directory = (*Directory)(nil)

func NewDirectory() *Directory {
	return &Directory{users: make(map[string]domain.User)}
}

func (d *Directory) GetUser(ctx context.Context, name string) (domain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.users[name]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	u.Todos = slices.Clone(u.Todos)
	return u, nil
}

func (d *Directory) CreateUser(ctx context.Context, u domain.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.users[u.Name]; exists {
		return store.ErrAlreadyExists
	}
	u.Todos = slices.Clone(u.Todos)
	d.users[u.Name] = u
	return nil
}

func (d *Directory) Ping(ctx context.Context) error { return nil }

func (d *Directory) Close() error { return nil }
