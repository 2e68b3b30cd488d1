package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/todoauth/internal/todo/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Directory is the credential store: a lookup from user name to password
// hash and to-do list. Drivers: memory, sqlite.
type Directory interface {
	// GetUser returns the user with the given name, or ErrNotFound.
	GetUser(ctx context.Context, name string) (domain.User, error)

	// CreateUser inserts a new user with an already hashed password.
	CreateUser(ctx context.Context, u domain.User) error

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}

// RefreshRegistry maps refresh handles to identities. It is process local
// and volatile; entries are lost on restart.
type RefreshRegistry interface {
	// Issue mints a fresh handle for identity and stores the mapping.
	Issue(ctx context.Context, identity string) (domain.RefreshEntry, error)

	// Resolve returns the identity for handle, or ErrNotFound when the handle
	// was never issued, was revoked, or has expired.
	Resolve(ctx context.Context, handle string) (string, error)

	// Revoke removes handle. Revoking an unknown handle is not an error.
	Revoke(ctx context.Context, handle string) error

	// DeleteExpired evicts entries past their expiry and reports how many went.
	DeleteExpired(ctx context.Context) (int, error)

	// Len is the number of live and not yet swept entries.
	Len() int
}
