package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aussiebroadwan/todoauth/internal/todo/domain"
	"github.com/aussiebroadwan/todoauth/internal/todo/store"
	"github.com/aussiebroadwan/todoauth/pkg/cryptox"
	"github.com/aussiebroadwan/todoauth/pkg/jwtx"
	"github.com/google/uuid"
)

// Registry is the in-memory RefreshRegistry. Entries are keyed by the
// fingerprint of the handle so a heap dump does not hand out live handles.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]domain.RefreshEntry

	ttl time.Duration
	now func() time.Time
}

var _ store.RefreshRegistry = (*Registry)(nil)

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithTTL sets how long an issued handle stays resolvable.
func WithTTL(ttl time.Duration) RegistryOption {
	return func(r *Registry) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRegistry returns an empty registry. Handles live for the refresh token
// lifetime unless WithTTL says otherwise.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		entries: make(map[string]domain.RefreshEntry),
		ttl:     jwtx.DefaultRefreshTokenTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) Issue(ctx context.Context, identity string) (domain.RefreshEntry, error) {
	if identity == "" {
		return domain.RefreshEntry{}, fmt.Errorf("memory: issue refresh handle: empty identity")
	}

	handle, err := uuid.NewRandom()
	if err != nil {
		return domain.RefreshEntry{}, fmt.Errorf("memory: generate refresh handle: %w", err)
	}

	now := r.now()
	entry := domain.RefreshEntry{
		Handle:    handle.String(),
		Identity:  identity,
		CreatedAt: now,
		ExpiresAt: now.Add(r.ttl),
	}

	key := cryptox.FingerprintToken(entry.Handle)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[key]; exists {
		return domain.RefreshEntry{}, store.ErrAlreadyExists
	}
	r.entries[key] = entry

	return entry, nil
}

func (r *Registry) Resolve(ctx context.Context, handle string) (string, error) {
	if handle == "" {
		return "", store.ErrNotFound
	}

	r.mu.RLock()
	entry, ok := r.entries[cryptox.FingerprintToken(handle)]
	r.mu.RUnlock()

	if !ok || entry.Expired(r.now()) {
		return "", store.ErrNotFound
	}
	return entry.Identity, nil
}

func (r *Registry) Revoke(ctx context.Context, handle string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, cryptox.FingerprintToken(handle))
	return nil
}

func (r *Registry) DeleteExpired(ctx context.Context) (int, error) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, entry := range r.entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if entry.Expired(now) {
			delete(r.entries, key)
			removed++
		}
	}
	return removed, nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
