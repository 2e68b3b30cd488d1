package domain

import "time"

// RefreshEntry maps a one-time refresh handle to the identity it was issued for.
type RefreshEntry struct {
	Handle    string
	Identity  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the entry is past its lifetime at now.
func (e RefreshEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}
