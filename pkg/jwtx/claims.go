package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTL constants for the session protocol. Access tokens are
// deliberately tiny so clients exercise the refresh path constantly.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	DefaultAccessTokenTTL = 5 * time.Second

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens and
	// the registry entries they point at.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour

	// MinTTL is the shortest lifetime Sign accepts. exp is encoded in whole
	// seconds, so anything shorter can be expired the moment it is issued.
	MinTTL = time.Second
)

// Claims carry a single opaque payload. Access tokens put the identity in
// Data, refresh tokens put the registry handle there; both share this
// envelope so one verification path serves either kind.
type Claims struct {
	jwt.RegisteredClaims

	// Data is the opaque payload (identity or refresh handle).
	Data string `json:"data"`
}

// NewClaims builds claims for payload expiring ttl after now.
func NewClaims(data string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Data: data,
	}
}

// ValidateExpiry reports ErrExpired when now is at or past exp and
// ErrNotYetValid when now is before nbf. A missing exp is an invalid claim
// set: every token this package issues expires.
func (c *Claims) ValidateExpiry(now time.Time) error {
	if c.ExpiresAt == nil {
		return ErrInvalidClaim
	}

	// Check expired (exp)
	if !now.Before(c.ExpiresAt.Time) {
		return ErrExpired
	}

	// Check if a valid token isn't used before it is valid (nbf)
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}

	return nil
}
