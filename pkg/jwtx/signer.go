package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Signer is our interface for anything that can mint payload tokens.
type Signer interface {
	Sign(payload string, ttl time.Duration) (string, error)
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock overrides the wall clock used for iat/exp and for expiry checks.
// Handy for tests that need to step across an expiry boundary.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

// Issuer signs and verifies HS256 tokens with a single shared secret. It is
// stateless and safe for concurrent use; the secret is read-only after
// construction.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

var (
	_ Signer   = (*Issuer)(nil)
	_ Verifier = (*Issuer)(nil)
)

// NewIssuer creates an HS256 issuer. The secret is copied.
func NewIssuer(secret []byte, opts ...Option) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, ErrNoSecret
	}

	i := &Issuer{
		secret: append([]byte(nil), secret...),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Sign takes your payload and turns it into a signed token expiring ttl from now.
func (i *Issuer) Sign(payload string, ttl time.Duration) (string, error) {
	if ttl < MinTTL {
		return "", fmt.Errorf("jwtx: ttl must be at least %s, got %s", MinTTL, ttl)
	}

	claims := NewClaims(payload, ttl, i.now())
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(i.secret)
}

// Verify checks signature and expiry and returns the payload.
func (i *Issuer) Verify(token string) (string, error) {
	claims, err := i.VerifyClaims(token)
	if err != nil {
		return "", err
	}
	return claims.Data, nil
}

// VerifyClaims is Verify but hands back the full claim set.
func (i *Issuer) VerifyClaims(tokenStr string) (Claims, error) {
	if tokenStr == "" {
		return Claims{}, ErrMalformed
	}

	// Expiry is checked below against our own clock, so the parser only
	// deals with structure and signature.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	var claims Claims
	token, err := parser.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	})
	if err != nil {
		return Claims{}, mapParseError(err)
	}
	if !token.Valid {
		return Claims{}, ErrInvalidSig
	}

	if err := claims.ValidateExpiry(i.now()); err != nil {
		return Claims{}, err
	}

	return claims, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrInvalidSig, err)
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrAlgMismatch, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
