package jwtx

import (
	"errors"
)

// Verifier validates a token and gives you back its payload if it's legit.
type Verifier interface {
	Verify(token string) (string, error)
}

var (
	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrAlgMismatch  = errors.New("jwtx: algorithm mismatch")
	ErrInvalidSig   = errors.New("jwtx: invalid signature")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
	ErrNoSecret     = errors.New("jwtx: empty signing secret")
)

// IsRejection reports whether err is one of the structured verification
// rejections produced by this package, as opposed to an unexpected failure.
func IsRejection(err error) bool {
	return errors.Is(err, ErrMalformed) ||
		errors.Is(err, ErrAlgMismatch) ||
		errors.Is(err, ErrInvalidSig) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrNotYetValid) ||
		errors.Is(err, ErrInvalidClaim)
}
