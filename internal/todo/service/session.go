package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/todoauth/internal/todo/metrics"
	"github.com/aussiebroadwan/todoauth/internal/todo/store"
	"github.com/aussiebroadwan/todoauth/pkg/cryptox"
	"github.com/aussiebroadwan/todoauth/pkg/jwtx"
	"github.com/aussiebroadwan/todoauth/pkg/slogx"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrMalformedToken     = errors.New("malformed_token")
)

// TokenIssuer signs and verifies the {data} tokens used for both access and
// refresh credentials.
type TokenIssuer interface {
	jwtx.Signer
	jwtx.Verifier
}

// RefreshGrant is a freshly minted refresh credential ready to be set as a cookie.
type RefreshGrant struct {
	Token     string
	ExpiresAt time.Time
}

type SessionService struct {
	Tokens     TokenIssuer
	Directory  store.Directory
	Registry   store.RefreshRegistry
	Hasher     cryptox.Hasher
	Metrics    *metrics.Metrics
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (s *SessionService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (s *SessionService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return jwtx.DefaultRefreshTokenTTL
}

// Authenticate checks name and password against the directory and returns a
// short lived access token for name.
func (s *SessionService) Authenticate(ctx context.Context, name, password string) (string, error) {
	l := slogx.FromContext(ctx)

	user, err := s.Directory.GetUser(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("login failed: unknown user", slog.String("name", name))
			s.Metrics.Login(metrics.ResultInvalidCredentials)
			return "", ErrInvalidCredentials
		}
		s.Metrics.Login(metrics.ResultError)
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if err := s.Hasher.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Info("login failed: wrong password", slog.String("name", name))
			s.Metrics.Login(metrics.ResultInvalidCredentials)
			return "", ErrInvalidCredentials
		}
		l.Error("stored password hash unreadable", slog.String("name", name), slog.Any("error", err))
		s.Metrics.Login(metrics.ResultError)
		return "", fmt.Errorf("verify password: %w", err)
	}

	token, err := s.Tokens.Sign(user.Name, s.accessTTL())
	if err != nil {
		s.Metrics.Login(metrics.ResultError)
		return "", fmt.Errorf("sign access token: %w", err)
	}

	l.Info("login succeeded", slog.String("name", name))
	s.Metrics.Login(metrics.ResultSuccess)
	return token, nil
}

// Identify verifies an access token and returns the identity it carries.
func (s *SessionService) Identify(accessToken string) (string, error) {
	identity, err := s.Tokens.Verify(accessToken)
	if err != nil {
		return "", err
	}
	return identity, nil
}

// Refresh exchanges a refresh token for a new access token. An unknown or
// expired handle yields an empty token and no error; a token that fails
// verification yields ErrMalformedToken.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	l := slogx.FromContext(ctx)

	if refreshToken == "" {
		l.Warn("refresh without refresh token")
		s.Metrics.Refresh(metrics.ResultMalformed)
		return "", fmt.Errorf("%w: refresh token not provided", ErrMalformedToken)
	}

	handle, err := s.Tokens.Verify(refreshToken)
	if err != nil {
		l.Warn("refresh token rejected", slog.Any("error", err))
		s.Metrics.Refresh(metrics.ResultMalformed)
		return "", fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	identity, err := s.Registry.Resolve(ctx, handle)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("refresh handle not in registry")
			s.Metrics.Refresh(metrics.ResultUnknownHandle)
			return "", nil
		}
		s.Metrics.Refresh(metrics.ResultError)
		return "", fmt.Errorf("resolve refresh handle: %w", err)
	}

	token, err := s.Tokens.Sign(identity, s.accessTTL())
	if err != nil {
		s.Metrics.Refresh(metrics.ResultError)
		return "", fmt.Errorf("sign access token: %w", err)
	}

	s.Metrics.Refresh(metrics.ResultSuccess)
	return token, nil
}

// Rotate mints a brand-new refresh handle for the identity inside
// accessToken and wraps it in a signed refresh token. Earlier handles for
// the same identity stay valid.
func (s *SessionService) Rotate(ctx context.Context, accessToken string) (RefreshGrant, error) {
	identity, err := s.Tokens.Verify(accessToken)
	if err != nil {
		return RefreshGrant{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	entry, err := s.Registry.Issue(ctx, identity)
	if err != nil {
		return RefreshGrant{}, fmt.Errorf("issue refresh handle: %w", err)
	}

	token, err := s.Tokens.Sign(entry.Handle, s.refreshTTL())
	if err != nil {
		// Do not leave an entry behind that no token will ever reference.
		_ = s.Registry.Revoke(ctx, entry.Handle)
		return RefreshGrant{}, fmt.Errorf("sign refresh token: %w", err)
	}

	s.Metrics.Rotation()
	return RefreshGrant{Token: token, ExpiresAt: entry.ExpiresAt}, nil
}

// Logout revokes the handle inside refreshToken. Missing or unverifiable
// tokens are ignored; there is nothing to revoke.
func (s *SessionService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	handle, err := s.Tokens.Verify(refreshToken)
	if err != nil {
		slogx.FromContext(ctx).Debug("logout with unverifiable refresh token", slog.Any("error", err))
		return nil
	}

	if err := s.Registry.Revoke(ctx, handle); err != nil {
		return fmt.Errorf("revoke refresh handle: %w", err)
	}
	s.Metrics.Revocation()
	return nil
}
