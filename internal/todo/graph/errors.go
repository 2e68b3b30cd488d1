package graph

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/todoauth/internal/todo/service"
	"github.com/aussiebroadwan/todoauth/pkg/slogx"
)

// Error codes reported under extensions.code.
const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeInternal        = "INTERNAL_SERVER_ERROR"
)

// AuthError is an authentication failure surfaced to GraphQL clients.
type AuthError struct {
	Message string
	Code    string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return e.Err }

// Extensions is picked up by graphql-go when formatting the error.
func (e *AuthError) Extensions() map[string]any {
	return map[string]any{"code": e.Code}
}

type internalError struct{}

func (internalError) Error() string { return "internal server error" }

func (internalError) Extensions() map[string]any {
	return map[string]any{"code": CodeInternal}
}

// resolverError maps a service error onto what the client is allowed to see.
func resolverError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return &AuthError{Message: "Invalid credentials", Code: CodeUnauthenticated, Err: err}
	case errors.Is(err, service.ErrUnauthenticated):
		return &AuthError{Message: "Not authenticated", Code: CodeUnauthenticated, Err: err}
	case errors.Is(err, service.ErrMalformedToken):
		return &AuthError{Message: "Invalid refresh token", Code: CodeUnauthenticated, Err: err}
	default:
		slogx.FromContext(ctx).Error("resolver failed", slog.Any("error", err))
		return internalError{}
	}
}
