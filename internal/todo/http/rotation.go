package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/todoauth/internal/todo/metrics"
	"github.com/aussiebroadwan/todoauth/internal/todo/service"
	"github.com/aussiebroadwan/todoauth/pkg/slogx"
	"github.com/aussiebroadwan/todoauth/pkg/todosdk"
	"github.com/graphql-go/graphql"
)

// Rotator mints a new refresh credential for the identity in an access token.
type Rotator interface {
	Rotate(ctx context.Context, accessToken string) (service.RefreshGrant, error)
}

// SessionRotation post-processes an executed GraphQL result before it is
// written. It decides the HTTP status and which cookies go out:
//
//   - errors on anything but a password attempt: 401, so clients refresh
//   - a token from authenticate or refresh: new refreshToken cookie
//   - logout: refreshToken cookie cleared
type SessionRotation struct {
	Sessions     Rotator
	Metrics      *metrics.Metrics
	CookieSecure bool
}

// Apply sets any cookies on w and returns the status code to write.
func (s *SessionRotation) Apply(ctx context.Context, w http.ResponseWriter, res *graphql.Result, passwordAttempt bool) int {
	l := slogx.FromContext(ctx)

	if res.HasErrors() && !passwordAttempt {
		l.Debug("graphql errors, forcing 401", slog.Int("errors", len(res.Errors)))
		s.Metrics.ForcedUnauthorized()
		return http.StatusUnauthorized
	}

	data, _ := res.Data.(map[string]any)

	if token := issuedToken(data); token != "" {
		grant, err := s.Sessions.Rotate(ctx, token)
		if err != nil {
			// The token was minted by this process a moment ago, so this
			// only happens when signing or the registry is broken.
			l.Error("refresh rotation failed", slog.Any("error", err))
			return http.StatusOK
		}
		http.SetCookie(w, s.refreshCookie(grant.Token, grant.ExpiresAt))
		return http.StatusOK
	}

	if loggedOut, _ := data["logout"].(bool); loggedOut {
		http.SetCookie(w, s.refreshCookie("", time.Unix(0, 0)))
	}

	return http.StatusOK
}

func (s *SessionRotation) refreshCookie(value string, expires time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     todosdk.RefreshCookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires.UTC(),
		HttpOnly: true,
		Secure:   s.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		c.MaxAge = -1
	}
	return c
}

// issuedToken returns the access token handed out by authenticate or refresh.
func issuedToken(data map[string]any) string {
	if token, _ := data["authenticate"].(string); token != "" {
		return token
	}
	if token, _ := data["refresh"].(string); token != "" {
		return token
	}
	return ""
}
