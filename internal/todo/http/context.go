package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/todoauth/internal/todo/domain"
	"github.com/aussiebroadwan/todoauth/pkg/httpx"
	"github.com/aussiebroadwan/todoauth/pkg/slogx"
	"github.com/aussiebroadwan/todoauth/pkg/todosdk"
)

// Identifier turns an access token into the identity it was issued for.
type Identifier interface {
	Identify(accessToken string) (string, error)
}

// ResolveAuthContext builds the per-request domain.RequestContext. The
// refresh cookie is passed through untouched; the access token header is
// verified and, when valid, its identity attached. A bad access token is
// treated as no token at all.
func ResolveAuthContext(id Identifier) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc := &domain.RequestContext{
				RefreshToken: parseCookies(r.Header.Values("Cookie"))[todosdk.RefreshCookieName],
			}

			if token := r.Header.Get(todosdk.AccessTokenHeader); token != "" {
				identity, err := id.Identify(token)
				if err != nil {
					slogx.FromContext(r.Context()).Debug("access token rejected", slog.Any("error", err))
				} else {
					rc.Identity = identity
				}
			}

			next.ServeHTTP(w, r.WithContext(domain.WithRequestContext(r.Context(), rc)))
		})
	}
}

// parseCookies splits Cookie headers on ';' and trims around '='. Later
// occurrences of a name win.
func parseCookies(headers []string) map[string]string {
	cookies := make(map[string]string)
	for _, header := range headers {
		for _, part := range strings.Split(header, ";") {
			name, value, ok := strings.Cut(part, "=")
			if !ok {
				continue
			}
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			cookies[name] = strings.TrimSpace(value)
		}
	}
	return cookies
}
