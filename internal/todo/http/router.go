// Package http serves the GraphQL endpoint and wires the session protocol
// around it: auth context resolution before execution, cookie rotation after.
package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/todoauth/internal/todo/graph"
	"github.com/aussiebroadwan/todoauth/internal/todo/metrics"
	"github.com/aussiebroadwan/todoauth/internal/todo/service"
	"github.com/aussiebroadwan/todoauth/internal/todo/store"
	"github.com/aussiebroadwan/todoauth/pkg/httpx"
	"github.com/aussiebroadwan/todoauth/pkg/slogx"
	"github.com/aussiebroadwan/todoauth/pkg/todosdk"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	Sessions  *service.SessionService
	Todos     *service.TodoService
	Directory store.Directory
	Registry  store.RefreshRegistry
	Metrics   *metrics.Metrics

	CookieSecure bool
	LoginLimit   httpx.RateLimitConfig
	RequestLimit httpx.RateLimitConfig
}

// NewRouter returns a router with request logging and CORS applied globally.
// Set the service fields, then call ApplyRoutes.
func NewRouter(buildVersion string, cors httpx.CORSConfig, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		LoginLimit:   httpx.StrictLimit,
		RequestLimit: httpx.LenientLimit,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.CORS(cors),
	}

	return r
}

// DefaultCORS allows origin to call the API with credentials and the access
// token header.
func DefaultCORS(origin string) httpx.CORSConfig {
	return httpx.CORSConfig{
		AllowedOrigins:   []string{origin},
		AllowedHeaders:   []string{"Content-Type", todosdk.AccessTokenHeader},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowCredentials: true,
	}
}

func (r *Router) ApplyRoutes() error {
	if r.Sessions == nil || r.Todos == nil || r.Directory == nil {
		return errors.New("router: sessions, todos and directory are required")
	}

	if err := r.registerGraphQL(); err != nil {
		return err
	}
	r.registerSystem()
	return nil
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerGraphQL() error {
	schema, err := graph.NewSchema(graph.Resolvers{
		Sessions: r.Sessions,
		Todos:    r.Todos,
	})
	if err != nil {
		return err
	}

	handler := httpx.Chain(&GraphQLHandler{
		Schema: schema,
		Rotation: &SessionRotation{
			Sessions:     r.Sessions,
			Metrics:      r.Metrics,
			CookieSecure: r.CookieSecure,
		},
		LoginLimiter: httpx.NewLimiter(r.LoginLimit, httpx.WithLimitHook(r.Metrics.RateLimited)),
		Metrics:      r.Metrics,
	},
		httpx.RateLimitByIP(r.RequestLimit, httpx.WithLimitHook(r.Metrics.RateLimited)),
		ResolveAuthContext(r.Sessions),
	)

	r.Mux.Handle("POST /graphql", handler)
	r.Mux.Handle("POST /{$}", handler)
	return nil
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.Directory, r.Registry))
	r.Mux.Handle("GET /metrics", r.Metrics.Handler())
}
