package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aussiebroadwan/todoauth/internal/todo/graph"
	"github.com/aussiebroadwan/todoauth/internal/todo/metrics"
	"github.com/aussiebroadwan/todoauth/pkg/httpx"
	"github.com/aussiebroadwan/todoauth/pkg/slogx"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
)

// maxRequestBody caps a GraphQL POST body.
const maxRequestBody = 1 << 20

// GraphQLHandler executes GraphQL POSTs and runs the result through session
// rotation before writing it.
type GraphQLHandler struct {
	Schema   graphql.Schema
	Rotation *SessionRotation

	// LoginLimiter, when set, throttles password attempts per client IP.
	LoginLimiter *httpx.Limiter
	Metrics      *metrics.Metrics
}

func (h *GraphQLHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	l := slogx.FromContext(r.Context())

	var req graph.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeRequestError(w, http.StatusRequestEntityTooLarge, "Request body too large", start)
			return
		}
		l.Debug("invalid graphql body", slog.Any("error", err))
		h.writeRequestError(w, http.StatusBadRequest, "Request body must be a JSON object", start)
		return
	}
	if req.Query == "" {
		h.writeRequestError(w, http.StatusBadRequest, "Must provide query string", start)
		return
	}

	passwordAttempt := req.IsPasswordAttempt()
	if passwordAttempt && h.LoginLimiter != nil {
		key := httpx.IPKeyExtractor(r)
		if ok, delay := h.LoginLimiter.Allow(key); !ok {
			h.LoginLimiter.Reject(w, r, key, delay)
			h.Metrics.ObserveRequest(strconv.Itoa(http.StatusTooManyRequests), time.Since(start).Seconds())
			return
		}
	}

	res := graph.Execute(r.Context(), h.Schema, req)
	status := h.Rotation.Apply(r.Context(), w, res, passwordAttempt)

	httpx.WriteJSON(w, status, res)
	h.Metrics.ObserveRequest(strconv.Itoa(status), time.Since(start).Seconds())
}

func (h *GraphQLHandler) writeRequestError(w http.ResponseWriter, status int, message string, start time.Time) {
	httpx.WriteJSON(w, status, &graphql.Result{
		Errors: []gqlerrors.FormattedError{gqlerrors.NewFormattedError(message)},
	})
	h.Metrics.ObserveRequest(strconv.Itoa(status), time.Since(start).Seconds())
}
