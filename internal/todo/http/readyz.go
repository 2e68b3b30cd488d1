package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/todoauth/internal/todo/store"
	"github.com/aussiebroadwan/todoauth/pkg/httpx"
	"github.com/aussiebroadwan/todoauth/pkg/todosdk"
)

// ReadyzHandler reports whether todoauth can serve logins: 503 while the
// credential directory is unreachable or no refresh registry is wired.
func ReadyzHandler(
	startTime time.Time,
	version string,
	dir store.Directory,
	registry store.RefreshRegistry,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &todosdk.HealthChecks{
			Directory: "ok",
			Registry:  "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := dir.Ping(r.Context()); err != nil {
			checks.Directory = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if registry == nil {
			checks.Registry = "error: not configured"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, healthResponse(overallStatus, startTime, version, checks))
	}
}
