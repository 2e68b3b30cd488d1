package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/todoauth/pkg/httpx"
	"github.com/aussiebroadwan/todoauth/pkg/todosdk"
)

// LivezHandler reports that the todoauth process is up. It checks nothing
// beyond the process answering; the directory is covered by /readyz.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, healthResponse("ok", startTime, version, nil))
	}
}

// healthResponse is the body shared by /livez and /readyz.
func healthResponse(status string, startTime time.Time, version string, checks *todosdk.HealthChecks) todosdk.HealthResponse {
	return todosdk.HealthResponse{
		Status:  status,
		Uptime:  time.Since(startTime).Round(time.Second).String(),
		Version: version,
		Checks:  checks,
	}
}
