package todoauth_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/todoauth/internal/todo/app"
	"github.com/aussiebroadwan/todoauth/pkg/todosdk"
	"github.com/stretchr/testify/require"
)

/*
 * Common constants and helper functions for todoauth end-to-end tests.
 * The service is built from environment variables exactly as cmd/todoauth
 * does, then served in-process.
 */

const (
	demoUser     = "sally"
	demoPassword = "123"
)

var demoTodos = []string{"Learn GraphQL", "Learn JWT"}

// baseEnv is the environment every test starts from. Rate limits are raised
// so tests that log in repeatedly don't trip them.
func baseEnv(t *testing.T) map[string]string {
	return map[string]string{
		"JWT_SECRET":                  "e2e-secret",
		"PASSWORD_PEPPER":             "e2e-pepper",
		"USER_STORE":                  "memory",
		"DATABASE_FILE":               filepath.Join(t.TempDir(), "todoauth.db"),
		"ENV":                         "test",
		"LOG_LEVEL":                   "error",
		"LOG_FORMAT":                  "json",
		"RATELIMIT_STRICT_REQUESTS":   "1000",
		"RATELIMIT_STRICT_WINDOW_SEC": "60",
		"RATELIMIT_STRICT_BURST":      "1000",
	}
}

// setupService starts the service with baseEnv plus overrides and returns its base URL.
func setupService(t *testing.T, overrides map[string]string) string {
	t.Helper()

	env := baseEnv(t)
	for k, v := range overrides {
		env[k] = v
	}
	for k, v := range env {
		t.Setenv(k, v)
	}

	application, err := app.New(app.LoadConfig())
	require.NoError(t, err)

	srv := httptest.NewServer(application.Handler())
	t.Cleanup(srv.Close)

	return srv.URL
}

// performLogin logs in on a fresh client and returns the session.
func performLogin(t *testing.T, baseURL, name, password string) (*todosdk.SDKClient, *todosdk.Session) {
	t.Helper()

	client, err := todosdk.NewSDKClient(baseURL)
	require.NoError(t, err)

	session := client.NewSession()
	require.NoError(t, session.Login(context.Background(), name, password))
	require.NotEmpty(t, session.AccessToken())

	return client, session
}
