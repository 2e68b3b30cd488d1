package todosdk_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/todoauth/pkg/todosdk"
	"github.com/stretchr/testify/require"
)

// fakeServer scripts the GraphQL endpoint. Todos succeed only with the
// token named valid; refresh hands out the token named next.
type fakeServer struct {
	mu         sync.Mutex
	valid      string
	next       string // "" makes refresh return null
	refreshOK  bool   // false makes refresh fail with 401
	alwaysDeny bool
	delay      time.Duration
	tokensSeen []string

	refreshes  atomic.Int32
	todoCalls  atomic.Int32
	lastCookie atomic.Value
}

func (f *fakeServer) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req todosdk.GraphQLRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		token := r.Header.Get(todosdk.AccessTokenHeader)
		if c, err := r.Cookie(todosdk.RefreshCookieName); err == nil {
			f.lastCookie.Store(c.Value)
		}

		f.mu.Lock()
		f.tokensSeen = append(f.tokensSeen, token)
		valid, next, refreshOK, delay, deny := f.valid, f.next, f.refreshOK, f.delay, f.alwaysDeny
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")

		switch {
		case strings.Contains(req.Query, "authenticate"):
			if req.Variables["password"] != "123" {
				_, _ = w.Write([]byte(`{"data":{"authenticate":null},"errors":[{"message":"Invalid credentials","extensions":{"code":"UNAUTHENTICATED"}}]}`))
				return
			}
			http.SetCookie(w, &http.Cookie{Name: todosdk.RefreshCookieName, Value: "r1", Path: "/", HttpOnly: true})
			_, _ = w.Write([]byte(`{"data":{"authenticate":"t1"}}`))

		case strings.Contains(req.Query, "refresh"):
			f.refreshes.Add(1)
			time.Sleep(delay)
			if !refreshOK {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"data":{"refresh":null},"errors":[{"message":"Invalid refresh token"}]}`))
				return
			}
			if next == "" {
				_, _ = w.Write([]byte(`{"data":{"refresh":null}}`))
				return
			}
			http.SetCookie(w, &http.Cookie{Name: todosdk.RefreshCookieName, Value: "r2", Path: "/", HttpOnly: true})
			_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"refresh": next}})

		case strings.Contains(req.Query, "logout"):
			_, _ = w.Write([]byte(`{"data":{"logout":true}}`))

		case strings.Contains(req.Query, "todos"):
			f.todoCalls.Add(1)
			if deny || token != valid {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"data":{"todos":null},"errors":[{"message":"Not authenticated","extensions":{"code":"UNAUTHENTICATED"}}]}`))
				return
			}
			_, _ = w.Write([]byte(`{"data":{"todos":["Learn GraphQL","Learn JWT"]}}`))
		}
	})
}

func newTestSession(t *testing.T, f *fakeServer) (*todosdk.Session, *todosdk.SDKClient) {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	client, err := todosdk.NewSDKClient(srv.URL)
	require.NoError(t, err)
	return client.NewSession(), client
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("success stores token", func(t *testing.T) {
		f := &fakeServer{valid: "t1"}
		s, _ := newTestSession(t, f)

		require.NoError(t, s.Login(ctx, "sally", "123"))
		require.Equal(t, "t1", s.AccessToken())

		todos, err := s.Todos(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"Learn GraphQL", "Learn JWT"}, todos)
		require.Zero(t, f.refreshes.Load())
	})

	t.Run("wrong password surfaces graphql error", func(t *testing.T) {
		f := &fakeServer{}
		s, _ := newTestSession(t, f)

		err := s.Login(ctx, "jane", "wrongpassword")
		var gqlErr *todosdk.GraphQLErrors
		require.ErrorAs(t, err, &gqlErr)
		require.True(t, gqlErr.HasCode("UNAUTHENTICATED"))
		require.Empty(t, s.AccessToken())
		require.Zero(t, f.refreshes.Load())
	})
}

func TestRefreshAndRetryOnce(t *testing.T) {
	ctx := context.Background()
	f := &fakeServer{valid: "t2", next: "t2", refreshOK: true}
	s, _ := newTestSession(t, f)

	require.NoError(t, s.Login(ctx, "sally", "123"))

	todos, err := s.Todos(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Learn GraphQL", "Learn JWT"}, todos)

	require.Equal(t, int32(1), f.refreshes.Load())
	require.Equal(t, int32(2), f.todoCalls.Load())
	require.Equal(t, "t2", s.AccessToken())
	require.Equal(t, "r2", f.lastCookie.Load(), "jar should carry the rotated cookie")

	f.mu.Lock()
	seen := append([]string(nil), f.tokensSeen...)
	f.mu.Unlock()
	// login, todos(t1), refresh (no token), todos(t2)
	require.Equal(t, []string{"", "t1", "", "t2"}, seen)
}

func TestRefreshSendsCookieFromLogin(t *testing.T) {
	ctx := context.Background()
	f := &fakeServer{valid: "t2", next: "t2", refreshOK: true}
	s, _ := newTestSession(t, f)

	require.NoError(t, s.Login(ctx, "sally", "123"))
	_, err := s.Refresh(ctx)
	require.NoError(t, err)
	require.Equal(t, "r1", f.lastCookie.Load())
}

func TestSecond401IsFinal(t *testing.T) {
	ctx := context.Background()
	f := &fakeServer{next: "t2", refreshOK: true, alwaysDeny: true}
	s, _ := newTestSession(t, f)
	s.SetAccessToken("t1")

	_, err := s.Todos(ctx)
	require.True(t, todosdk.IsUnauthorized(err))
	require.Equal(t, int32(1), f.refreshes.Load())
	require.Equal(t, int32(2), f.todoCalls.Load())
}

func TestRefreshWithoutTokenEndsSession(t *testing.T) {
	ctx := context.Background()
	f := &fakeServer{valid: "never", refreshOK: true}
	s, _ := newTestSession(t, f)
	s.SetAccessToken("t1")

	_, err := s.Todos(ctx)
	require.ErrorIs(t, err, todosdk.ErrSessionExpired)
	require.Empty(t, s.AccessToken())
	require.Equal(t, int32(1), f.todoCalls.Load(), "no replay after a dead session")
}

func TestRefreshFailureIsSurfaced(t *testing.T) {
	ctx := context.Background()
	f := &fakeServer{valid: "never", refreshOK: false}
	s, _ := newTestSession(t, f)
	s.SetAccessToken("t1")

	_, err := s.Todos(ctx)
	var se *todosdk.StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusUnauthorized, se.StatusCode)
	require.Equal(t, "Invalid refresh token", se.Errors[0].Message)
	require.Equal(t, int32(1), f.refreshes.Load())
	require.Equal(t, int32(1), f.todoCalls.Load())
}

func TestConcurrent401sShareOneRefresh(t *testing.T) {
	ctx := context.Background()
	f := &fakeServer{valid: "fresh", next: "fresh", refreshOK: true, delay: 50 * time.Millisecond}
	s, _ := newTestSession(t, f)
	s.SetAccessToken("stale")

	const callers = 10
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			todos, err := s.Todos(ctx)
			if err == nil && len(todos) != 2 {
				err = errors.New("unexpected todos")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), f.refreshes.Load())
	require.Equal(t, "fresh", s.AccessToken())
}

func TestRefreshRespectsCallerContext(t *testing.T) {
	f := &fakeServer{next: "t2", refreshOK: true, delay: 200 * time.Millisecond}
	s, _ := newTestSession(t, f)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.Refresh(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLogoutClearsToken(t *testing.T) {
	ctx := context.Background()
	f := &fakeServer{valid: "t1"}
	s, _ := newTestSession(t, f)

	require.NoError(t, s.Login(ctx, "sally", "123"))
	require.NoError(t, s.Logout(ctx))
	require.Empty(t, s.AccessToken())
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/readyz" {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"degraded"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok","version":"test"}`))
	}))
	defer srv.Close()

	client, err := todosdk.NewSDKClient(srv.URL + "/")
	require.NoError(t, err)

	live, err := client.GetLiveness(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)

	_, err = client.GetReadiness(context.Background())
	var se *todosdk.StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
}
