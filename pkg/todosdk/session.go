package todosdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

const (
	loginMutation   = "mutation ($name: String!, $password: String!) {\n  authenticate(name: $name, password: $password)\n}\n"
	refreshMutation = "mutation { refresh }"
	logoutMutation  = "mutation { logout }"
	todosQuery      = "query { todos }"
)

// Session holds the current access token. It is safe for concurrent use;
// the token is read by every call and written only by Login, refresh and
// Logout.
type Session struct {
	client *SDKClient

	mu          sync.RWMutex
	accessToken string

	refreshes singleflight.Group
}

// AccessToken returns the current access token, or "" when logged out.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// SetAccessToken replaces the current access token.
func (s *Session) SetAccessToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = token
}

// Login authenticates with a password. On success the access token is stored
// and the server has set the refresh cookie in the client's jar. A failed
// login is returned as is and never triggers a refresh.
func (s *Session) Login(ctx context.Context, name, password string) error {
	var data struct {
		Authenticate *string `json:"authenticate"`
	}
	err := s.execute(ctx, GraphQLRequest{
		Query:     loginMutation,
		Variables: map[string]any{"name": name, "password": password},
	}, &data, false)
	if err != nil {
		return err
	}
	if data.Authenticate == nil || *data.Authenticate == "" {
		return errors.New("todosdk: login returned no token")
	}

	s.SetAccessToken(*data.Authenticate)
	return nil
}

// Todos fetches the to-do list of the logged in user.
func (s *Session) Todos(ctx context.Context) ([]string, error) {
	var data struct {
		Todos []string `json:"todos"`
	}
	if err := s.Execute(ctx, GraphQLRequest{Query: todosQuery}, &data); err != nil {
		return nil, err
	}
	return data.Todos, nil
}

// Refresh exchanges the refresh cookie for a new access token and stores it.
// Concurrent callers share one round trip.
func (s *Session) Refresh(ctx context.Context) (string, error) {
	ch := s.refreshes.DoChan("refresh", func() (any, error) {
		// The shared call must not die with whichever caller started it.
		return s.refresh(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *Session) refresh(ctx context.Context) (string, error) {
	var data struct {
		Refresh *string `json:"refresh"`
	}
	if err := s.execute(ctx, GraphQLRequest{Query: refreshMutation}, &data, false); err != nil {
		return "", err
	}

	if data.Refresh == nil || *data.Refresh == "" {
		s.SetAccessToken("")
		return "", ErrSessionExpired
	}

	s.SetAccessToken(*data.Refresh)
	return *data.Refresh, nil
}

// Logout revokes the refresh handle on the server and forgets the access
// token. The local token is cleared even when the server call fails.
func (s *Session) Logout(ctx context.Context) error {
	defer s.SetAccessToken("")

	var data struct {
		Logout bool `json:"logout"`
	}
	return s.execute(ctx, GraphQLRequest{Query: logoutMutation}, &data, false)
}

// Execute runs an arbitrary GraphQL request with refresh-and-retry and
// decodes data into out (which may be nil).
func (s *Session) Execute(ctx context.Context, req GraphQLRequest, out any) error {
	return s.execute(ctx, req, out, true)
}

func (s *Session) execute(ctx context.Context, req GraphQLRequest, out any, retry bool) error {
	resp, err := s.do(ctx, req, retry)
	if err != nil {
		return err
	}
	if out == nil || len(resp.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to decode data: %w", err)
	}
	return nil
}

// do sends req with the current token. On a 401 it refreshes and replays
// exactly once; the replay's outcome is final.
func (s *Session) do(ctx context.Context, req GraphQLRequest, retry bool) (*GraphQLResponse, error) {
	token := s.AccessToken()

	resp, err := s.client.post(ctx, req, token)
	if !retry || !IsUnauthorized(err) {
		return resp, err
	}

	// Another call may have refreshed while this one was in flight.
	fresh := s.AccessToken()
	if fresh == "" || fresh == token {
		fresh, err = s.Refresh(ctx)
		if err != nil {
			return nil, err
		}
	}

	return s.client.post(ctx, req, fresh)
}
