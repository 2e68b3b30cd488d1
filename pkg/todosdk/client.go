package todosdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// DefaultGraphQLPath is where the service mounts its GraphQL endpoint.
const DefaultGraphQLPath = "/graphql"

// SDKClient is a client for the todoauth service. Its cookie jar holds the
// refresh cookie for every Session created from it.
type SDKClient struct {
	BaseURL     string
	GraphQLPath string
	HTTPClient  *http.Client
}

// NewSDKClient creates a client with a cookie jar and a 10 second timeout.
func NewSDKClient(baseURL string) (*SDKClient, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	return &SDKClient{
		BaseURL:     strings.TrimSuffix(baseURL, "/"),
		GraphQLPath: DefaultGraphQLPath,
		HTTPClient: &http.Client{
			Jar:     jar,
			Timeout: 10 * time.Second,
		},
	}, nil
}

// NewSession returns an empty, logged out session bound to c.
func (c *SDKClient) NewSession() *Session {
	return &Session{client: c}
}

// url builds a complete URL by appending the path to the base URL.
func (c *SDKClient) url(path string) string {
	return c.BaseURL + path
}

// post performs one GraphQL round trip. accessToken is attached when set.
// Non-200 responses become *StatusError, 200 responses with errors become
// *GraphQLErrors alongside the decoded response.
func (c *SDKClient) post(ctx context.Context, gql GraphQLRequest, accessToken string) (*GraphQLResponse, error) {
	body, err := json.Marshal(gql)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	path := c.GraphQLPath
	if path == "" {
		path = DefaultGraphQLPath
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set(AccessTokenHeader, accessToken)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var out GraphQLResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Errors:     out.Errors,
			Body:       string(raw),
		}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	if len(out.Errors) > 0 {
		return &out, &GraphQLErrors{Errors: out.Errors}
	}
	return &out, nil
}

// GetLiveness checks if the service is alive.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/livez")
}

// GetReadiness checks if the service is ready.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/readyz")
}

func (c *SDKClient) health(ctx context.Context, path string) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var health HealthResponse
	if err := json.Unmarshal(raw, &health); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &health, nil
}
