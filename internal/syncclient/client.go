// Package syncclient talks to an optsync server over HTTP. Client implements
// settings.Gateway.
package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/marcus/optsync/internal/registry"
	"github.com/marcus/optsync/internal/settings"
)

// Sentinel errors for common HTTP error classes.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrRateLimited  = errors.New("rate limited")
)

var _ settings.Gateway = (*Client)(nil)

// Client is an HTTP client for the optsync server.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// New creates a new client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// --- Response types (mirrors internal/api, independently defined) ---

// HealthResponse is the response from GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// UpdateResponse is the response from both update routes.
type UpdateResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ConnectionStatus is the response from GET /v1/connection.
type ConnectionStatus struct {
	IsActive  bool `json:"isActive"`
	IsStaging bool `json:"isStaging"`
	DevMode   struct {
		IsActive bool `json:"isActive"`
		Constant bool `json:"constant"`
		URL      bool `json:"url"`
		Filter   bool `json:"filter"`
	} `json:"devMode"`
}

// HealthCheck hits the /healthz endpoint to verify server reachability.
func (c *Client) HealthCheck(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doNoAuth(ctx, "GET", "/healthz", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchAll returns every option value known to the server.
func (c *Client) FetchAll(ctx context.Context) (settings.Options, error) {
	var opts settings.Options
	if err := c.do(ctx, "GET", "/v1/settings", nil, &opts); err != nil {
		return nil, &settings.FetchError{Cause: err}
	}
	if opts == nil {
		opts = settings.Options{}
	}
	return opts, nil
}

// UpdateOne persists a single option.
func (c *Client) UpdateOne(ctx context.Context, name string, v settings.Value) error {
	body := map[string]settings.Value{"value": v}
	if err := c.do(ctx, "POST", "/v1/settings/"+url.PathEscape(name), body, &UpdateResponse{}); err != nil {
		return &settings.UpdateError{Name: name, Value: v, Cause: err}
	}
	return nil
}

// UpdateBatch persists several options in one request.
func (c *Client) UpdateBatch(ctx context.Context, opts settings.Options) error {
	if err := c.do(ctx, "POST", "/v1/settings", opts, &UpdateResponse{}); err != nil {
		return &settings.UpdateError{Options: opts.Clone(), Cause: err}
	}
	return nil
}

// Schema returns the server's option definitions.
func (c *Client) Schema(ctx context.Context) ([]registry.Definition, error) {
	var defs []registry.Definition
	if err := c.do(ctx, "GET", "/v1/settings/schema", nil, &defs); err != nil {
		return nil, fmt.Errorf("fetch schema: %w", err)
	}
	return defs, nil
}

// Registry fetches the schema and builds a registry from it.
func (c *Client) Registry(ctx context.Context) (*registry.Registry, error) {
	defs, err := c.Schema(ctx)
	if err != nil {
		return nil, err
	}
	return registry.FromDefinitions(defs), nil
}

// Connection returns the server's connection status.
func (c *Client) Connection(ctx context.Context) (*ConnectionStatus, error) {
	var st ConnectionStatus
	if err := c.do(ctx, "GET", "/v1/connection", nil, &st); err != nil {
		return nil, fmt.Errorf("connection status: %w", err)
	}
	return &st, nil
}

// --- HTTP helpers ---

// APIError is the standard error body from the server.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

type errorEnvelope struct {
	Error *APIError `json:"error"`
}

// do executes an authenticated HTTP request.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	return c.doRequest(ctx, method, path, body, result, true)
}

// doNoAuth executes an unauthenticated HTTP request.
func (c *Client) doNoAuth(ctx context.Context, method, path string, body, result any) error {
	return c.doRequest(ctx, method, path, body, result, false)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body, result any, auth bool) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth && c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var env errorEnvelope
		if json.Unmarshal(respBody, &env) == nil && env.Error != nil && env.Error.Code != "" {
			apiErr := env.Error
			apiErr.Status = resp.StatusCode
			switch resp.StatusCode {
			case http.StatusUnauthorized:
				return fmt.Errorf("%w: %w", ErrUnauthorized, apiErr)
			case http.StatusForbidden:
				return fmt.Errorf("%w: %w", ErrForbidden, apiErr)
			case http.StatusNotFound:
				return fmt.Errorf("%w: %w", ErrNotFound, apiErr)
			case http.StatusTooManyRequests:
				return fmt.Errorf("%w: %w", ErrRateLimited, apiErr)
			default:
				return apiErr
			}
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

// ErrorCode returns the server error code carried by err, if any.
func ErrorCode(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}
