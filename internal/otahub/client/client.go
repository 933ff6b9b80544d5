// Package client is a Go client for the OTA hub HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Vehicle as returned by the API.
type Vehicle struct {
	VehicleID      string    `json:"vehicle_id"`
	Model          string    `json:"model"`
	CurrentVersion string    `json:"current_version"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// Update as returned by the API.
type Update struct {
	ID          int64     `json:"id"`
	VehicleID   string    `json:"vehicle_id"`
	FromVersion string    `json:"from_version"`
	ToVersion   string    `json:"to_version"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ota hub: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Detail)
}

// Client talks to one hub.
type Client struct {
	baseURL     *url.URL
	token       string
	tokenHeader string
	httpClient  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the credential sent on write requests.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTokenHeader overrides the credential header, X-API-Token by default.
func WithTokenHeader(header string) Option {
	return func(c *Client) { c.tokenHeader = header }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient = &http.Client{Timeout: d} }
}

// New returns a client for the hub at server.
func New(server string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(server, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server address %q: %w", server, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server address %q: scheme and host are required", server)
	}

	c := &Client{
		baseURL:     u,
		tokenHeader: "X-API-Token",
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *Client) RegisterVehicle(ctx context.Context, vehicleID, model, version, status string) (*Vehicle, error) {
	body := map[string]string{
		"vehicle_id":      vehicleID,
		"model":           model,
		"current_version": version,
		"status":          status,
	}
	var v Vehicle
	if err := c.do(ctx, http.MethodPost, "/vehicles", false, body, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) ListVehicles(ctx context.Context) ([]Vehicle, error) {
	var list []Vehicle
	if err := c.do(ctx, http.MethodGet, "/vehicles", false, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) AssignUpdate(ctx context.Context, vehicleID, fromVersion, toVersion string) (*Update, error) {
	body := map[string]string{
		"vehicle_id":   vehicleID,
		"from_version": fromVersion,
		"to_version":   toVersion,
	}
	var u Update
	if err := c.do(ctx, http.MethodPost, "/updates", true, body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) StartUpdate(ctx context.Context, id int64) (*Update, error) {
	return c.lifecycle(ctx, id, "start")
}

func (c *Client) CompleteUpdate(ctx context.Context, id int64) (*Update, error) {
	return c.lifecycle(ctx, id, "complete")
}

func (c *Client) FailUpdate(ctx context.Context, id int64) (*Update, error) {
	return c.lifecycle(ctx, id, "fail")
}

func (c *Client) History(ctx context.Context, vehicleID string) ([]Update, error) {
	var history []Update
	path := "/vehicles/" + url.PathEscape(vehicleID) + "/updates"
	if err := c.do(ctx, http.MethodGet, path, false, nil, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func (c *Client) lifecycle(ctx context.Context, id int64, action string) (*Update, error) {
	var u Update
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/updates/%d/%s", id, action), true, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) do(ctx context.Context, method, path string, authenticated bool, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated && c.token != "" {
		req.Header.Set(c.tokenHeader, c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var e struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&e); err == nil {
			apiErr.Detail = e.Detail
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}
