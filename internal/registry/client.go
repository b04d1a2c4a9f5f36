// Package registry talks to the catalog manager HTTP API: journal and issue
// lookups during validation, and article, checkin, and notice writes.
package registry

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

	"satchel/internal/config"
	"satchel/internal/services"
)

// Client is a thin wrapper over the registry REST API. All requests carry the
// configured username and api key as query credentials.
type Client struct {
	baseURL    string
	username   string
	apiKey     string
	httpClient *http.Client
}

// New builds a registry client from configuration.
func New(cfg config.Registry) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "registry", "new",
			"base url is required", nil)
	}
	if strings.TrimSpace(cfg.Username) == "" || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "registry", "new",
			"username and api key are required", nil)
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		username:   cfg.Username,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// APIError carries a non-2xx registry response. It unwraps to
// services.ErrRemote.
type APIError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("registry %s returned %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return services.ErrRemote
}

// listEnvelope is the paginated collection shape the API returns.
type listEnvelope[T any] struct {
	Meta struct {
		Total int `json:"total_count"`
	} `json:"meta"`
	Objects []T `json:"objects"`
}

func (c *Client) endpoint(resource string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("username", c.username)
	params.Set("api_key", c.apiKey)
	return fmt.Sprintf("%s/%s/?%s", c.baseURL, strings.Trim(resource, "/"), params.Encode())
}

func (c *Client) get(ctx context.Context, resource string, params url.Values, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(resource, params), nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", resource, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrRemote, "registry", "get "+resource, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Endpoint: resource, Body: readBody(resp.Body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return services.Wrap(services.ErrRemote, "registry", "get "+resource, "decode response", err)
	}
	return nil
}

// post submits a JSON payload and returns the Location header of the created
// resource.
func (c *Client) post(ctx context.Context, resource string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode %s payload: %w", resource, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(resource, nil), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build %s request: %w", resource, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrRemote, "registry", "post "+resource, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		return "", &APIError{StatusCode: resp.StatusCode, Endpoint: resource, Body: readBody(resp.Body)}
	}
	return resp.Header.Get("Location"), nil
}

func readBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 2048))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
