// Package stasher uploads package files to the static file server that hosts
// published article assets.
package stasher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"satchel/internal/config"
	"satchel/internal/services"
)

// Backend stores a stream at a target path and returns the public URI.
type Backend interface {
	Send(ctx context.Context, r io.Reader, target string) (string, error)
}

// TargetPath produces the canonical static location for a package file.
func TargetPath(aid, filename string) string {
	return fmt.Sprintf("/articles/%s/%s", aid, path.Base(filename))
}

// HTTPBackend implements Backend over HTTP PUT with basic auth.
type HTTPBackend struct {
	baseURL    string
	username   string
	apiKey     string
	basePath   string
	httpClient *http.Client
}

// New builds an HTTP backend from configuration.
func New(cfg config.Storage) (*HTTPBackend, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "stasher", "new",
			"base url is required", nil)
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPBackend{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		username:   cfg.Username,
		apiKey:     cfg.APIKey,
		basePath:   "/" + strings.Trim(cfg.BasePath, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Send uploads the stream to the target path and returns the resulting URI.
func (b *HTTPBackend) Send(ctx context.Context, r io.Reader, target string) (string, error) {
	location := b.baseURL + path.Join(b.basePath, target)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, location, r)
	if err != nil {
		return "", fmt.Errorf("build upload request for %q: %w", target, err)
	}
	if b.username != "" {
		req.SetBasicAuth(b.username, b.apiKey)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrRemote, "stasher", "send",
			fmt.Sprintf("upload %q failed", target), err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 2048))

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
	default:
		return "", services.Wrap(services.ErrRemote, "stasher", "send",
			fmt.Sprintf("upload %q returned %d", target, resp.StatusCode), nil)
	}

	if loc := resp.Header.Get("Location"); loc != "" {
		return loc, nil
	}
	return location, nil
}
