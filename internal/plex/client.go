// Package plex is the HTTP client for a Plex Media Server.
//
// Every request carries the X-Plex-Token header and asks for JSON; responses
// arrive wrapped in the MediaContainer envelope. Calls are rate limited
// client-side so batch commands cannot hammer the server.
package plex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/plexdance/internal/shared"
)

// Client talks to a single Plex server.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger

	// pageSize bounds container pagination; lowered in tests.
	pageSize int
}

// NewClient creates a client from the [plex] configuration section. A nil
// httpClient gets a default with the configured timeout.
func NewClient(cfg shared.PlexConfig, httpClient *http.Client, logger *log.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: plex.url is not set", shared.ErrMissingConfig)
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: set plex.token or PLEX_TOKEN", shared.ErrMissingToken)
	}

	if httpClient == nil {
		timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}

	if logger == nil {
		logger = shared.NewLogger(os.Stderr)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		token:      cfg.Token,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
		pageSize:   defaultPageSize,
	}, nil
}

const defaultPageSize = 500

// doRequest performs an authenticated request and decodes the JSON body into
// result when one is given. A 404 surfaces as [shared.ErrNotFound] so callers
// can treat absence as a signal rather than a failure.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("plex request", "method", method, "endpoint", requestPath(endpoint))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", shared.ErrNotFound, requestPath(endpoint))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s %s returned status %d", shared.ErrAPIRequest, method, requestPath(endpoint), resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// RawResponse is an unparsed server reply, for the api debugging command.
type RawResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Raw performs an authenticated GET against an arbitrary server path and
// returns the response as-is. Non-2xx statuses are part of the answer here,
// not errors.
func (c *Client) Raw(ctx context.Context, path string) (*RawResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	rawResp := &RawResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		rawResp.IsJSON = true
		rawResp.JSONData = jsonData
	}

	return rawResp, nil
}

// CurlCommand returns a curl invocation equivalent to Raw(path), token
// included, so the user can replay the request outside this tool.
func (c *Client) CurlCommand(path string) string {
	return shared.BuildCurlCommand(http.MethodGet, c.baseURL+path, map[string]string{
		"X-Plex-Token": c.token,
		"Accept":       "application/json",
	})
}

// Token exposes the configured token for output redaction.
func (c *Client) Token() string { return c.token }

// requestPath strips the query string for logs and error messages, which
// keeps filter noise out and never leaks tokens passed as parameters.
func requestPath(endpoint string) string {
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		return endpoint[:i]
	}
	return endpoint
}
