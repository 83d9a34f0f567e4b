// ABOUTME: HTTP client for the wger REST API v2 with token auth.
// ABOUTME: Every call goes through retry.Policy; list endpoints follow `next`.
package wger

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

	"github.com/rs/zerolog"

	"github.com/harperreed/lift/internal/config"
	"github.com/harperreed/lift/internal/log"
	"github.com/harperreed/lift/internal/metrics"
	"github.com/harperreed/lift/internal/retry"
)

const apiSuffix = "/api/v2"

// APIError is a non-2xx response from wger.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string

	retryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wger %s %s failed with %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// HTTPStatus implements retry.StatusError.
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

// RetryAfter implements retry.RetryAfterError. Only 429 responses carry it.
func (e *APIError) RetryAfter() (time.Duration, bool) {
	if e.StatusCode != http.StatusTooManyRequests || e.retryAfter <= 0 {
		return 0, false
	}
	return e.retryAfter, true
}

// Client talks to one wger server.
type Client struct {
	baseURL string
	apiRoot string
	apiKey  string
	http    *http.Client
	policy  retry.Policy
	logger  zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithSleep replaces the retry sleeper, mostly for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.policy.Sleep = sleep }
}

// NewClient validates the configuration and builds a client. The base URL
// may be given with or without the /api/v2 suffix.
func NewClient(cfg config.WgerConfig, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if strings.HasSuffix(strings.ToLower(base), apiSuffix) {
		base = strings.TrimRight(base[:len(base)-len(apiSuffix)], "/")
	}
	if base == "" {
		return nil, fmt.Errorf("wger: %w", config.ErrMissingBaseURL)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("wger: %w", config.ErrMissingCredentials)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}
	policy := retry.Policy{
		MaxRetries:  cfg.MaxRetries,
		BackoffBase: cfg.BackoffBase,
		OnRetry: func(_ string, attempt int, wait time.Duration) {
			metrics.CountRetry("wger", attempt, wait)
		},
	}
	if policy.MaxRetries <= 0 {
		policy.MaxRetries = retry.DefaultMaxRetries
	}
	if policy.BackoffBase <= 0 {
		policy.BackoffBase = retry.DefaultBackoffBase
	}

	c := &Client{
		baseURL: base,
		apiRoot: base + apiSuffix,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		policy:  policy,
		logger:  log.WithComponent("wger"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the server root without the API suffix.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request performs one logical call with retries. A 204 yields nil.
func (c *Client) request(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
	}

	target := method + " " + stripQuery(path)
	var out json.RawMessage
	err := c.policy.Do(ctx, target, func(ctx context.Context) error {
		var err error
		out, err = c.send(ctx, method, path, query, payload)
		return err
	})
	return out, err
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte) (json.RawMessage, error) {
	u, err := c.url(path, query)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	timer := metrics.NewTimer()
	resp, err := c.http.Do(req)
	timer.ObserveDurationVec(metrics.RemoteRequestDuration, "wger", method)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	c.logger.Debug().Str("method", method).Str("path", stripQuery(path)).Int("status", resp.StatusCode).Msg("wger call")

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return json.RawMessage(raw), nil
	case http.StatusNoContent:
		return nil, nil
	}

	apiErr := &APIError{
		Method:     method,
		Path:       stripQuery(path),
		StatusCode: resp.StatusCode,
		Body:       truncate(string(raw), 500),
	}
	if d, ok := retry.ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()); ok {
		apiErr.retryAfter = d
	}
	return nil, apiErr
}

// url resolves a path against the API root. Absolute URLs (from `next`
// links on another host) are used as given.
func (c *Client) url(path string, query url.Values) (string, error) {
	raw := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		raw = c.apiRoot + path
	}
	if len(query) == 0 {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", raw, err)
	}
	q := u.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type page struct {
	Count   int               `json:"count"`
	Next    *string           `json:"next"`
	Results []json.RawMessage `json:"results"`
}

// GetAllPages fetches every page of a list endpoint, following `next`
// until it is null.
func (c *Client) GetAllPages(ctx context.Context, path string, query url.Values) ([]json.RawMessage, error) {
	var items []json.RawMessage
	current := path
	for current != "" {
		raw, err := c.request(ctx, http.MethodGet, current, query, nil)
		if err != nil {
			return nil, err
		}
		if raw == nil {
			break
		}
		var p page
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode page %s: %w", stripQuery(current), err)
		}
		items = append(items, p.Results...)

		current = ""
		query = nil
		if p.Next != nil && *p.Next != "" {
			current = strings.TrimPrefix(*p.Next, c.apiRoot)
		}
	}
	return items, nil
}

func stripQuery(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
