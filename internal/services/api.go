// HTTP client shared by the metadata and completion services
package services

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

	"github.com/avast/retry-go/v4"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/wlx/internal/shared"
)

// APIClient makes JSON requests against one base URL, retrying transport
// failures, 429s and 5xx responses with exponential backoff.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	headers    http.Header
	attempts   uint
	delay      time.Duration
	logger     *log.Logger
}

// APIClientOpts configures an [APIClient].
type APIClientOpts struct {
	BaseURL    string
	HTTPClient *http.Client
	Headers    http.Header
	Retries    uint          // additional attempts after the first
	Delay      time.Duration // initial backoff
	Logger     *log.Logger
}

// NewAPIClient creates a client. A nil HTTPClient gets a 30 second timeout.
func NewAPIClient(opts APIClientOpts) *APIClient {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Delay <= 0 {
		opts.Delay = 500 * time.Millisecond
	}
	if opts.Headers == nil {
		opts.Headers = http.Header{}
	}

	return &APIClient{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		headers:    opts.Headers,
		attempts:   opts.Retries + 1,
		delay:      opts.Delay,
		logger:     opts.Logger,
	}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Decode unmarshals the body into v, wrapping failures in [shared.ErrMalformedResponse].
func (r *APIResponse) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrMalformedResponse, err)
	}
	return nil
}

// statusError is a non-2xx response.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	body := e.body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("unexpected status %d: %s", e.code, body)
}

func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

// Get performs a GET request to path with query parameters.
func (a *APIClient) Get(ctx context.Context, path string, query url.Values) (*APIResponse, error) {
	return a.Do(ctx, http.MethodGet, path, query, nil)
}

// Post performs a POST request with payload encoded as JSON.
func (a *APIClient) Post(ctx context.Context, path string, payload any) (*APIResponse, error) {
	return a.Do(ctx, http.MethodPost, path, nil, payload)
}

// Do sends the request, retrying as configured. Any failure that survives the
// retries wraps [shared.ErrNetwork]; non-retryable 4xx responses fail at once.
func (a *APIClient) Do(ctx context.Context, method, path string, query url.Values, payload any) (*APIResponse, error) {
	fullURL := a.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
	}

	resp, err := retry.DoWithData(
		func() (*APIResponse, error) { return a.send(ctx, method, fullURL, body) },
		retry.Context(ctx),
		retry.Attempts(a.attempts),
		retry.Delay(a.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var se *statusError
			if errors.As(err, &se) {
				return se.retryable()
			}
			return ctx.Err() == nil
		}),
		retry.OnRetry(func(n uint, err error) {
			if a.logger != nil {
				a.logger.Warn("retrying request", "method", method, "path", path, "attempt", n+1, "err", err)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", shared.ErrNetwork, method, path, err)
	}
	return resp, nil
}

func (a *APIClient) send(ctx context.Context, method, fullURL string, body []byte) (*APIResponse, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
	}
	for k, vs := range a.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &statusError{code: resp.StatusCode, body: string(data)}
	}

	return &APIResponse{StatusCode: resp.StatusCode, Headers: resp.Header, Body: data}, nil
}
