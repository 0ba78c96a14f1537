package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/trogers1052/portfolio-valuation/internal/apperrors"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// APIError represents a non-2xx provider response
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("quote provider error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// httpClient is the rate-limited, time-bounded transport shared by the providers
type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	timeout time.Duration
	headers map[string]string
	logger  *zap.Logger
}

// ClientOption configures a provider client
type ClientOption func(*httpClient)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout bounds each batch request
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *httpClient) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithRateLimit sets the provider rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *httpClient) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *httpClient) {
		c.logger = logger
	}
}

// WithHeader adds a header to every request
func WithHeader(key, value string) ClientOption {
	return func(c *httpClient) {
		if value != "" {
			c.headers[key] = value
		}
	}
}

func newHTTPClient(baseURL string, opts ...ClientOption) *httpClient {
	c := &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		timeout: DefaultTimeout,
		headers: map[string]string{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// getJSON performs one rate-limited GET bounded by the client timeout.
// Every failure, including the timeout, is reported as UpstreamUnavailable.
func (c *httpClient) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return apperrors.Wrap(apperrors.ErrUpstreamUnavailable, fmt.Errorf("rate limit wait: %w", err))
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "portfolio-valuation/1.0")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrUpstreamUnavailable, fmt.Errorf("request %s: %w", path, err))
	}
	defer resp.Body.Close()

	c.logger.Debug("Quote provider responded",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperrors.Wrap(apperrors.ErrUpstreamUnavailable, &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   path,
		})
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(apperrors.ErrUpstreamUnavailable, fmt.Errorf("decode %s: %w", path, err))
	}
	return nil
}
