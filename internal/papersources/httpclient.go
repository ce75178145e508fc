package papersources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/helixir/paper-retrieval-service/internal/domain"
)

// HTTPClientConfig configures the shared per-source HTTP client.
type HTTPClientConfig struct {
	// Source is the source name reported in classified errors.
	Source string

	// Timeout is the request timeout for HTTP operations.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxRetries is the maximum number of retry attempts. Zero means the
	// default; negative disables retries entirely.
	MaxRetries int

	// RetryDelay is the base delay between retries.
	RetryDelay time.Duration

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// APIKey is an optional API key for authentication.
	APIKey string

	// APIKeyHeader is the header name for the API key (e.g., "X-API-Key",
	// "Authorization").
	APIKeyHeader string
}

// HTTPClient wraps http.Client with per-source rate limiting and bounded
// retries. It is safe for concurrent use.
type HTTPClient struct {
	client      *http.Client
	rateLimiter *RateLimiter
	config      HTTPClientConfig
}

// NewHTTPClient creates an HTTP client with rate limiting. Zero config
// fields get conservative defaults.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 10
	}
	if cfg.BurstSize == 0 {
		cfg.BurstSize = 10
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Helixir-PaperRetrieval/1.0"
	}

	return &HTTPClient{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: NewRateLimiter(cfg.RateLimit, cfg.BurstSize),
		config:      cfg,
	}
}

// Do executes one API request. It waits for the per-source rate limiter
// before each attempt, sets the User-Agent and optional API key headers, and
// retries 429 and 5xx responses as well as network errors. A Retry-After
// header is honored when present; a 429 without one throttles the source's
// sustained rate before retrying.
//
// When the retry budget runs out the returned error carries the failure-kind
// sentinel (domain.ErrRateLimited or domain.ErrTransient) so the hunt
// coordinator can classify the failure without seeing a status code. On a
// rate limit the error also carries the upstream's Retry-After hint.
//
// The request body is not preserved across retries; callers must provide
// requests with GetBody set if the body needs to be resent on retry.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	if c.config.APIKey != "" && c.config.APIKeyHeader != "" {
		req.Header.Set(c.config.APIKeyHeader, c.config.APIKey)
	}

	for attempt := 0; ; attempt++ {
		if err := c.rateLimiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			terminal := domain.NewExternalAPIError(c.source(), 0, err.Error(), domain.ErrTransient)
			if attempt >= c.config.MaxRetries {
				return nil, terminal
			}
			if err := c.prepareRetry(req, c.config.RetryDelay); err != nil {
				return nil, err
			}
			continue
		}

		if !retryableStatus(resp.StatusCode) {
			return resp, nil
		}

		hint := retryAfterHint(resp)
		drainBody(resp)

		var terminal error
		delay := hint
		if resp.StatusCode == http.StatusTooManyRequests {
			terminal = domain.NewRateLimitError(c.source(), hint)
			if hint == 0 {
				// No hint from the upstream; back the whole source off.
				c.rateLimiter.Throttle()
				delay = c.config.RetryDelay
			}
		} else {
			terminal = domain.NewExternalAPIError(c.source(), resp.StatusCode, "server error", domain.ErrTransient)
			if delay == 0 {
				delay = c.config.RetryDelay
			}
		}

		if attempt >= c.config.MaxRetries {
			return nil, terminal
		}
		if err := c.prepareRetry(req, delay); err != nil {
			return nil, err
		}
	}
}

// source names this client in classified errors.
func (c *HTTPClient) source() string {
	if c.config.Source != "" {
		return c.config.Source
	}
	return "upstream"
}

// prepareRetry waits out the delay and rewinds the request body for the next
// attempt.
func (c *HTTPClient) prepareRetry(req *http.Request, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-req.Context().Done():
		return req.Context().Err()
	case <-timer.C:
	}

	if req.Body == nil || req.GetBody == nil {
		return nil
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Errorf("rewinding request body for retry: %w", err)
	}
	req.Body = body
	return nil
}

// retryableStatus reports whether a status code is worth another attempt:
// 429 and the 5xx range.
func retryableStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests ||
		(statusCode >= 500 && statusCode < 600)
}

// retryAfterHint parses the Retry-After header, accepting both the
// delay-seconds and HTTP-date forms. Zero means no usable hint.
func retryAfterHint(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}

	if seconds, err := strconv.ParseInt(header, 10, 64); err == nil {
		if seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
		return 0
	}

	if at, err := http.ParseTime(header); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}

	return 0
}

// drainBody releases a response's connection before a retry.
func drainBody(resp *http.Response) {
	if resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
