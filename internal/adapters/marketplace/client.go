// Package marketplace acquires raw candidate listings from the marketplace
// search page. The client only promises the raw fields of a candidate;
// normalization and filtering belong to the domain layer.
package marketplace

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kitforge/kitforge/internal/domain/model"
	"github.com/kitforge/kitforge/pkg/logger"
	"github.com/kitforge/kitforge/pkg/metrics"
)

// Default client configuration.
const (
	defaultBaseURL     = "https://www.amazon.com"
	defaultTimeout     = 15 * time.Second
	defaultMaxAttempts = 3
	defaultBaseDelay   = 500 * time.Millisecond
	defaultUserAgent   = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// Client fetches and parses marketplace search result pages.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	maxAttempts int
	baseDelay   time.Duration
	userAgent   string
	logger      logger.Logger
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL sets the marketplace origin, e.g. "https://www.amazon.com".
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.baseURL = base
		}
	}
}

// WithHTTPClient injects the HTTP client; tests pass one bound to a
// httptest server.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRetry sets the attempt cap and initial backoff delay for transient
// failures.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(c *Client) {
		if maxAttempts > 0 {
			c.maxAttempts = maxAttempts
		}
		if baseDelay > 0 {
			c.baseDelay = baseDelay
		}
	}
}

// WithUserAgent sets the User-Agent header for search requests.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a marketplace client with configuration options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		userAgent:   defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("marketplace")
	}
	return c
}

// Search returns the raw candidates on one search result page. Transient
// failures (network errors, 429, 5xx) are retried with exponential backoff
// up to the attempt cap; the caller decides whether to paginate further.
func (c *Client) Search(ctx context.Context, query string, page int) ([]model.Candidate, error) {
	target, err := c.searchURL(query, page)
	if err != nil {
		return nil, err
	}

	var lastErr error
	delay := c.baseDelay
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		candidates, err := c.fetch(ctx, target)
		if err == nil {
			metrics.RecordListingsFetched(len(candidates))
			return candidates, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
		if attempt < c.maxAttempts {
			c.logger.Warn(ctx, "search attempt failed, backing off",
				logger.String("query", query),
				logger.Int("attempt", attempt),
				logger.Error(err),
			)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("search cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}
	}
	metrics.RecordAcquisitionError()
	return nil, fmt.Errorf("search %q page %d: %w", query, page, lastErr)
}

// searchURL builds the search page URL for a query.
func (c *Client) searchURL(query string, page int) (string, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadBaseURL, err)
	}
	base.Path = "/s"
	q := url.Values{}
	q.Set("k", query)
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	base.RawQuery = q.Encode()
	return base.String(), nil
}

// fetch performs one GET and parses the response body.
func (c *Client) fetch(ctx context.Context, target string) ([]model.Candidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: status %d", ErrTransient, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamStatus, resp.StatusCode)
	}

	return parseSearchPage(resp.Body, c.baseURL)
}

// retryable reports whether an error is worth another attempt.
func retryable(err error) bool {
	return errors.Is(err, ErrTransient)
}
