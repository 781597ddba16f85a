package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxBodyBytes = 10 << 20 // 10 MB, oversized pages are truncated

// Client is the HTTP implementation of Fetcher. It shares a connection
// pool across requests and applies a per-domain rate limiter before
// every request.
type Client struct {
	client    *http.Client
	userAgent string
	limiter   *RateLimiter
}

// NewClient creates an HTTP fetcher. The limiter may be nil to disable
// per-domain rate limiting (tests).
func NewClient(userAgent string, timeout time.Duration, limiter *RateLimiter) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		userAgent: userAgent,
		limiter:   limiter,
	}
}

// Fetch performs a GET request and returns the body. Network failures,
// timeouts and non-2xx statuses all surface as *Error.
func (c *Client) Fetch(ctx context.Context, url string) (*Result, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, url); err != nil {
			return nil, &Error{URL: url, Reason: "rate limit wait", Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{URL: url, Reason: "invalid request", Err: err}
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &Error{URL: url, Reason: "request failed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{URL: url, Reason: fmt.Sprintf("status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{URL: url, Reason: "read body", Err: err}
	}

	return &Result{
		URL:         resp.Request.URL.String(),
		HTML:        body,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		FetchedAt:   time.Now().UTC(),
	}, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.client.CloseIdleConnections()
}
