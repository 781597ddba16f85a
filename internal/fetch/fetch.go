// Package fetch retrieves raw HTML for the crawl pipeline. The pipeline
// never talks to the network directly; it goes through the Fetcher
// interface so any transport (HTTP client, extension proxy, test fake)
// can satisfy the contract.
package fetch

import (
	"context"
	"fmt"
	"time"
)

// Fetcher is the privileged fetch boundary.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Result, error)
}

// Result holds the raw HTML of one successfully fetched page.
type Result struct {
	URL         string    // Final URL after redirects
	HTML        []byte    // Response body
	StatusCode  int       // HTTP status code
	ContentType string    // HTTP Content-Type header
	FetchedAt   time.Time // Timestamp when fetched (UTC)
}

// Error reports a failed fetch. A fetch error is always per-link: callers
// skip the link and continue.
type Error struct {
	URL    string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }
