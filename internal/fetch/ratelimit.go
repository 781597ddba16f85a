package fetch

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter spaces out requests per domain so a crawl cannot hammer a
// single host regardless of batch concurrency.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	delay    time.Duration
}

// NewRateLimiter creates a rate limiter with the given default per-domain delay.
func NewRateLimiter(defaultDelay time.Duration) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		delay:    defaultDelay,
	}
}

// Wait blocks until a request to the given URL's domain may proceed.
func (r *RateLimiter) Wait(ctx context.Context, urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return err
	}
	return r.getLimiter(parsed.Host).Wait(ctx)
}

// SetDomainDelay overrides the delay for one domain, e.g. from a
// robots.txt crawl-delay directive.
func (r *RateLimiter) SetDomainDelay(domain string, delay time.Duration) {
	if delay <= 0 {
		delay = r.delay
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.limiters[domain] = rate.NewLimiter(rate.Every(delay), 1)
}

func (r *RateLimiter) getLimiter(domain string) *rate.Limiter {
	r.mu.RLock()
	limiter, exists := r.limiters[domain]
	r.mu.RUnlock()

	if exists {
		return limiter
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Check again in case another goroutine created it
	if limiter, exists := r.limiters[domain]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(rate.Every(r.delay), 1)
	r.limiters[domain] = limiter
	return limiter
}
