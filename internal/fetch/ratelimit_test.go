package fetch

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(100 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()

	// First request should be immediate
	if err := limiter.Wait(ctx, "https://example.com/page1"); err != nil {
		t.Errorf("First request failed: %v", err)
	}

	// Second request to the same domain should wait
	if err := limiter.Wait(ctx, "https://example.com/page2"); err != nil {
		t.Errorf("Second request failed: %v", err)
	}

	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("Rate limiting not working, elapsed time: %v", elapsed)
	}

	// Different domain should not be rate limited
	start2 := time.Now()
	if err := limiter.Wait(ctx, "https://other.com/page1"); err != nil {
		t.Errorf("Different domain request failed: %v", err)
	}
	if elapsed := time.Since(start2); elapsed > 50*time.Millisecond {
		t.Errorf("Different domain was rate limited, elapsed time: %v", elapsed)
	}
}

func TestRateLimiterDomainDelay(t *testing.T) {
	limiter := NewRateLimiter(10 * time.Millisecond)
	limiter.SetDomainDelay("slow.example.com", 200*time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	if err := limiter.Wait(ctx, "https://slow.example.com/a"); err != nil {
		t.Fatalf("First request failed: %v", err)
	}
	if err := limiter.Wait(ctx, "https://slow.example.com/b"); err != nil {
		t.Fatalf("Second request failed: %v", err)
	}

	if elapsed := time.Since(start); elapsed < 200*time.Millisecond {
		t.Errorf("Custom delay not applied, elapsed time: %v", elapsed)
	}
}

func TestRateLimiterContextCancel(t *testing.T) {
	limiter := NewRateLimiter(5 * time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// Consume the initial token
	if err := limiter.Wait(context.Background(), "https://example.com/a"); err != nil {
		t.Fatalf("First request failed: %v", err)
	}

	if err := limiter.Wait(ctx, "https://example.com/b"); err == nil {
		t.Error("Expected error when context expires before the delay")
	}
}
