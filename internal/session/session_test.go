package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hmizuno/helpmapper/internal/classify"
	"github.com/hmizuno/helpmapper/internal/config"
	"github.com/hmizuno/helpmapper/internal/discover"
	"github.com/hmizuno/helpmapper/internal/fetch"
)

// fakeFetcher serves canned bodies and records request concurrency.
type fakeFetcher struct {
	mu          sync.Mutex
	pages       map[string]string
	fetched     []string
	inFlight    int
	maxInFlight int
	delay       time.Duration
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*fetch.Result, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, url)
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
		}
	}

	f.mu.Lock()
	f.inFlight--
	body, ok := f.pages[url]
	f.mu.Unlock()

	if ctx.Err() != nil {
		return nil, &fetch.Error{URL: url, Reason: "cancelled", Err: ctx.Err()}
	}
	if !ok {
		return nil, &fetch.Error{URL: url, Reason: "status 404"}
	}
	return &fetch.Result{URL: url, HTML: []byte(body), StatusCode: 200, FetchedAt: time.Now().UTC()}, nil
}

func (f *fakeFetcher) count(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, u := range f.fetched {
		if u == url {
			n++
		}
	}
	return n
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.BatchDelay = 10 * time.Millisecond
	cfg.RequestDelay = 0
	return cfg
}

func candidates(urls ...string) []discover.Candidate {
	out := make([]discover.Candidate, len(urls))
	for i, u := range urls {
		out[i] = discover.Candidate{URL: u, Source: discover.SourceGenerated, Category: classify.CategoryGeneral}
	}
	return out
}

func supportPage(title string) string {
	return fmt.Sprintf(`<html><head><title>%s</title></head><body>
		<p>This paragraph is long enough to count as real page content.</p>
	</body></html>`, title)
}

func TestRunNoStartPage(t *testing.T) {
	s := New(testConfig(), &fakeFetcher{})

	_, err := s.Run(context.Background(), StartPage{})
	if !errors.Is(err, ErrNoStartPage) {
		t.Fatalf("Expected ErrNoStartPage, got %v", err)
	}
	if s.State() != StateFailed {
		t.Errorf("Expected failed state, got %s", s.State())
	}
}

func TestRunEndToEnd(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://example.com/": `<html><body>
			<nav><a href="/faq">FAQ</a></nav>
			<a href="/refund-policy">Refund Policy</a>
		</body></html>`,
		"https://example.com/faq":           supportPage("FAQ"),
		"https://example.com/refund-policy": supportPage("Refunds"),
		"https://example.com/contact":       supportPage("Contact"),
	}}

	s := New(testConfig(), f)
	result, err := s.Run(context.Background(), StartPage{URL: "https://example.com/"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if s.State() != StateDone {
		t.Errorf("Expected done state, got %s", s.State())
	}
	if result.Domain != "https://example.com" {
		t.Errorf("Unexpected domain: %s", result.Domain)
	}
	if result.SessionID == "" {
		t.Error("Expected a session ID")
	}
	if result.CurrentPage == nil {
		t.Fatal("Expected current page")
	}

	// faq, refund-policy and contact resolve; the other generated
	// candidates 404 and degrade silently.
	if result.Stats.PagesAnalyzed != 3 {
		t.Errorf("Expected 3 pages analyzed, got %d", result.Stats.PagesAnalyzed)
	}
	if result.Stats.PagesFailed == 0 {
		t.Error("Expected failed fetches from generated candidates")
	}

	if len(result.SupportSections[classify.CategoryFAQ]) != 1 {
		t.Errorf("Expected 1 faq page, got %+v", result.SupportSections[classify.CategoryFAQ])
	}
	if len(result.SupportSections[classify.CategoryRefund]) != 1 {
		t.Errorf("Expected 1 refund page, got %+v", result.SupportSections[classify.CategoryRefund])
	}
	if result.Stats.ContentTypes["faq"] != 1 {
		t.Errorf("Unexpected content types: %v", result.Stats.ContentTypes)
	}
	if result.Actionable == nil {
		t.Error("Expected actionable record")
	}
}

func TestRunStartPageUnreachable(t *testing.T) {
	s := New(testConfig(), &fakeFetcher{})

	_, err := s.Run(context.Background(), StartPage{URL: "https://down.example.com/"})
	if !errors.Is(err, ErrNoStartPage) {
		t.Fatalf("Expected ErrNoStartPage, got %v", err)
	}
}

func TestCrawlConcurrencyCeiling(t *testing.T) {
	pages := map[string]string{}
	var urls []string
	for i := 0; i < 10; i++ {
		u := fmt.Sprintf("https://example.com/help/page-%d", i)
		pages[u] = supportPage("page")
		urls = append(urls, u)
	}

	f := &fakeFetcher{pages: pages, delay: 20 * time.Millisecond}
	cfg := testConfig()
	cfg.BatchDelay = 0
	s := New(cfg, f)

	s.crawl(context.Background(), "https://example.com", candidates(urls...))

	if f.maxInFlight > cfg.BatchSize {
		t.Errorf("Concurrency ceiling exceeded: %d > %d", f.maxInFlight, cfg.BatchSize)
	}
}

func TestCrawlNeverRefetchesVisited(t *testing.T) {
	url := "https://example.com/help"
	f := &fakeFetcher{pages: map[string]string{url: supportPage("Help")}}
	s := New(testConfig(), f)

	cands := candidates(url, url, url)
	s.crawl(context.Background(), "https://example.com", cands)
	s.crawl(context.Background(), "https://example.com", cands)

	if n := f.count(url); n != 1 {
		t.Errorf("Expected exactly 1 fetch, got %d", n)
	}
}

func TestCrawlBatchingAndDelay(t *testing.T) {
	pages := map[string]string{}
	var urls []string
	for i := 0; i < 5; i++ {
		u := fmt.Sprintf("https://example.com/help/page-%d", i)
		pages[u] = supportPage("page")
		urls = append(urls, u)
	}

	cfg := testConfig()
	cfg.BatchDelay = 100 * time.Millisecond
	f := &fakeFetcher{pages: pages}
	s := New(cfg, f)

	start := time.Now()
	s.crawl(context.Background(), "https://example.com", candidates(urls...))
	elapsed := time.Since(start)

	// 5 links at concurrency 3: two batches, exactly one inter-batch delay.
	if s.batches != 2 {
		t.Errorf("Expected 2 batches, got %d", s.batches)
	}
	if elapsed < 100*time.Millisecond {
		t.Errorf("Inter-batch delay not applied, elapsed %v", elapsed)
	}
	if elapsed > 300*time.Millisecond {
		t.Errorf("Too many delays applied, elapsed %v", elapsed)
	}
}

func TestCrawlFetchErrorDoesNotBlockBatch(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://example.com/help":    supportPage("Help"),
		"https://example.com/contact": supportPage("Contact"),
	}}
	s := New(testConfig(), f)

	s.crawl(context.Background(), "https://example.com",
		candidates("https://example.com/help", "https://example.com/broken", "https://example.com/contact"))

	s.mu.Lock()
	analyzed := 0
	for _, pages := range s.byCategory {
		analyzed += len(pages)
	}
	failed := s.failed
	s.mu.Unlock()

	if analyzed != 2 {
		t.Errorf("Expected 2 pages despite one failure, got %d", analyzed)
	}
	if failed != 1 {
		t.Errorf("Expected 1 failure, got %d", failed)
	}
}

func TestCrawlMaxPagesCap(t *testing.T) {
	pages := map[string]string{}
	var urls []string
	for i := 0; i < 20; i++ {
		u := fmt.Sprintf("https://example.com/help/page-%d", i)
		pages[u] = supportPage("page")
		urls = append(urls, u)
	}

	cfg := testConfig()
	cfg.MaxPages = 5
	f := &fakeFetcher{pages: pages}
	s := New(cfg, f)

	s.crawl(context.Background(), "https://example.com", candidates(urls...))

	f.mu.Lock()
	fetched := len(f.fetched)
	f.mu.Unlock()
	if fetched != 5 {
		t.Errorf("Expected 5 fetches under cap, got %d", fetched)
	}
}

func TestCrawlOrderFollowsDiscoveryOrder(t *testing.T) {
	pages := map[string]string{}
	var urls []string
	for i := 0; i < 6; i++ {
		u := fmt.Sprintf("https://example.com/help/page-%d", i)
		pages[u] = supportPage("page")
		urls = append(urls, u)
	}

	// Later pages respond faster than earlier ones would, but output
	// order still follows discovery order.
	f := &fakeFetcher{pages: pages, delay: 5 * time.Millisecond}
	cfg := testConfig()
	cfg.BatchDelay = 0
	s := New(cfg, f)

	s.crawl(context.Background(), "https://example.com", candidates(urls...))

	got := s.byCategory[classify.CategoryGeneral]
	if len(got) != 6 {
		t.Fatalf("Expected 6 pages, got %d", len(got))
	}
	for i, page := range got {
		if !strings.HasSuffix(page.URL, fmt.Sprintf("page-%d", i)) {
			t.Errorf("Position %d holds %s, order not deterministic", i, page.URL)
		}
	}
}

func TestCrawlFollowUpDepth(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://example.com/help": `<html><body>
			<p>Long enough paragraph describing the available support topics.</p>
			<a href="/help/cancel-subscription">How to cancel</a>
		</body></html>`,
		"https://example.com/help/cancel-subscription": supportPage("Cancel"),
	}}

	cfg := testConfig()
	cfg.MaxDepth = 2
	s := New(cfg, f)

	s.crawl(context.Background(), "https://example.com", candidates("https://example.com/help"))

	if f.count("https://example.com/help/cancel-subscription") != 1 {
		t.Error("Depth 2 crawl did not follow the in-page support link")
	}

	// Depth 1 must not follow in-page links.
	f2 := &fakeFetcher{pages: f.pages}
	s2 := New(testConfig(), f2)
	s2.crawl(context.Background(), "https://example.com", candidates("https://example.com/help"))
	if f2.count("https://example.com/help/cancel-subscription") != 0 {
		t.Error("Depth 1 crawl followed an in-page link")
	}
}

func TestRunCancellationReturnsPartialResult(t *testing.T) {
	pages := map[string]string{
		"https://example.com/": `<html><body><a href="/faq">FAQ</a></body></html>`,
	}
	for _, p := range discover.DefaultPathPatterns() {
		pages["https://example.com"+p] = supportPage("page")
	}

	cfg := testConfig()
	cfg.BatchDelay = 200 * time.Millisecond
	f := &fakeFetcher{pages: pages}
	s := New(cfg, f)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	result, err := s.Run(ctx, StartPage{URL: "https://example.com/"})
	if err != nil {
		t.Fatalf("Cancellation must not fail the session: %v", err)
	}
	if !result.Aborted {
		t.Error("Expected aborted result")
	}
	if result.Stats.PagesAnalyzed == 0 {
		t.Error("Expected partial results from the first batch")
	}
	if s.State() != StateDone {
		t.Errorf("Expected done state after abort, got %s", s.State())
	}
}
