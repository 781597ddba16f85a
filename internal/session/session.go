// Package session drives one end-to-end analysis run: discovery, batched
// crawling and aggregation. A session owns its visited set and results
// exclusively; nothing is shared across concurrent runs.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hmizuno/helpmapper/internal/aggregate"
	"github.com/hmizuno/helpmapper/internal/classify"
	"github.com/hmizuno/helpmapper/internal/config"
	"github.com/hmizuno/helpmapper/internal/discover"
	"github.com/hmizuno/helpmapper/internal/extract"
	"github.com/hmizuno/helpmapper/internal/fetch"
)

// ErrNoStartPage is the only session-fatal error: without a usable
// starting page context there is nothing to analyze.
var ErrNoStartPage = errors.New("no start page context")

// State tracks the session lifecycle.
type State string

const (
	StateIdle        State = "idle"
	StateDiscovering State = "discovering"
	StateCrawling    State = "crawling"
	StateAggregating State = "aggregating"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// StartPage is the context the analysis starts from. HTML may carry the
// page body already rendered in the caller's context; when empty the
// session fetches the URL itself.
type StartPage struct {
	URL  string
	HTML []byte
}

// Stats summarizes one run.
type Stats struct {
	PagesAnalyzed int            `json:"pagesAnalyzed"`
	PagesFailed   int            `json:"pagesFailed"`
	Batches       int            `json:"batches"`
	ContentTypes  map[string]int `json:"contentTypes"` // pages per category
	Timestamp     time.Time      `json:"timestamp"`
	Duration      time.Duration  `json:"duration"`
}

// Result is the analysis output. A run that found nothing still returns a
// well-formed result with empty sections, never an error.
type Result struct {
	SessionID       string                                        `json:"sessionId"`
	Domain          string                                        `json:"domain"`
	CurrentPage     *aggregate.Page                               `json:"currentPage,omitempty"`
	SupportSections map[classify.Category][]aggregate.PageSummary `json:"supportSections"`
	Actionable      *aggregate.Actionable                         `json:"actionableInfo"`
	Stats           Stats                                         `json:"crawlStats"`
	Aborted         bool                                          `json:"aborted,omitempty"`
}

// Session coordinates one analysis run.
type Session struct {
	id         string
	cfg        *config.Config
	fetcher    fetch.Fetcher
	classifier *classify.Classifier
	discoverer *discover.Discoverer
	extractor  *extract.Extractor

	mu         sync.Mutex
	state      State
	visited    map[string]struct{}
	byCategory map[classify.Category][]*aggregate.Page
	attempted  int // fetches issued, counts toward the MaxPages cap
	failed     int
	batches    int
}

// New creates a session ready to run. The fetcher is the privileged fetch
// boundary; tests pass fakes.
func New(cfg *config.Config, fetcher fetch.Fetcher) *Session {
	classifier := classify.NewClassifier(cfg.SupportKeywords, cfg.CategoryRules)
	return &Session{
		id:         uuid.NewString(),
		cfg:        cfg,
		fetcher:    fetcher,
		classifier: classifier,
		discoverer: discover.New(fetcher, classifier, cfg.PathPatterns),
		extractor:  extract.NewExtractor(cfg.MinParagraphLen),
		state:      StateIdle,
		visited:    make(map[string]struct{}),
		byCategory: make(map[classify.Category][]*aggregate.Page),
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	slog.Debug("Session state change", "session_id", s.id, "state", state)
}

// Run executes discovery, crawl and aggregation for one start page.
// Per-link and per-source failures degrade the result; only a missing or
// unreachable start context fails the session. On context cancellation
// the current batch drains and whatever has been aggregated is returned
// with Aborted set.
func (s *Session) Run(ctx context.Context, start StartPage) (*Result, error) {
	started := time.Now()

	if start.URL == "" {
		s.setState(StateFailed)
		return nil, ErrNoStartPage
	}

	origin, err := classify.Origin(start.URL)
	if err != nil {
		s.setState(StateFailed)
		return nil, fmt.Errorf("%w: %v", ErrNoStartPage, err)
	}

	pageHTML := start.HTML
	if len(pageHTML) == 0 {
		res, err := s.fetcher.Fetch(ctx, start.URL)
		if err != nil {
			s.setState(StateFailed)
			return nil, fmt.Errorf("%w: start page unreachable: %v", ErrNoStartPage, err)
		}
		pageHTML = res.HTML
	}

	currentPage := &aggregate.Page{
		URL:       start.URL,
		Category:  s.classifier.Categorize(start.URL, ""),
		Content:   s.extractor.Extract(pageHTML),
		FetchedAt: time.Now().UTC(),
	}

	s.setState(StateDiscovering)
	candidates := s.discoverer.Discover(ctx, origin, start.URL, pageHTML)
	slog.Info("Discovery complete", "session_id", s.id, "origin", origin, "candidates", len(candidates))

	s.setState(StateCrawling)
	s.crawl(ctx, origin, candidates)

	s.setState(StateAggregating)
	result := s.buildResult(origin, currentPage, started, ctx.Err() != nil)

	s.setState(StateDone)
	slog.Info("Session complete", "session_id", s.id,
		"pages", result.Stats.PagesAnalyzed, "failed", result.Stats.PagesFailed,
		"batches", result.Stats.Batches, "duration", result.Stats.Duration)
	return result, nil
}

// crawl processes candidate generations up to MaxDepth. Generation one is
// the seed discovery; later generations come from links found inside
// crawled pages.
func (s *Session) crawl(ctx context.Context, origin string, candidates []discover.Candidate) {
	queue := candidates
	for depth := 1; depth <= s.cfg.MaxDepth && len(queue) > 0; depth++ {
		if ctx.Err() != nil {
			return
		}
		followUp := depth < s.cfg.MaxDepth
		queue = s.crawlGeneration(ctx, origin, queue, followUp)
	}
}

// crawlGeneration runs one generation in fixed-size batches. Within a
// batch fetch+extract run concurrently; the batch is awaited as a whole
// and the inter-batch delay applies between batches only.
func (s *Session) crawlGeneration(ctx context.Context, origin string, queue []discover.Candidate, followUp bool) []discover.Candidate {
	var next []discover.Candidate
	firstBatch := true

	for len(queue) > 0 {
		batch := s.takeBatch(&queue)
		if len(batch) == 0 {
			return next
		}

		if !firstBatch {
			if !s.interBatchDelay(ctx) {
				return next
			}
		}
		firstBatch = false

		pages := make([]*aggregate.Page, len(batch))
		links := make([][]discover.Candidate, len(batch))

		g, gctx := errgroup.WithContext(ctx)
		for i, cand := range batch {
			i, cand := i, cand
			g.Go(func() error {
				pages[i], links[i] = s.fetchAndExtract(gctx, origin, cand, followUp)
				return nil
			})
		}
		_ = g.Wait() // per-link failures never surface as group errors

		s.mu.Lock()
		s.batches++
		for _, page := range pages {
			if page == nil {
				continue
			}
			s.byCategory[page.Category] = append(s.byCategory[page.Category], page)
		}
		s.mu.Unlock()

		for _, found := range links {
			next = append(next, found...)
		}

		if ctx.Err() != nil {
			return next
		}
	}

	return next
}

// takeBatch pops up to BatchSize unvisited candidates off the queue.
// Visited URLs are skipped without consuming fetch capacity, and every
// selected URL is marked visited up front so failures are not retried.
func (s *Session) takeBatch(queue *[]discover.Candidate) []discover.Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()

	var batch []discover.Candidate
	q := *queue
	for len(q) > 0 && len(batch) < s.cfg.BatchSize {
		if s.cfg.MaxPages > 0 && s.attempted >= s.cfg.MaxPages {
			q = nil
			break
		}

		cand := q[0]
		q = q[1:]

		if _, seen := s.visited[cand.URL]; seen {
			continue
		}
		s.visited[cand.URL] = struct{}{}
		s.attempted++
		batch = append(batch, cand)
	}

	*queue = q
	return batch
}

// interBatchDelay pauses between batches. Returns false if the context
// was cancelled during the pause.
func (s *Session) interBatchDelay(ctx context.Context) bool {
	if s.cfg.BatchDelay <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(s.cfg.BatchDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// fetchAndExtract handles one candidate. Any failure logs, counts and
// yields a nil page; the URL stays visited so it is not retried.
func (s *Session) fetchAndExtract(ctx context.Context, origin string, cand discover.Candidate, followUp bool) (*aggregate.Page, []discover.Candidate) {
	res, err := s.fetcher.Fetch(ctx, cand.URL)
	if err != nil {
		slog.Warn("Fetch failed", "session_id", s.id, "url", cand.URL, "error", err)
		s.mu.Lock()
		s.failed++
		s.mu.Unlock()
		return nil, nil
	}

	page := &aggregate.Page{
		URL:            cand.URL,
		Category:       cand.Category,
		Content:        s.extractor.Extract(res.HTML),
		FetchedAt:      res.FetchedAt,
		SourceLinkText: cand.AnchorText,
	}

	var links []discover.Candidate
	if followUp {
		links = s.discoverer.PageLinks(res.HTML, origin, cand.URL)
	}

	return page, links
}

// buildResult aggregates everything collected so far into the consumer
// result shape.
func (s *Session) buildResult(origin string, currentPage *aggregate.Page, started time.Time, aborted bool) *Result {
	s.mu.Lock()
	byCategory := s.byCategory
	failed := s.failed
	batches := s.batches
	s.mu.Unlock()

	contentTypes := make(map[string]int, len(byCategory))
	analyzed := 0
	for category, pages := range byCategory {
		contentTypes[string(category)] = len(pages)
		analyzed += len(pages)
	}

	return &Result{
		SessionID:       s.id,
		Domain:          origin,
		CurrentPage:     currentPage,
		SupportSections: aggregate.Structure(byCategory),
		Actionable:      aggregate.ExtractActionable(byCategory, s.cfg.DomainKeywords),
		Aborted:         aborted,
		Stats: Stats{
			PagesAnalyzed: analyzed,
			PagesFailed:   failed,
			Batches:       batches,
			ContentTypes:  contentTypes,
			Timestamp:     time.Now().UTC(),
			Duration:      time.Since(started),
		},
	}
}
