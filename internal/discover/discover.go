// Package discover aggregates candidate support-page URLs from four
// independent sources: in-page navigation links, sitemap XML, robots.txt,
// and a generated list of common support paths. Every source failure is
// per-source and non-fatal.
package discover

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hmizuno/helpmapper/internal/classify"
	"github.com/hmizuno/helpmapper/internal/fetch"
)

// Source identifies which producer discovered a candidate.
type Source string

const (
	SourceNavigation Source = "navigation"
	SourceSitemap    Source = "sitemap"
	SourceRobots     Source = "robots"
	SourceGenerated  Source = "generated"
)

// Candidate is a URL discovered as potentially support-related, not yet
// fetched. Uniqueness is by URL within one discovery run.
type Candidate struct {
	URL        string
	AnchorText string
	Source     Source
	Category   classify.Category
	Location   string // DOM region (header/nav/footer/body), navigation only
}

// DefaultPathPatterns is the generated-candidate path list. These are
// emitted without existence checks; fetch success establishes existence.
func DefaultPathPatterns() []string {
	return []string{
		"/help", "/support", "/faq", "/docs", "/documentation",
		"/knowledge-base", "/kb", "/customer-service", "/terms", "/privacy",
		"/refund", "/cancellation", "/billing", "/contact",
		"/about/support", "/help-center", "/support-center",
	}
}

// Discoverer runs the four producers and merges their output.
type Discoverer struct {
	fetcher    fetch.Fetcher
	classifier *classify.Classifier
	patterns   []string
}

// New creates a discoverer. An empty pattern list falls back to the default.
func New(fetcher fetch.Fetcher, classifier *classify.Classifier, patterns []string) *Discoverer {
	if len(patterns) == 0 {
		patterns = DefaultPathPatterns()
	}
	return &Discoverer{
		fetcher:    fetcher,
		classifier: classifier,
		patterns:   patterns,
	}
}

// Discover produces the merged candidate sequence for one site. Order is
// producer order (navigation, sitemap, robots, generated), then discovery
// order within each producer; duplicate URLs keep their first occurrence.
func (d *Discoverer) Discover(ctx context.Context, origin, currentURL string, pageHTML []byte) []Candidate {
	robots := d.fetchRobots(ctx, origin)

	var candidates []Candidate
	candidates = append(candidates, d.scanNavigation(pageHTML, origin, currentURL)...)

	sitemapURLs := []string{origin + "/sitemap.xml", origin + "/sitemap_index.xml"}
	sitemapURLs = append(sitemapURLs, robots.Sitemaps...)
	candidates = append(candidates, d.scanSitemaps(ctx, sitemapURLs)...)

	candidates = append(candidates, d.robotsCandidates(origin, robots)...)
	candidates = append(candidates, d.generated(origin)...)

	merged := dedupe(candidates)
	slog.Debug("Discovery finished", "origin", origin, "raw", len(candidates), "merged", len(merged))
	return merged
}

// PageLinks scans a crawled page's HTML for further support-related
// links, used for follow-up crawl generations beyond the seed discovery.
func (d *Discoverer) PageLinks(pageHTML []byte, origin, currentURL string) []Candidate {
	return d.scanNavigation(pageHTML, origin, currentURL)
}

// generated emits origin+pattern for every configured path. Generated
// candidates are relevance-exempt by construction.
func (d *Discoverer) generated(origin string) []Candidate {
	candidates := make([]Candidate, 0, len(d.patterns))
	for _, pattern := range d.patterns {
		if !strings.HasPrefix(pattern, "/") {
			pattern = "/" + pattern
		}
		url := origin + pattern
		candidates = append(candidates, Candidate{
			URL:      url,
			Source:   SourceGenerated,
			Category: d.classifier.Categorize(url, ""),
		})
	}
	return candidates
}

// dedupe removes duplicate URLs keeping the first occurrence.
func dedupe(candidates []Candidate) []Candidate {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, dup := seen[c.URL]; dup {
			continue
		}
		seen[c.URL] = struct{}{}
		out = append(out, c)
	}
	return out
}
