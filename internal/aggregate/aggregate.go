// Package aggregate turns crawled pages into the per-category summaries
// and the actionable record consumers read. Everything here is keyword
// pattern matching over already-extracted text; there is no inference and
// ambiguous lines may be mis-bucketed.
package aggregate

import (
	"strings"
	"time"

	"github.com/hmizuno/helpmapper/internal/classify"
	"github.com/hmizuno/helpmapper/internal/extract"
)

// Page is one successfully crawled and extracted support page. Pages are
// immutable after creation and live for one session.
type Page struct {
	URL            string           `json:"url"`
	Category       classify.Category `json:"category"`
	Content        *extract.Content `json:"content"`
	FetchedAt      time.Time        `json:"fetchedAt"`
	SourceLinkText string           `json:"sourceLinkText,omitempty"`
}

// PageSummary is the projection of one page used in the analysis result.
type PageSummary struct {
	URL         string            `json:"url"`
	Title       string            `json:"title"`
	Sections    []extract.Section `json:"sections,omitempty"`
	Policies    []string          `json:"policies,omitempty"`
	Procedures  []string          `json:"procedures,omitempty"`
	Contact     extract.Contact   `json:"contact"`
	LastUpdated time.Time         `json:"lastUpdated"`
}

var (
	policyKeywords    = []string{"policy", "policies", "terms", "agreement", "non-refundable", "eligible"}
	procedureKeywords = []string{"how to", "step", "follow", "procedure", "instructions", "to cancel", "to request"}
)

// Structure projects each crawled page into a summary, grouped by the
// category assigned at discovery time. Input order is preserved.
func Structure(byCategory map[classify.Category][]*Page) map[classify.Category][]PageSummary {
	out := make(map[classify.Category][]PageSummary, len(byCategory))

	for category, pages := range byCategory {
		summaries := make([]PageSummary, 0, len(pages))
		for _, page := range pages {
			summaries = append(summaries, summarize(page))
		}
		out[category] = summaries
	}

	return out
}

func summarize(page *Page) PageSummary {
	summary := PageSummary{
		URL:         page.URL,
		Title:       page.Content.Title,
		Sections:    page.Content.Sections,
		Contact:     page.Content.Contact,
		LastUpdated: page.FetchedAt,
	}

	for _, paragraph := range page.Content.Paragraphs {
		lower := strings.ToLower(paragraph)
		if containsAny(lower, policyKeywords) {
			summary.Policies = append(summary.Policies, paragraph)
		}
		if containsAny(lower, procedureKeywords) {
			summary.Procedures = append(summary.Procedures, paragraph)
		}
	}

	return summary
}

func containsAny(haystack string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}
