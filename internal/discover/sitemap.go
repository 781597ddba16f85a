package discover

import (
	"context"
	"encoding/xml"
	"log/slog"
)

// sitemapDoc covers both <urlset> and <sitemapindex> roots.
type sitemapDoc struct {
	URLs     []sitemapEntry `xml:"url"`
	Sitemaps []sitemapEntry `xml:"sitemap"`
}

type sitemapEntry struct {
	Loc string `xml:"loc"`
}

// scanSitemaps fetches each sitemap URL, extracts <loc> entries and keeps
// the support-related ones. Index sitemaps recurse one level into their
// child sitemaps. Fetch or parse failures skip that sitemap only.
func (d *Discoverer) scanSitemaps(ctx context.Context, sitemapURLs []string) []Candidate {
	var candidates []Candidate
	seen := make(map[string]struct{}, len(sitemapURLs))

	for _, sitemapURL := range sitemapURLs {
		if _, dup := seen[sitemapURL]; dup {
			continue
		}
		seen[sitemapURL] = struct{}{}

		doc, err := d.fetchSitemap(ctx, sitemapURL)
		if err != nil {
			slog.Debug("Sitemap unavailable", "url", sitemapURL, "error", err)
			continue
		}

		candidates = append(candidates, d.sitemapCandidates(doc.URLs)...)

		// One level of index recursion keeps pathological sitemap trees bounded.
		for _, child := range doc.Sitemaps {
			if child.Loc == "" {
				continue
			}
			childDoc, err := d.fetchSitemap(ctx, child.Loc)
			if err != nil {
				slog.Debug("Child sitemap unavailable", "url", child.Loc, "error", err)
				continue
			}
			candidates = append(candidates, d.sitemapCandidates(childDoc.URLs)...)
		}
	}

	return candidates
}

func (d *Discoverer) fetchSitemap(ctx context.Context, sitemapURL string) (*sitemapDoc, error) {
	result, err := d.fetcher.Fetch(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}

	var doc sitemapDoc
	if err := xml.Unmarshal(result.HTML, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *Discoverer) sitemapCandidates(entries []sitemapEntry) []Candidate {
	var candidates []Candidate
	for _, entry := range entries {
		if entry.Loc == "" || !d.classifier.IsSupportRelated(entry.Loc, "") {
			continue
		}
		candidates = append(candidates, Candidate{
			URL:      entry.Loc,
			Source:   SourceSitemap,
			Category: d.classifier.Categorize(entry.Loc, ""),
		})
	}
	return candidates
}
