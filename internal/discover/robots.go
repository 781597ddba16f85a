package discover

import (
	"bufio"
	"context"
	"log/slog"
	"strings"
)

// robotsInfo holds the pieces of a robots.txt the discovery pass cares
// about: embedded sitemap URLs and the allow/disallow path rules.
type robotsInfo struct {
	Sitemaps []string
	Paths    []string // allow and disallow values, in file order
}

// fetchRobots retrieves and parses {origin}/robots.txt. Any failure is
// non-fatal and yields an empty result.
func (d *Discoverer) fetchRobots(ctx context.Context, origin string) robotsInfo {
	result, err := d.fetcher.Fetch(ctx, origin+"/robots.txt")
	if err != nil {
		slog.Debug("robots.txt unavailable", "origin", origin, "error", err)
		return robotsInfo{}
	}
	return parseRobots(string(result.HTML))
}

// parseRobots scans robots.txt line by line. Directives are collected for
// all user-agent groups: the discovery pass only mines the file for URLs,
// it does not evaluate crawl permissions.
func parseRobots(content string) robotsInfo {
	var info robotsInfo

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}

		directive := strings.ToLower(strings.TrimSpace(parts[0]))
		value := strings.TrimSpace(parts[1])
		if value == "" {
			continue
		}

		switch directive {
		case "sitemap":
			info.Sitemaps = append(info.Sitemaps, value)
		case "allow", "disallow":
			// Wildcard rules are patterns, not concrete paths.
			if strings.HasPrefix(value, "/") && !strings.ContainsAny(value, "*$") {
				info.Paths = append(info.Paths, value)
			}
		}
	}

	return info
}

// robotsCandidates turns support-related robots.txt paths into candidates.
// A disallowed support path still reveals where the support section lives;
// crawl permission is a politeness concern handled at fetch time.
func (d *Discoverer) robotsCandidates(origin string, info robotsInfo) []Candidate {
	var candidates []Candidate
	for _, path := range info.Paths {
		url := origin + path
		if !d.classifier.IsSupportRelated(url, "") {
			continue
		}
		candidates = append(candidates, Candidate{
			URL:      url,
			Source:   SourceRobots,
			Category: d.classifier.Categorize(url, ""),
		})
	}
	return candidates
}
