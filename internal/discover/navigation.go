package discover

import (
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/net/html"

	"github.com/hmizuno/helpmapper/internal/classify"
)

// scanNavigation walks all anchors in the starting page, resolves their
// hrefs and keeps the support-related ones. The nearest header/nav/footer
// ancestor is recorded as the candidate's DOM location.
func (d *Discoverer) scanNavigation(pageHTML []byte, origin, currentURL string) []Candidate {
	doc, err := html.Parse(strings.NewReader(string(pageHTML)))
	if err != nil {
		slog.Warn("Navigation scan failed to parse page", "url", currentURL, "error", err)
		return nil
	}

	var candidates []Candidate

	var walk func(n *html.Node, location string)
	walk = func(n *html.Node, location string) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "header", "nav", "footer":
				location = n.Data
			case "a":
				if c, ok := d.anchorCandidate(n, origin, currentURL, location); ok {
					candidates = append(candidates, c)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, location)
		}
	}
	walk(doc, "body")

	return candidates
}

func (d *Discoverer) anchorCandidate(n *html.Node, origin, currentURL, location string) (Candidate, bool) {
	var href string
	for _, a := range n.Attr {
		if a.Key == "href" {
			href = a.Val
			break
		}
	}
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return Candidate{}, false
	}

	anchorText := anchorText(n)

	absURL, err := classify.Resolve(href, origin, currentURL)
	if err != nil {
		if !errors.Is(err, classify.ErrInvalidURL) {
			slog.Warn("Unexpected resolve failure", "href", href, "error", err)
		}
		return Candidate{}, false
	}

	if !d.classifier.IsSupportRelated(absURL, anchorText) {
		return Candidate{}, false
	}

	return Candidate{
		URL:        absURL,
		AnchorText: anchorText,
		Source:     SourceNavigation,
		Category:   d.classifier.Categorize(absURL, anchorText),
		Location:   location,
	}, true
}

// anchorText recursively extracts the visible text of an anchor.
func anchorText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}

	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if text := anchorText(c); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
