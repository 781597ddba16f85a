// Package classify provides URL resolution and keyword-based classification
// of support-related links. Classification rules are data, loaded once at
// startup and immutable afterwards.
package classify

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURL is returned when a href cannot be resolved to an absolute URL.
// Callers treat it as non-fatal and skip the link.
var ErrInvalidURL = errors.New("invalid URL")

// Category identifies the support domain a link or page belongs to.
type Category string

// Categories assigned by keyword heuristic. CategoryGeneral is the fallback.
const (
	CategoryFAQ          Category = "faq"
	CategoryPolicy       Category = "policy"
	CategoryContact      Category = "contact"
	CategoryBilling      Category = "billing"
	CategoryCancellation Category = "cancellation"
	CategoryRefund       Category = "refund"
	CategoryGeneral      Category = "general"
)

// Categories returns all categories in their canonical order.
func Categories() []Category {
	return []Category{
		CategoryFAQ, CategoryPolicy, CategoryContact, CategoryBilling,
		CategoryCancellation, CategoryRefund, CategoryGeneral,
	}
}

// Rule maps a category to the keywords that select it. Rules are evaluated
// in declaration order; the first rule with any keyword match wins.
type Rule struct {
	Category Category `mapstructure:"category" yaml:"category"`
	Keywords []string `mapstructure:"keywords" yaml:"keywords"`
}

// DefaultSupportKeywords is the relevance filter applied to url+anchor text.
func DefaultSupportKeywords() []string {
	return []string{
		"help", "support", "faq", "contact", "customer", "service",
		"documentation", "docs", "knowledge", "cancel", "refund",
		"billing", "payment", "terms", "policy", "privacy",
	}
}

// DefaultRules returns the ordered category rules. Specific categories come
// before broad ones so that "cancel-refund" style URLs land on the first match.
func DefaultRules() []Rule {
	return []Rule{
		{Category: CategoryCancellation, Keywords: []string{"cancel", "cancellation", "unsubscribe", "terminate"}},
		{Category: CategoryRefund, Keywords: []string{"refund", "money-back", "money back", "return"}},
		{Category: CategoryBilling, Keywords: []string{"billing", "payment", "invoice", "charge", "subscription"}},
		{Category: CategoryContact, Keywords: []string{"contact", "customer-service", "customer service", "reach us"}},
		{Category: CategoryFAQ, Keywords: []string{"faq", "frequently asked", "questions", "q&a"}},
		{Category: CategoryPolicy, Keywords: []string{"policy", "policies", "terms", "privacy", "legal"}},
	}
}

// Classifier scores URL+anchor-text pairs against keyword sets.
type Classifier struct {
	supportKeywords []string
	rules           []Rule
}

// NewClassifier creates a classifier from the given keyword tables. Empty
// inputs fall back to the defaults.
func NewClassifier(supportKeywords []string, rules []Rule) *Classifier {
	if len(supportKeywords) == 0 {
		supportKeywords = DefaultSupportKeywords()
	}
	if len(rules) == 0 {
		rules = DefaultRules()
	}

	// Lowercase once so matching stays allocation-free per call.
	kw := make([]string, len(supportKeywords))
	for i, k := range supportKeywords {
		kw[i] = strings.ToLower(k)
	}
	rs := make([]Rule, len(rules))
	for i, r := range rules {
		words := make([]string, len(r.Keywords))
		for j, w := range r.Keywords {
			words[j] = strings.ToLower(w)
		}
		rs[i] = Rule{Category: r.Category, Keywords: words}
	}

	return &Classifier{supportKeywords: kw, rules: rs}
}

// IsSupportRelated reports whether the url or anchor text contains any
// support keyword. Matching is case-insensitive substring matching.
func (c *Classifier) IsSupportRelated(rawURL, anchorText string) bool {
	haystack := strings.ToLower(rawURL + " " + anchorText)
	for _, kw := range c.supportKeywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

// Categorize assigns a category to the url+anchor pair. The first rule with
// any keyword match wins; ties break by rule order. Defaults to general.
func (c *Classifier) Categorize(rawURL, anchorText string) Category {
	haystack := strings.ToLower(rawURL + " " + anchorText)
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(haystack, kw) {
				return rule.Category
			}
		}
	}
	return CategoryGeneral
}

// Resolve converts a href into an absolute URL. Absolute hrefs pass through,
// root-relative hrefs join the origin, and relative hrefs resolve against
// the current page URL.
func Resolve(href, origin, currentURL string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", fmt.Errorf("%w: empty href", ErrInvalidURL)
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if ref.IsAbs() {
		if ref.Scheme != "http" && ref.Scheme != "https" {
			return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, ref.Scheme)
		}
		return ref.String(), nil
	}

	base := currentURL
	if strings.HasPrefix(href, "/") {
		base = origin
	}

	baseURL, err := url.Parse(base)
	if err != nil || baseURL.Scheme == "" || baseURL.Host == "" {
		return "", fmt.Errorf("%w: bad base %q", ErrInvalidURL, base)
	}

	return baseURL.ResolveReference(ref).String(), nil
}

// Origin extracts the scheme://host origin of a URL.
func Origin(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return u.Scheme + "://" + u.Host, nil
}
