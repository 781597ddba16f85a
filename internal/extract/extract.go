// Package extract converts raw HTML into a structured content record.
// Extraction is purely structural: malformed markup is parsed permissively
// and absent elements yield empty containers, never an error.
package extract

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Heading is one h1-h6 element in document order.
type Heading struct {
	Level    int    `json:"level"`
	Text     string `json:"text"`
	AnchorID string `json:"anchorId,omitempty"`
}

// List is an ordered or unordered list with its non-empty items.
type List struct {
	Ordered bool     `json:"ordered"`
	Items   []string `json:"items"`
}

// Table holds the header row and body rows of one table element.
type Table struct {
	Headers []string   `json:"headers,omitempty"`
	Rows    [][]string `json:"rows,omitempty"`
}

// Form records a form's target and its named fields.
type Form struct {
	Action string   `json:"action,omitempty"`
	Method string   `json:"method,omitempty"`
	Fields []string `json:"fields,omitempty"`
}

// Contact aggregates contact details found anywhere in the page text.
type Contact struct {
	Emails    []string `json:"emails,omitempty"`
	Phones    []string `json:"phones,omitempty"`
	Addresses []string `json:"addresses,omitempty"`
}

// Section groups the paragraphs that follow one heading in document
// order. Paragraphs before the first heading land in a section with a
// zero-value heading.
type Section struct {
	Heading    Heading  `json:"heading"`
	Paragraphs []string `json:"paragraphs,omitempty"`
}

// Content is the structured record extracted from one page.
type Content struct {
	Title       string            `json:"title"`
	Headings    []Heading         `json:"headings,omitempty"`
	Paragraphs  []string          `json:"paragraphs,omitempty"`
	Sections    []Section         `json:"sections,omitempty"`
	Lists       []List            `json:"lists,omitempty"`
	Tables      []Table           `json:"tables,omitempty"`
	Forms       []Form            `json:"forms,omitempty"`
	Contact     Contact           `json:"contact"`
	Meta        map[string]string `json:"meta,omitempty"`
	ContentHash string            `json:"contentHash,omitempty"`
}

// DefaultMinParagraphLen drops paragraph fragments assumed to be UI noise.
const DefaultMinParagraphLen = 20

// Tags whose subtrees never contain page content.
var excludedTags = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"template": {},
	"iframe":   {},
	"svg":      {},
	"nav":      {},
	"header":   {},
	"footer":   {},
	"aside":    {},
}

// Class substrings marking boilerplate containers.
var excludedClassMarkers = []string{
	"advert", "ad-", "sidebar", "menu", "banner", "cookie", "breadcrumb",
}

var headingLevels = map[string]int{
	"h1": 1, "h2": 2, "h3": 3, "h4": 4, "h5": 5, "h6": 6,
}

// Extractor derives structured content from HTML documents.
type Extractor struct {
	minParagraphLen int
}

// NewExtractor creates an extractor. A non-positive minParagraphLen falls
// back to the default.
func NewExtractor(minParagraphLen int) *Extractor {
	if minParagraphLen <= 0 {
		minParagraphLen = DefaultMinParagraphLen
	}
	return &Extractor{minParagraphLen: minParagraphLen}
}

// Extract parses the HTML and derives every structured field. It never
// returns an error: unparseable input yields an empty record.
func (e *Extractor) Extract(htmlContent []byte) *Content {
	content := &Content{Meta: map[string]string{}}

	doc, err := html.Parse(strings.NewReader(string(htmlContent)))
	if err != nil {
		return content
	}

	var text strings.Builder
	e.traverse(doc, content, &text)

	content.Contact.Emails = findEmails(text.String())
	content.Contact.Phones = findPhones(text.String())

	hash := sha256.Sum256(htmlContent)
	content.ContentHash = fmt.Sprintf("%x", hash)

	return content
}

// traverse walks the tree, skipping excluded subtrees and dispatching on
// content-bearing elements. Visible text accumulates into text for the
// contact regex pass.
func (e *Extractor) traverse(n *html.Node, content *Content, text *strings.Builder) {
	if n.Type == html.ElementNode {
		if _, excluded := excludedTags[n.Data]; excluded {
			return
		}
		if isExcludedClass(attr(n, "class")) {
			return
		}

		if class := attr(n, "class"); strings.Contains(class, "address") || strings.Contains(class, "location") {
			if addr := strings.TrimSpace(nodeText(n)); len(addr) > 10 {
				content.Contact.Addresses = append(content.Contact.Addresses, addr)
			}
		}

		switch n.Data {
		case "title":
			if content.Title == "" {
				content.Title = strings.TrimSpace(nodeText(n))
			}
			return

		case "meta":
			e.parseMeta(n, content)
			return

		case "h1", "h2", "h3", "h4", "h5", "h6":
			if heading := strings.TrimSpace(nodeText(n)); heading != "" {
				h := Heading{
					Level:    headingLevels[n.Data],
					Text:     heading,
					AnchorID: attr(n, "id"),
				}
				content.Headings = append(content.Headings, h)
				content.Sections = append(content.Sections, Section{Heading: h})
				text.WriteString(heading)
				text.WriteString("\n")
			}
			return

		case "p":
			paragraph := strings.TrimSpace(nodeText(n))
			if paragraph != "" {
				text.WriteString(paragraph)
				text.WriteString("\n")
			}
			if len(paragraph) > e.minParagraphLen {
				content.Paragraphs = append(content.Paragraphs, paragraph)
				if len(content.Sections) == 0 {
					content.Sections = append(content.Sections, Section{})
				}
				last := &content.Sections[len(content.Sections)-1]
				last.Paragraphs = append(last.Paragraphs, paragraph)
			}
			return

		case "ul", "ol":
			if list := e.parseList(n, text); len(list.Items) > 0 {
				content.Lists = append(content.Lists, list)
			}
			return

		case "table":
			if table := parseTable(n); len(table.Headers) > 0 || len(table.Rows) > 0 {
				content.Tables = append(content.Tables, table)
			}
			text.WriteString(nodeText(n))
			text.WriteString("\n")
			return

		case "form":
			content.Forms = append(content.Forms, parseForm(n))
			// Fall through to children: forms may wrap contact text.
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		e.traverse(c, content, text)
	}
}

// parseMeta records description/keywords/generator meta tags.
func (e *Extractor) parseMeta(n *html.Node, content *Content) {
	name := strings.ToLower(attr(n, "name"))
	value := attr(n, "content")

	switch name {
	case "description", "keywords", "generator", "author":
		if value != "" {
			content.Meta[name] = value
		}
	}
}

// parseList collects the direct li children. Nested lists fold into their
// parent item's text.
func (e *Extractor) parseList(n *html.Node, text *strings.Builder) List {
	list := List{Ordered: n.Data == "ol"}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "li" {
			continue
		}
		if item := strings.TrimSpace(nodeText(c)); item != "" {
			list.Items = append(list.Items, item)
			text.WriteString(item)
			text.WriteString("\n")
		}
	}

	return list
}

// parseTable extracts th cells as headers and tr/td cells as rows.
func parseTable(n *html.Node) Table {
	var table Table

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == "tr" {
			var headers, cells []string
			for c := node.FirstChild; c != nil; c = c.NextSibling {
				if c.Type != html.ElementNode {
					continue
				}
				cell := strings.TrimSpace(nodeText(c))
				switch c.Data {
				case "th":
					headers = append(headers, cell)
				case "td":
					cells = append(cells, cell)
				}
			}
			if len(headers) > 0 && table.Headers == nil {
				table.Headers = headers
			}
			if len(cells) > 0 {
				table.Rows = append(table.Rows, cells)
			}
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	return table
}

// parseForm records the form target and its named input fields.
func parseForm(n *html.Node) Form {
	form := Form{
		Action: attr(n, "action"),
		Method: strings.ToUpper(attr(n, "method")),
	}

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			switch node.Data {
			case "input", "select", "textarea":
				if name := attr(node, "name"); name != "" {
					form.Fields = append(form.Fields, name)
				}
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	return form
}

// nodeText recursively extracts text content from a node.
func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}

	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if text := nodeText(c); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// attr returns the value of the named attribute, or "".
func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}

func isExcludedClass(class string) bool {
	if class == "" {
		return false
	}
	class = strings.ToLower(class)
	for _, marker := range excludedClassMarkers {
		if strings.Contains(class, marker) {
			return true
		}
	}
	return false
}
