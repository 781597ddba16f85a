package extract

import "regexp"

var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	// North-American formats: optional country code, optional parens,
	// separators "-", "." or space.
	phonePattern = regexp.MustCompile(`(?:\+?1[\s.-])?\(?\d{3}\)?[\s.-]\d{3}[\s.-]?\d{4}\b`)
)

// findEmails returns the distinct email addresses in text, first-seen order.
func findEmails(text string) []string {
	return dedupe(emailPattern.FindAllString(text, -1))
}

// findPhones returns the distinct phone numbers in text, first-seen order.
func findPhones(text string) []string {
	return dedupe(phonePattern.FindAllString(text, -1))
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
