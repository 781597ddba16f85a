package aggregate

import (
	"regexp"
	"strings"

	"github.com/hmizuno/helpmapper/internal/classify"
)

// CancellationInfo buckets cancellation-related lines.
type CancellationInfo struct {
	Steps          []string `json:"steps,omitempty"`
	Requirements   []string `json:"requirements,omitempty"`
	Deadlines      []string `json:"deadlines,omitempty"`
	ContactMethods []string `json:"contactMethods,omitempty"`
}

// RefundInfo buckets refund-related lines.
type RefundInfo struct {
	Policies   []string `json:"policies,omitempty"`
	Timeframes []string `json:"timeframes,omitempty"`
	Procedures []string `json:"procedures,omitempty"`
	Exceptions []string `json:"exceptions,omitempty"`
}

// BillingInfo buckets billing-related lines.
type BillingInfo struct {
	Cycles   []string `json:"cycles,omitempty"`
	Methods  []string `json:"methods,omitempty"`
	Fees     []string `json:"fees,omitempty"`
	Disputes []string `json:"disputes,omitempty"`
}

// ContactChannels collects every way of reaching the site's support.
type ContactChannels struct {
	Emails   []string `json:"emails,omitempty"`
	Phones   []string `json:"phones,omitempty"`
	Hours    []string `json:"hours,omitempty"`
	Channels []string `json:"channels,omitempty"`
}

// Actionable is the final bucketed extraction for the four tracked
// support domains.
type Actionable struct {
	Cancellation CancellationInfo `json:"cancellation"`
	Refund       RefundInfo       `json:"refund"`
	Billing      BillingInfo      `json:"billing"`
	Contact      ContactChannels  `json:"contact"`
}

// DomainKeywords selects which lines belong to each tracked domain. The
// tables are configuration; empty slices fall back to the defaults.
type DomainKeywords struct {
	Cancellation []string `mapstructure:"cancellation" yaml:"cancellation"`
	Refund       []string `mapstructure:"refund" yaml:"refund"`
	Billing      []string `mapstructure:"billing" yaml:"billing"`
	Contact      []string `mapstructure:"contact" yaml:"contact"`
}

// DefaultDomainKeywords returns the built-in domain keyword tables.
func DefaultDomainKeywords() DomainKeywords {
	return DomainKeywords{
		Cancellation: []string{"cancel", "cancellation", "unsubscribe", "terminate", "discontinue"},
		Refund:       []string{"refund", "money back", "reimburse", "return", "chargeback"},
		Billing:      []string{"billing", "payment", "invoice", "charge", "fee", "subscription"},
		Contact:      []string{"contact", "email", "phone", "call", "chat", "reach", "hours"},
	}
}

var (
	stepLine     = regexp.MustCompile(`^(\d+[.)]|•|-|\*)\s*\S`)
	timeUnitWords = []string{"day", "days", "hour", "hours", "week", "weeks", "month", "months"}
	deadlineCues  = []string{"within", "before", "after"}

	requirementCues = []string{"must", "require", "need to", "eligible", "only if"}
	contactCues     = []string{"email", "phone", "call", "chat", "contact", "support team"}
	exceptionCues   = []string{"except", "unless", "not eligible", "non-refundable", "final sale", "excluded"}
	cycleCues       = []string{"monthly", "annual", "yearly", "cycle", "renew"}
	methodCues      = []string{"credit card", "debit", "paypal", "bank", "payment method"}
	feeCues         = []string{"fee", "fees", "charge", "late", "penalty"}
	disputeCues     = []string{"dispute", "incorrect", "error", "unauthorized"}
	hoursCues       = []string{"hours", "am ", "pm ", "monday", "weekday", "9am", "24/7"}
	channelCues     = []string{"chat", "phone", "email", "form", "ticket", "social"}
)

// ExtractActionable scans every page's paragraphs and list items and
// buckets keyword matches into the fixed per-domain sub-fields.
func ExtractActionable(byCategory map[classify.Category][]*Page, domains DomainKeywords) *Actionable {
	defaults := DefaultDomainKeywords()
	if len(domains.Cancellation) == 0 {
		domains.Cancellation = defaults.Cancellation
	}
	if len(domains.Refund) == 0 {
		domains.Refund = defaults.Refund
	}
	if len(domains.Billing) == 0 {
		domains.Billing = defaults.Billing
	}
	if len(domains.Contact) == 0 {
		domains.Contact = defaults.Contact
	}

	actionable := &Actionable{}
	emailSet := map[string]struct{}{}
	phoneSet := map[string]struct{}{}

	// Categories iterate in the fixed enum order so output is deterministic.
	for _, category := range classify.Categories() {
		for _, page := range byCategory[category] {
			for _, email := range page.Content.Contact.Emails {
				if _, dup := emailSet[email]; !dup {
					emailSet[email] = struct{}{}
					actionable.Contact.Emails = append(actionable.Contact.Emails, email)
				}
			}
			for _, phone := range page.Content.Contact.Phones {
				if _, dup := phoneSet[phone]; !dup {
					phoneSet[phone] = struct{}{}
					actionable.Contact.Phones = append(actionable.Contact.Phones, phone)
				}
			}

			for _, line := range pageLines(page) {
				bucketLine(actionable, line, domains)
			}
		}
	}

	return actionable
}

// pageLines yields every paragraph and list item of a page.
func pageLines(page *Page) []string {
	lines := make([]string, 0, len(page.Content.Paragraphs))
	lines = append(lines, page.Content.Paragraphs...)
	for _, list := range page.Content.Lists {
		lines = append(lines, list.Items...)
	}
	return lines
}

func bucketLine(a *Actionable, line string, domains DomainKeywords) {
	lower := strings.ToLower(line)

	if containsAny(lower, domains.Cancellation) {
		switch {
		case stepLine.MatchString(line):
			a.Cancellation.Steps = append(a.Cancellation.Steps, line)
		case isDeadline(lower):
			a.Cancellation.Deadlines = append(a.Cancellation.Deadlines, line)
		case containsAny(lower, requirementCues):
			a.Cancellation.Requirements = append(a.Cancellation.Requirements, line)
		case containsAny(lower, contactCues):
			a.Cancellation.ContactMethods = append(a.Cancellation.ContactMethods, line)
		}
	}

	if containsAny(lower, domains.Refund) {
		switch {
		case containsAny(lower, exceptionCues):
			a.Refund.Exceptions = append(a.Refund.Exceptions, line)
		case isDeadline(lower):
			a.Refund.Timeframes = append(a.Refund.Timeframes, line)
		case stepLine.MatchString(line) || containsAny(lower, procedureKeywords):
			a.Refund.Procedures = append(a.Refund.Procedures, line)
		case containsAny(lower, policyKeywords):
			a.Refund.Policies = append(a.Refund.Policies, line)
		}
	}

	if containsAny(lower, domains.Billing) {
		switch {
		case containsAny(lower, disputeCues):
			a.Billing.Disputes = append(a.Billing.Disputes, line)
		case containsAny(lower, feeCues):
			a.Billing.Fees = append(a.Billing.Fees, line)
		case containsAny(lower, cycleCues):
			a.Billing.Cycles = append(a.Billing.Cycles, line)
		case containsAny(lower, methodCues):
			a.Billing.Methods = append(a.Billing.Methods, line)
		}
	}

	if containsAny(lower, domains.Contact) {
		switch {
		case containsAny(lower, hoursCues):
			a.Contact.Hours = append(a.Contact.Hours, line)
		case containsAny(lower, channelCues):
			a.Contact.Channels = append(a.Contact.Channels, line)
		}
	}
}

// isDeadline matches the "time unit plus within/before/after" heuristic.
func isDeadline(lower string) bool {
	return containsAny(lower, timeUnitWords) && containsAny(lower, deadlineCues)
}
