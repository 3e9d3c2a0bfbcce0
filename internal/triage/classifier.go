// Package triage classifies free text into crisis severities using tiered keyword lists.
package triage

import (
	"strings"
	"unicode/utf8"
)

type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities; unknown values rank with none.
func (s Severity) Rank() int {
	switch s {
	case SeverityModerate:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	default:
		return 0
	}
}

// Result is the outcome of classifying one message. Tier holds the matched tier's vocabulary.
type Result struct {
	Severity Severity `json:"severity"`
	Keyword  string   `json:"keyword,omitempty"`
	Tier     []string `json:"-"`
}

// RequiresAlert reports whether caregivers must be alerted before the message is handled further.
func (r Result) RequiresAlert() bool {
	return r.Severity.Rank() >= SeverityHigh.Rank()
}

// NeedsResources reports whether the reply should carry a support-resources footer.
func (r Result) NeedsResources() bool {
	return r.Severity.Rank() >= SeverityModerate.Rank()
}

type tier struct {
	severity Severity
	keywords []string
}

type Classifier struct {
	tiers []tier
}

func NewClassifier(t Tiers) *Classifier {
	t = t.normalized()
	return &Classifier{tiers: []tier{
		{severity: SeverityCritical, keywords: t.Critical},
		{severity: SeverityHigh, keywords: t.High},
		{severity: SeverityModerate, keywords: t.Moderate},
	}}
}

// Classify checks tiers from most to least severe and stops at the first matching keyword.
func (c *Classifier) Classify(text string) Result {
	lower := fold(text)
	for _, t := range c.tiers {
		for _, kw := range t.keywords {
			if strings.Contains(lower, kw) {
				return Result{Severity: t.severity, Keyword: kw, Tier: t.keywords}
			}
		}
	}
	return Result{Severity: SeverityNone}
}

// Excerpt trims text and cuts it to at most limit runes, marking the cut with "...".
func Excerpt(text string, limit int) string {
	text = strings.TrimSpace(text)
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}
