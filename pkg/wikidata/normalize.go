package wikidata

import (
	"regexp"
	"strings"
)

var (
	reOrdinalPrefix   = regexp.MustCompile(`^\s*\d+[.)]\s+`)
	reFootnoteSuffix  = regexp.MustCompile(`(?:\s*(?:\[\d+\]|[*†‡§¹²³]))+$`)
	reCollapsedSpaces = regexp.MustCompile(`\s+`)
)

// NormalizeLabel reduces a table cell's text to the label form used for
// querying and cache keying. It strips a leading ordinal prefix ("12. "),
// trailing footnote markers ("Paris‡", "London[3]"), collapses runs of
// whitespace and trims the remainder. Normalizing an already-normalized
// label returns it unchanged.
func NormalizeLabel(raw string) string {
	s := reOrdinalPrefix.ReplaceAllString(raw, "")
	s = reFootnoteSuffix.ReplaceAllString(s, "")
	s = reCollapsedSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizeLabels maps NormalizeLabel over a label list, preserving order
// and dropping entries that normalize to the empty string.
func NormalizeLabels(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if n := NormalizeLabel(r); n != "" {
			out = append(out, n)
		}
	}
	return out
}
