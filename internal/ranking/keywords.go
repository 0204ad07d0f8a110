package ranking

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true, "not": true,
	"you": true, "all": true, "any": true, "can": true, "had": true, "her": true,
	"was": true, "one": true, "our": true, "out": true, "has": true, "have": true,
	"his": true, "how": true, "its": true, "may": true, "new": true, "now": true,
	"who": true, "did": true, "does": true, "this": true, "that": true, "with": true,
	"what": true, "when": true, "where": true, "which": true, "why": true, "from": true,
	"they": true, "them": true, "their": true, "there": true, "these": true, "those": true,
	"been": true, "being": true, "were": true, "will": true, "would": true, "should": true,
	"could": true, "into": true, "about": true, "than": true, "then": true, "also": true,
	"paper": true, "papers": true, "study": true, "describe": true, "explain": true,
}

// Keywords extracts the content words of a query: lower case, at least
// three letters, stopwords removed, first occurrence order.
func Keywords(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})

	seen := make(map[string]bool, len(fields))
	var out []string
	for _, f := range fields {
		f = strings.Trim(f, "-")
		if utf8.RuneCountInString(f) < 3 || stopwords[f] || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// containsAny reports whether text contains any keyword verbatim, ignoring case.
func containsAny(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}
	lower := strings.ToLower(text)
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
