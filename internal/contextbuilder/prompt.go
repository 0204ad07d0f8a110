package contextbuilder

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
)

const promptTemplate = `You are a research assistant answering questions about academic papers.
Answer using only the sources below and cite them inline as [Source n].
If the sources do not contain the answer, say so plainly.

Sources:
%CONTEXT%

Question: %QUESTION%
Answer:`

// Prompt renders the generation prompt for a question over assembled context.
func Prompt(question string, a Assembled) string {
	r := strings.NewReplacer("%CONTEXT%", a.Text, "%QUESTION%", strings.TrimSpace(question))
	return r.Replace(promptTemplate)
}

var sourceRef = regexp.MustCompile(`(?i)\[sources?\s+([\d,\s]+)\]`)

// ResolveCitations maps the [Source n] references of a generated answer to
// the assembled citations, in order of first mention. A label that names
// no assembled source yields a fabricated citation carrying only its label.
func ResolveCitations(answer string, a Assembled) []domain.Citation {
	bySource := make(map[int]domain.Citation, len(a.Citations))
	for _, c := range a.Citations {
		bySource[c.Source] = c
	}

	seen := make(map[int]bool)
	var out []domain.Citation
	for _, m := range sourceRef.FindAllStringSubmatch(answer, -1) {
		for _, field := range strings.FieldsFunc(m[1], func(r rune) bool { return r == ',' || unicode.IsSpace(r) }) {
			n, err := strconv.Atoi(field)
			if err != nil || seen[n] {
				continue
			}
			seen[n] = true
			if c, ok := bySource[n]; ok {
				out = append(out, c)
			} else {
				out = append(out, domain.Citation{Source: n})
			}
		}
	}
	return out
}
