package segmenter

import (
	"strings"
	"unicode/utf8"
)

const boundaryRunes = ".!?;)\n"

// BoundaryQuality returns the fraction of adjacent passage pairs whose
// earlier passage ends on a sentence or clause boundary. Fewer than two
// passages have no boundaries and score 1.
func BoundaryQuality(passages []Passage) float64 {
	if len(passages) < 2 {
		return 1
	}
	clean := 0
	for _, p := range passages[:len(passages)-1] {
		r, _ := utf8.DecodeLastRuneInString(p.Text)
		if strings.ContainsRune(boundaryRunes, r) {
			clean++
		}
	}
	return float64(clean) / float64(len(passages)-1)
}
