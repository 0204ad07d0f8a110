package segmenter

import (
	"strconv"
	"strings"
	"unicode"
)

// clean removes page markers from text and collapses whitespace runs. A run
// holding two or more newlines becomes a paragraph break, a single newline
// stays a line break, anything else becomes one space. Each marker is
// recorded at the offset of the first character that survives after it.
func (s *Segmenter) clean(text string, startPage int) (string, *PageMap) {
	pm := NewPageMap(startPage)
	var b strings.Builder
	b.Grow(len(text))

	var (
		pendingSpace bool
		newlines     int
		pendingPages []int
	)

	flush := func() {
		if pendingSpace && b.Len() > 0 {
			switch {
			case newlines >= 2:
				b.WriteString("\n\n")
			case newlines == 1:
				b.WriteByte('\n')
			default:
				b.WriteByte(' ')
			}
		}
		pendingSpace, newlines = false, 0
		for _, p := range pendingPages {
			pm.Add(b.Len(), p)
		}
		pendingPages = pendingPages[:0]
	}

	write := func(chunk string) {
		for _, r := range chunk {
			if unicode.IsSpace(r) {
				pendingSpace = true
				if r == '\n' {
					newlines++
				}
				continue
			}
			flush()
			b.WriteRune(r)
		}
	}

	last := 0
	for _, loc := range s.cfg.MarkerPattern.FindAllStringSubmatchIndex(text, -1) {
		write(text[last:loc[0]])
		last = loc[1]
		// a marker separates words even when the extractor glued it on
		pendingSpace = true
		if len(loc) >= 4 && loc[2] >= 0 {
			if n, err := strconv.Atoi(text[loc[2]:loc[3]]); err == nil && n > 0 {
				pendingPages = append(pendingPages, n)
			}
		}
	}
	write(text[last:])

	return b.String(), pm
}
