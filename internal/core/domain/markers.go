package domain

import (
	"regexp"
	"strconv"
)

// PageMarkerPattern matches the inline page-transition markers written by
// text extractors. The first submatch is the page number.
var PageMarkerPattern = regexp.MustCompile(`\[PAGE\s+(\d+)\]`)

// PageMarker renders the marker announcing page n.
func PageMarker(n int) string {
	return "[PAGE " + strconv.Itoa(n) + "]"
}
