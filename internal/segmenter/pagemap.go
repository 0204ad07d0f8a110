package segmenter

import "sort"

// PageMap resolves an offset in marker-free text to the page in effect at
// that offset. Offsets are non-decreasing, so lookups are a binary search.
type PageMap struct {
	startPage int
	offsets   []int
	pages     []int
}

// NewPageMap returns an empty map whose offsets all resolve to startPage.
func NewPageMap(startPage int) *PageMap {
	if startPage < 1 {
		startPage = 1
	}
	return &PageMap{startPage: startPage}
}

// Add records that page begins at offset. Offsets must not decrease; a
// second marker at the same offset replaces the first.
func (m *PageMap) Add(offset, page int) {
	n := len(m.offsets)
	if n > 0 && m.offsets[n-1] >= offset {
		m.pages[n-1] = page
		return
	}
	m.offsets = append(m.offsets, offset)
	m.pages = append(m.pages, page)
}

// PageAt returns the page of the nearest marker at or before offset, or the
// start page when none precedes it.
func (m *PageMap) PageAt(offset int) int {
	i := sort.Search(len(m.offsets), func(i int) bool { return m.offsets[i] > offset })
	if i == 0 {
		return m.startPage
	}
	return m.pages[i-1]
}

// Len returns the number of recorded markers.
func (m *PageMap) Len() int {
	return len(m.offsets)
}
