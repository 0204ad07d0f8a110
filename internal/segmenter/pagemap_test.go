package segmenter

import "testing"

func TestPageMap_PageAt(t *testing.T) {
	pm := NewPageMap(2)
	pm.Add(10, 3)
	pm.Add(40, 4)
	pm.Add(90, 7)

	tests := []struct {
		offset int
		want   int
	}{
		{0, 2},
		{9, 2},
		{10, 3},
		{39, 3},
		{40, 4},
		{89, 4},
		{90, 7},
		{5000, 7},
	}

	for _, tt := range tests {
		if got := pm.PageAt(tt.offset); got != tt.want {
			t.Errorf("PageAt(%d) = %d, want %d", tt.offset, got, tt.want)
		}
	}
}

func TestPageMap_SameOffsetReplaces(t *testing.T) {
	pm := NewPageMap(1)
	pm.Add(5, 2)
	pm.Add(5, 3)

	if pm.Len() != 1 {
		t.Fatalf("expected 1 marker, got %d", pm.Len())
	}
	if got := pm.PageAt(5); got != 3 {
		t.Errorf("expected page 3, got %d", got)
	}
}

func TestPageMap_InvalidStartPage(t *testing.T) {
	pm := NewPageMap(0)
	if got := pm.PageAt(0); got != 1 {
		t.Errorf("expected page 1, got %d", got)
	}
}
