package domain

import (
	"reflect"
	"testing"
)

func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if id == "" {
			t.Fatal("expected non-empty id")
		}
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestDocument_FirstPage(t *testing.T) {
	doc := &Document{PageCount: 12}
	if doc.FirstPage() != 1 {
		t.Errorf("expected first page 1, got %d", doc.FirstPage())
	}
}

func TestPassageMetadata_PayloadRoundTrip(t *testing.T) {
	m := PassageMetadata{
		SchemaVersion: PassageSchemaVersion,
		PassageID:     "p-1",
		DocumentID:    "doc-1",
		Filename:      "paper.pdf",
		Title:         "Scaling Ledgers",
		Authors:       []string{"A. Author", "B. Author"},
		Section:       "results",
		Page:          4,
		Index:         2,
		Ordinal:       9,
		SiblingCount:  5,
		Text:          "Throughput doubled.",
	}

	got := PassageMetadataFromPayload(m.Payload())
	if !reflect.DeepEqual(got, m) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, m)
	}
}

func TestPassageMetadataFromPayload_OlderSchema(t *testing.T) {
	// version 1 payloads carried no section, page or schema version
	got := PassageMetadataFromPayload(map[string]string{
		FieldDocumentID: "doc-1",
		FieldText:       "legacy passage",
	})

	if got.SchemaVersion != 1 {
		t.Errorf("expected schema version 1, got %d", got.SchemaVersion)
	}
	if got.Section != SectionUnknown {
		t.Errorf("expected section %q, got %q", SectionUnknown, got.Section)
	}
	if got.Page != 1 {
		t.Errorf("expected page 1, got %d", got.Page)
	}
	if got.SiblingCount != 1 {
		t.Errorf("expected sibling count 1, got %d", got.SiblingCount)
	}
	if got.Authors != nil {
		t.Errorf("expected nil authors, got %v", got.Authors)
	}
}

func TestPassageMetadataFromPayload_GarbageNumbers(t *testing.T) {
	got := PassageMetadataFromPayload(map[string]string{
		FieldPage:    "three",
		FieldOrdinal: "-",
	})
	if got.Page != 1 || got.Ordinal != 0 {
		t.Errorf("expected defaults, got page=%d ordinal=%d", got.Page, got.Ordinal)
	}
}

func TestPassageMetadata_Passage(t *testing.T) {
	m := PassageMetadata{PassageID: "p-1", DocumentID: "doc-1", Section: "abstract", Page: 2, Ordinal: 3, Text: "x"}
	p := m.Passage()
	if p.ID != "p-1" || p.DocumentID != "doc-1" || p.Section != "abstract" || p.Page != 2 || p.Ordinal != 3 {
		t.Errorf("unexpected passage %+v", p)
	}
}
