package domain

import "testing"

func TestRetrieveOptions_Normalize(t *testing.T) {
	tests := []struct {
		name string
		k    int
		want int
	}{
		{"zero uses default", 0, DefaultTopK},
		{"negative uses default", -3, DefaultTopK},
		{"within range kept", 7, 7},
		{"capped", 500, MaxTopK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RetrieveOptions{K: tt.k}.Normalize()
			if got.K != tt.want {
				t.Errorf("expected K=%d, got %d", tt.want, got.K)
			}
		})
	}
}

func TestPayloadFilter_Matches(t *testing.T) {
	f := &PayloadFilter{DocumentIDs: []string{"doc-1", "doc-3"}}

	tests := []struct {
		name    string
		payload map[string]string
		want    bool
	}{
		{"allowed", map[string]string{FieldDocumentID: "doc-1"}, true},
		{"not allowed", map[string]string{FieldDocumentID: "doc-2"}, false},
		{"missing field", map[string]string{FieldText: "x"}, false},
		{"empty field", map[string]string{FieldDocumentID: ""}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Matches(tt.payload); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestPayloadFilter_NilMatchesEverything(t *testing.T) {
	var f *PayloadFilter
	if !f.Matches(map[string]string{}) {
		t.Error("nil filter should match any payload")
	}
}

func TestRetrievalResult_DocumentIDs(t *testing.T) {
	r := &RetrievalResult{
		Candidates: []*Candidate{
			{Passage: &Passage{DocumentID: "b"}},
			{Passage: &Passage{DocumentID: "a"}},
			{Passage: &Passage{DocumentID: "b"}},
		},
	}
	ids := r.DocumentIDs()
	if len(ids) != 2 || ids[0] != "b" || ids[1] != "a" {
		t.Errorf("expected [b a], got %v", ids)
	}
}

func TestRetrievalResult_Empty(t *testing.T) {
	r := &RetrievalResult{Status: RetrievalStatusNoRelevantPassages}
	if !r.Empty() {
		t.Error("expected empty result")
	}
	r.Status = RetrievalStatusOK
	if r.Empty() {
		t.Error("expected non-empty result")
	}
}

func TestCitation_Fabricated(t *testing.T) {
	if !(Citation{Source: 9}).Fabricated() {
		t.Error("citation without passage should be fabricated")
	}
	if (Citation{Source: 1, PassageID: "p"}).Fabricated() {
		t.Error("citation with passage should not be fabricated")
	}
}

func TestBatchIngestResult_Add(t *testing.T) {
	var b BatchIngestResult
	b.Add(&IngestResult{Status: IngestStatusIngested})
	b.Add(&IngestResult{Status: IngestStatusDuplicate})
	b.Add(&IngestResult{Status: IngestStatusFailed})

	if b.Succeeded != 1 || b.Failed != 2 || len(b.Results) != 3 {
		t.Errorf("unexpected counts: %+v", b)
	}
}
