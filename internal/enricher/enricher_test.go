package enricher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
)

func TestEnrich(t *testing.T) {
	doc := &domain.Document{
		ID:       "doc-1",
		Filename: "ledgers.pdf",
		Title:    "Scaling Ledgers",
		Authors:  []string{"Jane Doe"},
	}
	section := domain.Section{Name: "results", StartPage: 3}
	p := &domain.Passage{ID: "p-7", Page: 4, Index: 2, Ordinal: 11, SiblingCount: 5, Text: "Throughput doubled."}

	m := Enrich(doc, section, p)

	assert.Equal(t, domain.PassageMetadata{
		SchemaVersion: domain.PassageSchemaVersion,
		PassageID:     "p-7",
		DocumentID:    "doc-1",
		Filename:      "ledgers.pdf",
		Title:         "Scaling Ledgers",
		Authors:       []string{"Jane Doe"},
		Section:       "results",
		Page:          4,
		Index:         2,
		Ordinal:       11,
		SiblingCount:  5,
		Text:          "Throughput doubled.",
	}, m)
}

func TestEnrich_Defaults(t *testing.T) {
	m := Enrich(&domain.Document{ID: "doc-1"}, domain.Section{}, &domain.Passage{Text: "x"})

	assert.Equal(t, domain.SectionUnknown, m.Section)
	assert.Equal(t, 1, m.Page)
	assert.Equal(t, 1, m.SiblingCount)
	assert.Equal(t, "doc-1", m.DocumentID)
}

func TestEnrich_Total(t *testing.T) {
	m := Enrich(nil, domain.Section{}, nil)

	assert.Equal(t, domain.PassageSchemaVersion, m.SchemaVersion)
	assert.Equal(t, domain.SectionUnknown, m.Section)
	assert.Equal(t, 1, m.Page)
}

func TestEnrich_DoesNotAliasAuthors(t *testing.T) {
	doc := &domain.Document{Authors: []string{"A"}}
	m := Enrich(doc, domain.Section{Name: "abstract"}, &domain.Passage{})

	m.Authors[0] = "B"
	assert.Equal(t, "A", doc.Authors[0])
}
