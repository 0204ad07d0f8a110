// Package enricher attaches provenance to passages.
package enricher

import "github.com/custodia-labs/sercha-retrieval/internal/core/domain"

// Enrich derives the flat attribute record stored alongside a passage.
// It performs no I/O and always returns a complete record: a missing
// section becomes "unknown", a missing page becomes the document's first
// page and the sibling count is at least one.
func Enrich(doc *domain.Document, section domain.Section, p *domain.Passage) domain.PassageMetadata {
	m := domain.PassageMetadata{
		SchemaVersion: domain.PassageSchemaVersion,
		Section:       section.Name,
		Page:          1,
		SiblingCount:  1,
	}

	if doc != nil {
		m.DocumentID = doc.ID
		m.Filename = doc.Filename
		m.Title = doc.Title
		if len(doc.Authors) > 0 {
			m.Authors = append([]string(nil), doc.Authors...)
		}
		m.Page = doc.FirstPage()
	}

	if p != nil {
		m.PassageID = p.ID
		m.Index = p.Index
		m.Ordinal = p.Ordinal
		m.Text = p.Text
		if p.Page > 0 {
			m.Page = p.Page
		}
		if p.SiblingCount > 1 {
			m.SiblingCount = p.SiblingCount
		}
		if m.DocumentID == "" {
			m.DocumentID = p.DocumentID
		}
		if m.Section == "" {
			m.Section = p.Section
		}
	}

	if m.Section == "" {
		m.Section = domain.SectionUnknown
	}
	return m
}
