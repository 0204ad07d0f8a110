package domain

import (
	"strconv"
	"strings"
)

// PassageSchemaVersion is stamped on every payload written to the vector index.
// Bump it when a field is added so readers can tell old payloads apart.
const PassageSchemaVersion = 2

// Payload field names
const (
	FieldSchemaVersion = "schema_version"
	FieldPassageID     = "passage_id"
	FieldDocumentID    = "document_id"
	FieldFilename      = "filename"
	FieldTitle         = "title"
	FieldAuthors       = "authors"
	FieldSection       = "section"
	FieldPage          = "page"
	FieldIndex         = "index"
	FieldOrdinal       = "ordinal"
	FieldSiblingCount  = "sibling_count"
	FieldText          = "text"
)

const authorSeparator = "; "

// PassageMetadata is the flat attribute record stored with each vector.
type PassageMetadata struct {
	SchemaVersion int      `json:"schema_version"`
	PassageID     string   `json:"passage_id"`
	DocumentID    string   `json:"document_id"`
	Filename      string   `json:"filename"`
	Title         string   `json:"title"`
	Authors       []string `json:"authors,omitempty"`
	Section       string   `json:"section"`
	Page          int      `json:"page"`
	Index         int      `json:"index"`
	Ordinal       int      `json:"ordinal"`
	SiblingCount  int      `json:"sibling_count"`
	Text          string   `json:"text"`
}

// Payload flattens the record into string attributes, the lowest common
// denominator of the supported vector indexes.
func (m PassageMetadata) Payload() map[string]string {
	return map[string]string{
		FieldSchemaVersion: strconv.Itoa(m.SchemaVersion),
		FieldPassageID:     m.PassageID,
		FieldDocumentID:    m.DocumentID,
		FieldFilename:      m.Filename,
		FieldTitle:         m.Title,
		FieldAuthors:       strings.Join(m.Authors, authorSeparator),
		FieldSection:       m.Section,
		FieldPage:          strconv.Itoa(m.Page),
		FieldIndex:         strconv.Itoa(m.Index),
		FieldOrdinal:       strconv.Itoa(m.Ordinal),
		FieldSiblingCount:  strconv.Itoa(m.SiblingCount),
		FieldText:          m.Text,
	}
}

// PassageMetadataFromPayload reads a payload of any schema version. Fields
// missing from older payloads take their zero value, except section and
// page which fall back to "unknown" and 1.
func PassageMetadataFromPayload(p map[string]string) PassageMetadata {
	m := PassageMetadata{
		SchemaVersion: atoiOr(p[FieldSchemaVersion], 1),
		PassageID:     p[FieldPassageID],
		DocumentID:    p[FieldDocumentID],
		Filename:      p[FieldFilename],
		Title:         p[FieldTitle],
		Section:       p[FieldSection],
		Page:          atoiOr(p[FieldPage], 1),
		Index:         atoiOr(p[FieldIndex], 0),
		Ordinal:       atoiOr(p[FieldOrdinal], 0),
		SiblingCount:  atoiOr(p[FieldSiblingCount], 1),
		Text:          p[FieldText],
	}
	if authors := p[FieldAuthors]; authors != "" {
		m.Authors = strings.Split(authors, authorSeparator)
	}
	if m.Section == "" {
		m.Section = SectionUnknown
	}
	return m
}

// Passage rebuilds the passage a payload was written for.
func (m PassageMetadata) Passage() *Passage {
	return &Passage{
		ID:           m.PassageID,
		DocumentID:   m.DocumentID,
		Section:      m.Section,
		Page:         m.Page,
		Index:        m.Index,
		Ordinal:      m.Ordinal,
		SiblingCount: m.SiblingCount,
		Text:         m.Text,
		Metadata:     m,
	}
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
