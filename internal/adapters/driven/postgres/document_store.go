package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driven"
)

// Verify interface compliance
var (
	_ driven.DocumentStore = (*DocumentStore)(nil)
	_ driven.PassageStore  = (*PassageStore)(nil)
)

const documentColumns = `id, filename, title, authors, page_count, content_type, file_size,
	sections, section_summaries, passage_count, unknown_fraction, uploaded_at`

// DocumentStore implements driven.DocumentStore using PostgreSQL
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// Save inserts a document and its passages in one transaction.
// A second document with the same filename fails with domain.ErrAlreadyExists.
func (s *DocumentStore) Save(ctx context.Context, doc *domain.Document, passages []*domain.Passage) error {
	summaries, err := json.Marshal(doc.SectionSummaries)
	if err != nil {
		return err
	}

	err = s.db.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO documents (`+documentColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`,
			doc.ID,
			doc.Filename,
			doc.Title,
			pq.Array(nonNil(doc.Authors)),
			doc.PageCount,
			doc.ContentType,
			doc.FileSize,
			pq.Array(nonNil(doc.Sections)),
			summaries,
			doc.PassageCount,
			doc.UnknownFraction,
			doc.UploadedAt,
		)
		if err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO passages (id, document_id, section, page, section_index, ordinal, sibling_count, text, metadata, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, p := range passages {
			metadataJSON, err := json.Marshal(p.Metadata)
			if err != nil {
				return err
			}
			_, err = stmt.ExecContext(ctx,
				p.ID,
				doc.ID,
				p.Section,
				p.Page,
				p.Index,
				p.Ordinal,
				p.SiblingCount,
				p.Text,
				metadataJSON,
				p.CreatedAt,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

// Get retrieves a document by ID
func (s *DocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(s.db.QueryRowContext(ctx, query, id))
}

// GetByFilename retrieves a document by its unique filename
func (s *DocumentStore) GetByFilename(ctx context.Context, filename string) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE filename = $1`
	return scanDocument(s.db.QueryRowContext(ctx, query, filename))
}

// List returns documents newest first
func (s *DocumentStore) List(ctx context.Context, limit, offset int) ([]*domain.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		ORDER BY uploaded_at DESC, id
		LIMIT $1 OFFSET $2
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []*domain.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Delete deletes a document; its passages go with it (ON DELETE CASCADE)
func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Count returns the number of stored documents
func (s *DocumentStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// ListIDs returns the id of every stored document
func (s *DocumentStore) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM documents ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var authors, sections pq.StringArray
	var summaries []byte

	err := row.Scan(
		&doc.ID,
		&doc.Filename,
		&doc.Title,
		&authors,
		&doc.PageCount,
		&doc.ContentType,
		&doc.FileSize,
		&sections,
		&summaries,
		&doc.PassageCount,
		&doc.UnknownFraction,
		&doc.UploadedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	doc.Authors = []string(authors)
	doc.Sections = []string(sections)
	if len(summaries) > 0 {
		if err := json.Unmarshal(summaries, &doc.SectionSummaries); err != nil {
			return nil, err
		}
	}

	return &doc, nil
}

// PassageStore implements driven.PassageStore using PostgreSQL
type PassageStore struct {
	db *DB
}

// NewPassageStore creates a new PassageStore
func NewPassageStore(db *DB) *PassageStore {
	return &PassageStore{db: db}
}

// GetByDocument returns a document's passages in document order
func (s *PassageStore) GetByDocument(ctx context.Context, documentID string) ([]*domain.Passage, error) {
	query := `
		SELECT id, document_id, section, page, section_index, ordinal, sibling_count, text, metadata, created_at
		FROM passages
		WHERE document_id = $1
		ORDER BY ordinal
	`

	rows, err := s.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	passages := []*domain.Passage{}
	for rows.Next() {
		var p domain.Passage
		var metadataJSON []byte
		err := rows.Scan(
			&p.ID,
			&p.DocumentID,
			&p.Section,
			&p.Page,
			&p.Index,
			&p.Ordinal,
			&p.SiblingCount,
			&p.Text,
			&metadataJSON,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &p.Metadata); err != nil {
				return nil, err
			}
		}
		passages = append(passages, &p)
	}
	return passages, rows.Err()
}

// Count returns the number of stored passages
func (s *PassageStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM passages`).Scan(&count)
	return count, err
}

// CountBySection returns the number of passages per section name
func (s *PassageStore) CountBySection(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT section, COUNT(*) FROM passages GROUP BY section`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var section string
		var n int
		if err := rows.Scan(&section, &n); err != nil {
			return nil, err
		}
		counts[section] = n
	}
	return counts, rows.Err()
}

// nonNil keeps NOT NULL array columns from receiving NULL
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
