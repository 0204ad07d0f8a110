package postgres

import (
	"context"
	"time"

	"github.com/lib/pq"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.QueryStore = (*QueryStore)(nil)

// QueryStore implements driven.QueryStore using PostgreSQL.
// The queries table is append-only.
type QueryStore struct {
	db *DB
}

// NewQueryStore creates a new QueryStore
func NewQueryStore(db *DB) *QueryStore {
	return &QueryStore{db: db}
}

// Save appends a query record
func (s *QueryStore) Save(ctx context.Context, record *domain.QueryRecord) error {
	query := `
		INSERT INTO queries (id, query, top_k, allow_document_ids, answer, latency_ms,
		                     referenced_document_ids, confidence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.Query,
		record.TopK,
		pq.Array(nonNil(record.AllowDocumentIDs)),
		record.Answer,
		record.Latency.Milliseconds(),
		pq.Array(nonNil(record.ReferencedDocumentIDs)),
		record.Confidence,
		record.CreatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

// Recent returns the newest records first
func (s *QueryStore) Recent(ctx context.Context, limit int) ([]*domain.QueryRecord, error) {
	query := `
		SELECT id, query, top_k, allow_document_ids, answer, latency_ms,
		       referenced_document_ids, confidence, created_at
		FROM queries
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*domain.QueryRecord{}
	for rows.Next() {
		var r domain.QueryRecord
		var allow, referenced pq.StringArray
		var latencyMs int64
		err := rows.Scan(
			&r.ID,
			&r.Query,
			&r.TopK,
			&allow,
			&r.Answer,
			&latencyMs,
			&referenced,
			&r.Confidence,
			&r.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		r.AllowDocumentIDs = []string(allow)
		r.ReferencedDocumentIDs = []string(referenced)
		r.Latency = time.Duration(latencyMs) * time.Millisecond
		records = append(records, &r)
	}
	return records, rows.Err()
}

// Popular groups questions case-insensitively and returns the most asked
func (s *QueryStore) Popular(ctx context.Context, limit int) ([]domain.PopularQuery, error) {
	query := `
		SELECT LOWER(TRIM(query)) AS q, COUNT(*) AS n
		FROM queries
		GROUP BY q
		ORDER BY n DESC, q
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	popular := []domain.PopularQuery{}
	for rows.Next() {
		var p domain.PopularQuery
		if err := rows.Scan(&p.Query, &p.Count); err != nil {
			return nil, err
		}
		popular = append(popular, p)
	}
	return popular, rows.Err()
}

// Summary returns the number of recorded queries and their mean confidence
func (s *QueryStore) Summary(ctx context.Context) (int, float64, error) {
	var count int
	var avg float64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(AVG(confidence), 0) FROM queries`,
	).Scan(&count, &avg)
	return count, avg, err
}
