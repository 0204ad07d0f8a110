package postgres

import (
	"context"
	"database/sql"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.CorpusSettingsStore = (*CorpusSettingsStore)(nil)

// CorpusSettingsStore implements driven.CorpusSettingsStore using PostgreSQL
type CorpusSettingsStore struct {
	db *DB
}

// NewCorpusSettingsStore creates a new CorpusSettingsStore
func NewCorpusSettingsStore(db *DB) *CorpusSettingsStore {
	return &CorpusSettingsStore{db: db}
}

// GetEmbeddingPin returns the pinned embedding model, or domain.ErrNotFound
// before anything was ingested
func (s *CorpusSettingsStore) GetEmbeddingPin(ctx context.Context) (*domain.EmbeddingPin, error) {
	query := `
		SELECT embedding_provider, embedding_model, embedding_dims, pinned_at
		FROM corpus_settings
		WHERE id
	`

	var pin domain.EmbeddingPin
	err := s.db.QueryRowContext(ctx, query).Scan(
		&pin.Provider,
		&pin.Model,
		&pin.Dimensions,
		&pin.PinnedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pin, nil
}

// SaveEmbeddingPin stores pin unless one exists, then returns the pin in force.
// Concurrent first starts agree on a single winner.
func (s *CorpusSettingsStore) SaveEmbeddingPin(ctx context.Context, pin *domain.EmbeddingPin) (*domain.EmbeddingPin, error) {
	query := `
		INSERT INTO corpus_settings (id, embedding_provider, embedding_model, embedding_dims, pinned_at)
		VALUES (TRUE, $1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`

	if _, err := s.db.ExecContext(ctx, query, pin.Provider, pin.Model, pin.Dimensions, pin.PinnedAt); err != nil {
		return nil, err
	}
	return s.GetEmbeddingPin(ctx)
}
