// Package chromem is an in-process VectorIndex backed by chromem-go.
// It suits single-node deployments and the CLI; Qdrant serves larger corpora.
package chromem

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	chromemgo "github.com/philippgille/chromem-go"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorIndex = (*Index)(nil)

// DefaultCollection is the collection passages are written to
const DefaultCollection = "passages"

// errNoEmbedding is returned if chromem-go ever asks to embed text itself;
// vectors are always computed upstream by the EmbeddingService.
var errNoEmbedding = errors.New("chromem index: vectors must be supplied by the caller")

// Config holds chromem index settings
type Config struct {
	// Path enables on-disk persistence; empty keeps the index in memory
	Path string
	// Compress gzips persisted files
	Compress bool
	// Collection defaults to DefaultCollection
	Collection string
	// Dimensions of stored vectors. Learned from the first write when zero.
	Dimensions int
}

// Index implements driven.VectorIndex on a chromem-go collection
type Index struct {
	collection *chromemgo.Collection

	mu   sync.Mutex
	dims int
}

// New opens (or creates) the collection described by cfg
func New(cfg Config) (*Index, error) {
	var db *chromemgo.DB
	if cfg.Path != "" {
		var err error
		db, err = chromemgo.NewPersistentDB(cfg.Path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("open chromem db: %w", err)
		}
	} else {
		db = chromemgo.NewDB()
	}

	name := cfg.Collection
	if name == "" {
		name = DefaultCollection
	}

	embed := func(ctx context.Context, text string) ([]float32, error) {
		return nil, errNoEmbedding
	}
	col, err := db.GetOrCreateCollection(name, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &Index{collection: col, dims: cfg.Dimensions}, nil
}

// Upsert writes records; an existing id is replaced
func (x *Index) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	docs := make([]chromemgo.Document, len(records))
	for i, r := range records {
		if len(r.Vector) == 0 {
			return fmt.Errorf("record %s: empty vector", r.ID)
		}
		if err := x.checkDims(len(r.Vector)); err != nil {
			return fmt.Errorf("record %s: %w", r.ID, err)
		}
		docs[i] = chromemgo.Document{
			ID:        r.ID,
			Metadata:  r.Payload,
			Embedding: r.Vector,
			Content:   r.Payload[domain.FieldText],
		}
	}

	if err := x.collection.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("chromem add: %w", err)
	}
	return nil
}

// DeleteByDocument removes every record of documentID
func (x *Index) DeleteByDocument(ctx context.Context, documentID string) error {
	if documentID == "" {
		return fmt.Errorf("%w: empty document id", domain.ErrInvalidInput)
	}
	where := map[string]string{domain.FieldDocumentID: documentID}
	if err := x.collection.Delete(ctx, where, nil); err != nil {
		return fmt.Errorf("chromem delete: %w", err)
	}
	return nil
}

// Search returns up to limit hits at or above scoreThreshold.
// chromem-go only matches metadata exactly, so an allow-list of several
// documents runs one query per document and merges the results.
func (x *Index) Search(ctx context.Context, vector []float32, limit int, scoreThreshold float64, filter *domain.PayloadFilter) ([]domain.VectorHit, error) {
	count := x.collection.Count()
	if limit <= 0 || count == 0 {
		return []domain.VectorHit{}, nil
	}
	if err := x.checkDims(len(vector)); err != nil {
		return nil, err
	}
	n := min(limit, count)

	var results []chromemgo.Result
	if filter == nil {
		res, err := x.collection.QueryEmbedding(ctx, vector, n, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("chromem query: %w", err)
		}
		results = res
	} else {
		seen := make(map[string]bool, len(filter.DocumentIDs))
		for _, id := range filter.DocumentIDs {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			res, err := x.collection.QueryEmbedding(ctx, vector, n, map[string]string{domain.FieldDocumentID: id}, nil)
			if err != nil {
				return nil, fmt.Errorf("chromem query: %w", err)
			}
			results = append(results, res...)
		}
	}

	hits := make([]domain.VectorHit, 0, len(results))
	for _, r := range results {
		score := float64(r.Similarity)
		if score < scoreThreshold || !filter.Matches(r.Metadata) {
			continue
		}
		hits = append(hits, domain.VectorHit{ID: r.ID, Score: score, Payload: r.Metadata})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// DocumentIDs scans the whole collection. chromem-go has no listing call,
// so this ranks every record against a constant vector and reads payloads.
func (x *Index) DocumentIDs(ctx context.Context) ([]string, error) {
	count := x.collection.Count()
	if count == 0 {
		return []string{}, nil
	}

	x.mu.Lock()
	dims := x.dims
	x.mu.Unlock()
	if dims == 0 {
		return nil, errors.New("chromem index: dimensions unknown, set Config.Dimensions")
	}

	probe := make([]float32, dims)
	for i := range probe {
		probe[i] = 1
	}
	results, err := x.collection.QueryEmbedding(ctx, probe, count, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem scan: %w", err)
	}

	seen := make(map[string]bool)
	ids := []string{}
	for _, r := range results {
		id := r.Metadata[domain.FieldDocumentID]
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// HealthCheck always succeeds for an in-process index
func (x *Index) HealthCheck(ctx context.Context) error {
	return ctx.Err()
}

// Count returns the number of stored records
func (x *Index) Count() int {
	return x.collection.Count()
}

func (x *Index) checkDims(n int) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.dims == 0 {
		x.dims = n
		return nil
	}
	if n != x.dims {
		return fmt.Errorf("%w: vector has %d dimensions, index holds %d", domain.ErrEmbeddingMismatch, n, x.dims)
	}
	return nil
}
