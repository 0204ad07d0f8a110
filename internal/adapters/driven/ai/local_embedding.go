package ai

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driven"
)

// Ensure LocalEmbedding implements EmbeddingService
var _ driven.EmbeddingService = (*LocalEmbedding)(nil)

const (
	localModel             = "feature-hash-v1"
	defaultLocalDimensions = 384
)

// LocalEmbedding is an in-process embedding using signed feature hashing
// over lowercase word unigrams and bigrams. It needs no network and is
// deterministic, which suits the CLI, demos and offline corpora. Quality is
// lexical only.
type LocalEmbedding struct {
	dimensions int
}

// NewLocalEmbedding creates a feature-hashing embedder; dimensions <= 0 uses 384.
func NewLocalEmbedding(dimensions int) *LocalEmbedding {
	if dimensions <= 0 {
		dimensions = defaultLocalDimensions
	}
	return &LocalEmbedding{dimensions: dimensions}
}

// Embed hashes each text into a normalised vector
func (l *LocalEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = l.vector(t)
	}
	return out, nil
}

// EmbedQuery hashes a single query
func (l *LocalEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.vector(query), nil
}

func (l *LocalEmbedding) vector(text string) []float32 {
	v := make([]float32, l.dimensions)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	add := func(feature string, weight float32) {
		h := fnv.New64a()
		h.Write([]byte(feature))
		sum := h.Sum64()
		idx := int(sum % uint64(l.dimensions))
		if sum&(1<<63) != 0 {
			weight = -weight
		}
		v[idx] += weight
	}
	for i, w := range words {
		add(w, 1)
		if i > 0 {
			add(words[i-1]+" "+w, 0.5)
		}
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		v[0] = 1
		return v
	}
	n := float32(math.Sqrt(norm))
	for i := range v {
		v[i] /= n
	}
	return v
}

// Dimensions returns the embedding dimension size
func (l *LocalEmbedding) Dimensions() int { return l.dimensions }

// Model returns the model name being used
func (l *LocalEmbedding) Model() string { return localModel }

// HealthCheck always succeeds
func (l *LocalEmbedding) HealthCheck(ctx context.Context) error { return nil }

// Close is a no-op
func (l *LocalEmbedding) Close() error { return nil }
