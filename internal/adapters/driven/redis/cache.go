package redis

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.EmbeddingCache = (*EmbeddingCache)(nil)

const embeddingPrefix = "sercha-retrieval:emb:"

// DefaultEmbeddingTTL bounds how long a cached query vector lives
const DefaultEmbeddingTTL = 24 * time.Hour

// EmbeddingCache stores query vectors as packed little-endian float32s,
// keyed by model and a hash of the text.
type EmbeddingCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewEmbeddingCache creates a cache; ttl <= 0 selects DefaultEmbeddingTTL.
func NewEmbeddingCache(client redis.UniversalClient, ttl time.Duration) *EmbeddingCache {
	if ttl <= 0 {
		ttl = DefaultEmbeddingTTL
	}
	return &EmbeddingCache{client: client, ttl: ttl}
}

func embeddingKey(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return embeddingPrefix + model + ":" + hex.EncodeToString(sum[:])
}

// Get returns the cached vector for (model, text)
func (c *EmbeddingCache) Get(ctx context.Context, model, text string) ([]float32, bool, error) {
	raw, err := c.client.Get(ctx, embeddingKey(model, text)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get embedding: %w", err)
	}
	vector, err := decodeVector(raw)
	if err != nil {
		// Corrupt entry: treat as a miss, the caller will overwrite it.
		return nil, false, nil
	}
	return vector, true, nil
}

// Set stores vector for (model, text) with the cache TTL
func (c *EmbeddingCache) Set(ctx context.Context, model, text string, vector []float32) error {
	if err := c.client.Set(ctx, embeddingKey(model, text), encodeVector(vector), c.ttl).Err(); err != nil {
		return fmt.Errorf("set embedding: %w", err)
	}
	return nil
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("vector payload of %d bytes", len(buf))
	}
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return v, nil
}
