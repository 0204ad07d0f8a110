// Package qdrant is a VectorIndex over the Qdrant REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-retrieval/internal/core/domain"
	"github.com/custodia-labs/sercha-retrieval/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorIndex = (*Index)(nil)

// scrollPage is the page size used when listing document ids
const scrollPage = 256

// errCollectionMissing marks a 404 on the collection endpoint
var errCollectionMissing = errors.New("qdrant: collection not found")

// Config contains connection details for a Qdrant collection
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Dimensions int
	Timeout    time.Duration
}

// Index implements driven.VectorIndex against one Qdrant collection
// using cosine distance.
type Index struct {
	url        string
	apiKey     string
	collection string
	dimensions int
	client     *http.Client
}

// New creates a client. Call EnsureCollection before first use.
func New(cfg Config) *Index {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	collection := cfg.Collection
	if collection == "" {
		collection = "passages"
	}
	return &Index{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: collection,
		dimensions: cfg.Dimensions,
		client:     &http.Client{Timeout: timeout},
	}
}

// EnsureCollection creates the collection and its document_id payload index
// when missing. An existing collection with another vector size is an
// embedding mismatch.
func (x *Index) EnsureCollection(ctx context.Context) error {
	var info struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	err := x.do(ctx, http.MethodGet, x.collectionPath(""), nil, &info)
	if err == nil {
		size := info.Result.Config.Params.Vectors.Size
		if x.dimensions > 0 && size != 0 && size != x.dimensions {
			return fmt.Errorf("%w: collection %s holds %d-dim vectors, embedding has %d",
				domain.ErrEmbeddingMismatch, x.collection, size, x.dimensions)
		}
		return nil
	}
	if !errors.Is(err, errCollectionMissing) {
		return err
	}
	if x.dimensions <= 0 {
		return fmt.Errorf("%w: qdrant collection needs vector dimensions", domain.ErrInvalidConfig)
	}

	create := map[string]any{
		"vectors": map[string]any{
			"size":     x.dimensions,
			"distance": "Cosine",
		},
	}
	if err := x.do(ctx, http.MethodPut, x.collectionPath(""), create, nil); err != nil {
		return err
	}

	index := map[string]any{
		"field_name":   domain.FieldDocumentID,
		"field_schema": "keyword",
	}
	return x.do(ctx, http.MethodPut, x.collectionPath("/index?wait=true"), index, nil)
}

type point struct {
	ID      string            `json:"id"`
	Vector  []float32         `json:"vector"`
	Payload map[string]string `json:"payload"`
}

// Upsert writes records. Qdrant only accepts UUID or integer point ids,
// so other ids are mapped to a stable name-based UUID.
func (x *Index) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]point, len(records))
	for i, r := range records {
		payload := make(map[string]string, len(r.Payload)+1)
		for k, v := range r.Payload {
			payload[k] = v
		}
		if payload[domain.FieldPassageID] == "" {
			payload[domain.FieldPassageID] = r.ID
		}
		points[i] = point{ID: PointID(r.ID), Vector: r.Vector, Payload: payload}
	}
	return x.do(ctx, http.MethodPut, x.collectionPath("/points?wait=true"), map[string]any{"points": points}, nil)
}

// PointID returns id when it is a UUID, else a UUIDv5 derived from it.
func PointID(id string) string {
	if u, err := uuid.Parse(id); err == nil {
		return u.String()
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("sercha:passage:"+id)).String()
}

// DeleteByDocument removes every point of documentID
func (x *Index) DeleteByDocument(ctx context.Context, documentID string) error {
	if documentID == "" {
		return fmt.Errorf("%w: empty document id", domain.ErrInvalidInput)
	}
	body := map[string]any{
		"filter": map[string]any{
			"must": []any{matchValue(documentID)},
		},
	}
	return x.do(ctx, http.MethodPost, x.collectionPath("/points/delete?wait=true"), body, nil)
}

// Search runs a filtered nearest-neighbour query
func (x *Index) Search(ctx context.Context, vector []float32, limit int, scoreThreshold float64, filter *domain.PayloadFilter) ([]domain.VectorHit, error) {
	if limit <= 0 {
		return []domain.VectorHit{}, nil
	}
	body := map[string]any{
		"vector":          vector,
		"limit":           limit,
		"with_payload":    true,
		"score_threshold": scoreThreshold,
	}
	if filter != nil {
		body["filter"] = map[string]any{
			"must": []any{matchAny(filter.DocumentIDs)},
		}
	}

	var resp struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := x.do(ctx, http.MethodPost, x.collectionPath("/points/search"), body, &resp); err != nil {
		return nil, err
	}

	hits := make([]domain.VectorHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		payload := stringPayload(r.Payload)
		id := payload[domain.FieldPassageID]
		if id == "" {
			id = fmt.Sprint(r.ID)
		}
		hits = append(hits, domain.VectorHit{ID: id, Score: r.Score, Payload: payload})
	}
	return hits, nil
}

// DocumentIDs pages through the collection with the scroll API
func (x *Index) DocumentIDs(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var offset any
	for {
		body := map[string]any{
			"limit":        scrollPage,
			"with_payload": []string{domain.FieldDocumentID},
			"with_vector":  false,
		}
		if offset != nil {
			body["offset"] = offset
		}

		var resp struct {
			Result struct {
				Points []struct {
					Payload map[string]any `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		if err := x.do(ctx, http.MethodPost, x.collectionPath("/points/scroll"), body, &resp); err != nil {
			return nil, err
		}
		for _, p := range resp.Result.Points {
			if id, ok := p.Payload[domain.FieldDocumentID].(string); ok && id != "" {
				seen[id] = true
			}
		}
		if resp.Result.NextPageOffset == nil {
			break
		}
		offset = resp.Result.NextPageOffset
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// HealthCheck verifies the collection is reachable
func (x *Index) HealthCheck(ctx context.Context) error {
	return x.do(ctx, http.MethodGet, x.collectionPath(""), nil, nil)
}

func (x *Index) collectionPath(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", x.url, x.collection, suffix)
}

func matchValue(documentID string) map[string]any {
	return map[string]any{
		"key":   domain.FieldDocumentID,
		"match": map[string]any{"value": documentID},
	}
}

func matchAny(documentIDs []string) map[string]any {
	return map[string]any{
		"key":   domain.FieldDocumentID,
		"match": map[string]any{"any": documentIDs},
	}
}

// stringPayload flattens a JSON payload back to the string map the index stores
func stringPayload(in map[string]any) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch t := v.(type) {
		case string:
			out[k] = t
		case nil:
		default:
			out[k] = fmt.Sprint(t)
		}
	}
	return out
}

func (x *Index) do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if x.apiKey != "" {
		req.Header.Set("api-key", x.apiKey)
	}

	resp, err := x.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errCollectionMissing
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("qdrant %s %s failed: %s: %s", method, url, resp.Status, bytes.TrimSpace(msg))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
