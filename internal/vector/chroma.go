package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"time"

	"github.com/hyperjump/kioku/internal/models"
)

const defaultChromaTimeout = 15 * time.Second

// ChromaStore is a minimal REST client to a Chroma collection. Persistence,
// ID bookkeeping, and distance computation are delegated to the service;
// the collection is created with cosine space, so reported distances fall
// in [0,1] and score = 1 - distance. Chroma scores are not numerically
// comparable to the flat backend's inverse-distance scores.
type ChromaStore struct {
	baseURL    string
	collection string
	// collectionID is the service-assigned ID of the named collection,
	// refreshed whenever the collection is (re)created.
	collectionID string
	client       *http.Client
}

// ChromaConfig configures a ChromaStore.
type ChromaConfig struct {
	URL        string
	Collection string
	Timeout    time.Duration
}

// NewChromaStore connects to the service and gets or creates the named
// collection. A connection failure surfaces here, at construction.
func NewChromaStore(cfg ChromaConfig) (*ChromaStore, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultChromaTimeout
	}
	s := &ChromaStore{
		baseURL:    cfg.URL,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
	if err := s.ensureCollection(); err != nil {
		return nil, fmt.Errorf("chroma unavailable at %s: %w", cfg.URL, err)
	}
	return s, nil
}

// Name returns "chroma".
func (s *ChromaStore) Name() string { return "chroma" }

// ensureCollection gets or creates the collection with cosine space and
// records its service-assigned ID.
func (s *ChromaStore) ensureCollection() error {
	body := map[string]interface{}{
		"name":          s.collection,
		"metadata":      map[string]interface{}{"hnsw:space": "cosine"},
		"get_or_create": true,
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := s.doJSON(http.MethodPost, s.baseURL+"/api/v1/collections", body, &resp); err != nil {
		return err
	}
	if resp.ID == "" {
		return fmt.Errorf("collection %s: service returned no id", s.collection)
	}
	s.collectionID = resp.ID
	return nil
}

// Add upserts entries under IDs derived deterministically from batch
// position and text content, so re-running the same batch cannot collide
// with itself or silently overwrite unrelated entries.
func (s *ChromaStore) Add(ctx context.Context, vectors [][]float32, entries []models.DocumentRecord) (int, error) {
	if len(vectors) != len(entries) {
		return 0, fmt.Errorf("vectors and entries length mismatch: %d != %d", len(vectors), len(entries))
	}
	if len(entries) == 0 {
		return 0, nil
	}
	ids := make([]string, len(entries))
	documents := make([]string, len(entries))
	metadatas := make([]map[string]interface{}, len(entries))
	for i, rec := range entries {
		ids[i] = entryID(i, rec.Text)
		documents[i] = rec.Text
		metadatas[i] = rec.Metadata
	}
	body := map[string]interface{}{
		"ids":        ids,
		"embeddings": vectors,
		"documents":  documents,
		"metadatas":  metadatas,
	}
	url := fmt.Sprintf("%s/api/v1/collections/%s/add", s.baseURL, s.collectionID)
	if err := s.doJSON(http.MethodPost, url, body, nil); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Search queries the collection and converts reported distances to scores.
// topK is clamped to the collection size; older servers reject n_results
// larger than the number of stored entries.
func (s *ChromaStore) Search(ctx context.Context, query []float32, topK int) ([]models.SearchResult, error) {
	if topK <= 0 {
		return []models.SearchResult{}, nil
	}
	count, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return []models.SearchResult{}, nil
	}
	if topK > count {
		topK = count
	}
	body := map[string]interface{}{
		"query_embeddings": [][]float32{query},
		"n_results":        topK,
		"include":          []string{"documents", "metadatas", "distances"},
	}
	var resp struct {
		Documents [][]string                 `json:"documents"`
		Metadatas [][]map[string]interface{} `json:"metadatas"`
		Distances [][]float64                `json:"distances"`
	}
	url := fmt.Sprintf("%s/api/v1/collections/%s/query", s.baseURL, s.collectionID)
	if err := s.doJSON(http.MethodPost, url, body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Documents) == 0 {
		return []models.SearchResult{}, nil
	}
	results := make([]models.SearchResult, 0, len(resp.Documents[0]))
	for i, doc := range resp.Documents[0] {
		var metadata map[string]interface{}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			metadata = resp.Metadatas[0][i]
		}
		var score float64
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			score = 1.0 - resp.Distances[0][i]
		}
		results = append(results, models.SearchResult{Text: doc, Metadata: metadata, Score: score})
	}
	return results, nil
}

// Clear deletes and recreates the collection.
func (s *ChromaStore) Clear(ctx context.Context) error {
	url := fmt.Sprintf("%s/api/v1/collections/%s", s.baseURL, s.collection)
	if err := s.doJSON(http.MethodDelete, url, nil, nil); err != nil {
		return err
	}
	return s.ensureCollection()
}

// Count returns the number of entries in the collection.
func (s *ChromaStore) Count(ctx context.Context) (int, error) {
	var count int
	url := fmt.Sprintf("%s/api/v1/collections/%s/count", s.baseURL, s.collectionID)
	if err := s.doJSON(http.MethodGet, url, nil, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// doJSON issues one request with an optional JSON body and decodes the
// response into out when non-nil. Non-2xx responses become errors carrying
// the response body.
func (s *ChromaStore) doJSON(method, url string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("chroma %s %s: status %d: %s", method, url, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// entryID derives a unique, deterministic entry ID from batch position and
// text content.
func entryID(position int, text string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	return fmt.Sprintf("chunk_%d_%x", position, h.Sum64())
}
