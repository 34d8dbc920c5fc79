// Package retrieval unifies the vector store backends behind one facade.
package retrieval

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/embedding"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/vector"
)

// Retriever owns the embedding provider and the selected backend. It is the
// only type consumers depend on; nothing downstream branches on the backend.
// Mutating operations are serialized; searches run concurrently because
// both backends' read paths are side-effect-free.
type Retriever struct {
	embedder    embedding.Embedder
	backend     vector.Backend
	defaultTopK int
	mu          sync.RWMutex
}

// New selects the backend from cfg and constructs the facade. An unknown
// backend name fails here, once; backend construction also surfaces
// unreachable services and corrupt persisted state immediately.
func New(cfg *config.StoreConfig, embedder embedding.Embedder) (*Retriever, error) {
	var (
		backend vector.Backend
		err     error
	)
	switch cfg.Backend {
	case config.BackendFlat, "":
		backend, err = vector.NewFlatStore(cfg.DataDir, embedder.Dimensions())
	case config.BackendChroma:
		backend, err = vector.NewChromaStore(vector.ChromaConfig{
			URL:        cfg.ChromaURL,
			Collection: cfg.Collection,
			Timeout:    time.Duration(cfg.TimeoutSecs) * time.Second,
		})
	default:
		return nil, fmt.Errorf("%w: %s (supported: flat, chroma)", vector.ErrUnsupportedBackend, cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = 5
	}
	return &Retriever{embedder: embedder, backend: backend, defaultTopK: topK}, nil
}

// Add embeds all record texts in one batch and stores them. If embedding
// fails nothing is added, so a failed batch never leaves partial entries.
func (r *Retriever) Add(ctx context.Context, records []models.DocumentRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = rec.Text
	}
	vectors, err := r.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed batch: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	n, err := r.backend.Add(ctx, vectors, records)
	if err != nil {
		return 0, fmt.Errorf("store add: %w", err)
	}
	return n, nil
}

// Search embeds the query and returns the topK nearest entries ordered by
// descending score. A non-positive topK uses the configured default.
func (r *Retriever) Search(ctx context.Context, query string, topK int) ([]models.SearchResult, error) {
	if topK <= 0 {
		topK = r.defaultTopK
	}
	queryVector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	results, err := r.backend.Search(ctx, queryVector, topK)
	if err != nil {
		return nil, fmt.Errorf("store search: %w", err)
	}
	return results, nil
}

// Clear discards every stored entry.
func (r *Retriever) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend.Clear(ctx)
}

// Stats reports the store's entry count, embedding dimension, and backend.
func (r *Retriever) Stats(ctx context.Context) (*models.StoreStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count, err := r.backend.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("store count: %w", err)
	}
	return &models.StoreStats{
		EntryCount:          count,
		EmbeddingDimensions: r.embedder.Dimensions(),
		Backend:             r.backend.Name(),
	}, nil
}

// Close releases the embedding provider's resources.
func (r *Retriever) Close() error {
	return r.embedder.Close()
}
