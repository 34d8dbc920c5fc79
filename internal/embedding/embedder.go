// Package embedding provides text embedding providers and caching.
package embedding

import (
	"context"
	"fmt"
	"math"

	"github.com/hyperjump/kioku/internal/config"
)

// Embedder produces fixed-dimension vector embeddings for text. The
// dimension must not change across calls within one store's lifetime.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// Provider names accepted in configuration.
const (
	ProviderONNX = "onnx"
	ProviderHash = "hash"
)

// New creates the configured embedding provider. Construction doubles as
// the capability probe: a missing runtime or model surfaces here, before
// any document is accepted.
func New(cfg *config.EmbeddingConfig) (Embedder, error) {
	switch cfg.Provider {
	case ProviderONNX, "":
		return NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens, cfg.CacheSize)
	case ProviderHash:
		return NewHashEmbedder(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: onnx, hash)", cfg.Provider)
	}
}

// NormalizeL2 scales x in place to unit L2 norm. Zero vectors are left as-is.
func NormalizeL2(x []float32) {
	var sum float32
	for _, v := range x {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range x {
		x[i] *= norm
	}
}
