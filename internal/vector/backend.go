// Package vector provides the retrieval store backends: an exact in-process
// flat index with on-disk artifacts, and a managed Chroma collection.
package vector

import (
	"context"
	"errors"

	"github.com/hyperjump/kioku/internal/models"
)

// Backend stores embedded document records and answers nearest-neighbor
// queries. Backends are vector-level: the caller embeds texts and queries.
// Entries are immutable once added and removed only by Clear.
type Backend interface {
	// Name identifies the backend ("flat" or "chroma").
	Name() string
	// Add appends entries with their vectors, position-aligned, and
	// returns the number added. Vectors and entries must have equal length.
	Add(ctx context.Context, vectors [][]float32, entries []models.DocumentRecord) (int, error)
	// Search returns the min(topK, stored) nearest entries ordered by
	// descending score. An empty store yields an empty result, not an error.
	Search(ctx context.Context, query []float32, topK int) ([]models.SearchResult, error)
	// Clear discards all entries. Idempotent.
	Clear(ctx context.Context) error
	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)
}

// ErrCorruptState reports that persisted artifacts are inconsistent
// (partial presence or misaligned vector/metadata counts) and must not be
// loaded silently.
var ErrCorruptState = errors.New("corrupt persisted store state")

// ErrUnsupportedBackend reports a backend name the factory does not know.
var ErrUnsupportedBackend = errors.New("unsupported store backend")
