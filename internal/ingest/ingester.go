package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/chunker"
	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/docid"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/retrieval"
	"github.com/hyperjump/kioku/internal/storage"
)

// Ingester parses documents, chunks them, stores the chunks in the
// retrieval store, and records the document in the registry. Errors are
// per-document: one bad file never aborts a batch.
type Ingester struct {
	retriever *retrieval.Retriever
	registry  storage.Registry
	chunker   *chunker.Chunker
	logger    *zap.Logger
}

// Option configures an Ingester.
type Option func(*Ingester)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(ing *Ingester) { ing.logger = l }
}

// NewIngester creates an ingester with the given dependencies.
func NewIngester(retriever *retrieval.Retriever, registry storage.Registry, cfg *config.IngestConfig, opts ...Option) *Ingester {
	ing := &Ingester{
		retriever: retriever,
		registry:  registry,
		chunker:   chunker.New(cfg.ChunkSize, cfg.ChunkOverlap),
	}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// IngestDocument parses, chunks, embeds, and stores one document. Documents
// pushed without an ID get a generated one. Returns the registry record.
func (ing *Ingester) IngestDocument(ctx context.Context, input *models.DocumentInput) (*models.Document, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("document name is required")
	}
	parsed, err := ParseDocument(input.Content, input.Name)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(parsed.Text) == "" {
		return nil, fmt.Errorf("document %s has no text content", input.Name)
	}

	chunks := ing.chunker.Chunk(parsed.Text)
	records := make([]models.DocumentRecord, 0, len(chunks))
	for _, ch := range chunks {
		metadata := make(map[string]interface{}, len(parsed.Metadata)+1)
		for k, v := range parsed.Metadata {
			metadata[k] = v
		}
		metadata["chunk_index"] = ch.Index
		records = append(records, models.DocumentRecord{Text: ch.Text, Metadata: metadata})
	}

	added, err := ing.retriever.Add(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("store document %s: %w", input.Name, err)
	}

	id := input.ID
	if id == "" {
		id = uuid.New().String()
	}
	doc := &models.Document{
		ID:         id,
		Name:       input.Name,
		DocType:    fmt.Sprintf("%v", parsed.Metadata["type"]),
		ChunkCount: added,
	}
	if err := ing.registry.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("register document %s: %w", input.Name, err)
	}
	if ing.logger != nil {
		ing.logger.Debug("document ingested",
			zap.String("id", doc.ID),
			zap.String("name", doc.Name),
			zap.Int("chunks", doc.ChunkCount),
		)
	}
	return doc, nil
}

// IngestFile reads and ingests the file at path. The document ID derives
// from the path and content, so re-ingesting the same file updates its
// registry record instead of creating a new one.
func (ing *Ingester) IngestFile(ctx context.Context, path string) (*models.Document, error) {
	if !Supported(filepath.Ext(path)) {
		return nil, fmt.Errorf("unsupported document type: %s", filepath.Ext(path))
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return ing.IngestDocument(ctx, &models.DocumentInput{
		ID:      docid.DocumentID(path, content),
		Name:    filepath.Base(path),
		Content: content,
	})
}

// IngestPaths ingests each path, logging and skipping failures. Returns the
// documents that were ingested successfully.
func (ing *Ingester) IngestPaths(ctx context.Context, paths []string) []*models.Document {
	var docs []*models.Document
	for _, path := range paths {
		doc, err := ing.IngestFile(ctx, path)
		if err != nil {
			if ing.logger != nil {
				ing.logger.Warn("skipping document", zap.String("path", path), zap.Error(err))
			}
			continue
		}
		docs = append(docs, doc)
	}
	return docs
}
