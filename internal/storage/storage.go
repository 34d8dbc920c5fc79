// Package storage provides the document registry: a record of every
// ingested document, independent of the vector store's entries.
package storage

import (
	"context"

	"github.com/hyperjump/kioku/internal/models"
)

// Registry persists ingested-document records.
type Registry interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error)
	CountDocuments(ctx context.Context) (int64, error)
	// DeleteAllDocuments empties the registry; invoked alongside store clear.
	DeleteAllDocuments(ctx context.Context) error
	Close() error
}
