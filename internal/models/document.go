// Package models defines core data structures for documents, chunks, and search results.
package models

import "time"

// Document is a registry record for an ingested document.
type Document struct {
	ID         string    `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	DocType    string    `json:"doc_type" db:"doc_type"`
	ChunkCount int       `json:"chunk_count" db:"chunk_count"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// DocumentInput is the input for ingesting a document through the API.
// Content is the raw file content; Name carries the original filename
// whose extension selects the parser.
type DocumentInput struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Content []byte `json:"content"`
}

// Chunk is a bounded substring of a document produced by the chunker.
// Index is assigned sequentially from 0 over kept (non-empty) chunks.
type Chunk struct {
	Text  string `json:"text"`
	Index int    `json:"chunk_index"`
}

// DocumentRecord is a pre-embedding (text, metadata) pair fed to the store.
// Metadata is opaque to the chunker and carried through unchanged.
type DocumentRecord struct {
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata"`
}
