// Package chunker splits raw text into overlapping, boundary-aware windows.
package chunker

import (
	"strings"

	"github.com/hyperjump/kioku/internal/models"
)

// boundaryMarkers are tried in priority order when shrinking a window's
// right edge: paragraph break first, then line break, then sentence-terminal
// punctuation followed by a space.
var boundaryMarkers = []string{"\n\n", "\n", ". ", "! ", "? "}

// Default window parameters, in bytes.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Chunker splits text into overlapping character windows, preferring to end
// each window at a paragraph, line, or sentence boundary.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// New creates a chunker. A non-positive size falls back to DefaultChunkSize;
// a negative overlap is clamped to 0 and an overlap >= size to size-1, so
// the overlap is always strictly smaller than the window.
func New(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize - 1
	}
	return &Chunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// Chunk splits text into overlapping windows. Text no longer than the chunk
// size is returned as a single untrimmed chunk at index 0 (including empty
// input). Longer text is carved into windows of at most chunkSize bytes;
// each window's right edge is pulled back to the last boundary marker inside
// it when one exists, the window text is trimmed, and empty windows are
// dropped without consuming an index, so indices are dense over kept chunks.
// Consecutive windows overlap by chunkOverlap bytes. Pure and deterministic.
func (c *Chunker) Chunk(text string) []models.Chunk {
	if len(text) <= c.chunkSize {
		return []models.Chunk{{Text: text, Index: 0}}
	}

	var chunks []models.Chunk
	start := 0
	index := 0
	for start < len(text) {
		end := start + c.chunkSize
		if end < len(text) {
			end = shrinkToBoundary(text, start, end)
		} else {
			end = len(text)
		}

		window := strings.TrimSpace(text[start:end])
		if window != "" {
			chunks = append(chunks, models.Chunk{Text: window, Index: index})
			index++
		}

		next := end - c.chunkOverlap
		if next <= start {
			// A boundary shrink pulled the window end inside the overlap
			// region; jump past it so the scan always advances.
			next = end
		}
		start = next
	}
	return chunks
}

// shrinkToBoundary returns the end of the window [start, end) pulled back to
// just after the last occurrence of the highest-priority boundary marker
// found inside it. If no marker occurs, end is returned unchanged.
func shrinkToBoundary(text string, start, end int) int {
	window := text[start:end]
	for _, marker := range boundaryMarkers {
		if i := strings.LastIndex(window, marker); i != -1 {
			return start + i + len(marker)
		}
	}
	return end
}
