package chunker

import (
	"strings"
	"testing"
)

func TestChunk_ShortInput(t *testing.T) {
	c := New(100, 20)
	text := "  short text with surrounding space  "
	chunks := c.Chunk(text)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != text {
		t.Errorf("short input must be returned untrimmed, got %q", chunks[0].Text)
	}
	if chunks[0].Index != 0 {
		t.Errorf("Index=%d, want 0", chunks[0].Index)
	}
}

func TestChunk_EmptyInput(t *testing.T) {
	c := New(100, 20)
	chunks := c.Chunk("")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for empty input, got %d", len(chunks))
	}
	if chunks[0].Text != "" || chunks[0].Index != 0 {
		t.Errorf("got %+v, want empty chunk at index 0", chunks[0])
	}
}

func TestChunk_SentenceBoundaries(t *testing.T) {
	text := strings.Repeat("A. B. C. ", 50) // 450 chars
	c := New(100, 20)
	chunks := c.Chunk(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	if !strings.HasPrefix(chunks[0].Text, "A. B. C. ") {
		t.Errorf("chunk 0 should start with the input prefix, got %q", chunks[0].Text[:20])
	}
	for i, ch := range chunks {
		if len(ch.Text) > 100 {
			t.Errorf("chunk %d length %d exceeds chunk size", i, len(ch.Text))
		}
		if !strings.HasSuffix(ch.Text, ".") {
			t.Errorf("chunk %d should end at a sentence boundary, got %q", i, ch.Text)
		}
	}
}

func TestChunk_DenseIndices(t *testing.T) {
	text := strings.Repeat("some words here. ", 40)
	chunks := New(80, 10).Chunk(text)
	for i, ch := range chunks {
		if ch.Index != i {
			t.Fatalf("indices must be dense 0..N-1: position %d has index %d", i, ch.Index)
		}
	}
}

func TestChunk_HardCutWithoutBoundaries(t *testing.T) {
	text := strings.Repeat("z", 250)
	chunks := New(100, 20).Chunk(text)
	// Windows advance by size-overlap when no boundary exists:
	// [0,100) [80,180) [160,250) [230,250).
	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(chunks))
	}
	wantLens := []int{100, 100, 90, 20}
	for i, ch := range chunks {
		if len(ch.Text) != wantLens[i] {
			t.Errorf("chunk %d length=%d, want %d", i, len(ch.Text), wantLens[i])
		}
	}
}

func TestChunk_ParagraphBoundaryPriority(t *testing.T) {
	// The paragraph break wins over the later sentence boundary.
	text := "First paragraph.\n\nSecond part follows here. " + strings.Repeat("tail text ", 20)
	chunks := New(60, 10).Chunk(text)
	if chunks[0].Text != "First paragraph." {
		t.Errorf("chunk 0 should end at the paragraph break, got %q", chunks[0].Text)
	}
}

func TestChunk_TerminatesWhenBoundaryInsideOverlap(t *testing.T) {
	// The first window shrinks to just past "hi\n\n", which is inside the
	// overlap region; the scan must still advance and terminate.
	text := "hi\n\n" + strings.Repeat("x", 200)
	chunks := New(50, 20).Chunk(text)
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	if chunks[0].Text != "hi" {
		t.Errorf("chunk 0 = %q, want %q", chunks[0].Text, "hi")
	}
	last := chunks[len(chunks)-1].Text
	if !strings.HasSuffix(last, "x") {
		t.Errorf("last chunk should reach the end of input, got %q", last)
	}
}

func TestChunk_WhitespaceOnlyWindowsDropped(t *testing.T) {
	text := strings.Repeat("word. ", 20) + strings.Repeat(" ", 120) + strings.Repeat("tail. ", 20)
	chunks := New(100, 10).Chunk(text)
	for i, ch := range chunks {
		if strings.TrimSpace(ch.Text) == "" {
			t.Errorf("chunk %d is whitespace only and should have been dropped", i)
		}
		if ch.Index != i {
			t.Errorf("index %d at position %d: dropped chunks must not consume indices", ch.Index, i)
		}
	}
}

func TestNew_ClampsParameters(t *testing.T) {
	c := New(0, -5)
	if c.chunkSize != DefaultChunkSize || c.chunkOverlap != 0 {
		t.Errorf("got size=%d overlap=%d", c.chunkSize, c.chunkOverlap)
	}
	c = New(10, 50)
	if c.chunkOverlap != 9 {
		t.Errorf("overlap should clamp below size, got %d", c.chunkOverlap)
	}
}
