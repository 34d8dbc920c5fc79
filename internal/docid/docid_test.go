package docid

import (
	"strings"
	"testing"
)

func TestDocumentID_Stable(t *testing.T) {
	a := DocumentID("docs/guide.md", []byte("hello world"))
	b := DocumentID("docs/guide.md", []byte("hello world"))
	if a != b {
		t.Error("same path and content must yield the same ID")
	}
	if len(a) != 32 {
		t.Errorf("ID length %d, want 32 hex chars", len(a))
	}
}

func TestDocumentID_Distinguishes(t *testing.T) {
	base := DocumentID("a.md", []byte("content"))
	if DocumentID("b.md", []byte("content")) == base {
		t.Error("different paths must yield different IDs")
	}
	if DocumentID("a.md", []byte("other")) == base {
		t.Error("different content must yield different IDs")
	}
}

func TestDocumentID_OnlyPrefixMatters(t *testing.T) {
	head := strings.Repeat("x", 100)
	a := DocumentID("a.md", []byte(head+"tail one"))
	b := DocumentID("a.md", []byte(head+"tail two"))
	if a != b {
		t.Error("content beyond the prefix must not affect the ID")
	}
}
