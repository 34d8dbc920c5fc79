package embedding

import "testing"

func TestWordTokenizer_SpecialTokens(t *testing.T) {
	tok := &WordTokenizer{}
	ids, mask, types := tok.Tokenize("hello world", 8)
	if len(ids) != 8 || len(mask) != 8 || len(types) != 8 {
		t.Fatalf("lengths %d %d %d, want 8", len(ids), len(mask), len(types))
	}
	if ids[0] != tokenCLS {
		t.Errorf("ids[0]=%d, want CLS", ids[0])
	}
	if ids[3] != tokenSEP {
		t.Errorf("ids[3]=%d, want SEP after two words", ids[3])
	}
	if mask[0] != 1 || mask[1] != 1 || mask[2] != 1 || mask[3] != 1 {
		t.Error("attention mask should cover CLS, words, and SEP")
	}
	if mask[4] != 0 {
		t.Error("padding should not be attended")
	}
}

func TestWordTokenizer_Truncates(t *testing.T) {
	tok := &WordTokenizer{}
	ids, _, _ := tok.Tokenize("a b c d e f g h i j", 4)
	if len(ids) != 4 {
		t.Fatalf("len=%d, want 4", len(ids))
	}
}

func TestWordTokenizer_Deterministic(t *testing.T) {
	tok := &WordTokenizer{}
	a, _, _ := tok.Tokenize("same input", 16)
	b, _, _ := tok.Tokenize("same input", 16)
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("tokenization must be deterministic")
		}
	}
}
