package vector

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
)

// fakeChroma implements just enough of the Chroma REST API for the client.
type fakeChroma struct {
	collectionID string
	ids          []string
	embeddings   [][]float32
	documents    []string
	metadatas    []map[string]interface{}
	deletes      int
	creates      int
}

func (f *fakeChroma) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/collections", func(w http.ResponseWriter, r *http.Request) {
		f.creates++
		json.NewEncoder(w).Encode(map[string]string{"id": f.collectionID, "name": "test"})
	})
	mux.HandleFunc("/api/v1/collections/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodDelete:
			f.deletes++
			f.ids, f.embeddings, f.documents, f.metadatas = nil, nil, nil, nil
			w.WriteHeader(http.StatusOK)
		case strings.HasSuffix(r.URL.Path, "/add"):
			var req struct {
				IDs        []string                 `json:"ids"`
				Embeddings [][]float32              `json:"embeddings"`
				Documents  []string                 `json:"documents"`
				Metadatas  []map[string]interface{} `json:"metadatas"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			f.ids = append(f.ids, req.IDs...)
			f.embeddings = append(f.embeddings, req.Embeddings...)
			f.documents = append(f.documents, req.Documents...)
			f.metadatas = append(f.metadatas, req.Metadatas...)
			w.WriteHeader(http.StatusCreated)
		case strings.HasSuffix(r.URL.Path, "/query"):
			var req struct {
				QueryEmbeddings [][]float32 `json:"query_embeddings"`
				NResults        int         `json:"n_results"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			// Older servers reject n_results beyond the stored count.
			if req.NResults > len(f.ids) {
				http.Error(w, "Number of requested results exceeds number of elements", http.StatusBadRequest)
				return
			}
			type hit struct {
				i    int
				dist float64
			}
			hits := make([]hit, len(f.embeddings))
			for i, emb := range f.embeddings {
				hits[i] = hit{i: i, dist: cosineDistance(req.QueryEmbeddings[0], emb)}
			}
			sort.Slice(hits, func(a, b int) bool { return hits[a].dist < hits[b].dist })
			k := req.NResults
			if k > len(hits) {
				k = len(hits)
			}
			docs := make([]string, k)
			metas := make([]map[string]interface{}, k)
			dists := make([]float64, k)
			for i := 0; i < k; i++ {
				docs[i] = f.documents[hits[i].i]
				metas[i] = f.metadatas[hits[i].i]
				dists[i] = hits[i].dist
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"documents": [][]string{docs},
				"metadatas": [][]map[string]interface{}{metas},
				"distances": [][]float64{dists},
			})
		case strings.HasSuffix(r.URL.Path, "/count"):
			json.NewEncoder(w).Encode(len(f.ids))
		default:
			http.NotFound(w, r)
		}
	})
	return mux
}

func cosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

func newTestChroma(t *testing.T) (*ChromaStore, *fakeChroma) {
	t.Helper()
	fake := &fakeChroma{collectionID: "col-123"}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	s, err := NewChromaStore(ChromaConfig{URL: srv.URL, Collection: "test"})
	if err != nil {
		t.Fatal(err)
	}
	return s, fake
}

func TestChromaStore_AddSearch(t *testing.T) {
	s, fake := newTestChroma(t)
	ctx := context.Background()

	n, err := s.Add(ctx, [][]float32{{1, 0}, {0, 1}}, testRecords("alpha", "beta"))
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("added=%d", n)
	}
	if len(fake.ids) != 2 {
		t.Fatalf("service received %d ids", len(fake.ids))
	}
	if !strings.HasPrefix(fake.ids[0], "chunk_0_") || !strings.HasPrefix(fake.ids[1], "chunk_1_") {
		t.Errorf("ids should encode batch position: %v", fake.ids)
	}

	results, err := s.Search(ctx, []float32{1, 0}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Text != "alpha" {
		t.Fatalf("results=%v", results)
	}
	// Identical direction means cosine distance 0, score 1.
	if math.Abs(results[0].Score-1.0) > 1e-6 {
		t.Errorf("score=%f, want 1", results[0].Score)
	}
}

func TestChromaStore_TopKClamp(t *testing.T) {
	s, _ := newTestChroma(t)
	ctx := context.Background()
	_, err := s.Add(ctx, [][]float32{{1, 0}, {0, 1}, {1, 1}}, testRecords("a", "b", "c"))
	if err != nil {
		t.Fatal(err)
	}

	results, err := s.Search(ctx, []float32{1, 0}, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Errorf("expected all 3 stored entries, got %d", len(results))
	}
}

func TestChromaStore_SearchEmptyCollection(t *testing.T) {
	s, _ := newTestChroma(t)
	results, err := s.Search(context.Background(), []float32{1, 0}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("empty collection should yield no results, got %d", len(results))
	}
}

func TestChromaStore_DeterministicIDs(t *testing.T) {
	a := entryID(0, "same text")
	b := entryID(0, "same text")
	if a != b {
		t.Error("same position and text must yield the same ID")
	}
	if entryID(1, "same text") == a {
		t.Error("different positions must yield different IDs")
	}
	if entryID(0, "other text") == a {
		t.Error("different texts must yield different IDs")
	}
}

func TestChromaStore_ClearRecreatesCollection(t *testing.T) {
	s, fake := newTestChroma(t)
	ctx := context.Background()
	_, _ = s.Add(ctx, [][]float32{{1, 0}}, testRecords("a"))

	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if fake.deletes != 1 {
		t.Errorf("deletes=%d, want 1", fake.deletes)
	}
	if fake.creates < 2 {
		t.Errorf("collection should be recreated after delete, creates=%d", fake.creates)
	}
	count, err := s.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("count=%d after clear", count)
	}
}

func TestChromaStore_Count(t *testing.T) {
	s, _ := newTestChroma(t)
	ctx := context.Background()
	_, _ = s.Add(ctx, [][]float32{{1, 0}, {0, 1}, {1, 1}}, testRecords("a", "b", "c"))
	count, err := s.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("count=%d", count)
	}
}

func TestNewChromaStore_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	if _, err := NewChromaStore(ChromaConfig{URL: srv.URL, Collection: "test"}); err == nil {
		t.Error("expected construction error when the service is unreachable")
	}
}
