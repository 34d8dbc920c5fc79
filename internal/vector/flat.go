package vector

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/hyperjump/kioku/internal/models"
)

// Artifact file names inside the store directory. Both must exist together;
// the Nth metadata record describes the Nth vector row.
const (
	vectorsFileName  = "vectors.bin"
	metadataFileName = "metadata.json"
)

// flatEntry is one persisted metadata record, in vector-row order.
type flatEntry struct {
	Index    int                    `json:"index"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata"`
}

// FlatStore is an exact nearest-neighbor store: every query is compared
// against every stored vector by squared Euclidean distance. Both artifacts
// are fully rewritten after every Add; a crash mid-write can corrupt the
// on-disk copy, which the loader detects and refuses.
type FlatStore struct {
	dir        string
	dimensions int

	mu      sync.RWMutex
	vectors [][]float32
	entries []flatEntry
}

// NewFlatStore opens or creates a flat store in dir. Existing artifacts are
// loaded and consistency-checked: presence of only one artifact, a row count
// that disagrees with the metadata count, or a dimension mismatch all fail
// with ErrCorruptState rather than loading misaligned data.
func NewFlatStore(dir string, dimensions int) (*FlatStore, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("flat store: dimensions must be positive")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	s := &FlatStore{dir: dir, dimensions: dimensions}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Name returns "flat".
func (s *FlatStore) Name() string { return "flat" }

// Add appends entries and their vectors, then rewrites both artifacts.
func (s *FlatStore) Add(ctx context.Context, vectors [][]float32, entries []models.DocumentRecord) (int, error) {
	if len(vectors) != len(entries) {
		return 0, fmt.Errorf("vectors and entries length mismatch: %d != %d", len(vectors), len(entries))
	}
	if len(entries) == 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, vec := range vectors {
		if len(vec) != s.dimensions {
			return 0, fmt.Errorf("vector %d dimension mismatch: got %d, expected %d", i, len(vec), s.dimensions)
		}
	}
	for i, rec := range entries {
		vec := make([]float32, s.dimensions)
		copy(vec, vectors[i])
		s.vectors = append(s.vectors, vec)
		s.entries = append(s.entries, flatEntry{
			Index:    len(s.entries),
			Text:     rec.Text,
			Metadata: rec.Metadata,
		})
	}
	if err := s.persist(); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Search scans every stored vector and returns the k nearest by squared
// Euclidean distance, scored as 1/(1+distance) and sorted by score
// descending.
func (s *FlatStore) Search(ctx context.Context, query []float32, topK int) ([]models.SearchResult, error) {
	if len(query) != s.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), s.dimensions)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 || len(s.vectors) == 0 {
		return []models.SearchResult{}, nil
	}

	type scored struct {
		row      int
		distance float64
	}
	scores := make([]scored, len(s.vectors))
	for i, vec := range s.vectors {
		scores[i] = scored{row: i, distance: squaredL2(query, vec)}
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].distance < scores[j].distance })

	k := topK
	if k > len(scores) {
		k = len(scores)
	}
	results := make([]models.SearchResult, k)
	for i := 0; i < k; i++ {
		entry := s.entries[scores[i].row]
		results[i] = models.SearchResult{
			Text:     entry.Text,
			Metadata: entry.Metadata,
			Score:    1.0 / (1.0 + scores[i].distance),
		}
	}
	// The inverse-distance transform is monotonic, so this is already the
	// order above; the contract still requires an explicit sort by score.
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	return results, nil
}

// Clear discards all entries and deletes both artifacts if present.
func (s *FlatStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors = nil
	s.entries = nil
	for _, name := range []string{vectorsFileName, metadataFileName} {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return nil
}

// Count returns the number of stored entries.
func (s *FlatStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func (s *FlatStore) vectorsPath() string  { return filepath.Join(s.dir, vectorsFileName) }
func (s *FlatStore) metadataPath() string { return filepath.Join(s.dir, metadataFileName) }

// persist rewrites both artifacts in full. Callers hold the write lock.
func (s *FlatStore) persist() error {
	f, err := os.Create(s.vectorsPath())
	if err != nil {
		return fmt.Errorf("create vectors file: %w", err)
	}
	defer f.Close()
	if err := binary.Write(f, binary.LittleEndian, uint32(s.dimensions)); err != nil {
		return fmt.Errorf("write dimensions: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(len(s.vectors))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for i, vec := range s.vectors {
		if _, err := f.Write(float32SliceToBytes(vec)); err != nil {
			return fmt.Errorf("write vector %d: %w", i, err)
		}
	}

	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(s.metadataPath(), data, 0644); err != nil {
		return fmt.Errorf("write metadata file: %w", err)
	}
	return nil
}

// load reads both artifacts. Missing both means a fresh store.
func (s *FlatStore) load() error {
	_, vecErr := os.Stat(s.vectorsPath())
	_, metaErr := os.Stat(s.metadataPath())
	vecExists := vecErr == nil
	metaExists := metaErr == nil
	if !vecExists && !metaExists {
		return nil
	}
	if vecExists != metaExists {
		return fmt.Errorf("%w: only one of %s and %s is present in %s",
			ErrCorruptState, vectorsFileName, metadataFileName, s.dir)
	}

	f, err := os.Open(s.vectorsPath())
	if err != nil {
		return fmt.Errorf("open vectors file: %w", err)
	}
	defer f.Close()
	var dim, n uint32
	if err := binary.Read(f, binary.LittleEndian, &dim); err != nil {
		return fmt.Errorf("%w: read dimensions: %v", ErrCorruptState, err)
	}
	if int(dim) != s.dimensions {
		return fmt.Errorf("%w: file has dimension %d, store expects %d", ErrCorruptState, dim, s.dimensions)
	}
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("%w: read count: %v", ErrCorruptState, err)
	}
	vectors := make([][]float32, 0, n)
	buf := make([]byte, s.dimensions*4)
	for i := uint32(0); i < n; i++ {
		if _, err := io.ReadFull(f, buf); err != nil {
			return fmt.Errorf("%w: read vector %d: %v", ErrCorruptState, i, err)
		}
		vectors = append(vectors, bytesToFloat32Slice(buf))
	}

	data, err := os.ReadFile(s.metadataPath())
	if err != nil {
		return fmt.Errorf("read metadata file: %w", err)
	}
	var entries []flatEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("%w: parse metadata: %v", ErrCorruptState, err)
	}
	if len(entries) != len(vectors) {
		return fmt.Errorf("%w: %d metadata records for %d vectors", ErrCorruptState, len(entries), len(vectors))
	}
	s.vectors = vectors
	s.entries = entries
	return nil
}

// squaredL2 returns the squared Euclidean distance between a and b.
func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

func float32SliceToBytes(s []float32) []byte {
	out := make([]byte, len(s)*4)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*4:(i+1)*4], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4 : (i+1)*4]))
	}
	return out
}
