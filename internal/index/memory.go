package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore keeps collections in process memory. It is the default
// backend for single-machine runs without a Qdrant instance and disappears
// with the process.
type MemoryStore struct {
	dimensions int

	mu          sync.RWMutex
	collections map[string][]Chunk
}

// NewMemoryStore creates an empty in-memory store expecting vectors of the
// given dimension.
func NewMemoryStore(dimensions int) *MemoryStore {
	return &MemoryStore{
		dimensions:  dimensions,
		collections: make(map[string][]Chunk),
	}
}

// Upsert writes chunks into the document's collection, replacing any
// existing chunk with the same ID.
func (m *MemoryStore) Upsert(ctx context.Context, documentID string, chunks []Chunk) error {
	for _, ch := range chunks {
		if len(ch.Embedding) != m.dimensions {
			return fmt.Errorf("%w: chunk %s has %d dimensions, want %d",
				ErrDimensionMismatch, ch.ID, len(ch.Embedding), m.dimensions)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.collections[documentID]
	byID := make(map[string]int, len(existing))
	for i, ch := range existing {
		byID[ch.ID] = i
	}
	for _, ch := range chunks {
		if i, ok := byID[ch.ID]; ok {
			existing[i] = ch
			continue
		}
		existing = append(existing, ch)
	}
	m.collections[documentID] = existing
	return nil
}

// Search scans the scope and returns the k nearest chunks by cosine
// similarity. A scope without chunks returns ErrEmptyIndex.
func (m *MemoryStore) Search(ctx context.Context, documentID string, vector []float32, k int) ([]Hit, error) {
	if len(vector) != m.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, want %d",
			ErrDimensionMismatch, len(vector), m.dimensions)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var scope []Chunk
	if documentID == "" {
		for _, chunks := range m.collections {
			scope = append(scope, chunks...)
		}
	} else {
		scope = m.collections[documentID]
	}
	if len(scope) == 0 {
		return nil, ErrEmptyIndex
	}

	hits := make([]Hit, 0, len(scope))
	for _, ch := range scope {
		hits = append(hits, Hit{Chunk: ch, Score: similarityScore(vector, ch.Embedding)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].DocumentID != hits[j].DocumentID {
			return hits[i].DocumentID < hits[j].DocumentID
		}
		return hits[i].Seq < hits[j].Seq
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Chunks returns the document's chunks in sequence order.
func (m *MemoryStore) Chunks(ctx context.Context, documentID string) ([]Chunk, error) {
	m.mu.RLock()
	stored, ok := m.collections[documentID]
	m.mu.RUnlock()

	if !ok || len(stored) == 0 {
		return nil, ErrEmptyIndex
	}

	chunks := make([]Chunk, len(stored))
	copy(chunks, stored)
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Seq < chunks[j].Seq })
	return chunks, nil
}

// Delete drops the document's collection.
func (m *MemoryStore) Delete(ctx context.Context, documentID string) error {
	m.mu.Lock()
	delete(m.collections, documentID)
	m.mu.Unlock()
	return nil
}

// Health always succeeds for the in-process store.
func (m *MemoryStore) Health(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}

// similarityScore maps cosine similarity from [-1,1] to [0,1] so scores
// compare directly with the Qdrant backend.
func similarityScore(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return (cos + 1) / 2
}
