package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedChunks(t *testing.T, store *MemoryStore, documentID string, chunks []Chunk) {
	t.Helper()
	err := store.Upsert(context.Background(), documentID, chunks)
	require.NoError(t, err)
}

func TestMemorySearchRanksBySimilarity(t *testing.T) {
	store := NewMemoryStore(3)
	ctx := context.Background()

	seedChunks(t, store, "doc-1", []Chunk{
		{ID: "a", DocumentID: "doc-1", Seq: 0, Page: 1, Text: "exact match", Embedding: []float32{1, 0, 0}},
		{ID: "b", DocumentID: "doc-1", Seq: 1, Page: 1, Text: "orthogonal", Embedding: []float32{0, 1, 0}},
		{ID: "c", DocumentID: "doc-1", Seq: 2, Page: 2, Text: "opposite", Embedding: []float32{-1, 0, 0}},
	})

	hits, err := store.Search(ctx, "doc-1", []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, "a", hits[0].ID)
	assert.Equal(t, "b", hits[1].ID)
	assert.Equal(t, "c", hits[2].ID)

	// Cosine 1, 0 and -1 map to 1.0, 0.5 and 0.0.
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.InDelta(t, 0.5, hits[1].Score, 1e-9)
	assert.InDelta(t, 0.0, hits[2].Score, 1e-9)
}

func TestMemorySearchCapsAtK(t *testing.T) {
	store := NewMemoryStore(3)

	seedChunks(t, store, "doc-1", []Chunk{
		{ID: "a", DocumentID: "doc-1", Seq: 0, Embedding: []float32{1, 0, 0}},
		{ID: "b", DocumentID: "doc-1", Seq: 1, Embedding: []float32{0.9, 0.1, 0}},
		{ID: "c", DocumentID: "doc-1", Seq: 2, Embedding: []float32{0, 1, 0}},
	})

	hits, err := store.Search(context.Background(), "doc-1", []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].ID)
	assert.Equal(t, "b", hits[1].ID)
}

func TestMemorySearchAllCollections(t *testing.T) {
	store := NewMemoryStore(3)

	seedChunks(t, store, "doc-1", []Chunk{
		{ID: "a", DocumentID: "doc-1", Seq: 0, Embedding: []float32{1, 0, 0}},
	})
	seedChunks(t, store, "doc-2", []Chunk{
		{ID: "b", DocumentID: "doc-2", Seq: 0, Embedding: []float32{0.9, 0.1, 0}},
	})

	hits, err := store.Search(context.Background(), "", []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "doc-1", hits[0].DocumentID)
	assert.Equal(t, "doc-2", hits[1].DocumentID)
}

func TestMemorySearchScopedToDocument(t *testing.T) {
	store := NewMemoryStore(3)

	seedChunks(t, store, "doc-1", []Chunk{
		{ID: "a", DocumentID: "doc-1", Seq: 0, Embedding: []float32{1, 0, 0}},
	})
	seedChunks(t, store, "doc-2", []Chunk{
		{ID: "b", DocumentID: "doc-2", Seq: 0, Embedding: []float32{1, 0, 0}},
	})

	hits, err := store.Search(context.Background(), "doc-2", []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].ID)
}

func TestMemorySearchEmptyScope(t *testing.T) {
	store := NewMemoryStore(3)
	ctx := context.Background()

	_, err := store.Search(ctx, "", []float32{1, 0, 0}, 5)
	assert.ErrorIs(t, err, ErrEmptyIndex)

	seedChunks(t, store, "doc-1", []Chunk{
		{ID: "a", DocumentID: "doc-1", Seq: 0, Embedding: []float32{1, 0, 0}},
	})

	_, err = store.Search(ctx, "missing", []float32{1, 0, 0}, 5)
	assert.ErrorIs(t, err, ErrEmptyIndex)
}

func TestMemoryDimensionValidation(t *testing.T) {
	store := NewMemoryStore(3)
	ctx := context.Background()

	err := store.Upsert(ctx, "doc-1", []Chunk{
		{ID: "a", DocumentID: "doc-1", Embedding: []float32{1, 0}},
	})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	seedChunks(t, store, "doc-1", []Chunk{
		{ID: "a", DocumentID: "doc-1", Embedding: []float32{1, 0, 0}},
	})
	_, err = store.Search(ctx, "doc-1", []float32{1, 0}, 5)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestMemoryChunksSequenceOrder(t *testing.T) {
	store := NewMemoryStore(3)

	seedChunks(t, store, "doc-1", []Chunk{
		{ID: "c", DocumentID: "doc-1", Seq: 2, Text: "third", Embedding: []float32{0, 0, 1}},
		{ID: "a", DocumentID: "doc-1", Seq: 0, Text: "first", Embedding: []float32{1, 0, 0}},
		{ID: "b", DocumentID: "doc-1", Seq: 1, Text: "second", Embedding: []float32{0, 1, 0}},
	})

	chunks, err := store.Chunks(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, []string{"first", "second", "third"},
		[]string{chunks[0].Text, chunks[1].Text, chunks[2].Text})
}

func TestMemoryChunksMissingDocument(t *testing.T) {
	store := NewMemoryStore(3)

	_, err := store.Chunks(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrEmptyIndex)
}

func TestMemoryUpsertReplacesByID(t *testing.T) {
	store := NewMemoryStore(3)
	ctx := context.Background()

	seedChunks(t, store, "doc-1", []Chunk{
		{ID: "a", DocumentID: "doc-1", Seq: 0, Text: "old", Embedding: []float32{1, 0, 0}},
	})
	seedChunks(t, store, "doc-1", []Chunk{
		{ID: "a", DocumentID: "doc-1", Seq: 0, Text: "new", Embedding: []float32{1, 0, 0}},
	})

	chunks, err := store.Chunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "new", chunks[0].Text)
}

func TestMemoryDelete(t *testing.T) {
	store := NewMemoryStore(3)
	ctx := context.Background()

	seedChunks(t, store, "doc-1", []Chunk{
		{ID: "a", DocumentID: "doc-1", Seq: 0, Embedding: []float32{1, 0, 0}},
	})

	require.NoError(t, store.Delete(ctx, "doc-1"))

	_, err := store.Search(ctx, "doc-1", []float32{1, 0, 0}, 5)
	assert.ErrorIs(t, err, ErrEmptyIndex)

	// Deleting again is a no-op.
	assert.NoError(t, store.Delete(ctx, "doc-1"))
}

func TestSimilarityScoreZeroVector(t *testing.T) {
	score := similarityScore([]float32{0, 0, 0}, []float32{1, 0, 0})
	assert.Equal(t, 0.0, score)
}
