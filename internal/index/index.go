// Package index stores embedded document chunks and answers similarity
// queries over them. Each document gets its own collection so a delete is
// a single collection drop. Two backends implement the Store contract: an
// in-process memory store for zero-infrastructure runs and a Qdrant store
// for persistent setups.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/embedding"
)

// Index couples an embedder with a vector store. Writes to the same
// document are serialized with a per-document mutex; reads take no lock
// and observe either the previous or the new collection state.
type Index struct {
	embedder embedding.Embedder
	store    Store
	logger   *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an Index over the given embedder and store.
func New(embedder embedding.Embedder, store Store, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		embedder: embedder,
		store:    store,
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
	}
}

// Add embeds the chunk texts and writes them into the document's
// collection. Either every chunk is stored or none are.
func (ix *Index) Add(ctx context.Context, documentID string, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}

	vectors, err := ix.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmbeddingFailure, err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: got %d vectors for %d chunks", ErrEmbeddingFailure, len(vectors), len(chunks))
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	unlock := ix.lock(documentID)
	defer unlock()

	if err := ix.store.Upsert(ctx, documentID, chunks); err != nil {
		return fmt.Errorf("storing chunks: %w", err)
	}

	ix.logger.Info("indexed document chunks",
		"document_id", documentID,
		"chunks", len(chunks))
	return nil
}

// SearchText embeds the query and returns up to k similar chunks from the
// document's collection, or from every collection when documentID is "".
func (ix *Index) SearchText(ctx context.Context, documentID, query string, k int) ([]Hit, error) {
	vectors, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailure, err)
	}
	return ix.store.Search(ctx, documentID, vectors[0], k)
}

// Chunks returns every chunk of the document in sequence order.
func (ix *Index) Chunks(ctx context.Context, documentID string) ([]Chunk, error) {
	return ix.store.Chunks(ctx, documentID)
}

// Delete drops the document's collection.
func (ix *Index) Delete(ctx context.Context, documentID string) error {
	unlock := ix.lock(documentID)
	err := ix.store.Delete(ctx, documentID)
	unlock()

	ix.mu.Lock()
	delete(ix.locks, documentID)
	ix.mu.Unlock()

	return err
}

// Health reports store connectivity.
func (ix *Index) Health(ctx context.Context) error {
	return ix.store.Health(ctx)
}

// Close releases the underlying store.
func (ix *Index) Close() error {
	return ix.store.Close()
}

func (ix *Index) lock(documentID string) func() {
	ix.mu.Lock()
	l, ok := ix.locks[documentID]
	if !ok {
		l = &sync.Mutex{}
		ix.locks[documentID] = l
	}
	ix.mu.Unlock()

	l.Lock()
	return l.Unlock
}
