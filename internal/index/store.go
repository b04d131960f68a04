package index

import "context"

// Chunk is an embedded fragment of a document held in that document's
// collection.
type Chunk struct {
	ID         string    // UUID
	DocumentID string    // Owning document
	Seq        int       // Position in document (0, 1, 2...)
	Page       int       // Page the chunk starts on
	Text       string    // Chunk text content
	Embedding  []float32 // Fixed dimension per collection
}

// Hit is a chunk returned by similarity search.
type Hit struct {
	Chunk
	Score float64 // Cosine similarity mapped to [0,1]
	Rank  int     // 1-based, assigned after retrieval ordering
}

// Store is a vector storage backend keeping one collection per document.
// A documentID of "" addresses every collection at once.
type Store interface {
	// Upsert writes embedded chunks into the document's collection,
	// creating it on first write.
	Upsert(ctx context.Context, documentID string, chunks []Chunk) error

	// Search returns up to k chunks ranked by similarity to the vector.
	// A scope holding no chunks returns ErrEmptyIndex.
	Search(ctx context.Context, documentID string, vector []float32, k int) ([]Hit, error)

	// Chunks returns every chunk of a document in sequence order.
	Chunks(ctx context.Context, documentID string) ([]Chunk, error)

	// Delete drops the document's collection. Deleting an absent
	// collection is a no-op.
	Delete(ctx context.Context, documentID string) error

	// Health reports backend connectivity.
	Health(ctx context.Context) error

	Close() error
}
