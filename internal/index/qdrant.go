package index

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"
)

// collectionPrefix namespaces this service's collections so a shared
// Qdrant instance can host other data alongside them.
const collectionPrefix = "doc_"

// upsertBatchSize is the number of points written per upsert call.
const upsertBatchSize = 100

// QdrantStore keeps each document's chunks in a dedicated Qdrant
// collection. Dropping a document is then a single collection delete and
// multi-document search is a fan-out over collections.
type QdrantStore struct {
	client     *qdrant.Client
	dimensions int
}

// NewQdrantStore connects to Qdrant over gRPC and verifies the instance
// is reachable, retrying with exponential backoff before failing.
func NewQdrantStore(host string, port, dimensions int) (*QdrantStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("creating qdrant client: %w", err)
	}

	store := &QdrantStore{
		client:     client,
		dimensions: dimensions,
	}

	if err := store.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	return store, nil
}

// healthCheckWithRetry retries the health check with exponential backoff.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func (s *QdrantStore) healthCheckWithRetry(ctx context.Context) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	operation := func() error {
		return s.Health(ctx)
	}

	return backoff.Retry(operation, backoff.WithContext(exponentialBackoff, ctx))
}

// Health performs a single health check against Qdrant.
func (s *QdrantStore) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}

	return nil
}

// Upsert writes embedded chunks into the document's collection, creating
// the collection on first write. Points are batched in groups of 100.
func (s *QdrantStore) Upsert(ctx context.Context, documentID string, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	for _, ch := range chunks {
		if len(ch.Embedding) != s.dimensions {
			return fmt.Errorf("%w: chunk %s has %d dimensions, want %d",
				ErrDimensionMismatch, ch.ID, len(ch.Embedding), s.dimensions)
		}
	}

	name := collectionName(documentID)
	if err := s.ensureCollection(ctx, name); err != nil {
		return err
	}

	for i := 0; i < len(chunks); i += upsertBatchSize {
		end := min(i+upsertBatchSize, len(chunks))
		batch := chunks[i:end]

		points := make([]*qdrant.PointStruct, len(batch))
		for j, ch := range batch {
			points[j] = &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(ch.ID),
				Vectors: qdrant.NewVectors(ch.Embedding...),
				Payload: qdrant.NewValueMap(map[string]any{
					"document_id": ch.DocumentID,
					"seq":         ch.Seq,
					"page":        ch.Page,
					"text":        ch.Text,
				}),
			}
		}

		if err := s.upsertWithRetry(ctx, name, points); err != nil {
			return fmt.Errorf("upserting batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// upsertWithRetry performs one upsert call with exponential backoff retry.
func (s *QdrantStore) upsertWithRetry(ctx context.Context, collection string, points []*qdrant.PointStruct) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	operation := func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collection,
			Points:         points,
		})
		return err
	}

	return backoff.Retry(operation, backoff.WithContext(exponentialBackoff, ctx))
}

// ensureCollection creates the collection if it does not exist yet.
// Idempotent.
func (s *QdrantStore) ensureCollection(ctx context.Context, name string) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("listing collections: %w", err)
	}
	for _, existing := range collections {
		if existing == name {
			return nil
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.dimensions),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", name, err)
	}

	return nil
}

// Search queries the document's collection, or every document collection
// when documentID is "", and returns the top k merged hits.
func (s *QdrantStore) Search(ctx context.Context, documentID string, vector []float32, k int) ([]Hit, error) {
	if len(vector) != s.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, want %d",
			ErrDimensionMismatch, len(vector), s.dimensions)
	}

	names, err := s.scopeCollections(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, ErrEmptyIndex
	}

	var hits []Hit
	for _, name := range names {
		results, err := s.client.Query(ctx, &qdrant.QueryPoints{
			CollectionName: name,
			Query:          qdrant.NewQuery(vector...),
			Limit:          qdrant.PtrOf(uint64(k)),
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return nil, fmt.Errorf("querying collection %s: %w", name, err)
		}

		for _, result := range results {
			payload := result.Payload
			hits = append(hits, Hit{
				Chunk: Chunk{
					ID:         result.Id.GetUuid(),
					DocumentID: payload["document_id"].GetStringValue(),
					Seq:        int(payload["seq"].GetIntegerValue()),
					Page:       int(payload["page"].GetIntegerValue()),
					Text:       payload["text"].GetStringValue(),
				},
				Score: similarityFromCosine(result.Score),
			})
		}
	}

	// Qdrant applies no score threshold, so zero hits means the scope
	// holds no points at all.
	if len(hits) == 0 {
		return nil, ErrEmptyIndex
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

// Chunks scrolls the document's collection and returns every chunk in
// sequence order. Embeddings are not fetched.
func (s *QdrantStore) Chunks(ctx context.Context, documentID string) ([]Chunk, error) {
	name := collectionName(documentID)
	exists, err := s.collectionExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrEmptyIndex
	}

	var chunks []Chunk
	var offset *qdrant.PointId
	batchSize := uint32(100)

	for {
		results, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: name,
			Limit:          qdrant.PtrOf(batchSize),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return nil, fmt.Errorf("scrolling collection %s: %w", name, err)
		}

		for _, result := range results {
			payload := result.Payload
			chunks = append(chunks, Chunk{
				ID:         result.Id.GetUuid(),
				DocumentID: payload["document_id"].GetStringValue(),
				Seq:        int(payload["seq"].GetIntegerValue()),
				Page:       int(payload["page"].GetIntegerValue()),
				Text:       payload["text"].GetStringValue(),
			})
		}

		if uint32(len(results)) < batchSize {
			break
		}
		offset = results[len(results)-1].Id
	}

	if len(chunks) == 0 {
		return nil, ErrEmptyIndex
	}

	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Seq < chunks[j].Seq })
	return chunks, nil
}

// Delete drops the document's collection. Absent collections are ignored.
func (s *QdrantStore) Delete(ctx context.Context, documentID string) error {
	name := collectionName(documentID)
	exists, err := s.collectionExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	if err := s.client.DeleteCollection(ctx, name); err != nil {
		return fmt.Errorf("deleting collection %s: %w", name, err)
	}
	return nil
}

// Count returns the number of points in the document's collection.
func (s *QdrantStore) Count(ctx context.Context, documentID string) (int, error) {
	name := collectionName(documentID)
	collection, err := s.client.GetCollectionInfo(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("getting collection %s: %w", name, err)
	}
	return int(collection.GetPointsCount()), nil
}

// Close closes the Qdrant client connection.
func (s *QdrantStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func (s *QdrantStore) scopeCollections(ctx context.Context, documentID string) ([]string, error) {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}

	if documentID != "" {
		name := collectionName(documentID)
		for _, existing := range collections {
			if existing == name {
				return []string{name}, nil
			}
		}
		return nil, nil
	}

	var names []string
	for _, existing := range collections {
		if strings.HasPrefix(existing, collectionPrefix) {
			names = append(names, existing)
		}
	}
	return names, nil
}

func (s *QdrantStore) collectionExists(ctx context.Context, name string) (bool, error) {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return false, fmt.Errorf("listing collections: %w", err)
	}
	for _, existing := range collections {
		if existing == name {
			return true, nil
		}
	}
	return false, nil
}

func collectionName(documentID string) string {
	return collectionPrefix + documentID
}

// similarityFromCosine maps Qdrant's cosine score from [-1,1] to [0,1] so
// both backends report comparable scores.
func similarityFromCosine(score float32) float64 {
	return (float64(score) + 1) / 2
}
