package llm

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Limited bounds the number of in-flight completions across the whole
// process. The engine issues concurrent calls during hierarchical
// summarization; installing this decorator at composition keeps the
// local model from being flooded.
type Limited struct {
	inner Client
	sem   *semaphore.Weighted
}

// WithLimit wraps a client so at most n completions run concurrently.
func WithLimit(inner Client, n int64) *Limited {
	return &Limited{
		inner: inner,
		sem:   semaphore.NewWeighted(n),
	}
}

// Complete acquires a slot, runs the completion and releases the slot.
// Waiting respects context cancellation.
func (l *Limited) Complete(ctx context.Context, req Request) (string, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer l.sem.Release(1)
	return l.inner.Complete(ctx, req)
}
