// Package llm provides the text-generation capability behind answers,
// summaries and graph extraction.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable indicates the model endpoint could not produce a
	// completion (transport failure, server error, client misconfiguration).
	ErrUnavailable = errors.New("llm unavailable")

	// ErrTimeout indicates generation exceeded its time limit.
	ErrTimeout = errors.New("llm timeout")

	// ErrEmptyOutput indicates the model returned no usable text.
	ErrEmptyOutput = errors.New("llm returned empty output")
)

// Request describes a single completion.
type Request struct {
	System      string  // Optional system instruction
	Prompt      string  // User prompt
	Temperature float64 // 0 for deterministic output
	JSONOnly    bool    // Constrain output to a JSON object
}

// Client produces one completion per call. Implementations are responsible
// for their own retry policy; callers see only the final outcome.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}
