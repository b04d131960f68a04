package index

import "errors"

var (
	// ErrUnreachable indicates the vector store could not be reached.
	ErrUnreachable = errors.New("vector store unreachable")

	// ErrEmptyIndex indicates the searched scope holds no indexed chunks.
	ErrEmptyIndex = errors.New("no indexed content in scope")

	// ErrEmbeddingFailure indicates embedding generation did not produce
	// a vector for every input.
	ErrEmbeddingFailure = errors.New("embedding generation failed")

	// ErrDimensionMismatch indicates a vector does not match the
	// configured embedding dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
