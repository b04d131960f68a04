package engine

import "errors"

var (
	// ErrSizeExceeded indicates an upload is larger than the configured cap.
	ErrSizeExceeded = errors.New("file exceeds maximum size")

	// ErrGraphParse indicates the model failed to produce a valid
	// knowledge graph after the retry.
	ErrGraphParse = errors.New("knowledge graph extraction produced no valid graph")
)
