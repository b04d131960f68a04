// Package engine implements the retrieval-and-synthesis core: document
// ingestion, question answering with citations and a confidence score,
// hierarchical summarization, knowledge-graph extraction and podcast
// generation. Transport layers (HTTP, MCP, CLI) call into this package and
// stay free of retrieval logic.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/chunker"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/config"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/extract"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/index"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/llm"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/registry"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/tts"
)

// Engine orchestrates the document lifecycle and every generation
// operation over indexed content.
type Engine struct {
	registry  *registry.Registry
	index     *index.Index
	extractor *extract.Router
	splitter  *chunker.Chunker
	llm       llm.Client
	tts       tts.Synthesizer
	counter   TokenCounter
	cfg       *config.Config
	logger    *slog.Logger
}

// New creates an Engine. The TTS synthesizer may be nil, which disables
// audio output. A nil token counter falls back to the character estimate.
func New(
	reg *registry.Registry,
	ix *index.Index,
	extractor *extract.Router,
	splitter *chunker.Chunker,
	completer llm.Client,
	synthesizer tts.Synthesizer,
	counter TokenCounter,
	cfg *config.Config,
	logger *slog.Logger,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if counter == nil {
		counter = EstimateCounter{}
	}
	return &Engine{
		registry:  reg,
		index:     ix,
		extractor: extractor,
		splitter:  splitter,
		llm:       completer,
		tts:       synthesizer,
		counter:   counter,
		cfg:       cfg,
		logger:    logger,
	}
}

// Ingest validates, extracts, chunks and indexes an uploaded file under
// the given display name (the filename when name is empty). Re-ingesting
// an existing name replaces it; the old content stays searchable until the
// new upload is fully indexed. Any failure removes all partial state.
func (e *Engine) Ingest(ctx context.Context, filename string, data []byte, name string) (registry.Document, error) {
	if name == "" {
		name = filename
	}

	if int64(len(data)) > e.cfg.MaxFileSizeBytes() {
		return registry.Document{}, fmt.Errorf("%w: %s is %d bytes, cap is %d MB",
			ErrSizeExceeded, name, len(data), e.cfg.MaxFileSizeMB)
	}
	ext := filepath.Ext(filename)
	if !e.cfg.ExtensionAllowed(ext) {
		return registry.Document{}, fmt.Errorf("%w: extension %q not allowed",
			extract.ErrUnsupportedFormat, ext)
	}

	pages, err := e.extractor.Pages(filename, data)
	if err != nil {
		return registry.Document{}, fmt.Errorf("extracting %s: %w", name, err)
	}
	if !extract.TotalText(pages) {
		return registry.Document{}, fmt.Errorf("%w: no content extracted from %s",
			extract.ErrCorruptFile, name)
	}

	chunks := e.splitter.Split(pages)
	if len(chunks) == 0 {
		return registry.Document{}, fmt.Errorf("%w: no content extracted from %s",
			extract.ErrCorruptFile, name)
	}
	e.logger.Debug("document chunked", "document", name, "pages", len(pages), "chunks", len(chunks))

	id, err := e.registry.BeginIngest(ctx, name)
	if err != nil {
		return registry.Document{}, err
	}

	indexChunks := make([]index.Chunk, len(chunks))
	for i, ch := range chunks {
		indexChunks[i] = index.Chunk{
			ID:         uuid.New().String(),
			DocumentID: id,
			Seq:        ch.Seq,
			Page:       ch.Page,
			Text:       ch.Text,
		}
	}

	if err := e.index.Add(ctx, id, indexChunks); err != nil {
		e.abortIngest(ctx, id, name)
		return registry.Document{}, fmt.Errorf("indexing %s: %w", name, err)
	}

	replaced, err := e.registry.Commit(ctx, id, len(pages), len(chunks))
	if err != nil {
		e.abortIngest(ctx, id, name)
		return registry.Document{}, fmt.Errorf("committing %s: %w", name, err)
	}
	if replaced != "" {
		if err := e.index.Delete(ctx, replaced); err != nil {
			e.logger.Warn("failed to drop replaced collection",
				"document", name, "replaced_id", replaced, "error", err)
		}
	}

	e.logger.Info("document ingested",
		"document", name,
		"pages", len(pages),
		"chunks", len(chunks),
		"replaced", replaced != "")

	return e.registry.Get(ctx, name)
}

// abortIngest rolls back a failed ingestion: provisional registry row and
// whatever part of the collection made it in.
func (e *Engine) abortIngest(ctx context.Context, id, name string) {
	if err := e.index.Delete(ctx, id); err != nil {
		e.logger.Warn("failed to clean up partial collection", "document", name, "error", err)
	}
	if err := e.registry.Abort(ctx, id); err != nil {
		e.logger.Warn("failed to remove provisional document", "document", name, "error", err)
	}
}

// Documents lists every indexed document.
func (e *Engine) Documents(ctx context.Context) ([]registry.Document, error) {
	return e.registry.List(ctx)
}

// Document returns a single indexed document by name.
func (e *Engine) Document(ctx context.Context, name string) (registry.Document, error) {
	return e.registry.Get(ctx, name)
}

// Delete removes a document and its collection.
func (e *Engine) Delete(ctx context.Context, name string) error {
	doc, err := e.registry.Delete(ctx, name)
	if err != nil {
		return err
	}
	if err := e.index.Delete(ctx, doc.ID); err != nil {
		// The registry row is gone, so the document is unreachable
		// either way. The orphaned collection only wastes space.
		e.logger.Warn("failed to drop collection", "document", name, "error", err)
	}
	e.logger.Info("document deleted", "document", name)
	return nil
}

// Health reports whether the vector store is reachable.
func (e *Engine) Health(ctx context.Context) error {
	return e.index.Health(ctx)
}

// documentNames maps document IDs to display names for citation and
// source labeling.
func (e *Engine) documentNames(ctx context.Context) (map[string]string, error) {
	docs, err := e.registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	names := make(map[string]string, len(docs))
	for _, doc := range docs {
		names[doc.ID] = doc.Name
	}
	return names, nil
}
