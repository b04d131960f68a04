// Package main starts the Enterprise RAG server: the REST API and the MCP
// endpoint share one listener.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/chunker"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/config"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/embedding"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/engine"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/extract"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/index"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/llm"
	mcpserver "github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/mcp"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/registry"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/server"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/tts"
)

const version = "2.0.0"

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	eng, cleanup, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	mcpSrv := mcpserver.NewServer(eng, version)
	// Stateless keeps every MCP exchange a plain request/response, which
	// survives the buffering fiber adaptor in front of it.
	mcpHandler := mcpserver.NewHTTPHandler(mcpSrv, &mcpserver.HTTPHandlerOptions{Stateless: true})

	srv := server.New(eng, cfg, mcpHandler, version, logger)
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	// SERVER_MODE=stdio serves MCP over stdin/stdout for local clients,
	// with the REST API still listening in the background.
	if os.Getenv("SERVER_MODE") == "stdio" {
		go func() {
			if err := srv.Listen(addr); err != nil {
				logger.Error("http server error", "error", err)
			}
		}()
		logger.Info("mcp server starting (stdio mode)")
		if err := mcpSrv.Run(ctx); err != nil {
			logger.Error("mcp server error", "error", err)
			os.Exit(1)
		}
		return
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(addr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelShutdown()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
			os.Exit(1)
		}
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}

func buildEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*engine.Engine, func(), error) {
	api := embedding.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey)
	embedder := embedding.NewOpenAIEmbedder(api, cfg.EmbeddingModel, cfg.EmbeddingDim, 0)

	var store index.Store
	switch cfg.IndexBackend {
	case "qdrant":
		qstore, err := index.NewQdrantStore(cfg.QdrantHost, cfg.QdrantPort, cfg.EmbeddingDim)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to qdrant: %w", err)
		}
		store = qstore
	default:
		store = index.NewMemoryStore(cfg.EmbeddingDim)
	}
	ix := index.New(embedder, store, logger)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		ix.Close()
		return nil, nil, fmt.Errorf("creating data directory: %w", err)
	}
	reg, err := registry.Open(filepath.Join(cfg.DataDir, "registry.db"))
	if err != nil {
		ix.Close()
		return nil, nil, err
	}

	cleanup := func() {
		if err := reg.Close(); err != nil {
			logger.Warn("closing registry", "error", err)
		}
		if err := ix.Close(); err != nil {
			logger.Warn("closing index", "error", err)
		}
	}

	if err := reconcile(ctx, cfg, reg, ix, logger); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("reconciling registry with vector store: %w", err)
	}

	splitter, err := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	completer := llm.WithLimit(llm.NewOpenAI(api.Client(), cfg.LLMModel), int64(cfg.MaxConcurrentLLM))
	synthesizer := tts.NewOpenAI(api.Client(), cfg.TTSModel, cfg.TTSVoice)

	var counter engine.TokenCounter
	if tk, err := engine.NewTiktokenCounter(); err != nil {
		logger.Warn("tiktoken encoding unavailable, using character estimate", "error", err)
		counter = engine.EstimateCounter{}
	} else {
		counter = tk
	}

	eng := engine.New(reg, ix, extract.NewRouter(), splitter, completer, synthesizer, counter, cfg, logger)
	return eng, cleanup, nil
}

// reconcile aligns the registry with the vector backend after a restart.
// Memory collections die with the process, so the registry starts over;
// with qdrant only interrupted ingestions are cleaned up.
func reconcile(ctx context.Context, cfg *config.Config, reg *registry.Registry, ix *index.Index, logger *slog.Logger) error {
	if cfg.IndexBackend != "qdrant" {
		return reg.Reset(ctx)
	}

	ids, err := reg.PruneIngesting(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := ix.Delete(ctx, id); err != nil {
			logger.Warn("failed to drop orphaned collection", "document_id", id, "error", err)
		}
	}
	if len(ids) > 0 {
		logger.Info("pruned interrupted ingestions", "count", len(ids))
	}
	return nil
}
