// Package main provides ragctl, the document management CLI for the
// Enterprise RAG index.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/chunker"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/config"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/embedding"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/engine"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/extract"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/index"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/llm"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/registry"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/source"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/tts"
)

var rootCmd = &cobra.Command{
	Use:   "ragctl",
	Short: "Enterprise RAG document management tool",
	Long: `CLI for ingesting, querying and managing documents in the Enterprise
RAG index. Commands talk to the same registry and vector store as the
server, configured through the same environment variables.

Environment variables:
  INDEX_BACKEND   "memory" or "qdrant" (default: memory)
  QDRANT_HOST     Qdrant hostname (default: localhost)
  QDRANT_PORT     Qdrant gRPC port (default: 6334)
  OPENAI_API_KEY  API key for embeddings, completion and speech
  GITHUB_TOKEN    GitHub token for higher rate limits (optional)`,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Ingest a local document into the index",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngest,
}

var ingestGitHubCmd = &cobra.Command{
	Use:   "ingest-github <owner/repo>",
	Short: "Ingest every markdown file under a repository path",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngestGitHub,
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question against the indexed documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize <document>",
	Short: "Generate a structured summary of one document",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummarize,
}

var graphCmd = &cobra.Command{
	Use:   "graph <document>",
	Short: "Extract a knowledge graph from one document as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runGraph,
}

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List every indexed document",
	Args:  cobra.NoArgs,
	RunE:  runDocuments,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <document>",
	Short: "Remove a document and its vectors from the index",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var (
	ingestAs   string
	githubPath string
	askDoc     string
	askVoice   bool
	audioOut   string
)

func init() {
	ingestCmd.Flags().StringVar(&ingestAs, "name", "", "display name to register (default: the filename)")
	ingestGitHubCmd.Flags().StringVar(&githubPath, "path", "", "directory or file inside the repository (default: repository root)")
	askCmd.Flags().StringVar(&askDoc, "document", "", "restrict the search to one document")
	askCmd.Flags().BoolVar(&askVoice, "voice", false, "synthesize the answer to speech")
	askCmd.Flags().StringVar(&audioOut, "out", "answer.mp3", "file the synthesized audio is written to")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(ingestGitHubCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(documentsCmd)
	rootCmd.AddCommand(deleteCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	eng, cleanup, err := buildEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	doc, err := eng.Ingest(ctx, filepath.Base(args[0]), data, ingestAs)
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", args[0], err)
	}

	fmt.Printf("Ingested %s (%d pages, %d chunks)\n", doc.Name, doc.Pages, doc.Chunks)
	return nil
}

func runIngestGitHub(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	start := time.Now()

	parts := strings.Split(args[0], "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("repository must be given as owner/repo, got %q", args[0])
	}

	fetcher, err := source.NewGitHub(parts[0], parts[1], githubPath)
	if err != nil {
		return err
	}

	eng, cleanup, err := buildEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	// 1. Discover markdown files
	fmt.Printf("Listing markdown files in %s...\n", args[0])
	paths, err := fetcher.List(ctx)
	if err != nil {
		return fmt.Errorf("listing repository files: %w", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no markdown files found under %s in %s", githubPath, args[0])
	}
	fmt.Printf("Found %d files\n", len(paths))
	fmt.Println()

	// 2. Fetch and ingest each file
	type failure struct {
		path   string
		reason string
	}
	var failed []failure
	chunks := 0
	for _, repoPath := range paths {
		doc, err := fetcher.Fetch(ctx, repoPath)
		if err != nil {
			failed = append(failed, failure{path: repoPath, reason: err.Error()})
			continue
		}
		registered, err := eng.Ingest(ctx, path.Base(repoPath), doc.Content, doc.Name)
		if err != nil {
			failed = append(failed, failure{path: repoPath, reason: err.Error()})
			continue
		}
		chunks += registered.Chunks
		fmt.Printf("  %s (%d chunks)\n", registered.Name, registered.Chunks)
	}

	// 3. Print results
	fmt.Println()
	fmt.Println("Ingest complete!")
	fmt.Printf("  Documents: %d/%d\n", len(paths)-len(failed), len(paths))
	fmt.Printf("  Chunks: %d\n", chunks)
	fmt.Printf("  Duration: %s\n", time.Since(start).Round(time.Second))

	if len(failed) > 0 {
		fmt.Println()
		fmt.Println("Failed documents:")
		for _, f := range failed {
			fmt.Printf("  - %s: %s\n", f.path, f.reason)
		}
	}
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	eng, cleanup, err := buildEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := eng.Ask(ctx, engine.AskRequest{
		Query:        args[0],
		DocumentName: askDoc,
		VoiceMode:    askVoice,
	})
	if err != nil {
		return err
	}

	fmt.Println(result.Answer)
	fmt.Println()
	fmt.Printf("Confidence: %.2f\n", result.Confidence)
	if len(result.Sources) > 0 {
		fmt.Printf("Sources: %s\n", strings.Join(result.Sources, ", "))
	}
	for _, c := range result.Citations {
		fmt.Printf("  [%s] %s (page %d, %s)\n", c.ID, c.Text, c.Page, c.Source)
	}

	if askVoice {
		if len(result.Audio) == 0 {
			fmt.Fprintln(os.Stderr, "warning: audio synthesis produced no output")
			return nil
		}
		if err := os.WriteFile(audioOut, result.Audio, 0o644); err != nil {
			return fmt.Errorf("writing audio: %w", err)
		}
		fmt.Printf("Audio written to %s (%d bytes)\n", audioOut, len(result.Audio))
	}
	return nil
}

func runSummarize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	eng, cleanup, err := buildEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	summary, err := eng.Summarize(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Println(summary.Summary)
	fmt.Println()
	fmt.Printf("Document: %s (%d pages, %d chunks)\n",
		summary.DocumentName, summary.PageCount, summary.ChunkCount)
	return nil
}

func runGraph(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	eng, cleanup, err := buildEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	graph, err := eng.Graph(ctx, args[0])
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(graph, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding graph: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func runDocuments(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	eng, cleanup, err := buildEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	docs, err := eng.Documents(ctx)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("No documents indexed")
		return nil
	}

	for _, doc := range docs {
		fmt.Printf("%s  %d pages, %d chunks, uploaded %s\n",
			doc.Name, doc.Pages, doc.Chunks, doc.UploadedAt.Format(time.RFC3339))
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	eng, cleanup, err := buildEngine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := eng.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", args[0])
	return nil
}

// buildEngine wires the same stack the server runs on. Progress goes to
// stdout, so the logger only surfaces warnings.
func buildEngine(ctx context.Context) (*engine.Engine, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	if cfg.IndexBackend != "qdrant" {
		fmt.Fprintln(os.Stderr, "warning: INDEX_BACKEND=memory keeps documents only for this invocation; set INDEX_BACKEND=qdrant for a persistent index")
	}

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
		reg.Close()
		ix.Close()
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

// reconcile aligns the registry with the vector backend before any command
// runs. Memory collections exist only inside one process, so the registry
// starts over; with qdrant only interrupted ingestions are cleaned up.
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
	return nil
}
