// Package config loads service configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// ErrInvalid indicates a configuration combination the engine cannot run with.
var ErrInvalid = errors.New("invalid configuration")

// Config holds every tunable of the assistant. Values come from environment
// variables with defaults chosen for a local single-user deployment.
type Config struct {
	Host        string
	Port        int
	CORSOrigins string

	LLMModel       string
	LLMTemperature float64
	EmbeddingModel string
	EmbeddingDim   int
	OpenAIBaseURL  string
	OpenAIAPIKey   string

	ChunkSize    int
	ChunkOverlap int
	RetrievalK   int

	MaxFileSizeMB     int
	AllowedExtensions []string
	UploadDir         string
	DataDir           string

	IndexBackend string // "memory" or "qdrant"
	QdrantHost   string
	QdrantPort   int

	SummaryTokenBudget int
	MaxConcurrentLLM   int

	TTSModel string
	TTSVoice string

	LogLevel slog.Level
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Host:        getEnv("HOST", "127.0.0.1"),
		Port:        getEnvInt("PORT", 8000),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),

		LLMModel:       getEnv("LLM_MODEL", "llama3"),
		LLMTemperature: getEnvFloat("LLM_TEMPERATURE", 0),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
		EmbeddingDim:   getEnvInt("EMBEDDING_DIMENSION", 768),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", "http://localhost:11434/v1"),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),

		ChunkSize:    getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),
		RetrievalK:   getEnvInt("RETRIEVAL_K", 5),

		MaxFileSizeMB:     getEnvInt("MAX_FILE_SIZE_MB", 50),
		AllowedExtensions: splitList(getEnv("ALLOWED_EXTENSIONS", "pdf,md,txt")),
		UploadDir:         getEnv("UPLOAD_DIR", "uploads"),
		DataDir:           getEnv("DATA_DIR", "data"),

		IndexBackend: getEnv("INDEX_BACKEND", "memory"),
		QdrantHost:   getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:   getEnvInt("QDRANT_PORT", 6334),

		SummaryTokenBudget: getEnvInt("SUMMARY_TOKEN_BUDGET", 3000),
		MaxConcurrentLLM:   getEnvInt("MAX_CONCURRENT_LLM", 2),

		TTSModel: getEnv("TTS_MODEL", "tts-1"),
		TTSVoice: getEnv("TTS_VOICE", "alloy"),

		LogLevel: parseLogLevel(getEnv("LOG_LEVEL", "INFO")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints the chunker and retriever depend on.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalid, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("%w: chunk overlap must be non-negative, got %d", ErrInvalid, c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d",
			ErrInvalid, c.ChunkOverlap, c.ChunkSize)
	}
	if c.RetrievalK <= 0 {
		return fmt.Errorf("%w: retrieval k must be positive, got %d", ErrInvalid, c.RetrievalK)
	}
	if c.EmbeddingDim <= 0 {
		return fmt.Errorf("%w: embedding dimension must be positive, got %d", ErrInvalid, c.EmbeddingDim)
	}
	if c.MaxFileSizeMB <= 0 {
		return fmt.Errorf("%w: max file size must be positive, got %d", ErrInvalid, c.MaxFileSizeMB)
	}
	if c.MaxConcurrentLLM <= 0 {
		return fmt.Errorf("%w: max concurrent LLM calls must be positive, got %d",
			ErrInvalid, c.MaxConcurrentLLM)
	}
	if c.SummaryTokenBudget <= 0 {
		return fmt.Errorf("%w: summary token budget must be positive, got %d",
			ErrInvalid, c.SummaryTokenBudget)
	}
	switch c.IndexBackend {
	case "memory", "qdrant":
	default:
		return fmt.Errorf("%w: unknown index backend %q (want memory or qdrant)",
			ErrInvalid, c.IndexBackend)
	}
	return nil
}

// MaxFileSizeBytes returns the upload size cap in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

// ExtensionAllowed reports whether a file extension (without dot, case
// insensitive) is accepted for upload.
func (c *Config) ExtensionAllowed(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, allowed := range c.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
