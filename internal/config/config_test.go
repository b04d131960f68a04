package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, 5, cfg.RetrievalK)
	assert.Equal(t, []string{"pdf", "md", "txt"}, cfg.AllowedExtensions)
	assert.Equal(t, "memory", cfg.IndexBackend)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "500")
	t.Setenv("CHUNK_OVERLAP", "50")
	t.Setenv("RETRIEVAL_K", "3")
	t.Setenv("ALLOWED_EXTENSIONS", "PDF, md")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LLM_TEMPERATURE", "0.7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.ChunkSize)
	assert.Equal(t, 50, cfg.ChunkOverlap)
	assert.Equal(t, 3, cfg.RetrievalK)
	assert.Equal(t, []string{"pdf", "md"}, cfg.AllowedExtensions)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.InDelta(t, 0.7, cfg.LLMTemperature, 1e-9)
}

func TestValidateRejectsBadCombinations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }},
		{"negative overlap", func(c *Config) { c.ChunkOverlap = -1 }},
		{"overlap equals size", func(c *Config) { c.ChunkOverlap = c.ChunkSize }},
		{"overlap exceeds size", func(c *Config) { c.ChunkOverlap = c.ChunkSize + 1 }},
		{"zero retrieval k", func(c *Config) { c.RetrievalK = 0 }},
		{"zero embedding dim", func(c *Config) { c.EmbeddingDim = 0 }},
		{"unknown backend", func(c *Config) { c.IndexBackend = "pinecone" }},
		{"zero llm concurrency", func(c *Config) { c.MaxConcurrentLLM = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestExtensionAllowed(t *testing.T) {
	cfg := &Config{AllowedExtensions: []string{"pdf", "md", "txt"}}

	assert.True(t, cfg.ExtensionAllowed("pdf"))
	assert.True(t, cfg.ExtensionAllowed(".pdf"))
	assert.True(t, cfg.ExtensionAllowed("PDF"))
	assert.True(t, cfg.ExtensionAllowed(".TXT"))
	assert.False(t, cfg.ExtensionAllowed("docx"))
	assert.False(t, cfg.ExtensionAllowed(""))
}

func TestMaxFileSizeBytes(t *testing.T) {
	cfg := &Config{MaxFileSizeMB: 50}
	assert.Equal(t, int64(50*1024*1024), cfg.MaxFileSizeBytes())
}
