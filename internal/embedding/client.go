package embedding

import (
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Client wraps the OpenAI-compatible API client shared by the embedding,
// completion and speech capabilities.
type Client struct {
	client *openai.Client
}

// NewClient creates an API client for the configured endpoint. Pointing the
// base URL at a local OpenAI-compatible server (such as Ollama's /v1) works
// without a real key; "ollama" is sent when no key is configured.
func NewClient(baseURL, apiKey string) *Client {
	var opts []option.RequestOption
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if apiKey == "" {
		apiKey = "ollama"
	}
	opts = append(opts, option.WithAPIKey(apiKey))

	client := openai.NewClient(opts...)
	return &Client{client: &client}
}

// Client returns the underlying OpenAI client for use in other packages
// (completion and speech synthesis share the same endpoint).
func (c *Client) Client() *openai.Client {
	return c.client
}
