package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
)

// OpenAI implements Client against any OpenAI-compatible chat endpoint.
// Transient failures (rate limits, server errors, dropped connections) are
// retried exactly once with backoff; client errors fail immediately.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates a completion client for the given model.
func NewOpenAI(client *openai.Client, model string) *OpenAI {
	return &OpenAI{client: client, model: model}
}

// Complete runs a single chat completion. An empty completion after the
// retry surfaces as ErrEmptyOutput, a deadline as ErrTimeout, everything
// else as ErrUnavailable wrapping the cause.
func (c *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	var content string

	operation := func() error {
		messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
		if req.System != "" {
			messages = append(messages, openai.SystemMessage(req.System))
		}
		messages = append(messages, openai.UserMessage(req.Prompt))

		params := openai.ChatCompletionNewParams{
			Messages:    messages,
			Model:       openai.ChatModel(c.model),
			Temperature: openai.Float(req.Temperature),
		}
		if req.JSONOnly {
			params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONObject: &openai.ResponseFormatJSONObjectParam{
					Type: "json_object",
				},
			}
		}

		resp, err := c.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return classify(err)
		}
		if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
			return ErrEmptyOutput
		}
		content = resp.Choices[0].Message.Content
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 5 * time.Second

	err := backoff.Retry(operation, backoff.WithMaxRetries(backoff.WithContext(b, ctx), 1))
	if err != nil {
		return "", err
	}
	return content, nil
}

// classify maps a completion failure onto the generation error taxonomy and
// decides whether the retry is worth taking.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return backoff.Permanent(fmt.Errorf("%w: %v", ErrTimeout, err))
	}
	if errors.Is(err, context.Canceled) {
		return backoff.Permanent(err)
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		// Client errors other than rate limiting will not succeed on retry.
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 && apiErr.StatusCode != 429 {
			return backoff.Permanent(fmt.Errorf("%w: %v", ErrUnavailable, err))
		}
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
