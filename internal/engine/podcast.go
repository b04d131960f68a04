package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/llm"
)

// Podcast is a generated audio intro for one document.
type Podcast struct {
	DocumentName string `json:"document_name"`
	Script       string `json:"script"`
	Audio        []byte `json:"audio"`
}

// Podcast writes a short podcast-style intro script for the document and
// synthesizes it to audio. Unlike voice answers, the audio is the product
// here: synthesis failure fails the whole operation, never a script-only
// result.
func (e *Engine) Podcast(ctx context.Context, documentName string) (Podcast, error) {
	if e.tts == nil {
		return Podcast{}, errors.New("audio synthesis not configured")
	}

	doc, err := e.registry.Get(ctx, documentName)
	if err != nil {
		return Podcast{}, err
	}

	chunks, err := e.index.Chunks(ctx, doc.ID)
	if err != nil {
		return Podcast{}, fmt.Errorf("loading chunks of %s: %w", documentName, err)
	}

	parts := make([]string, len(chunks))
	for i, ch := range chunks {
		parts[i] = ch.Text
	}
	condensed, err := e.condense(ctx, parts)
	if err != nil {
		return Podcast{}, fmt.Errorf("condensing %s: %w", documentName, err)
	}

	script, err := e.llm.Complete(ctx, llm.Request{
		Prompt:      fmt.Sprintf(podcastPromptFormat, condensed),
		Temperature: podcastTemperature,
	})
	if err != nil {
		return Podcast{}, fmt.Errorf("writing podcast script for %s: %w", documentName, err)
	}

	audio, err := e.tts.Synthesize(ctx, script)
	if err != nil {
		return Podcast{}, fmt.Errorf("synthesizing podcast audio for %s: %w", documentName, err)
	}

	e.logger.Info("podcast generated",
		"document", documentName,
		"script_words", len(strings.Fields(script)),
		"audio_bytes", len(audio))
	return Podcast{DocumentName: documentName, Script: script, Audio: audio}, nil
}
