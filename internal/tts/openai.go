package tts

import (
	"context"
	"fmt"
	"io"

	"github.com/openai/openai-go"
)

// OpenAI implements Synthesizer using the speech endpoint of an
// OpenAI-compatible server.
type OpenAI struct {
	client *openai.Client
	model  string
	voice  string
}

// NewOpenAI creates a speech synthesizer with the given model and voice.
func NewOpenAI(client *openai.Client, model, voice string) *OpenAI {
	return &OpenAI{client: client, model: model, voice: voice}
}

// Synthesize renders the text as MP3 audio.
func (s *OpenAI) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(s.model),
		Voice:          openai.AudioSpeechNewParamsVoice(s.voice),
		Input:          text,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, fmt.Errorf("speech synthesis: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio stream: %w", err)
	}
	return audio, nil
}
