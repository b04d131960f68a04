// Package tts synthesizes spoken audio for voice-mode answers.
package tts

import "context"

// Synthesizer converts text into audio bytes (MP3). Answer synthesis treats
// failures here as a degradation, not an error: the text answer still ships.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
