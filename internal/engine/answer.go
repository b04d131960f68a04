package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/index"
	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/llm"
)

// AskRequest is a question against one document, or against every
// document when DocumentName is empty.
type AskRequest struct {
	Query        string
	DocumentName string
	VoiceMode    bool
}

// QueryResult is a grounded answer with its supporting evidence. Audio is
// only set in voice mode and only when synthesis succeeded.
type QueryResult struct {
	Answer      string     `json:"answer"`
	Confidence  float64    `json:"confidence"`
	Citations   []Citation `json:"citations"`
	Sources     []string   `json:"sources"`
	SourceCount int        `json:"source_count"`
	Audio       []byte     `json:"audio,omitempty"`
}

// Ask retrieves the most relevant chunks and synthesizes an answer
// grounded in them. The named document must exist; an empty name searches
// all documents. Audio synthesis failures degrade to a text-only result.
func (e *Engine) Ask(ctx context.Context, req AskRequest) (QueryResult, error) {
	documentID := ""
	if req.DocumentName != "" {
		doc, err := e.registry.Get(ctx, req.DocumentName)
		if err != nil {
			return QueryResult{}, err
		}
		documentID = doc.ID
	}

	hits, err := e.retrieve(ctx, documentID, req.Query)
	if err != nil {
		return QueryResult{}, err
	}
	names, err := e.documentNames(ctx)
	if err != nil {
		return QueryResult{}, err
	}

	answer, err := e.llm.Complete(ctx, llm.Request{
		System:      answerSystem,
		Prompt:      fmt.Sprintf(answerPromptFormat, contextBlock(hits, names), req.Query),
		Temperature: e.cfg.LLMTemperature,
	})
	if err != nil {
		return QueryResult{}, fmt.Errorf("generating answer: %w", err)
	}

	result := QueryResult{
		Answer:      answer,
		Confidence:  confidenceScore(hits, e.cfg.RetrievalK),
		Citations:   buildCitations(hits, names),
		Sources:     sourceNames(hits, names),
		SourceCount: len(hits),
	}

	if req.VoiceMode && e.tts != nil {
		audio, err := e.tts.Synthesize(ctx, answer)
		if err != nil {
			e.logger.Warn("audio synthesis failed, returning text only",
				"document", req.DocumentName, "error", err)
		} else {
			result.Audio = audio
		}
	}

	e.logger.Info("question answered",
		"document", req.DocumentName,
		"hits", len(hits),
		"confidence", result.Confidence)
	return result, nil
}

// contextBlock formats hits into the grounding context, strongest first,
// each tagged with its source document and page.
func contextBlock(hits []index.Hit, names map[string]string) string {
	var b strings.Builder
	for i, hit := range hits {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[Source: %s, Page %d]\n%s", names[hit.DocumentID], hit.Page, hit.Text)
	}
	return b.String()
}
