package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/llm"
)

// maxCondenseLevels caps hierarchical reduction depth. A document that
// still exceeds the budget after this many levels is summarized from the
// oversized text as-is.
const maxCondenseLevels = 5

// Summary is a structured document summary.
type Summary struct {
	Summary      string    `json:"summary"`
	DocumentName string    `json:"document_name"`
	ChunkCount   int       `json:"chunk_count"`
	PageCount    int       `json:"page_count"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// Summarize produces a structured summary of the whole document. Content
// that fits the token budget is summarized in a single prompt; larger
// documents go through hierarchical map-reduce where sibling sections are
// summarized concurrently and reduced in document order.
func (e *Engine) Summarize(ctx context.Context, documentName string) (Summary, error) {
	doc, err := e.registry.Get(ctx, documentName)
	if err != nil {
		return Summary{}, err
	}

	chunks, err := e.index.Chunks(ctx, doc.ID)
	if err != nil {
		return Summary{}, fmt.Errorf("loading chunks of %s: %w", documentName, err)
	}

	parts := make([]string, len(chunks))
	for i, ch := range chunks {
		parts[i] = ch.Text
	}

	condensed, err := e.condense(ctx, parts)
	if err != nil {
		return Summary{}, fmt.Errorf("condensing %s: %w", documentName, err)
	}

	text, err := e.llm.Complete(ctx, llm.Request{
		Prompt:      fmt.Sprintf(finalSummaryPromptFormat, condensed),
		Temperature: summaryTemperature,
	})
	if err != nil {
		return Summary{}, fmt.Errorf("summarizing %s: %w", documentName, err)
	}

	e.logger.Info("summary generated", "document", documentName, "chunks", len(chunks))
	return Summary{
		Summary:      text,
		DocumentName: documentName,
		ChunkCount:   doc.Chunks,
		PageCount:    doc.Pages,
		GeneratedAt:  time.Now().UTC(),
	}, nil
}

// condense reduces parts level by level until their concatenation fits the
// token budget. Each level summarizes budget-sized groups concurrently and
// replaces the parts with the group summaries, preserving document order.
func (e *Engine) condense(ctx context.Context, parts []string) (string, error) {
	budget := e.cfg.SummaryTokenBudget

	for level := 0; partTokens(e.counter, parts) > budget; level++ {
		if level >= maxCondenseLevels {
			e.logger.Warn("content still over token budget, proceeding oversized",
				"parts", len(parts), "levels", level)
			break
		}

		groups := e.groupByBudget(parts)
		summaries := make([]string, len(groups))

		g, gctx := errgroup.WithContext(ctx)
		for i, group := range groups {
			g.Go(func() error {
				out, err := e.llm.Complete(gctx, llm.Request{
					Prompt:      fmt.Sprintf(sectionSummaryPromptFormat, strings.Join(group, "\n\n")),
					Temperature: summaryTemperature,
				})
				if err != nil {
					return err
				}
				summaries[i] = out
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return "", err
		}

		parts = summaries
	}

	return strings.Join(parts, "\n\n"), nil
}

// groupByBudget packs parts into consecutive groups whose token totals
// stay at or under the budget. A single part over the budget forms its own
// group rather than being dropped.
func (e *Engine) groupByBudget(parts []string) [][]string {
	budget := e.cfg.SummaryTokenBudget

	var groups [][]string
	var current []string
	currentTokens := 0

	for _, part := range parts {
		tokens := e.counter.Count(part)
		if len(current) > 0 && currentTokens+tokens > budget {
			groups = append(groups, current)
			current = nil
			currentTokens = 0
		}
		current = append(current, part)
		currentTokens += tokens
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

func partTokens(counter TokenCounter, parts []string) int {
	total := 0
	for _, part := range parts {
		total += counter.Count(part)
	}
	return total
}
