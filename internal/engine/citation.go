package engine

import (
	"strings"
	"unicode/utf8"

	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/index"
)

const (
	maxCitations    = 3
	maxSnippetBytes = 200
)

// Citation is a supporting passage behind an answer.
type Citation struct {
	ID             string  `json:"id"`
	Text           string  `json:"text"`
	Page           int     `json:"page"`
	Source         string  `json:"source"`
	RelevanceScore float64 `json:"relevance_score"`
}

// buildCitations turns the strongest hits into citations with truncated
// snippets. Hits arrive already ordered by descending relevance.
func buildCitations(hits []index.Hit, names map[string]string) []Citation {
	limit := maxCitations
	if len(hits) < limit {
		limit = len(hits)
	}

	citations := make([]Citation, 0, limit)
	for _, hit := range hits[:limit] {
		citations = append(citations, Citation{
			ID:             hit.ID,
			Text:           snippet(hit.Text),
			Page:           hit.Page,
			Source:         names[hit.DocumentID],
			RelevanceScore: hit.Score,
		})
	}
	return citations
}

// snippet collapses whitespace and truncates to maxSnippetBytes at a word
// boundary, appending "..." when the text was cut.
func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= maxSnippetBytes {
		return text
	}

	cut := text[:maxSnippetBytes]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	} else {
		// No word boundary in range (long token or unspaced script);
		// back off to a complete rune instead.
		for len(cut) > 0 {
			r, size := utf8.DecodeLastRuneInString(cut)
			if r != utf8.RuneError || size > 1 {
				break
			}
			cut = cut[:len(cut)-1]
		}
	}
	return strings.TrimRight(cut, " ") + "..."
}
