package engine

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/index"
)

func TestBuildCitationsCapsAtThree(t *testing.T) {
	names := map[string]string{"doc-1": "report.pdf"}
	var hits []index.Hit
	for i := 0; i < 5; i++ {
		hits = append(hits, index.Hit{
			Chunk: index.Chunk{ID: string(rune('a' + i)), DocumentID: "doc-1", Page: i + 1, Text: "some text"},
			Score: 1.0 - float64(i)*0.1,
		})
	}

	citations := buildCitations(hits, names)
	require.Len(t, citations, 3)

	// Strongest hits first, fields carried over.
	assert.Equal(t, "a", citations[0].ID)
	assert.Equal(t, 1, citations[0].Page)
	assert.Equal(t, "report.pdf", citations[0].Source)
	assert.InDelta(t, 1.0, citations[0].RelevanceScore, 1e-9)
	assert.InDelta(t, 0.8, citations[2].RelevanceScore, 1e-9)
}

func TestBuildCitationsFewerHitsThanCap(t *testing.T) {
	names := map[string]string{"doc-1": "report.pdf"}
	hits := []index.Hit{
		{Chunk: index.Chunk{ID: "only", DocumentID: "doc-1", Page: 4, Text: "lonely"}, Score: 0.9},
	}

	citations := buildCitations(hits, names)
	require.Len(t, citations, 1)
	assert.Equal(t, "lonely", citations[0].Text)
}

func TestBuildCitationsEmptyHits(t *testing.T) {
	assert.Empty(t, buildCitations(nil, nil))
}

func TestSnippetCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "solar panels convert light",
		snippet("  solar\n\npanels\tconvert   light "))
}

func TestSnippetShortTextKeptWhole(t *testing.T) {
	text := "short and sweet"
	got := snippet(text)
	assert.Equal(t, text, got)
	assert.False(t, strings.HasSuffix(got, "..."))
}

func TestSnippetTruncatesAtWordBoundary(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("alpha beta ", 30))
	got := snippet(text)

	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, len(got), maxSnippetBytes+3)

	// No word is cut in half.
	for _, word := range strings.Fields(strings.TrimSuffix(got, "...")) {
		assert.Contains(t, []string{"alpha", "beta"}, word)
	}
}

func TestSnippetLongTokenKeepsRunesIntact(t *testing.T) {
	// A single spaceless CJK token longer than the snippet cap: the cut
	// must not split a rune.
	text := strings.Repeat("数", 100)
	got := snippet(text)

	assert.True(t, strings.HasSuffix(got, "..."))
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), maxSnippetBytes+3)
}
