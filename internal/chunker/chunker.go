// Package chunker splits page-attributed document text into overlapping
// fixed-size chunks for embedding and retrieval.
package chunker

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/DharanidharanDD007/Enterprise-Document-Q-A-Assistant/internal/extract"
)

// ErrInvalidConfiguration indicates a size/overlap combination that cannot
// produce a usable chunk stream.
var ErrInvalidConfiguration = errors.New("invalid chunking configuration")

// Chunk is a window of document text with its provenance.
type Chunk struct {
	Seq  int    // Position in document (0, 1, 2...)
	Page int    // Page containing the chunk's starting offset
	Text string // At most `size` bytes
}

// Chunker produces overlapping windows over the concatenated page text.
// Consecutive chunks share `overlap` bytes, so dropping each chunk's leading
// overlap (after the first) and concatenating reconstructs the text exactly.
type Chunker struct {
	size    int
	overlap int
}

// New creates a Chunker. Size must be positive and overlap must be
// non-negative and strictly smaller than size.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfiguration, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap %d must be in [0, %d)", ErrInvalidConfiguration, overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Split concatenates the pages (joined by a single newline) and slides a
// window of the configured size across the result. Each chunk records the
// page its starting offset falls on. Empty input yields no chunks; text
// shorter than the chunk size yields exactly one chunk.
func (c *Chunker) Split(pages []extract.Page) []Chunk {
	text, starts, numbers := joinPages(pages)
	if len(text) == 0 {
		return nil
	}

	stride := c.size - c.overlap
	var chunks []Chunk
	for start := 0; start < len(text); start += stride {
		end := start + c.size
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, Chunk{
			Seq:  len(chunks),
			Page: pageAt(starts, numbers, start),
			Text: text[start:end],
		})
		if end == len(text) {
			break
		}
	}
	return chunks
}

// joinPages concatenates page text with newline separators, recording each
// page's starting offset for later attribution.
func joinPages(pages []extract.Page) (string, []int, []int) {
	var b strings.Builder
	starts := make([]int, 0, len(pages))
	numbers := make([]int, 0, len(pages))

	for i, p := range pages {
		if i > 0 {
			b.WriteByte('\n')
		}
		starts = append(starts, b.Len())
		numbers = append(numbers, p.Number)
		b.WriteString(p.Text)
	}
	return b.String(), starts, numbers
}

// pageAt returns the page number owning the given offset. A page owns the
// range from its start up to the next page's start.
func pageAt(starts, numbers []int, offset int) int {
	if len(starts) == 0 {
		return 1
	}
	i := sort.Search(len(starts), func(i int) bool { return starts[i] > offset })
	return numbers[i-1]
}
