// Package extract turns uploaded document bytes into page-attributed plain text.
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrCorruptFile       = errors.New("corrupt or unreadable document")
)

// Page is one page of extracted text. Numbering is 1-based and preserved
// through chunking so answers can cite their location.
type Page struct {
	Number int
	Text   string
}

// Extractor converts raw document bytes into pages of text.
// Implementations exist for PDF, markdown and plain text; a different
// parsing backend can be swapped in behind this interface.
type Extractor interface {
	Pages(filename string, data []byte) ([]Page, error)
}

// Router dispatches extraction by file extension.
type Router struct {
	pdf      Extractor
	markdown Extractor
	plain    Extractor
}

// NewRouter creates a Router with the built-in extractors.
func NewRouter() *Router {
	return &Router{
		pdf:      &PDFExtractor{},
		markdown: NewMarkdownExtractor(),
		plain:    &PlainTextExtractor{},
	}
}

// Pages extracts text from data, choosing the extractor by filename extension.
// Unknown extensions return ErrUnsupportedFormat.
func (r *Router) Pages(filename string, data []byte) ([]Page, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	switch ext {
	case "pdf":
		return r.pdf.Pages(filename, data)
	case "md", "markdown":
		return r.markdown.Pages(filename, data)
	case "txt", "text":
		return r.plain.Pages(filename, data)
	default:
		return nil, fmt.Errorf("%w: .%s", ErrUnsupportedFormat, ext)
	}
}

// TotalText reports whether the pages carry any non-whitespace text at all.
func TotalText(pages []Page) bool {
	for _, p := range pages {
		if strings.TrimSpace(p.Text) != "" {
			return true
		}
	}
	return false
}
