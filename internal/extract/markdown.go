package extract

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

// MarkdownExtractor treats each top-level (H1) section of a markdown
// document as one page, so citations can point at a section the way PDF
// citations point at a page. Documents without H1 headings are one page.
type MarkdownExtractor struct {
	parser goldmark.Markdown
}

// NewMarkdownExtractor creates a markdown extractor backed by goldmark.
func NewMarkdownExtractor() *MarkdownExtractor {
	md := goldmark.New(
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
	return &MarkdownExtractor{parser: md}
}

// Pages splits the source at H1 boundaries. Text before the first heading
// becomes its own page so no content is dropped.
func (e *MarkdownExtractor) Pages(filename string, data []byte) ([]Page, error) {
	reader := text.NewReader(data)
	doc := e.parser.Parser().Parse(reader)

	tree, err := toc.Inspect(doc, data,
		toc.MinDepth(1),
		toc.MaxDepth(1),
		toc.Compact(true),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: inspect markdown structure: %v", ErrCorruptFile, err)
	}

	if len(tree.Items) == 0 {
		return []Page{{Number: 1, Text: string(data)}}, nil
	}

	// Locate each H1 heading's start offset in the source.
	starts := make([]int, 0, len(tree.Items))
	for _, item := range tree.Items {
		heading := findHeadingByID(doc, string(item.ID))
		if heading == nil || heading.Lines().Len() == 0 {
			continue
		}
		starts = append(starts, heading.Lines().At(0).Start)
	}
	if len(starts) == 0 {
		return []Page{{Number: 1, Text: string(data)}}, nil
	}

	var pages []Page
	number := 1
	if preamble := strings.TrimSpace(string(data[:starts[0]])); preamble != "" {
		pages = append(pages, Page{Number: number, Text: preamble})
		number++
	}
	for i, start := range starts {
		end := len(data)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		// Back up to include the heading markers on the same line.
		lineStart := start
		for lineStart > 0 && data[lineStart-1] != '\n' {
			lineStart--
		}
		pages = append(pages, Page{
			Number: number,
			Text:   strings.TrimSpace(string(data[lineStart:end])),
		})
		number++
	}
	return pages, nil
}

// findHeadingByID locates a heading node by its auto-generated ID.
func findHeadingByID(node ast.Node, id string) ast.Node {
	var found ast.Node
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == ast.KindHeading {
			headingID, ok := n.AttributeString("id")
			if ok && string(headingID.([]byte)) == id {
				found = n
				return ast.WalkStop, nil
			}
		}
		return ast.WalkContinue, nil
	})
	return found
}
