package extract

import "strings"

// PlainTextExtractor maps a text file onto pages. Form feeds are honored
// as page breaks; most files have none and become a single page.
type PlainTextExtractor struct{}

// Pages splits on form feed characters and normalizes line endings.
func (e *PlainTextExtractor) Pages(filename string, data []byte) ([]Page, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	parts := strings.Split(text, "\f")

	pages := make([]Page, 0, len(parts))
	for i, part := range parts {
		pages = append(pages, Page{Number: i + 1, Text: strings.TrimSpace(part)})
	}
	return pages, nil
}
