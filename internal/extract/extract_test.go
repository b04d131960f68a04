package extract

import (
	"errors"
	"strings"
	"testing"
)

func TestRouterUnsupportedFormat(t *testing.T) {
	r := NewRouter()

	for _, name := range []string{"report.docx", "image.png", "archive", "notes.html"} {
		_, err := r.Pages(name, []byte("content"))
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("%s: expected ErrUnsupportedFormat, got %v", name, err)
		}
	}
}

func TestRouterDispatchesByExtension(t *testing.T) {
	r := NewRouter()

	pages, err := r.Pages("notes.txt", []byte("hello world"))
	if err != nil {
		t.Fatalf("txt extraction failed: %v", err)
	}
	if len(pages) != 1 || pages[0].Text != "hello world" {
		t.Errorf("unexpected txt pages: %+v", pages)
	}

	pages, err = r.Pages("NOTES.MD", []byte("# Title\n\nBody."))
	if err != nil {
		t.Fatalf("md extraction failed: %v", err)
	}
	if len(pages) != 1 || !strings.Contains(pages[0].Text, "Body.") {
		t.Errorf("unexpected md pages: %+v", pages)
	}
}

func TestRouterCorruptPDF(t *testing.T) {
	r := NewRouter()

	_, err := r.Pages("broken.pdf", []byte("definitely not a pdf"))
	if !errors.Is(err, ErrCorruptFile) {
		t.Errorf("expected ErrCorruptFile, got %v", err)
	}
}

func TestPlainTextFormFeedPages(t *testing.T) {
	e := &PlainTextExtractor{}

	pages, err := e.Pages("multi.txt", []byte("page one\fpage two\fpage three"))
	if err != nil {
		t.Fatalf("Pages failed: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("Expected 3 pages, got %d", len(pages))
	}
	for i, want := range []string{"page one", "page two", "page three"} {
		if pages[i].Text != want {
			t.Errorf("Page %d: expected %q, got %q", i, want, pages[i].Text)
		}
		if pages[i].Number != i+1 {
			t.Errorf("Page %d: expected number %d, got %d", i, i+1, pages[i].Number)
		}
	}
}

func TestPlainTextNormalizesLineEndings(t *testing.T) {
	e := &PlainTextExtractor{}

	pages, err := e.Pages("crlf.txt", []byte("line one\r\nline two"))
	if err != nil {
		t.Fatalf("Pages failed: %v", err)
	}
	if pages[0].Text != "line one\nline two" {
		t.Errorf("CRLF not normalized: %q", pages[0].Text)
	}
}

func TestTotalText(t *testing.T) {
	if TotalText([]Page{{Number: 1, Text: "  \n\t"}, {Number: 2, Text: ""}}) {
		t.Error("whitespace-only pages should report no text")
	}
	if !TotalText([]Page{{Number: 1, Text: ""}, {Number: 2, Text: "content"}}) {
		t.Error("pages with content should report text")
	}
}

// TestDecodeContentText exercises the operator scan against hand-built
// content streams covering the common text-showing forms.
func TestDecodeContentText(t *testing.T) {
	tests := []struct {
		name    string
		stream  string
		want    string
		notWant string
	}{
		{
			name:   "simple Tj",
			stream: "BT /F1 12 Tf 72 720 Td (Hello World) Tj ET",
			want:   "Hello World",
		},
		{
			name:   "TJ array with kerning",
			stream: "BT [(Hel) -20 (lo)] TJ ET",
			want:   "Hello",
		},
		{
			name:   "newline between Td blocks",
			stream: "BT (first line) Tj 0 -14 Td (second line) Tj ET",
			want:   "first line\nsecond line",
		},
		{
			name:   "escaped parentheses",
			stream: `BT (balance \(in\) text) Tj ET`,
			want:   "balance (in) text",
		},
		{
			name:   "nested parentheses",
			stream: "BT (outer (inner) rest) Tj ET",
			want:   "outer (inner) rest",
		},
		{
			name:   "hex string ascii",
			stream: "BT <48656C6C6F> Tj ET",
			want:   "Hello",
		},
		{
			name:   "hex string utf16be",
			stream: "BT <FEFF00480069> Tj ET",
			want:   "Hi",
		},
		{
			name:    "unshown strings discarded",
			stream:  "BT (shown) Tj ET (orphan)",
			want:    "shown",
			notWant: "orphan",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeContentText([]byte(tt.stream))
			if got != tt.want && !strings.Contains(got, tt.want) {
				t.Errorf("decodeContentText(%q) = %q, want %q", tt.stream, got, tt.want)
			}
			if tt.notWant != "" && strings.Contains(got, tt.notWant) {
				t.Errorf("decodeContentText(%q) = %q, should not contain %q", tt.stream, got, tt.notWant)
			}
		})
	}
}

func TestParseLiteralStringOctalEscape(t *testing.T) {
	s, next := parseLiteralString([]byte(`(A\101B)`), 0)
	if s != "AAB" {
		t.Errorf("octal escape: expected %q, got %q", "AAB", s)
	}
	if next != len(`(A\101B)`) {
		t.Errorf("expected scan to consume full string, stopped at %d", next)
	}
}
