package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf16"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFExtractor extracts per-page text from PDF bytes using pdfcpu.
// pdfcpu decodes and consolidates page content streams; the text-showing
// operators (Tj, TJ, ', ") are scanned out of the stream here. Complex
// encodings (subsetted CID fonts without ToUnicode maps) degrade to the
// printable subset, which is acceptable for a best-effort local assistant.
type PDFExtractor struct{}

// Pages validates the PDF and returns one entry per page. Pages whose
// content cannot be decoded yield empty text rather than failing the
// whole document.
func (e *PDFExtractor) Pages(filename string, data []byte) ([]Page, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}
	if ctx.PageCount < 1 {
		return nil, fmt.Errorf("%w: document has no pages", ErrCorruptFile)
	}

	pages := make([]Page, 0, ctx.PageCount)
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		text := ""
		if reader, err := pdfcpu.ExtractPageContent(ctx, pageNr); err == nil && reader != nil {
			if content, err := io.ReadAll(reader); err == nil {
				text = decodeContentText(content)
			}
		}
		pages = append(pages, Page{Number: pageNr, Text: text})
	}
	return pages, nil
}

// decodeContentText scans a decoded PDF content stream for text-showing
// operators and assembles their string operands into readable text.
func decodeContentText(content []byte) string {
	var out strings.Builder
	var pending []string

	flush := func() {
		for _, s := range pending {
			out.WriteString(s)
		}
		pending = pending[:0]
	}
	newline := func() {
		if out.Len() > 0 && !strings.HasSuffix(out.String(), "\n") {
			out.WriteByte('\n')
		}
	}

	i := 0
	for i < len(content) {
		c := content[i]
		switch {
		case c == '(':
			s, next := parseLiteralString(content, i)
			pending = append(pending, s)
			i = next
		case c == '<' && i+1 < len(content) && content[i+1] != '<':
			s, next := parseHexString(content, i)
			pending = append(pending, s)
			i = next
		case c == '%':
			// Comment runs to end of line.
			for i < len(content) && content[i] != '\n' && content[i] != '\r' {
				i++
			}
		case isOperatorChar(c):
			start := i
			for i < len(content) && isOperatorChar(content[i]) {
				i++
			}
			switch string(content[start:i]) {
			case "Tj", "TJ":
				flush()
			case "'", "\"":
				newline()
				flush()
			case "Td", "TD", "T*", "ET":
				pending = pending[:0]
				newline()
			case "BT":
				pending = pending[:0]
			}
		default:
			// Numbers, names, delimiters and array brackets are operands
			// for operators we do not interpret.
			i++
		}
	}

	return strings.TrimSpace(out.String())
}

func isOperatorChar(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c == '\'' || c == '"' || c == '*'
}

// parseLiteralString decodes a PDF literal string starting at the opening
// parenthesis. Returns the decoded text and the index after the closing
// parenthesis. Balanced nested parentheses and the standard escapes are
// handled per the PDF string syntax.
func parseLiteralString(content []byte, start int) (string, int) {
	var buf bytes.Buffer
	depth := 0
	i := start
	for i < len(content) {
		c := content[i]
		switch c {
		case '\\':
			if i+1 >= len(content) {
				i++
				continue
			}
			i++
			switch content[i] {
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			case 'b', 'f':
				// Backspace and form feed carry no text value here.
			case '(', ')', '\\':
				buf.WriteByte(content[i])
			case '\n':
				// Line continuation: drop.
			default:
				if content[i] >= '0' && content[i] <= '7' {
					val := 0
					digits := 0
					for digits < 3 && i < len(content) && content[i] >= '0' && content[i] <= '7' {
						val = val*8 + int(content[i]-'0')
						i++
						digits++
					}
					i--
					if val >= 32 && val < 127 {
						buf.WriteByte(byte(val))
					} else if val > 127 {
						buf.WriteRune(rune(val))
					}
				}
			}
			i++
		case '(':
			if depth > 0 {
				buf.WriteByte(c)
			}
			depth++
			i++
		case ')':
			depth--
			if depth == 0 {
				return printableSubset(buf.Bytes()), i + 1
			}
			buf.WriteByte(c)
			i++
		default:
			buf.WriteByte(c)
			i++
		}
	}
	return printableSubset(buf.Bytes()), i
}

// parseHexString decodes a PDF hex string starting at '<'. Two-byte
// UTF-16BE sequences (the common case for Unicode text) are decoded;
// anything else keeps its printable subset.
func parseHexString(content []byte, start int) (string, int) {
	end := start + 1
	for end < len(content) && content[end] != '>' {
		end++
	}
	hexDigits := make([]byte, 0, end-start)
	for _, c := range content[start+1 : min(end, len(content))] {
		if c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F' {
			hexDigits = append(hexDigits, c)
		}
	}
	if len(hexDigits)%2 == 1 {
		hexDigits = append(hexDigits, '0')
	}

	raw := make([]byte, 0, len(hexDigits)/2)
	for i := 0; i+1 < len(hexDigits); i += 2 {
		raw = append(raw, hexNibble(hexDigits[i])<<4|hexNibble(hexDigits[i+1]))
	}

	next := end
	if next < len(content) {
		next++
	}

	if looksUTF16BE(raw) {
		codes := make([]uint16, 0, len(raw)/2)
		for i := 0; i+1 < len(raw); i += 2 {
			codes = append(codes, uint16(raw[i])<<8|uint16(raw[i+1]))
		}
		if len(codes) > 0 && codes[0] == 0xFEFF {
			codes = codes[1:]
		}
		return string(utf16.Decode(codes)), next
	}
	return printableSubset(raw), next
}

func hexNibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

// looksUTF16BE detects the two-byte big-endian layout used by PDF text
// strings with a Unicode BOM or mostly-zero high bytes.
func looksUTF16BE(raw []byte) bool {
	if len(raw) < 2 || len(raw)%2 != 0 {
		return false
	}
	if raw[0] == 0xFE && raw[1] == 0xFF {
		return true
	}
	zeros := 0
	for i := 0; i < len(raw); i += 2 {
		if raw[i] == 0 {
			zeros++
		}
	}
	return zeros*2 >= len(raw)/2
}

// printableSubset keeps printable ASCII and valid UTF-8 text, dropping
// control bytes left over from unmapped font encodings.
func printableSubset(raw []byte) string {
	var buf strings.Builder
	for _, c := range string(raw) {
		if c == '\n' || c == '\t' || c >= 32 && c != 127 {
			buf.WriteRune(c)
		}
	}
	return buf.String()
}
