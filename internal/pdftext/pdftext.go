// Package pdftext extracts plain text from statement PDFs.
package pdftext

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extractor returns the text of every page of a PDF, each page preceded by a
// blank-line separator.
type Extractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// PageExtractor is the Extractor backed by github.com/ledongthuc/pdf.
type PageExtractor struct{}

// NewPageExtractor creates a new PageExtractor.
func NewPageExtractor() *PageExtractor {
	return &PageExtractor{}
}

// ExtractText implements Extractor.
func (e *PageExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("ExtractText: open %q: %w", path, err)
	}
	defer f.Close()

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("ExtractText: page %d: %w", i, err)
		}
		pages = append(pages, text)
	}

	return JoinPages(pages), nil
}

// JoinPages concatenates page texts the way the sanitizer expects them.
func JoinPages(pages []string) string {
	var b strings.Builder
	for _, p := range pages {
		b.WriteString("\n\n")
		b.WriteString(p)
	}
	return b.String()
}
