package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFLoader extracts one segment per page using native text extraction.
type PDFLoader struct{}

func (l *PDFLoader) Extensions() []string { return []string{"pdf"} }

func (l *PDFLoader) Load(ctx context.Context, path string) (*Loaded, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	out := &Loaded{
		Title: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		MIME:  "application/pdf",
	}

	totalPages := reader.NumPage()
	for i := 1; i <= totalPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Pages that fail to extract are skipped, not fatal.
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		out.Segments = append(out.Segments, Segment{Text: text, Page: i})
	}
	return out, nil
}
