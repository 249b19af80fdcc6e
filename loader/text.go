package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TextLoader handles plain-text formats: txt, csv, and html read as text.
type TextLoader struct{}

func (l *TextLoader) Extensions() []string { return []string{"txt", "csv", "html", "htm"} }

func (l *TextLoader) Load(ctx context.Context, path string) (*Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading text file: %w", err)
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	mime := "text/plain"
	switch ext {
	case "csv":
		mime = "text/csv"
	case "html", "htm":
		mime = "text/html"
	}

	out := &Loaded{
		Title: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		MIME:  mime,
	}
	text := strings.TrimSpace(string(data))
	if text != "" {
		out.Segments = []Segment{{Text: text}}
	}
	return out, nil
}
