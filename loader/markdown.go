package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MarkdownLoader splits a markdown file into segments at headings so each
// chunk carries its section title as provenance.
type MarkdownLoader struct{}

func (l *MarkdownLoader) Extensions() []string { return []string{"md", "markdown"} }

func (l *MarkdownLoader) Load(ctx context.Context, path string) (*Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading markdown file: %w", err)
	}

	out := &Loaded{
		Title: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		MIME:  "text/markdown",
	}

	var section string
	var buf strings.Builder
	titleSet := false
	flush := func() {
		text := strings.TrimSpace(buf.String())
		if text != "" {
			out.Segments = append(out.Segments, Segment{Text: text, Section: section})
		}
		buf.Reset()
	}

	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			flush()
			section = strings.TrimSpace(strings.TrimLeft(trimmed, "# "))
			// First top-level heading becomes the document title.
			if strings.HasPrefix(trimmed, "# ") && !titleSet {
				out.Title = section
				titleSet = true
			}
			continue
		}
		buf.WriteString(line)
		buf.WriteString("\n")
	}
	flush()
	return out, nil
}
