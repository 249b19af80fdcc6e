// Package loader turns source files into chunked document DTOs. A format
// loader extracts ordered text segments with page/section provenance; the
// splitter cuts segments into overlapping chunks sized for LLM calls.
package loader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned when no loader is registered for a
// file's extension.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Segment is one ordered piece of extracted text with its provenance.
type Segment struct {
	Text    string
	Page    int // 1-based page number, 0 when the format has no pages
	Section string
}

// Loaded is what a format loader produces from one file.
type Loaded struct {
	Title    string
	MIME     string
	Segments []Segment
}

// Loader extracts text from a specific document format.
type Loader interface {
	Load(ctx context.Context, path string) (*Loaded, error)
	Extensions() []string
}

// Registry maps file extensions to loaders.
type Registry struct {
	loaders map[string]Loader
}

// NewRegistry returns a registry with the built-in loaders registered.
func NewRegistry() *Registry {
	r := &Registry{loaders: make(map[string]Loader)}
	for _, l := range []Loader{
		&TextLoader{},
		&MarkdownLoader{},
		&PDFLoader{},
		&XLSXLoader{},
	} {
		for _, ext := range l.Extensions() {
			r.loaders[ext] = l
		}
	}
	return r
}

// Register adds or replaces the loader for an extension (without the dot).
func (r *Registry) Register(ext string, l Loader) {
	r.loaders[strings.ToLower(ext)] = l
}

// Get returns the loader for a file path based on its extension.
func (r *Registry) Get(path string) (Loader, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	l, ok := r.loaders[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	return l, nil
}

// Load resolves the loader for path and runs it.
func (r *Registry) Load(ctx context.Context, path string) (*Loaded, error) {
	l, err := r.Get(path)
	if err != nil {
		return nil, err
	}
	return l.Load(ctx, path)
}
