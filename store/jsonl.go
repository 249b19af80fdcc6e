// Package store provides the pipeline's persistence: JSONL chunk stores,
// per-document JSON records, and a SQLite run log for extraction outcomes.
package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ontorag/ontorag/dto"
)

// maxLineBytes bounds a single JSONL record. Chunks are a few KB; this
// leaves generous headroom for embedded provenance snippets.
const maxLineBytes = 4 * 1024 * 1024

// ChunkStore is an append-only JSONL file of chunk records, one compact
// JSON object per line. File handles are acquired per operation and always
// released; the store value itself holds no state beyond the path.
type ChunkStore struct {
	path string
}

// NewChunkStore returns a store backed by the given JSONL path. The file
// is created on first append.
func NewChunkStore(path string) *ChunkStore {
	return &ChunkStore{path: path}
}

// Path returns the backing file path.
func (s *ChunkStore) Path() string { return s.path }

// AppendMany appends chunks to the store in order. The write is buffered
// and flushed before close; on error no partial line is guaranteed to have
// been written beyond the last successful flush.
func (s *ChunkStore) AppendMany(chunks []dto.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating chunk store directory: %w", err)
		}
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening chunk store: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, c := range chunks {
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("encoding chunk %s: %w", c.ChunkID, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing chunk store: %w", err)
	}
	return f.Close()
}

// Append appends a single chunk.
func (s *ChunkStore) Append(c dto.Chunk) error {
	return s.AppendMany([]dto.Chunk{c})
}

// Each streams every chunk in file order to fn. Iteration stops at the
// first error from fn or the first malformed line.
func (s *ChunkStore) Each(fn func(dto.Chunk) error) error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("opening chunk store: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var c dto.Chunk
		if err := json.Unmarshal(raw, &c); err != nil {
			return fmt.Errorf("chunk store %s line %d: %w", s.path, line, err)
		}
		if err := fn(c); err != nil {
			return err
		}
	}
	return sc.Err()
}

// ReadAll loads every chunk into memory in file order.
func (s *ChunkStore) ReadAll() ([]dto.Chunk, error) {
	var out []dto.Chunk
	err := s.Each(func(c dto.Chunk) error {
		out = append(out, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of chunk records in the store.
func (s *ChunkStore) Count() (int, error) {
	n := 0
	err := s.Each(func(dto.Chunk) error {
		n++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}
