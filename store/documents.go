package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ontorag/ontorag/dto"
)

// Layout under the output directory:
//
//	{out}/documents/{document_id}.json   document record, chunks elided
//	{out}/chunks/{document_id}.jsonl     one chunk per line

// DocumentDir returns the directory holding document records.
func DocumentDir(out string) string { return filepath.Join(out, "documents") }

// ChunkPath returns the JSONL path for a document's chunks.
func ChunkPath(out, documentID string) string {
	return filepath.Join(out, "chunks", documentID+".jsonl")
}

// SaveDocument persists a document and its chunks under the output
// directory. The document record carries an empty chunk list; chunks live
// only in the JSONL sidecar so the record stays small.
func SaveDocument(out string, doc *dto.Document) error {
	if err := os.MkdirAll(DocumentDir(out), 0o755); err != nil {
		return fmt.Errorf("creating document directory: %w", err)
	}

	record := *doc
	record.Chunks = []dto.Chunk{}
	data, err := json.MarshalIndent(&record, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding document %s: %w", doc.DocumentID, err)
	}
	path := filepath.Join(DocumentDir(out), doc.DocumentID+".json")
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing document record: %w", err)
	}

	cs := NewChunkStore(ChunkPath(out, doc.DocumentID))
	if err := cs.AppendMany(doc.Chunks); err != nil {
		return err
	}
	return nil
}

// LoadDocument reads a document record and rehydrates its chunks from the
// JSONL sidecar.
func LoadDocument(out, documentID string) (*dto.Document, error) {
	path := filepath.Join(DocumentDir(out), documentID+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc dto.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing document record %s: %w", path, err)
	}

	cs := NewChunkStore(ChunkPath(out, documentID))
	chunks, err := cs.ReadAll()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			doc.Chunks = []dto.Chunk{}
			return &doc, nil
		}
		return nil, err
	}
	doc.Chunks = chunks
	return &doc, nil
}

// ListDocuments returns the ids of all persisted documents, sorted by the
// directory's lexical order.
func ListDocuments(out string) ([]string, error) {
	entries, err := os.ReadDir(DocumentDir(out))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".json") {
			ids = append(ids, strings.TrimSuffix(name, ".json"))
		}
	}
	return ids, nil
}
