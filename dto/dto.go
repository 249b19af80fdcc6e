// Package dto defines the immutable transfer records that carry document
// content through the pipeline: documents, chunks, provenance, and evidence.
// All identifiers are deterministic functions of their inputs so that
// re-ingesting identical content yields identical ids.
package dto

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Provenance records where a chunk's text came from within its source.
type Provenance struct {
	SourcePath  string `json:"source_path"`
	SourceMIME  string `json:"source_mime,omitempty"`
	Page        *int   `json:"page,omitempty"`
	PageLabel   string `json:"page_label,omitempty"`
	Section     string `json:"section,omitempty"`
	OffsetStart *int   `json:"offset_start,omitempty"`
	OffsetEnd   *int   `json:"offset_end,omitempty"`
	TextSnippet string `json:"text_snippet,omitempty"`
}

// Chunk is one contiguous piece of a document's text with provenance.
type Chunk struct {
	DocumentID string     `json:"document_id"`
	ChunkID    string     `json:"chunk_id"`
	ChunkIndex int        `json:"chunk_index"`
	Text       string     `json:"text"`
	Provenance Provenance `json:"provenance"`
	TextHash   string     `json:"text_hash"`
	CreatedAt  string     `json:"created_at"`
}

// Document is the top-level record for an ingested file.
type Document struct {
	DocumentID  string  `json:"document_id"`
	SourcePath  string  `json:"source_path"`
	SourceMIME  string  `json:"source_mime,omitempty"`
	ContentHash string  `json:"content_hash,omitempty"`
	Title       string  `json:"title,omitempty"`
	CreatedAt   string  `json:"created_at"`
	Chunks      []Chunk `json:"chunks,omitempty"`
}

// Evidence links a proposed fact or schema element back to a verbatim quote
// in a specific chunk. Quotes are bounded to MaxQuoteWords at the LLM
// boundary.
type Evidence struct {
	ChunkID string `json:"chunk_id"`
	Quote   string `json:"quote"`
}

// MaxQuoteWords is the evidence quote length bound, in words.
const MaxQuoteWords = 25

// ClampQuote truncates a quote to MaxQuoteWords words. The second return
// reports whether the quote was truncated.
func ClampQuote(q string) (string, bool) {
	words := strings.Fields(q)
	if len(words) <= MaxQuoteWords {
		return q, false
	}
	return strings.Join(words[:MaxQuoteWords], " "), true
}

// Key returns the deduplication key for an evidence record.
func (e Evidence) Key() string {
	return e.ChunkID + "\x00" + e.Quote
}

// DocumentID returns the deterministic id for a document: the 40-hex SHA-1
// digest of the source path bytes.
func DocumentID(sourcePath string) string {
	sum := sha1.Sum([]byte(sourcePath))
	return hex.EncodeToString(sum[:])
}

// ChunkID returns the deterministic id for a chunk: the 40-hex SHA-1 digest
// over document id, chunk index, and chunk text. The fields are joined with
// NUL separators so adjacent fields cannot collide.
func ChunkID(documentID string, chunkIndex int, text string) string {
	h := sha1.New()
	fmt.Fprintf(h, "%s\x00%d\x00%s", documentID, chunkIndex, text)
	return hex.EncodeToString(h.Sum(nil))
}

// HashText returns the SHA-1 hex digest of a text's UTF-8 bytes.
func HashText(text string) string {
	sum := sha1.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

// HashFile computes the SHA-256 hex digest of a file's content.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Timestamp formats a time as an ISO-8601 UTC string with a Z suffix.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000Z")
}

// Now returns the current time formatted with Timestamp.
func Now() string {
	return Timestamp(time.Now())
}

// Snippet returns a whitespace-normalised preview of text for provenance
// records, truncated to maxLen runes with an ellipsis.
func Snippet(text string, maxLen int) string {
	t := strings.Join(strings.Fields(text), " ")
	runes := []rune(t)
	if len(runes) <= maxLen {
		return t
	}
	return string(runes[:maxLen]) + "…"
}
