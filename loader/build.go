package loader

import (
	"context"
	"time"

	"github.com/ontorag/ontorag/dto"
)

// BuildOptions tune document construction. The zero value uses the default
// splitter geometry and the wall clock.
type BuildOptions struct {
	ChunkSize int
	Overlap   int
	Now       func() time.Time
}

// BuildDocument loads a file, splits its segments into chunks, and
// assembles the document DTO with deterministic ids and per-chunk
// provenance.
func BuildDocument(ctx context.Context, reg *Registry, path string, opts BuildOptions) (*dto.Document, error) {
	loaded, err := reg.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	size := opts.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	overlap := opts.Overlap
	if overlap <= 0 {
		overlap = DefaultOverlap
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	contentHash, err := dto.HashFile(path)
	if err != nil {
		return nil, err
	}

	docID := dto.DocumentID(path)
	createdAt := dto.Timestamp(now())
	doc := &dto.Document{
		DocumentID:  docID,
		SourcePath:  path,
		SourceMIME:  loaded.MIME,
		ContentHash: contentHash,
		Title:       loaded.Title,
		CreatedAt:   createdAt,
		Chunks:      []dto.Chunk{},
	}

	index := 0
	for _, seg := range loaded.Segments {
		for _, piece := range Split(seg.Text, size, overlap) {
			prov := dto.Provenance{
				SourcePath:  path,
				SourceMIME:  loaded.MIME,
				Section:     seg.Section,
				TextSnippet: dto.Snippet(piece.Text, 160),
			}
			if seg.Page > 0 {
				page := seg.Page
				prov.Page = &page
			}
			start, end := piece.Start, piece.End
			prov.OffsetStart = &start
			prov.OffsetEnd = &end

			doc.Chunks = append(doc.Chunks, dto.Chunk{
				DocumentID: docID,
				ChunkID:    dto.ChunkID(docID, index, piece.Text),
				ChunkIndex: index,
				Text:       piece.Text,
				Provenance: prov,
				TextHash:   dto.HashText(piece.Text),
				CreatedAt:  createdAt,
			})
			index++
		}
	}
	return doc, nil
}
