// Package extract runs per-chunk LLM extraction: it renders prompts from
// templates, paces and bounds the calls, parses the JSON replies, and
// drops failing chunks with warnings instead of aborting the run.
package extract

import (
	"fmt"
	"os"
	"strings"
)

// Placeholders substituted into prompt templates with compact JSON.
const (
	PlaceholderChunk = "{{CHUNK_DTO_JSON}}"
	PlaceholderCard  = "{{SCHEMA_CARD_JSON}}"
)

// Template is a prompt template with both placeholders present.
type Template struct {
	text string
}

// NewTemplate validates that text contains both placeholders exactly.
func NewTemplate(text string) (*Template, error) {
	for _, p := range []string{PlaceholderChunk, PlaceholderCard} {
		if !strings.Contains(text, p) {
			return nil, fmt.Errorf("template is missing placeholder %s", p)
		}
	}
	return &Template{text: text}, nil
}

// LoadTemplate reads and validates a template file.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}
	t, err := NewTemplate(string(data))
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", path, err)
	}
	return t, nil
}

// Render substitutes compact JSON for both placeholders.
func (t *Template) Render(chunkJSON, cardJSON []byte) string {
	out := strings.ReplaceAll(t.text, PlaceholderChunk, string(chunkJSON))
	return strings.ReplaceAll(out, PlaceholderCard, string(cardJSON))
}

// DefaultSchemaTemplate asks for ontology additions grounded in the chunk.
const DefaultSchemaTemplate = `You extend a business ontology from document evidence.

Current schema card:
` + PlaceholderCard + `

Chunk under analysis:
` + PlaceholderChunk + `

Propose ontology additions grounded ONLY in this chunk. Reuse existing
schema elements whenever they fit instead of creating near-duplicates.
Every proposed element must carry evidence quotes from the chunk text.
Evidence quotes must be verbatim and at most 25 words each.

Reply with a single JSON object of this shape and nothing else:
{
  "chunk_id": "<the chunk_id from the chunk above>",
  "proposed_additions": {
    "classes": [{"name": "", "description": "", "evidence": [{"chunk_id": "", "quote": ""}]}],
    "datatype_properties": [{"name": "", "domain": "", "range": "", "description": "", "evidence": []}],
    "object_properties": [{"name": "", "domain": "", "range": "", "description": "", "evidence": []}],
    "events": [{"name": "", "actors": [], "effects": [], "evidence": []}]
  },
  "reuse_instead_of_create": [{"proposed": "", "reuse": "", "rationale": ""}],
  "alias_or_merge_suggestions": [{"names": [], "rationale": ""}],
  "warnings": []
}`

// DefaultInstanceTemplate asks for instances of the card's classes.
const DefaultInstanceTemplate = `You extract instances of a fixed business ontology from document evidence.

Schema card (the ONLY allowed classes and properties):
` + PlaceholderCard + `

Chunk under analysis:
` + PlaceholderChunk + `

Extract concrete instances mentioned in this chunk. Use only classes and
properties from the schema card. Give each instance a short stable
local_id. Every instance must carry evidence quotes from the chunk text.
Evidence quotes must be verbatim and at most 25 words each.

Reply with a single JSON object of this shape and nothing else:
{
  "chunk_id": "<the chunk_id from the chunk above>",
  "instances": [{
    "local_id": "",
    "class": "",
    "datatype_values": {},
    "object_values": {},
    "evidence": [{"chunk_id": "", "quote": ""}]
  }],
  "warnings": []
}`
