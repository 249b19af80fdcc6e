package proposal

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/ontorag/ontorag/dto"
)

// chunkSchema is the structural contract for a per-chunk LLM proposal.
// Unknown keys are tolerated; missing keys default to empty collections.
var chunkSchema = &jsonschema.Schema{
	Type:     "object",
	Required: []string{"chunk_id"},
	Properties: map[string]*jsonschema.Schema{
		"chunk_id": {Type: "string"},
		"proposed_additions": {
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"classes":             {Type: "array", Items: &jsonschema.Schema{Type: "object"}},
				"datatype_properties": {Type: "array", Items: &jsonschema.Schema{Type: "object"}},
				"object_properties":   {Type: "array", Items: &jsonschema.Schema{Type: "object"}},
				"events":              {Type: "array", Items: &jsonschema.Schema{Type: "object"}},
			},
		},
		"reuse_instead_of_create":    {Type: "array", Items: &jsonschema.Schema{Type: "object"}},
		"alias_or_merge_suggestions": {Type: "array", Items: &jsonschema.Schema{Type: "object"}},
		"warnings":                   {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
	},
}

var resolveChunkSchema = sync.OnceValues(func() (*jsonschema.Resolved, error) {
	return chunkSchema.Resolve(nil)
})

// ParseChunk converts raw LLM JSON into a typed per-chunk proposal,
// validating the top-level shape first. The input must already be clean
// JSON (code-fence stripping happens at the adapter).
func ParseChunk(data []byte) (*Chunk, error) {
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, fmt.Errorf("proposal is not valid JSON: %w", err)
	}

	resolved, err := resolveChunkSchema()
	if err != nil {
		return nil, fmt.Errorf("resolving proposal schema: %w", err)
	}
	if err := resolved.Validate(instance); err != nil {
		return nil, fmt.Errorf("proposal does not match schema: %w", err)
	}

	var c Chunk
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding proposal: %w", err)
	}
	c.normalize()
	c.clampQuotes()
	return &c, nil
}

// clampQuotes enforces the evidence quote word bound, noting every
// truncation as a chunk warning.
func (c *Chunk) clampQuotes() {
	clamp := func(name string, evs []dto.Evidence) {
		for i := range evs {
			q, truncated := dto.ClampQuote(evs[i].Quote)
			if truncated {
				evs[i].Quote = q
				c.Warnings = append(c.Warnings,
					fmt.Sprintf("evidence quote for %s truncated to %d words", name, dto.MaxQuoteWords))
			}
		}
	}
	for i := range c.ProposedAdditions.Classes {
		clamp(c.ProposedAdditions.Classes[i].Name, c.ProposedAdditions.Classes[i].Evidence)
	}
	for i := range c.ProposedAdditions.DatatypeProperties {
		clamp(c.ProposedAdditions.DatatypeProperties[i].Name, c.ProposedAdditions.DatatypeProperties[i].Evidence)
	}
	for i := range c.ProposedAdditions.ObjectProperties {
		clamp(c.ProposedAdditions.ObjectProperties[i].Name, c.ProposedAdditions.ObjectProperties[i].Evidence)
	}
	for i := range c.ProposedAdditions.Events {
		clamp(c.ProposedAdditions.Events[i].Name, c.ProposedAdditions.Events[i].Evidence)
	}
}
