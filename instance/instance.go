// Package instance holds typed instance proposals and the materializer
// that turns them into an RDF graph governed by the Schema Card.
package instance

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/ontorag/ontorag/dto"
)

// Proposal is one proposed instance of a schema class.
type Proposal struct {
	LocalID        string            `json:"local_id"`
	Class          string            `json:"class"`
	DatatypeValues map[string]any    `json:"datatype_values"`
	ObjectValues   map[string]string `json:"object_values"`
	Evidence       []dto.Evidence    `json:"evidence,omitempty"`
}

// ChunkProposal is the set of instances proposed by one LLM call over one
// chunk.
type ChunkProposal struct {
	ChunkID   string     `json:"chunk_id"`
	Instances []Proposal `json:"instances"`
	Warnings  []string   `json:"warnings"`
}

var chunkSchema = &jsonschema.Schema{
	Type:     "object",
	Required: []string{"chunk_id"},
	Properties: map[string]*jsonschema.Schema{
		"chunk_id": {Type: "string"},
		"instances": {
			Type: "array",
			Items: &jsonschema.Schema{
				Type:     "object",
				Required: []string{"local_id", "class"},
				Properties: map[string]*jsonschema.Schema{
					"local_id":        {Type: "string"},
					"class":           {Type: "string"},
					"datatype_values": {Type: "object"},
					"object_values":   {Type: "object", AdditionalProperties: &jsonschema.Schema{Type: "string"}},
					"evidence":        {Type: "array", Items: &jsonschema.Schema{Type: "object"}},
				},
			},
		},
		"warnings": {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
	},
}

var resolveChunkSchema = sync.OnceValues(func() (*jsonschema.Resolved, error) {
	return chunkSchema.Resolve(nil)
})

// ParseChunk converts raw LLM JSON into a typed chunk proposal, validating
// the shape first.
func ParseChunk(data []byte) (*ChunkProposal, error) {
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, fmt.Errorf("instance proposal is not valid JSON: %w", err)
	}

	resolved, err := resolveChunkSchema()
	if err != nil {
		return nil, fmt.Errorf("resolving instance schema: %w", err)
	}
	if err := resolved.Validate(instance); err != nil {
		return nil, fmt.Errorf("instance proposal does not match schema: %w", err)
	}

	var c ChunkProposal
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding instance proposal: %w", err)
	}
	if c.Instances == nil {
		c.Instances = []Proposal{}
	}
	if c.Warnings == nil {
		c.Warnings = []string{}
	}
	for i := range c.Instances {
		inst := &c.Instances[i]
		if inst.DatatypeValues == nil {
			inst.DatatypeValues = map[string]any{}
		}
		if inst.ObjectValues == nil {
			inst.ObjectValues = map[string]string{}
		}
		for j := range inst.Evidence {
			q, truncated := dto.ClampQuote(inst.Evidence[j].Quote)
			if truncated {
				inst.Evidence[j].Quote = q
				c.Warnings = append(c.Warnings,
					fmt.Sprintf("evidence quote for instance %s truncated to %d words", inst.LocalID, dto.MaxQuoteWords))
			}
		}
	}
	return &c, nil
}
