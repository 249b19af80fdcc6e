// Package proposal holds the typed representation of LLM ontology proposals
// and the document-level aggregation that fuses per-chunk evidence. Raw LLM
// JSON is converted to these records at the boundary; nothing downstream
// sees untyped maps.
package proposal

import (
	"sort"
	"strings"

	"github.com/ontorag/ontorag/dto"
)

// Class is a proposed ontology class.
type Class struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Origin      string         `json:"origin,omitempty"`
	Evidence    []dto.Evidence `json:"evidence,omitempty"`
}

// Property is a proposed datatype or object property. For datatype
// properties Range names a literal type; for object properties it names a
// class.
type Property struct {
	Name        string         `json:"name"`
	Domain      string         `json:"domain"`
	Range       string         `json:"range"`
	Description string         `json:"description,omitempty"`
	Origin      string         `json:"origin,omitempty"`
	Evidence    []dto.Evidence `json:"evidence,omitempty"`
}

// Event is a proposed event shape with participating actors and effects.
type Event struct {
	Name     string         `json:"name"`
	Actors   []string       `json:"actors,omitempty"`
	Effects  []string       `json:"effects,omitempty"`
	Origin   string         `json:"origin,omitempty"`
	Evidence []dto.Evidence `json:"evidence,omitempty"`
}

// ReuseHint suggests reusing an existing schema element instead of creating
// a proposed one. Hints are advisory; the merger turns them into alias
// suggestions and never applies them automatically.
type ReuseHint struct {
	Proposed  string `json:"proposed"`
	Reuse     string `json:"reuse"`
	Rationale string `json:"rationale,omitempty"`
}

// Alias suggests that a set of names denote the same concept.
type Alias struct {
	Names     []string `json:"names"`
	Rationale string   `json:"rationale,omitempty"`
}

// SortedKey returns the alias deduplication key: the sorted tuple of names.
func (a Alias) SortedKey() string {
	names := append([]string(nil), a.Names...)
	sort.Strings(names)
	return strings.Join(names, "\x00")
}

// Additions groups the proposed schema elements of one proposal.
type Additions struct {
	Classes            []Class    `json:"classes"`
	DatatypeProperties []Property `json:"datatype_properties"`
	ObjectProperties   []Property `json:"object_properties"`
	Events             []Event    `json:"events"`
}

// Chunk is the proposal produced by one LLM call over one chunk.
type Chunk struct {
	ChunkID                 string      `json:"chunk_id"`
	ProposedAdditions       Additions   `json:"proposed_additions"`
	ReuseInsteadOfCreate    []ReuseHint `json:"reuse_instead_of_create"`
	AliasOrMergeSuggestions []Alias     `json:"alias_or_merge_suggestions"`
	Warnings                []string    `json:"warnings"`
}

// Document is the aggregate of all chunk proposals for one document. It has
// the same shape as Chunk plus aggregator-added fields.
type Document struct {
	ChunkCount              int         `json:"chunk_count"`
	ProposedAdditions       Additions   `json:"proposed_additions"`
	ReuseInsteadOfCreate    []ReuseHint `json:"reuse_instead_of_create"`
	AliasOrMergeSuggestions []Alias     `json:"alias_or_merge_suggestions"`
	Warnings                []string    `json:"warnings"`
}

// Key returns the case-insensitive uniqueness key for a schema element name.
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// MergeEvidence unions new evidence records into existing, deduplicating by
// (chunk_id, quote) and preserving first-seen order.
func MergeEvidence(existing, added []dto.Evidence) []dto.Evidence {
	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		seen[e.Key()] = true
	}
	out := existing
	for _, e := range added {
		if !seen[e.Key()] {
			seen[e.Key()] = true
			out = append(out, e)
		}
	}
	return out
}

// SortEvidence orders evidence by (chunk_id, quote) for canonical output.
func SortEvidence(evs []dto.Evidence) {
	sort.Slice(evs, func(i, j int) bool {
		if evs[i].ChunkID != evs[j].ChunkID {
			return evs[i].ChunkID < evs[j].ChunkID
		}
		return evs[i].Quote < evs[j].Quote
	})
}

// normalize guarantees non-nil collections so encoded JSON has explicit
// empty arrays rather than nulls.
func (a *Additions) normalize() {
	if a.Classes == nil {
		a.Classes = []Class{}
	}
	if a.DatatypeProperties == nil {
		a.DatatypeProperties = []Property{}
	}
	if a.ObjectProperties == nil {
		a.ObjectProperties = []Property{}
	}
	if a.Events == nil {
		a.Events = []Event{}
	}
}

func (c *Chunk) normalize() {
	c.ProposedAdditions.normalize()
	if c.ReuseInsteadOfCreate == nil {
		c.ReuseInsteadOfCreate = []ReuseHint{}
	}
	if c.AliasOrMergeSuggestions == nil {
		c.AliasOrMergeSuggestions = []Alias{}
	}
	if c.Warnings == nil {
		c.Warnings = []string{}
	}
}
