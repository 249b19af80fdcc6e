// Package schema defines the Schema Card, the canonical versioned ontology
// artifact, and the deterministic merge that folds LLM proposals into it.
// The card is a set of name-keyed value tables rather than a pointer graph,
// so equality, deduplication, and canonical serialization stay trivial.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ontorag/ontorag/dto"
	"github.com/ontorag/ontorag/proposal"
)

// DefaultNamespace is the IRI prefix used to mint class and property URIs
// when a card does not carry its own.
const DefaultNamespace = "http://ontorag.local/ns/"

// OriginInduced tags elements first introduced by an LLM proposal.
// Baseline imports use the catalog id instead; legacy entries are empty.
const OriginInduced = "induced"

// Class is one entry in the card's class table.
type Class struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Origin      string         `json:"origin,omitempty"`
	Evidence    []dto.Evidence `json:"evidence,omitempty"`
}

// Property is one entry in the datatype or object property table.
type Property struct {
	Name        string         `json:"name"`
	Domain      string         `json:"domain,omitempty"`
	Range       string         `json:"range,omitempty"`
	Description string         `json:"description,omitempty"`
	Origin      string         `json:"origin,omitempty"`
	Evidence    []dto.Evidence `json:"evidence,omitempty"`
}

// Event is one entry in the event table.
type Event struct {
	Name     string         `json:"name"`
	Actors   []string       `json:"actors,omitempty"`
	Effects  []string       `json:"effects,omitempty"`
	Origin   string         `json:"origin,omitempty"`
	Evidence []dto.Evidence `json:"evidence,omitempty"`
}

// Card is the canonical ontology description.
type Card struct {
	Version            string           `json:"version"`
	Namespace          string           `json:"namespace"`
	Classes            []Class          `json:"classes"`
	DatatypeProperties []Property       `json:"datatype_properties"`
	ObjectProperties   []Property       `json:"object_properties"`
	Events             []Event          `json:"events"`
	Aliases            []proposal.Alias `json:"aliases"`
	Warnings           []string         `json:"warnings"`
}

// New returns an empty card for the given namespace (DefaultNamespace when
// empty). Version is left blank until the first merge.
func New(namespace string) *Card {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	c := &Card{Namespace: namespace}
	c.normalize()
	return c
}

func (c *Card) normalize() {
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	if c.Classes == nil {
		c.Classes = []Class{}
	}
	if c.DatatypeProperties == nil {
		c.DatatypeProperties = []Property{}
	}
	if c.ObjectProperties == nil {
		c.ObjectProperties = []Property{}
	}
	if c.Events == nil {
		c.Events = []Event{}
	}
	if c.Aliases == nil {
		c.Aliases = []proposal.Alias{}
	}
	if c.Warnings == nil {
		c.Warnings = []string{}
	}
}

// ClassKeys returns the set of case-insensitive class keys.
func (c *Card) ClassKeys() map[string]bool {
	keys := make(map[string]bool, len(c.Classes))
	for _, cl := range c.Classes {
		keys[proposal.Key(cl.Name)] = true
	}
	return keys
}

// FindClass returns the class whose key matches name, if any.
func (c *Card) FindClass(name string) (Class, bool) {
	k := proposal.Key(name)
	for _, cl := range c.Classes {
		if proposal.Key(cl.Name) == k {
			return cl, true
		}
	}
	return Class{}, false
}

// FindDatatypeProperty returns the datatype property whose key matches name.
func (c *Card) FindDatatypeProperty(name string) (Property, bool) {
	k := proposal.Key(name)
	for _, p := range c.DatatypeProperties {
		if proposal.Key(p.Name) == k {
			return p, true
		}
	}
	return Property{}, false
}

// FindObjectProperty returns the object property whose key matches name.
func (c *Card) FindObjectProperty(name string) (Property, bool) {
	k := proposal.Key(name)
	for _, p := range c.ObjectProperties {
		if proposal.Key(p.Name) == k {
			return p, true
		}
	}
	return Property{}, false
}

// sortTables orders every collection by its uniqueness key and every
// evidence list by (chunk_id, quote). Canonical encoding depends on it.
func (c *Card) sortTables() {
	sort.Slice(c.Classes, func(i, j int) bool {
		return proposal.Key(c.Classes[i].Name) < proposal.Key(c.Classes[j].Name)
	})
	sort.Slice(c.DatatypeProperties, func(i, j int) bool {
		return proposal.Key(c.DatatypeProperties[i].Name) < proposal.Key(c.DatatypeProperties[j].Name)
	})
	sort.Slice(c.ObjectProperties, func(i, j int) bool {
		return proposal.Key(c.ObjectProperties[i].Name) < proposal.Key(c.ObjectProperties[j].Name)
	})
	sort.Slice(c.Events, func(i, j int) bool {
		return proposal.Key(c.Events[i].Name) < proposal.Key(c.Events[j].Name)
	})
	for i := range c.Classes {
		proposal.SortEvidence(c.Classes[i].Evidence)
	}
	for i := range c.DatatypeProperties {
		proposal.SortEvidence(c.DatatypeProperties[i].Evidence)
	}
	for i := range c.ObjectProperties {
		proposal.SortEvidence(c.ObjectProperties[i].Evidence)
	}
	for i := range c.Events {
		proposal.SortEvidence(c.Events[i].Evidence)
	}
}

// EncodeCanonical serializes the card as pretty-printed JSON with sorted
// object keys and sorted collections. Two cards that are equal as values
// encode to identical bytes.
func (c *Card) EncodeCanonical() ([]byte, error) {
	c.normalize()
	c.sortTables()

	// Round-trip through an untyped value: encoding/json emits map keys
	// in sorted order, which yields the sorted-key contract for free.
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	out, err := json.MarshalIndent(generic, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// Load reads a card from a JSON file.
func Load(path string) (*Card, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Card
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing schema card %s: %w", path, err)
	}
	c.normalize()
	return &c, nil
}

// Save writes the card canonically to a JSON file, creating parent
// directories as needed.
func (c *Card) Save(path string) error {
	data, err := c.EncodeCanonical()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
