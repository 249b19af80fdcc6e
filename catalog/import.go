package catalog

import (
	"fmt"
	"path/filepath"

	"github.com/ontorag/ontorag/rdf"
	"github.com/ontorag/ontorag/schema"
)

// Import parses a registered baseline and returns a Schema Card fragment
// whose elements carry the baseline id as origin. The fragment is merged
// into a working card by the caller.
func (c *Catalog) Import(id string) (*schema.Card, error) {
	entry, ok := c.entries[id]
	if !ok {
		return nil, fmt.Errorf("baseline %s not registered", id)
	}
	g, err := rdf.ParseTurtleFile(filepath.Join(c.dir, entry.Path))
	if err != nil {
		return nil, fmt.Errorf("parsing baseline %s: %w", id, err)
	}
	card := ImportGraph(g, id)
	if entry.Namespace != "" {
		card.Namespace = entry.Namespace
	}
	return card, nil
}

// ImportGraph extracts OWL/RDFS declarations from a parsed graph into a
// card fragment with the given origin. Local names with non-identifier
// characters are skipped with a warning.
func ImportGraph(g *rdf.Graph, origin string) *schema.Card {
	card := schema.New("")

	warn := func(format string, args ...any) {
		card.Warnings = append(card.Warnings, fmt.Sprintf(format, args...))
	}

	describe := func(s rdf.Term) string {
		if d := g.FirstLiteral(s, rdf.IRI(rdf.RDFSLabel)); d != "" {
			return d
		}
		return g.FirstLiteral(s, rdf.IRI(rdf.RDFSComment))
	}

	seenClass := make(map[string]bool)
	for _, typ := range []string{rdf.OWLClass, rdf.RDFSClass} {
		for _, s := range g.SubjectsOfType(rdf.IRI(typ)) {
			name := rdf.LocalName(s.Value)
			if !schema.ValidIdentifier(name) {
				warn("class %q has a non-identifier local name; skipped", name)
				continue
			}
			if seenClass[name] {
				continue
			}
			seenClass[name] = true
			card.Classes = append(card.Classes, schema.Class{
				Name:        name,
				Description: describe(s),
				Origin:      origin,
			})
		}
	}

	localOf := func(s rdf.Term, pred string) string {
		for _, o := range g.Objects(s, rdf.IRI(pred)) {
			if o.Kind == rdf.KindIRI {
				return rdf.LocalName(o.Value)
			}
		}
		return ""
	}

	for _, s := range g.SubjectsOfType(rdf.IRI(rdf.OWLDatatypeProperty)) {
		name := rdf.LocalName(s.Value)
		if !schema.ValidIdentifier(name) {
			warn("datatype property %q has a non-identifier local name; skipped", name)
			continue
		}
		card.DatatypeProperties = append(card.DatatypeProperties, schema.Property{
			Name:        name,
			Domain:      localOf(s, rdf.RDFSDomain),
			Range:       schema.NormalizeRange(localOf(s, rdf.RDFSRange), func(w string) { warn("%s", w) }),
			Description: describe(s),
			Origin:      origin,
		})
	}

	for _, s := range g.SubjectsOfType(rdf.IRI(rdf.OWLObjectProperty)) {
		name := rdf.LocalName(s.Value)
		if !schema.ValidIdentifier(name) {
			warn("object property %q has a non-identifier local name; skipped", name)
			continue
		}
		card.ObjectProperties = append(card.ObjectProperties, schema.Property{
			Name:        name,
			Domain:      localOf(s, rdf.RDFSDomain),
			Range:       localOf(s, rdf.RDFSRange),
			Description: describe(s),
			Origin:      origin,
		})
	}

	return card
}
