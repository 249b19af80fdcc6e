package schema

import (
	"fmt"

	"github.com/ontorag/ontorag/proposal"
	"github.com/ontorag/ontorag/rdf"
)

// EmitResult carries an emitted graph plus the warnings produced while
// building it.
type EmitResult struct {
	Graph    *rdf.Graph
	Warnings []string
}

// ValidIdentifier reports whether a name is usable as the local part of a
// minted IRI: an ASCII identifier, letters, digits, and underscores, not
// starting with a digit.
func ValidIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func newEmitGraph(namespace string) *rdf.Graph {
	g := rdf.NewGraph()
	g.Bind("ns", namespace)
	g.Bind("owl", rdf.NSOWL)
	g.Bind("rdfs", rdf.NSRDFS)
	g.Bind("xsd", rdf.NSXSD)
	return g
}

// Emit renders the card as OWL/RDFS declarations. Elements whose names are
// not valid identifiers are skipped with a warning so the output always
// reads back through the baseline importer with the same names and ranges.
func (c *Card) Emit() *EmitResult {
	res := &EmitResult{Warnings: []string{}}
	ns := c.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	g := newEmitGraph(ns)
	res.Graph = g

	skip := func(kind, name string) bool {
		if ValidIdentifier(name) {
			return false
		}
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s %q is not a valid identifier; not emitted", kind, name))
		return true
	}

	for _, cl := range c.Classes {
		if skip("class", cl.Name) {
			continue
		}
		s := rdf.IRI(ns + cl.Name)
		g.Add(s, rdf.IRI(rdf.RDFType), rdf.IRI(rdf.OWLClass))
		g.Add(s, rdf.IRI(rdf.RDFSLabel), rdf.Literal(cl.Name))
		if cl.Description != "" {
			g.Add(s, rdf.IRI(rdf.RDFSComment), rdf.Literal(cl.Description))
		}
	}
	for _, p := range c.DatatypeProperties {
		if skip("datatype property", p.Name) {
			continue
		}
		s := rdf.IRI(ns + p.Name)
		g.Add(s, rdf.IRI(rdf.RDFType), rdf.IRI(rdf.OWLDatatypeProperty))
		if p.Domain != "" && ValidIdentifier(p.Domain) {
			g.Add(s, rdf.IRI(rdf.RDFSDomain), rdf.IRI(ns+p.Domain))
		}
		g.Add(s, rdf.IRI(rdf.RDFSRange), rdf.IRI(XSDFor(p.Range)))
		if p.Description != "" {
			g.Add(s, rdf.IRI(rdf.RDFSComment), rdf.Literal(p.Description))
		}
	}
	for _, p := range c.ObjectProperties {
		if skip("object property", p.Name) {
			continue
		}
		s := rdf.IRI(ns + p.Name)
		g.Add(s, rdf.IRI(rdf.RDFType), rdf.IRI(rdf.OWLObjectProperty))
		if p.Domain != "" && ValidIdentifier(p.Domain) {
			g.Add(s, rdf.IRI(rdf.RDFSDomain), rdf.IRI(ns+p.Domain))
		}
		if p.Range != "" && ValidIdentifier(p.Range) {
			g.Add(s, rdf.IRI(rdf.RDFSRange), rdf.IRI(ns+p.Range))
		}
		if p.Description != "" {
			g.Add(s, rdf.IRI(rdf.RDFSComment), rdf.Literal(p.Description))
		}
	}
	return res
}

// EmitProposal renders an aggregated proposal as staging TTL without
// merging it into a card first. The shape matches Emit so the staging file
// can be inspected with the same tools.
func EmitProposal(doc *proposal.Document, namespace string) *EmitResult {
	card := New(namespace)
	if doc != nil {
		add := doc.ProposedAdditions
		for _, c := range add.Classes {
			card.Classes = append(card.Classes, Class{Name: c.Name, Description: c.Description})
		}
		for _, p := range add.DatatypeProperties {
			card.DatatypeProperties = append(card.DatatypeProperties, Property{
				Name: p.Name, Domain: p.Domain, Range: NormalizeRange(p.Range, nil), Description: p.Description,
			})
		}
		for _, p := range add.ObjectProperties {
			card.ObjectProperties = append(card.ObjectProperties, Property{
				Name: p.Name, Domain: p.Domain, Range: p.Range, Description: p.Description,
			})
		}
	}
	card.sortTables()
	return card.Emit()
}
