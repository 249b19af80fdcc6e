// Package rdf provides a minimal value-oriented RDF model with a canonical
// Turtle writer and a focused Turtle reader. The writer and reader are the
// two halves of the repository's serialization contract: every graph the
// writer emits can be read back by the reader with identical triples.
package rdf

import "strings"

// Well-known namespaces.
const (
	NSRDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NSRDFS = "http://www.w3.org/2000/01/rdf-schema#"
	NSOWL  = "http://www.w3.org/2002/07/owl#"
	NSXSD  = "http://www.w3.org/2001/XMLSchema#"
	NSPROV = "http://www.w3.org/ns/prov#"
)

// Vocabulary IRIs used by the schema emitter and instance materializer.
const (
	RDFType = NSRDF + "type"

	RDFSClass   = NSRDFS + "Class"
	RDFSLabel   = NSRDFS + "label"
	RDFSComment = NSRDFS + "comment"
	RDFSDomain  = NSRDFS + "domain"
	RDFSRange   = NSRDFS + "range"

	OWLClass            = NSOWL + "Class"
	OWLDatatypeProperty = NSOWL + "DatatypeProperty"
	OWLObjectProperty   = NSOWL + "ObjectProperty"
	OWLOntology         = NSOWL + "Ontology"

	PROVEntity         = NSPROV + "Entity"
	PROVWasDerivedFrom = NSPROV + "wasDerivedFrom"
	PROVValue          = NSPROV + "value"

	XSDString   = NSXSD + "string"
	XSDInteger  = NSXSD + "integer"
	XSDDecimal  = NSXSD + "decimal"
	XSDBoolean  = NSXSD + "boolean"
	XSDDate     = NSXSD + "date"
	XSDDateTime = NSXSD + "dateTime"
	XSDAnyURI   = NSXSD + "anyURI"
)

// TermKind discriminates the three RDF term shapes.
type TermKind int

const (
	KindIRI TermKind = iota
	KindBlank
	KindLiteral
)

// Term is an RDF term. For IRIs Value holds the full IRI, for blank nodes
// the label without the "_:" sigil, and for literals the lexical form.
type Term struct {
	Kind     TermKind
	Value    string
	Datatype string // literal datatype IRI; empty means xsd:string
	Lang     string // literal language tag, mutually exclusive with Datatype
}

// IRI returns an IRI term.
func IRI(iri string) Term { return Term{Kind: KindIRI, Value: iri} }

// Blank returns a blank-node term with the given label (no "_:" prefix).
func Blank(label string) Term { return Term{Kind: KindBlank, Value: label} }

// Literal returns a plain string literal.
func Literal(lexical string) Term { return Term{Kind: KindLiteral, Value: lexical} }

// TypedLiteral returns a literal with an explicit datatype IRI.
func TypedLiteral(lexical, datatype string) Term {
	if datatype == XSDString {
		datatype = ""
	}
	return Term{Kind: KindLiteral, Value: lexical, Datatype: datatype}
}

// LangLiteral returns a language-tagged string literal.
func LangLiteral(lexical, lang string) Term {
	return Term{Kind: KindLiteral, Value: lexical, Lang: lang}
}

// Triple is a single RDF statement.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// LocalName returns the fragment of an IRI after the last '#', or after the
// last '/' when there is no fragment. An IRI ending in a separator yields "".
func LocalName(iri string) string {
	if i := strings.LastIndex(iri, "#"); i >= 0 {
		return iri[i+1:]
	}
	if i := strings.LastIndex(iri, "/"); i >= 0 {
		return iri[i+1:]
	}
	return iri
}

// NamespaceOf returns the prefix part of an IRI up to and including the last
// '#' or '/'. It is the complement of LocalName.
func NamespaceOf(iri string) string {
	return strings.TrimSuffix(iri, LocalName(iri))
}
