package schema

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ontorag/ontorag/dto"
	"github.com/ontorag/ontorag/proposal"
	"github.com/ontorag/ontorag/rdf"
)

func TestEncodeCanonicalSortsCollections(t *testing.T) {
	a := New("")
	a.Classes = []Class{
		{Name: "Zebra"},
		{Name: "Person", Evidence: []dto.Evidence{{ChunkID: "c2", Quote: "b"}, {ChunkID: "c1", Quote: "a"}}},
	}
	b := New("")
	b.Classes = []Class{
		{Name: "Person", Evidence: []dto.Evidence{{ChunkID: "c1", Quote: "a"}, {ChunkID: "c2", Quote: "b"}}},
		{Name: "Zebra"},
	}

	ea, err := a.EncodeCanonical()
	require.NoError(t, err)
	eb, err := b.EncodeCanonical()
	require.NoError(t, err)
	assert.Equal(t, string(ea), string(eb), "insertion order must not leak into encoding")

	idxPerson := strings.Index(string(ea), `"Person"`)
	idxZebra := strings.Index(string(ea), `"Zebra"`)
	assert.Less(t, idxPerson, idxZebra)
}

func TestEncodeCanonicalEmitsEmptyArrays(t *testing.T) {
	data, err := New("").EncodeCanonical()
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, `"classes": []`)
	assert.Contains(t, s, `"warnings": []`)
	assert.NotContains(t, s, "null")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	card := New("http://example.com/biz/")
	card.Version = "2026-08-24T10:00:00.000000Z"
	card.Classes = []Class{{Name: "Person", Description: "A human", Origin: "induced"}}
	card.DatatypeProperties = []Property{{Name: "email", Domain: "Person", Range: "string", Origin: "induced"}}

	path := filepath.Join(t.TempDir(), "cards", "card.json")
	require.NoError(t, card.Save(path))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, card.Version, back.Version)
	assert.Equal(t, card.Namespace, back.Namespace)
	assert.Equal(t, card.Classes, back.Classes)
	assert.Equal(t, card.DatatypeProperties, back.DatatypeProperties)
}

func TestEmitDeclarations(t *testing.T) {
	card := New("http://example.com/biz/")
	card.Classes = []Class{{Name: "Person", Description: "A human"}}
	card.DatatypeProperties = []Property{{Name: "email", Domain: "Person", Range: "string"}}
	card.ObjectProperties = []Property{{Name: "knows", Domain: "Person", Range: "Person"}}

	res := card.Emit()
	require.Empty(t, res.Warnings)
	g := res.Graph

	person := rdf.IRI("http://example.com/biz/Person")
	email := rdf.IRI("http://example.com/biz/email")
	knows := rdf.IRI("http://example.com/biz/knows")

	assert.True(t, g.Has(person, rdf.IRI(rdf.RDFType), rdf.IRI(rdf.OWLClass)))
	assert.True(t, g.Has(person, rdf.IRI(rdf.RDFSLabel), rdf.Literal("Person")))
	assert.True(t, g.Has(person, rdf.IRI(rdf.RDFSComment), rdf.Literal("A human")))
	assert.True(t, g.Has(email, rdf.IRI(rdf.RDFType), rdf.IRI(rdf.OWLDatatypeProperty)))
	assert.True(t, g.Has(email, rdf.IRI(rdf.RDFSRange), rdf.IRI(rdf.XSDString)))
	assert.True(t, g.Has(knows, rdf.IRI(rdf.RDFType), rdf.IRI(rdf.OWLObjectProperty)))
	assert.True(t, g.Has(knows, rdf.IRI(rdf.RDFSRange), person))

	ttl := g.Turtle()
	assert.Contains(t, ttl, "@prefix ns: <http://example.com/biz/> .")
	assert.Contains(t, ttl, "ns:Person a owl:Class")
}

func TestEmitSkipsInvalidIdentifiers(t *testing.T) {
	card := New("")
	card.Classes = []Class{{Name: "Person"}, {Name: "Bad Name"}}

	res := card.Emit()
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], `"Bad Name"`)
	assert.Len(t, res.Graph.SubjectsOfType(rdf.IRI(rdf.OWLClass)), 1)
}

func TestEmitProposalStaging(t *testing.T) {
	doc := &proposal.Document{
		ProposedAdditions: proposal.Additions{
			Classes: []proposal.Class{{Name: "Invoice", Description: "A bill"}},
			DatatypeProperties: []proposal.Property{
				{Name: "total", Domain: "Invoice", Range: "float"},
			},
		},
	}

	res := EmitProposal(doc, "http://example.com/biz/")
	g := res.Graph
	total := rdf.IRI("http://example.com/biz/total")
	assert.True(t, g.Has(total, rdf.IRI(rdf.RDFSRange), rdf.IRI(rdf.XSDDecimal)), "float normalizes to xsd:decimal")
}

func TestValidIdentifier(t *testing.T) {
	for name, want := range map[string]bool{
		"Person":   true,
		"has_part": true,
		"_x":       true,
		"p2p":      true,
		"2fast":    false,
		"has part": false,
		"naïve":    false,
		"":         false,
	} {
		if got := ValidIdentifier(name); got != want {
			t.Errorf("ValidIdentifier(%q) = %v, want %v", name, got, want)
		}
	}
}
