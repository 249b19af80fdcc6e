package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ontorag/ontorag/rdf"
	"github.com/ontorag/ontorag/schema"
)

const foafSample = `@prefix foaf: <http://xmlns.com/foaf/0.1/> .
@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .

foaf:Person a owl:Class ;
    rdfs:label "Person" ;
    rdfs:comment "A person." .

foaf:Organization a owl:Class ;
    rdfs:label "Organization" .

foaf:name a owl:DatatypeProperty ;
    rdfs:domain foaf:Person ;
    rdfs:range xsd:string .

foaf:knows a owl:ObjectProperty ;
    rdfs:domain foaf:Person ;
    rdfs:range foaf:Person .
`

func writeTTL(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestRegisterAndImport(t *testing.T) {
	dir := t.TempDir()
	src := writeTTL(t, t.TempDir(), "foaf.ttl", foafSample)

	cat, err := Open(dir)
	require.NoError(t, err)

	entry, err := cat.Register("foaf", src, Entry{Label: "FOAF"})
	require.NoError(t, err)
	assert.Equal(t, "foaf.ttl", entry.Path)
	assert.Equal(t, "http://xmlns.com/foaf/0.1/", entry.Namespace, "namespace auto-detected")

	// Manifest survives a reopen.
	cat2, err := Open(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"foaf"}, cat2.IDs())

	card, err := cat2.Import("foaf")
	require.NoError(t, err)

	require.Len(t, card.Classes, 2)
	person, ok := card.FindClass("Person")
	require.True(t, ok)
	assert.Equal(t, "foaf", person.Origin)
	assert.Equal(t, "Person", person.Description, "rdfs:label wins, comment is fallback")

	name, ok := card.FindDatatypeProperty("name")
	require.True(t, ok)
	assert.Equal(t, "Person", name.Domain)
	assert.Equal(t, "string", name.Range)

	knows, ok := card.FindObjectProperty("knows")
	require.True(t, ok)
	assert.Equal(t, "Person", knows.Range)
}

func TestImportUnknownBaseline(t *testing.T) {
	cat, err := Open(t.TempDir())
	require.NoError(t, err)
	_, err = cat.Import("foaf")
	assert.Error(t, err)
}

func TestImportSkipsNonIdentifierNames(t *testing.T) {
	src := `@prefix ex: <http://example.com/> .
@prefix owl: <http://www.w3.org/2002/07/owl#> .

<http://example.com/Good> a owl:Class .
<http://example.com/Bad-Name> a owl:Class .
`
	g, err := rdf.ParseTurtle(src)
	require.NoError(t, err)

	card := ImportGraph(g, "ex")
	require.Len(t, card.Classes, 1)
	assert.Equal(t, "Good", card.Classes[0].Name)
	require.Len(t, card.Warnings, 1)
	assert.Contains(t, card.Warnings[0], `"Bad-Name"`)
}

// Emitted TTL must read back with identical class and property names and
// ranges.
func TestEmitImportRoundTrip(t *testing.T) {
	card := schema.New("http://example.com/biz/")
	card.Classes = []schema.Class{
		{Name: "Invoice", Description: "A bill"},
		{Name: "Person", Description: "A human"},
	}
	card.DatatypeProperties = []schema.Property{
		{Name: "amount", Domain: "Invoice", Range: "decimal"},
		{Name: "email", Domain: "Person", Range: "string"},
		{Name: "issued", Domain: "Invoice", Range: "date"},
	}
	card.ObjectProperties = []schema.Property{
		{Name: "billedTo", Domain: "Invoice", Range: "Person"},
	}

	res := card.Emit()
	require.Empty(t, res.Warnings)

	back, err := rdf.ParseTurtle(res.Graph.Turtle())
	require.NoError(t, err)

	imported := ImportGraph(back, "rt")
	require.Len(t, imported.Classes, len(card.Classes))
	for i, cl := range card.Classes {
		assert.Equal(t, cl.Name, imported.Classes[i].Name)
	}
	require.Len(t, imported.DatatypeProperties, len(card.DatatypeProperties))
	for i, p := range card.DatatypeProperties {
		assert.Equal(t, p.Name, imported.DatatypeProperties[i].Name)
		assert.Equal(t, p.Range, imported.DatatypeProperties[i].Range)
		assert.Equal(t, p.Domain, imported.DatatypeProperties[i].Domain)
	}
	require.Len(t, imported.ObjectProperties, len(card.ObjectProperties))
	assert.Equal(t, "Person", imported.ObjectProperties[0].Range)
}

func TestDetectNamespaceTieBreak(t *testing.T) {
	src := `@prefix a: <http://a.example.com/> .
@prefix b: <http://b.example.com/> .
@prefix owl: <http://www.w3.org/2002/07/owl#> .

a:One a owl:Class .
b:Two a owl:Class .
`
	g, err := rdf.ParseTurtle(src)
	require.NoError(t, err)
	assert.Equal(t, "http://a.example.com/", detectNamespace(g))
}
