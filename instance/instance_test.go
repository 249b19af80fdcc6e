package instance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ontorag/ontorag/dto"
	"github.com/ontorag/ontorag/rdf"
	"github.com/ontorag/ontorag/schema"
)

func personCard() *schema.Card {
	card := schema.New("http://example.com/biz/")
	card.Classes = []schema.Class{{Name: "Person"}, {Name: "Invoice"}}
	card.DatatypeProperties = []schema.Property{
		{Name: "email", Domain: "Person", Range: "string"},
		{Name: "age", Domain: "Person", Range: "integer"},
		{Name: "active", Domain: "Person", Range: "boolean"},
		{Name: "joined", Domain: "Person", Range: "date"},
	}
	card.ObjectProperties = []schema.Property{
		{Name: "billedTo", Domain: "Invoice", Range: "Person"},
	}
	return card
}

func TestParseChunkValidates(t *testing.T) {
	c, err := ParseChunk([]byte(`{"chunk_id":"c1","instances":[{"local_id":"p1","class":"Person","datatype_values":{"email":"a@b.c"}}]}`))
	require.NoError(t, err)
	require.Len(t, c.Instances, 1)
	assert.NotNil(t, c.Instances[0].ObjectValues)

	_, err = ParseChunk([]byte(`{"instances":[]}`))
	assert.Error(t, err, "chunk_id is required")

	_, err = ParseChunk([]byte(`{"chunk_id":"c1","instances":[{"class":"Person"}]}`))
	assert.Error(t, err, "local_id is required")
}

func TestParseChunkClampsLongQuotes(t *testing.T) {
	long := strings.Repeat("word ", 30)
	c, err := ParseChunk([]byte(`{"chunk_id":"c1","instances":[{"local_id":"p1","class":"Person","evidence":[{"chunk_id":"c1","quote":"` + strings.TrimSpace(long) + `"}]}]}`))
	require.NoError(t, err)

	got := c.Instances[0].Evidence[0].Quote
	assert.Len(t, strings.Fields(got), dto.MaxQuoteWords)
	require.Len(t, c.Warnings, 1)
	assert.Contains(t, c.Warnings[0], "truncated to 25 words")
}

func TestMaterializePersonEmail(t *testing.T) {
	props := []*ChunkProposal{{
		ChunkID: "c1",
		Instances: []Proposal{{
			LocalID:        "p1",
			Class:          "Person",
			DatatypeValues: map[string]any{"email": "a@b.c"},
			ObjectValues:   map[string]string{},
			Evidence:       []dto.Evidence{{ChunkID: "c1", Quote: "Alice's email is a@b.c"}},
		}},
	}}

	res := Materialize(personCard(), props)
	require.Empty(t, res.Warnings)
	assert.Equal(t, 1, res.Emitted)

	g := res.Graph
	subject := rdf.IRI("http://example.com/biz/Person/p1")
	assert.True(t, g.Has(subject, rdf.IRI(rdf.RDFType), rdf.IRI("http://example.com/biz/Person")))
	assert.True(t, g.Has(subject, rdf.IRI("http://example.com/biz/email"), rdf.Literal("a@b.c")))

	mention := rdf.Blank("m0")
	assert.True(t, g.Has(mention, rdf.IRI(rdf.RDFType), rdf.IRI(rdf.PROVEntity)))
	assert.True(t, g.Has(mention, rdf.IRI(rdf.PROVWasDerivedFrom), rdf.IRI("chunk:c1")))
	assert.True(t, g.Has(mention, rdf.IRI(rdf.PROVValue), rdf.Literal("Alice's email is a@b.c")))
	assert.True(t, g.Has(subject, rdf.IRI("http://example.com/biz/hasMention"), mention))

	ttl := g.Turtle()
	assert.Contains(t, ttl, "<chunk:c1>")
	assert.Contains(t, ttl, "_:m0")
}

func TestMaterializeUnknownClassSkipped(t *testing.T) {
	props := []*ChunkProposal{{
		ChunkID: "c1",
		Instances: []Proposal{{
			LocalID:        "x1",
			Class:          "Alien",
			DatatypeValues: map[string]any{"email": "x@y.z"},
			ObjectValues:   map[string]string{},
		}},
	}}

	res := Materialize(personCard(), props)
	assert.Equal(t, 0, res.Graph.Len(), "no triples for a skipped instance")
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "unknown class Alien")
}

func TestMaterializeCoercion(t *testing.T) {
	props := []*ChunkProposal{{
		ChunkID: "c1",
		Instances: []Proposal{{
			LocalID: "p1",
			Class:   "Person",
			DatatypeValues: map[string]any{
				"age":    float64(42),
				"active": "TRUE",
				"joined": "2026-01-15",
			},
			ObjectValues: map[string]string{},
		}},
	}}

	res := Materialize(personCard(), props)
	require.Empty(t, res.Warnings)

	g := res.Graph
	subject := rdf.IRI("http://example.com/biz/Person/p1")
	assert.True(t, g.Has(subject, rdf.IRI("http://example.com/biz/age"), rdf.TypedLiteral("42", rdf.XSDInteger)))
	assert.True(t, g.Has(subject, rdf.IRI("http://example.com/biz/active"), rdf.TypedLiteral("true", rdf.XSDBoolean)))
	assert.True(t, g.Has(subject, rdf.IRI("http://example.com/biz/joined"), rdf.TypedLiteral("2026-01-15", rdf.XSDDate)))
}

func TestMaterializeCoercionFallback(t *testing.T) {
	props := []*ChunkProposal{{
		ChunkID: "c1",
		Instances: []Proposal{{
			LocalID:        "p1",
			Class:          "Person",
			DatatypeValues: map[string]any{"age": "not a number", "nickname": "Al"},
			ObjectValues:   map[string]string{},
		}},
	}}

	res := Materialize(personCard(), props)

	g := res.Graph
	subject := rdf.IRI("http://example.com/biz/Person/p1")
	assert.True(t, g.Has(subject, rdf.IRI("http://example.com/biz/age"), rdf.Literal("not a number")),
		"failed coercion falls back to plain string")
	assert.True(t, g.Has(subject, rdf.IRI("http://example.com/biz/nickname"), rdf.Literal("Al")),
		"unknown property emitted as string")
	assert.Len(t, res.Warnings, 2)
}

func TestMaterializeObjectFacts(t *testing.T) {
	props := []*ChunkProposal{{
		ChunkID: "c1",
		Instances: []Proposal{
			{
				LocalID:        "i1",
				Class:          "Invoice",
				DatatypeValues: map[string]any{},
				ObjectValues:   map[string]string{"billedTo": "p1"},
			},
			{
				LocalID:        "i2",
				Class:          "Invoice",
				DatatypeValues: map[string]any{},
				ObjectValues:   map[string]string{"billedTo": "ghost"},
			},
			{
				LocalID:        "p1",
				Class:          "Person",
				DatatypeValues: map[string]any{},
				ObjectValues:   map[string]string{},
			},
		},
	}}

	res := Materialize(personCard(), props)

	g := res.Graph
	billedTo := rdf.IRI("http://example.com/biz/billedTo")
	assert.True(t, g.Has(rdf.IRI("http://example.com/biz/Invoice/i1"), billedTo,
		rdf.IRI("http://example.com/biz/Person/p1")), "forward reference resolves")
	assert.Empty(t, g.Objects(rdf.IRI("http://example.com/biz/Invoice/i2"), billedTo),
		"unresolved target drops the triple only")
	assert.Equal(t, 3, res.Emitted)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "unresolved id ghost")
}

func TestMaterializeInvalidLocalIDSkipped(t *testing.T) {
	props := []*ChunkProposal{{
		ChunkID: "c1",
		Instances: []Proposal{{
			LocalID:        "p 1>",
			Class:          "Person",
			DatatypeValues: map[string]any{"email": "a@b.c"},
			ObjectValues:   map[string]string{},
		}},
	}}

	res := Materialize(personCard(), props)
	assert.Equal(t, 0, res.Graph.Len(), "no triples for an unsafe local id")
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "invalid local id")
}

func TestMaterializeLocalIDClassConflict(t *testing.T) {
	props := []*ChunkProposal{{
		ChunkID: "c1",
		Instances: []Proposal{
			{
				LocalID:        "x1",
				Class:          "Person",
				DatatypeValues: map[string]any{},
				ObjectValues:   map[string]string{},
			},
			{
				LocalID:        "x1",
				Class:          "Invoice",
				DatatypeValues: map[string]any{},
				ObjectValues:   map[string]string{},
			},
		},
	}}

	res := Materialize(personCard(), props)

	g := res.Graph
	assert.True(t, g.Has(rdf.IRI("http://example.com/biz/Person/x1"),
		rdf.IRI(rdf.RDFType), rdf.IRI("http://example.com/biz/Person")))
	assert.False(t, g.Has(rdf.IRI("http://example.com/biz/Invoice/x1"),
		rdf.IRI(rdf.RDFType), rdf.IRI("http://example.com/biz/Invoice")),
		"second class under the same local id is not minted")
	assert.Equal(t, 1, res.Emitted)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "reuses local id of class Person")
}

func TestMaterializeInvalidPropertyNameSkipped(t *testing.T) {
	props := []*ChunkProposal{{
		ChunkID: "c1",
		Instances: []Proposal{{
			LocalID:        "p1",
			Class:          "Person",
			DatatypeValues: map[string]any{"has email>": "a@b.c"},
			ObjectValues:   map[string]string{"knows of>": "p1"},
		}},
	}}

	res := Materialize(personCard(), props)

	g := res.Graph
	subject := rdf.IRI("http://example.com/biz/Person/p1")
	assert.Equal(t, 1, g.Len(), "only the type triple is emitted")
	assert.True(t, g.Has(subject, rdf.IRI(rdf.RDFType), rdf.IRI("http://example.com/biz/Person")))
	require.Len(t, res.Warnings, 2)
	assert.Contains(t, res.Warnings[0], `property "has email>" is not a valid identifier`)
}

func TestMaterializeDeterministicTurtle(t *testing.T) {
	props := []*ChunkProposal{{
		ChunkID: "c1",
		Instances: []Proposal{{
			LocalID: "p1",
			Class:   "Person",
			DatatypeValues: map[string]any{
				"email": "a@b.c",
				"age":   float64(30),
			},
			ObjectValues: map[string]string{},
			Evidence: []dto.Evidence{
				{ChunkID: "c1", Quote: "q1"},
				{ChunkID: "c2", Quote: "q2"},
			},
		}},
	}}

	a := Materialize(personCard(), props).Graph.Turtle()
	b := Materialize(personCard(), props).Graph.Turtle()
	assert.Equal(t, a, b)
	assert.True(t, strings.Index(a, "@prefix") == 0)
}
