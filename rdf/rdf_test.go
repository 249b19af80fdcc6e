package rdf

import (
	"strings"
	"testing"
)

func TestLocalName(t *testing.T) {
	tests := []struct {
		iri  string
		want string
	}{
		{"http://xmlns.com/foaf/0.1/Person", "Person"},
		{"http://www.w3.org/ns/prov#Entity", "Entity"},
		{"http://ontorag.local/ns/email", "email"},
		{"urn:thing", "urn:thing"},
	}
	for _, tt := range tests {
		if got := LocalName(tt.iri); got != tt.want {
			t.Errorf("LocalName(%q) = %q, want %q", tt.iri, got, tt.want)
		}
	}
}

func TestTurtleCanonicalOrder(t *testing.T) {
	build := func(order []int) string {
		g := NewGraph()
		g.Bind("ns", "http://ontorag.local/ns/")
		g.Bind("rdfs", NSRDFS)
		triples := []Triple{
			{IRI("http://ontorag.local/ns/Person"), IRI(RDFSLabel), Literal("Person")},
			{IRI("http://ontorag.local/ns/Person"), IRI(RDFType), IRI(OWLClass)},
			{IRI("http://ontorag.local/ns/Account"), IRI(RDFType), IRI(OWLClass)},
		}
		g.Bind("owl", NSOWL)
		for _, i := range order {
			g.AddTriple(triples[i])
		}
		return g.Turtle()
	}

	a := build([]int{0, 1, 2})
	b := build([]int{2, 1, 0})
	if a != b {
		t.Errorf("Turtle output depends on insertion order:\n%s\nvs\n%s", a, b)
	}

	// Subjects sorted: Account before Person; rdf:type rendered as "a" first.
	ai := strings.Index(a, "ns:Account")
	pi := strings.Index(a, "ns:Person")
	if ai < 0 || pi < 0 || ai > pi {
		t.Errorf("subject groups out of order:\n%s", a)
	}
	if !strings.Contains(a, "ns:Person a owl:Class ;\n    rdfs:label \"Person\" .") {
		t.Errorf("unexpected subject group layout:\n%s", a)
	}
}

func TestTurtleDeduplicates(t *testing.T) {
	g := NewGraph()
	s := IRI("http://ontorag.local/ns/A")
	g.Add(s, IRI(RDFType), IRI(OWLClass))
	g.Add(s, IRI(RDFType), IRI(OWLClass))
	if got := len(g.Triples()); got != 1 {
		t.Errorf("Triples() kept %d copies, want 1", got)
	}
}

func TestLiteralEscaping(t *testing.T) {
	g := NewGraph()
	g.Add(IRI("http://x/s"), IRI("http://x/p"), Literal("line1\n\"q\"\\end"))
	out := g.Turtle()
	if !strings.Contains(out, `"line1\n\"q\"\\end"`) {
		t.Errorf("literal not escaped: %s", out)
	}
}

func TestParseTurtleBasics(t *testing.T) {
	src := `
@prefix foaf: <http://xmlns.com/foaf/0.1/> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix owl: <http://www.w3.org/2002/07/owl#> .

# people
foaf:Person a owl:Class ;
    rdfs:label "Person" ;
    rdfs:comment "A person." .

foaf:knows a owl:ObjectProperty ;
    rdfs:domain foaf:Person ;
    rdfs:range foaf:Person .

foaf:age a owl:DatatypeProperty ;
    rdfs:range <http://www.w3.org/2001/XMLSchema#integer> .
`
	g, err := ParseTurtle(src)
	if err != nil {
		t.Fatalf("ParseTurtle: %v", err)
	}

	person := IRI("http://xmlns.com/foaf/0.1/Person")
	if !g.Has(person, IRI(RDFType), IRI(OWLClass)) {
		t.Error("missing foaf:Person a owl:Class")
	}
	if got := g.FirstLiteral(person, IRI(RDFSLabel)); got != "Person" {
		t.Errorf("label = %q, want %q", got, "Person")
	}
	if !g.Has(IRI("http://xmlns.com/foaf/0.1/age"), IRI(RDFSRange), IRI(XSDInteger)) {
		t.Error("missing xsd:integer range on foaf:age")
	}

	subjects := g.SubjectsOfType(IRI(OWLClass))
	if len(subjects) != 1 || subjects[0] != person {
		t.Errorf("SubjectsOfType = %v", subjects)
	}
}

func TestParseTurtleLiteralForms(t *testing.T) {
	src := `
@prefix ex: <http://example.org/> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .

ex:s ex:str "plain" ;
    ex:lang "bonjour"@fr ;
    ex:typed "42"^^xsd:integer ;
    ex:num 17 ;
    ex:dec 1.5 ;
    ex:flag true .
`
	g, err := ParseTurtle(src)
	if err != nil {
		t.Fatalf("ParseTurtle: %v", err)
	}
	s := IRI("http://example.org/s")
	checks := []struct {
		pred string
		want Term
	}{
		{"str", Literal("plain")},
		{"lang", LangLiteral("bonjour", "fr")},
		{"typed", TypedLiteral("42", XSDInteger)},
		{"num", TypedLiteral("17", XSDInteger)},
		{"dec", TypedLiteral("1.5", XSDDecimal)},
		{"flag", TypedLiteral("true", XSDBoolean)},
	}
	for _, c := range checks {
		if !g.Has(s, IRI("http://example.org/"+c.pred), c.want) {
			t.Errorf("missing ex:%s %v", c.pred, c.want)
		}
	}
}

func TestParseTurtleAnonBlank(t *testing.T) {
	src := `
@prefix ex: <http://example.org/> .
ex:s ex:p [ ex:q "inner" ] .
`
	g, err := ParseTurtle(src)
	if err != nil {
		t.Fatalf("ParseTurtle: %v", err)
	}
	if g.Len() != 2 {
		t.Errorf("got %d triples, want 2", g.Len())
	}
}

func TestParseTurtleUnknownPrefix(t *testing.T) {
	if _, err := ParseTurtle("nope:s nope:p nope:o ."); err == nil {
		t.Fatal("expected error for unknown prefix")
	}
}

func TestTurtleRoundTrip(t *testing.T) {
	g := NewGraph()
	g.Bind("ns", "http://ontorag.local/ns/")
	g.Bind("owl", NSOWL)
	g.Bind("rdfs", NSRDFS)
	g.Bind("xsd", NSXSD)
	ns := "http://ontorag.local/ns/"
	g.Add(IRI(ns+"Person"), IRI(RDFType), IRI(OWLClass))
	g.Add(IRI(ns+"Person"), IRI(RDFSComment), Literal("A human\nbeing"))
	g.Add(IRI(ns+"email"), IRI(RDFType), IRI(OWLDatatypeProperty))
	g.Add(IRI(ns+"email"), IRI(RDFSDomain), IRI(ns+"Person"))
	g.Add(IRI(ns+"email"), IRI(RDFSRange), IRI(XSDString))

	out := g.Turtle()
	back, err := ParseTurtle(out)
	if err != nil {
		t.Fatalf("round-trip parse failed: %v\n%s", err, out)
	}
	for _, tr := range g.Triples() {
		if !back.Has(tr.Subject, tr.Predicate, tr.Object) {
			t.Errorf("round-trip lost triple %v", tr)
		}
	}
	if back.Turtle() != out {
		t.Errorf("re-serialization differs:\n%s\nvs\n%s", back.Turtle(), out)
	}
}
