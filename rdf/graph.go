package rdf

import (
	"fmt"
	"sort"
	"strings"
)

// Graph is an in-memory set of triples with prefix bindings for emission.
// Insertion order is irrelevant: serialization is canonical, so two graphs
// with the same triples and bindings emit byte-identical Turtle.
type Graph struct {
	prefixes map[string]string // prefix -> namespace IRI
	triples  []Triple
	blankSeq int
}

// NewGraph returns an empty graph with no prefix bindings.
func NewGraph() *Graph {
	return &Graph{prefixes: make(map[string]string)}
}

// Bind associates a prefix with a namespace IRI for Turtle emission.
func (g *Graph) Bind(prefix, namespace string) {
	g.prefixes[prefix] = namespace
}

// Prefixes returns a copy of the graph's prefix bindings.
func (g *Graph) Prefixes() map[string]string {
	out := make(map[string]string, len(g.prefixes))
	for k, v := range g.prefixes {
		out[k] = v
	}
	return out
}

// Add appends one triple.
func (g *Graph) Add(s, p, o Term) {
	g.triples = append(g.triples, Triple{Subject: s, Predicate: p, Object: o})
}

// AddTriple appends a prebuilt triple.
func (g *Graph) AddTriple(t Triple) {
	g.triples = append(g.triples, t)
}

// NewBlank mints a fresh blank node with a sequential label such as "m0".
func (g *Graph) NewBlank(prefix string) Term {
	b := Blank(fmt.Sprintf("%s%d", prefix, g.blankSeq))
	g.blankSeq++
	return b
}

// Len returns the number of stored triples, duplicates included.
func (g *Graph) Len() int { return len(g.triples) }

// termKey is a total order over terms: IRIs, then blank nodes, then
// literals, each lexicographically by value (and datatype/lang for
// literals).
func termKey(t Term) string {
	return fmt.Sprintf("%d\x00%s\x00%s\x00%s", t.Kind, t.Value, t.Datatype, t.Lang)
}

// Triples returns the deduplicated triples in canonical order: subject,
// then predicate (rdf:type first), then object.
func (g *Graph) Triples() []Triple {
	out := make([]Triple, len(g.triples))
	copy(out, g.triples)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if sk, ok := compare(termKey(a.Subject), termKey(b.Subject)); ok {
			return sk
		}
		if pk, ok := compare(predicateKey(a.Predicate), predicateKey(b.Predicate)); ok {
			return pk
		}
		return termKey(a.Object) < termKey(b.Object)
	})
	// In-place dedup, gonum-style.
	dedup := out[:0]
	for i, t := range out {
		if i > 0 && t == out[i-1] {
			continue
		}
		dedup = append(dedup, t)
	}
	return dedup
}

func compare(a, b string) (less, decided bool) {
	if a == b {
		return false, false
	}
	return a < b, true
}

// predicateKey orders predicates with rdf:type first, matching the
// conventional Turtle layout where "a" leads a subject group.
func predicateKey(p Term) string {
	if p.Kind == KindIRI && p.Value == RDFType {
		return "\x00"
	}
	return termKey(p)
}

// Has reports whether the graph contains the exact triple.
func (g *Graph) Has(s, p, o Term) bool {
	want := Triple{Subject: s, Predicate: p, Object: o}
	for _, t := range g.triples {
		if t == want {
			return true
		}
	}
	return false
}

// SubjectsOfType returns the distinct IRI subjects carrying rdf:type t,
// in canonical order. Blank-node subjects are excluded.
func (g *Graph) SubjectsOfType(t Term) []Term {
	seen := make(map[string]bool)
	var out []Term
	for _, tr := range g.Triples() {
		if tr.Predicate.Value != RDFType || tr.Predicate.Kind != KindIRI {
			continue
		}
		if tr.Object != t || tr.Subject.Kind != KindIRI {
			continue
		}
		if !seen[tr.Subject.Value] {
			seen[tr.Subject.Value] = true
			out = append(out, tr.Subject)
		}
	}
	return out
}

// Objects returns the objects of all (s, p, *) triples in canonical order.
func (g *Graph) Objects(s, p Term) []Term {
	var out []Term
	for _, tr := range g.Triples() {
		if tr.Subject == s && tr.Predicate == p {
			out = append(out, tr.Object)
		}
	}
	return out
}

// FirstLiteral returns the lexical form of the first literal object of
// (s, p, *), or "" when none exists.
func (g *Graph) FirstLiteral(s, p Term) string {
	for _, o := range g.Objects(s, p) {
		if o.Kind == KindLiteral {
			return o.Value
		}
	}
	return ""
}

// escapeLiteral escapes a literal's lexical form for a quoted Turtle string.
func escapeLiteral(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// validLocal reports whether a local name is safe to emit as the local part
// of a prefixed name. The accepted alphabet is deliberately narrow; anything
// else falls back to an angle-bracket IRI.
func validLocal(s string) bool {
	if s == "" || strings.HasSuffix(s, ".") {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case (r >= '0' && r <= '9') || r == '-' || r == '.':
			if i == 0 && r != '_' && !(r >= '0' && r <= '9') {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// renderTerm renders a term in Turtle syntax, abbreviating IRIs through the
// graph's prefix bindings when the local name allows it.
func (g *Graph) renderTerm(t Term, asPredicate bool) string {
	switch t.Kind {
	case KindIRI:
		if asPredicate && t.Value == RDFType {
			return "a"
		}
		best := ""
		bestNS := ""
		for prefix, ns := range g.prefixes {
			if strings.HasPrefix(t.Value, ns) && len(ns) > len(bestNS) {
				local := t.Value[len(ns):]
				if validLocal(local) {
					best = prefix + ":" + local
					bestNS = ns
				}
			}
		}
		if best != "" {
			return best
		}
		return "<" + t.Value + ">"
	case KindBlank:
		return "_:" + t.Value
	default:
		lit := `"` + escapeLiteral(t.Value) + `"`
		if t.Lang != "" {
			return lit + "@" + t.Lang
		}
		if t.Datatype != "" && t.Datatype != XSDString {
			return lit + "^^" + g.renderTerm(IRI(t.Datatype), false)
		}
		return lit
	}
}

// Turtle serializes the graph canonically: a sorted prefix block, then one
// group per subject with predicates on ';'-continued lines and objects in
// sorted comma lists.
func (g *Graph) Turtle() string {
	var b strings.Builder

	prefixes := make([]string, 0, len(g.prefixes))
	for p := range g.prefixes {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)
	for _, p := range prefixes {
		fmt.Fprintf(&b, "@prefix %s: <%s> .\n", p, g.prefixes[p])
	}

	triples := g.Triples()
	if len(triples) == 0 {
		return b.String()
	}

	i := 0
	for i < len(triples) {
		subj := triples[i].Subject
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(g.renderTerm(subj, false))

		first := true
		for i < len(triples) && triples[i].Subject == subj {
			pred := triples[i].Predicate
			var objects []string
			for i < len(triples) && triples[i].Subject == subj && triples[i].Predicate == pred {
				objects = append(objects, g.renderTerm(triples[i].Object, false))
				i++
			}
			if first {
				b.WriteString(" ")
				first = false
			} else {
				b.WriteString(" ;\n    ")
			}
			b.WriteString(g.renderTerm(pred, true))
			b.WriteString(" ")
			b.WriteString(strings.Join(objects, ", "))
		}
		b.WriteString(" .\n")
	}
	return b.String()
}
