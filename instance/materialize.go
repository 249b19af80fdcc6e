package instance

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ontorag/ontorag/rdf"
	"github.com/ontorag/ontorag/schema"
)

// Result is a materialized instance graph plus its bookkeeping.
type Result struct {
	Graph    *rdf.Graph
	Warnings []string
	Emitted  int // instances that produced triples
	Skipped  int // instances dropped for unknown classes
}

// Materialize turns chunk proposals into an RDF graph governed by the
// card. Instances of unknown classes, instances with IRI-unsafe local ids,
// and local ids reused across classes are skipped with a warning; datatype
// values are coerced to the declared XSD range, falling back to xsd:string
// with a warning; object facts whose target local id is not materialized
// in this batch are dropped with a warning, as are facts whose property
// name is not a valid identifier. Every evidence record becomes a
// prov:Entity mention blank node derived from its chunk.
func Materialize(card *schema.Card, chunks []*ChunkProposal) *Result {
	res := &Result{Graph: rdf.NewGraph(), Warnings: []string{}}
	ns := card.Namespace
	if ns == "" {
		ns = schema.DefaultNamespace
	}
	g := res.Graph
	g.Bind("ns", ns)
	g.Bind("xsd", rdf.NSXSD)
	g.Bind("prov", rdf.NSPROV)

	warnSeen := make(map[string]bool)
	warn := func(format string, args ...any) {
		w := fmt.Sprintf(format, args...)
		if !warnSeen[w] {
			warnSeen[w] = true
			res.Warnings = append(res.Warnings, w)
		}
	}

	// First pass: mint subject IRIs for instances whose class is known so
	// object facts can point forward as well as backward. A local id binds
	// to the first class it appears under.
	subjects := make(map[string]rdf.Term)
	classOf := make(map[string]string)
	for _, cp := range chunks {
		for _, inst := range cp.Instances {
			cl, ok := card.FindClass(inst.Class)
			if !ok || !validLocalID(inst.LocalID) || !schema.ValidIdentifier(cl.Name) {
				continue
			}
			if _, dup := subjects[inst.LocalID]; !dup {
				subjects[inst.LocalID] = rdf.IRI(ns + cl.Name + "/" + inst.LocalID)
				classOf[inst.LocalID] = cl.Name
			}
		}
	}

	hasMention := rdf.IRI(ns + "hasMention")
	for _, cp := range chunks {
		for _, w := range cp.Warnings {
			warn("%s", w)
		}
		for _, inst := range cp.Instances {
			cl, ok := card.FindClass(inst.Class)
			if !ok {
				warn("instance %s references unknown class %s; skipped", inst.LocalID, inst.Class)
				res.Skipped++
				continue
			}
			if !validLocalID(inst.LocalID) {
				warn("instance %q has an invalid local id; skipped", inst.LocalID)
				res.Skipped++
				continue
			}
			if !schema.ValidIdentifier(cl.Name) {
				warn("class %q is not a valid identifier; instance %s skipped", cl.Name, inst.LocalID)
				res.Skipped++
				continue
			}
			if classOf[inst.LocalID] != cl.Name {
				warn("instance %s reuses local id of class %s; skipped", inst.LocalID, classOf[inst.LocalID])
				res.Skipped++
				continue
			}
			subject := subjects[inst.LocalID]
			g.Add(subject, rdf.IRI(rdf.RDFType), rdf.IRI(ns+cl.Name))

			for _, name := range sortedKeys(inst.DatatypeValues) {
				value := inst.DatatypeValues[name]
				prop, known := card.FindDatatypeProperty(name)
				predName := name
				if known {
					predName = prop.Name
				}
				if !schema.ValidIdentifier(predName) {
					warn("instance %s property %q is not a valid identifier; value skipped", inst.LocalID, predName)
					continue
				}
				if !known {
					warn("instance %s uses unknown property %s; emitted as string", inst.LocalID, name)
					g.Add(subject, rdf.IRI(ns+name), rdf.Literal(lexical(value)))
					continue
				}
				lit, err := coerce(value, prop.Range)
				if err != nil {
					warn("instance %s value for %s: %v; emitted as string", inst.LocalID, name, err)
					lit = rdf.Literal(lexical(value))
				}
				g.Add(subject, rdf.IRI(ns+prop.Name), lit)
			}

			for _, name := range sortedStringKeys(inst.ObjectValues) {
				targetID := inst.ObjectValues[name]
				prop, known := card.FindObjectProperty(name)
				predName := name
				if known {
					predName = prop.Name
				}
				if !schema.ValidIdentifier(predName) {
					warn("instance %s object property %q is not a valid identifier; triple skipped", inst.LocalID, predName)
					continue
				}
				if !known {
					warn("instance %s uses unknown object property %s", inst.LocalID, name)
				}
				target, ok := subjects[targetID]
				if !ok {
					warn("instance %s object fact %s references unresolved id %s; triple skipped", inst.LocalID, name, targetID)
					continue
				}
				g.Add(subject, rdf.IRI(ns+predName), target)
			}

			for _, ev := range inst.Evidence {
				mention := g.NewBlank("m")
				g.Add(mention, rdf.IRI(rdf.RDFType), rdf.IRI(rdf.PROVEntity))
				g.Add(mention, rdf.IRI(rdf.PROVWasDerivedFrom), rdf.IRI("chunk:"+ev.ChunkID))
				g.Add(mention, rdf.IRI(rdf.PROVValue), rdf.Literal(ev.Quote))
				g.Add(subject, hasMention, mention)
			}
			res.Emitted++
		}
	}
	return res
}

// validLocalID reports whether an LLM-supplied local id is safe to embed
// in a subject IRI. Letters, digits, underscore, hyphen, and dot only.
func validLocalID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == '-', r == '.':
		default:
			return false
		}
	}
	return true
}

// coerce converts a JSON value to a typed literal for the declared range.
func coerce(value any, rng string) (rdf.Term, error) {
	switch rng {
	case "integer":
		switch v := value.(type) {
		case float64:
			if v != float64(int64(v)) {
				return rdf.Term{}, fmt.Errorf("%v is not an integer", v)
			}
			return rdf.TypedLiteral(strconv.FormatInt(int64(v), 10), rdf.XSDInteger), nil
		case string:
			n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return rdf.Term{}, fmt.Errorf("%q is not an integer", v)
			}
			return rdf.TypedLiteral(strconv.FormatInt(n, 10), rdf.XSDInteger), nil
		}
		return rdf.Term{}, fmt.Errorf("%v is not an integer", value)
	case "decimal":
		switch v := value.(type) {
		case float64:
			return rdf.TypedLiteral(strconv.FormatFloat(v, 'f', -1, 64), rdf.XSDDecimal), nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return rdf.Term{}, fmt.Errorf("%q is not a decimal", v)
			}
			return rdf.TypedLiteral(strconv.FormatFloat(f, 'f', -1, 64), rdf.XSDDecimal), nil
		}
		return rdf.Term{}, fmt.Errorf("%v is not a decimal", value)
	case "boolean":
		switch v := value.(type) {
		case bool:
			return rdf.TypedLiteral(strconv.FormatBool(v), rdf.XSDBoolean), nil
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true":
				return rdf.TypedLiteral("true", rdf.XSDBoolean), nil
			case "false":
				return rdf.TypedLiteral("false", rdf.XSDBoolean), nil
			}
			return rdf.Term{}, fmt.Errorf("%q is not a boolean", v)
		}
		return rdf.Term{}, fmt.Errorf("%v is not a boolean", value)
	case "date":
		s, ok := value.(string)
		if !ok {
			return rdf.Term{}, fmt.Errorf("%v is not a date", value)
		}
		if _, err := time.Parse("2006-01-02", strings.TrimSpace(s)); err != nil {
			return rdf.Term{}, fmt.Errorf("%q is not an ISO date", s)
		}
		return rdf.TypedLiteral(strings.TrimSpace(s), rdf.XSDDate), nil
	case "dateTime":
		s, ok := value.(string)
		if !ok {
			return rdf.Term{}, fmt.Errorf("%v is not a dateTime", value)
		}
		if _, err := time.Parse(time.RFC3339, strings.TrimSpace(s)); err != nil {
			return rdf.Term{}, fmt.Errorf("%q is not an ISO dateTime", s)
		}
		return rdf.TypedLiteral(strings.TrimSpace(s), rdf.XSDDateTime), nil
	case "anyURI":
		s, ok := value.(string)
		if !ok {
			return rdf.Term{}, fmt.Errorf("%v is not a URI", value)
		}
		return rdf.TypedLiteral(s, rdf.XSDAnyURI), nil
	default:
		return rdf.Literal(lexical(value)), nil
	}
}

// lexical renders an arbitrary JSON value as a plain string literal.
func lexical(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedStringKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
