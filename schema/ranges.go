package schema

import (
	"fmt"
	"strings"

	"github.com/ontorag/ontorag/rdf"
)

// rangeAliases maps the loose range spellings LLMs produce to canonical
// XSD local names.
var rangeAliases = map[string]string{
	"str":       "string",
	"string":    "string",
	"text":      "string",
	"int":       "integer",
	"integer":   "integer",
	"float":     "decimal",
	"number":    "decimal",
	"decimal":   "decimal",
	"bool":      "boolean",
	"boolean":   "boolean",
	"date":      "date",
	"datetime":  "dateTime",
	"timestamp": "dateTime",
	"url":       "anyURI",
	"uri":       "anyURI",
	"anyuri":    "anyURI",
}

// NormalizeRange maps a datatype property range string to its canonical
// XSD local name. Unknown spellings fall back to string with a warning so
// a single odd range never aborts a merge.
func NormalizeRange(raw string, warn func(string)) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return "string"
	}
	if canon, ok := rangeAliases[key]; ok {
		return canon
	}
	if warn != nil {
		warn(fmt.Sprintf("unknown datatype range %q mapped to string", raw))
	}
	return "string"
}

// XSDFor returns the full XSD datatype IRI for a canonical range name.
func XSDFor(canonical string) string {
	switch canonical {
	case "integer":
		return rdf.XSDInteger
	case "decimal":
		return rdf.XSDDecimal
	case "boolean":
		return rdf.XSDBoolean
	case "date":
		return rdf.XSDDate
	case "dateTime":
		return rdf.XSDDateTime
	case "anyURI":
		return rdf.XSDAnyURI
	default:
		return rdf.XSDString
	}
}
