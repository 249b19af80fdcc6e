package rdf

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
)

// ParseTurtleFile reads and parses a Turtle file.
func ParseTurtleFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	g, err := ParseTurtle(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// ParseTurtle parses a practical subset of Turtle: prefix declarations,
// IRIs, prefixed names, string/numeric/boolean literals, language tags,
// datatype annotations, blank node labels, anonymous blank nodes, and
// ';'/',' continuation lists. Collections are not supported. The subset
// covers everything the canonical writer emits plus the common baseline
// ontologies (FOAF, PROV-O, Schema.org snippets).
func ParseTurtle(src string) (*Graph, error) {
	p := &ttlParser{src: []rune(src), graph: NewGraph()}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.graph, nil
}

type ttlParser struct {
	src      []rune
	pos      int
	line     int
	graph    *Graph
	anonSeq  int
	base     string
}

func (p *ttlParser) errf(format string, args ...any) error {
	return fmt.Errorf("turtle: line %d: %s", p.line+1, fmt.Sprintf(format, args...))
}

func (p *ttlParser) eof() bool { return p.pos >= len(p.src) }

func (p *ttlParser) peek() rune {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *ttlParser) next() rune {
	r := p.src[p.pos]
	p.pos++
	if r == '\n' {
		p.line++
	}
	return r
}

// skipWS advances past whitespace and comments.
func (p *ttlParser) skipWS() {
	for !p.eof() {
		r := p.peek()
		switch {
		case unicode.IsSpace(r):
			p.next()
		case r == '#':
			for !p.eof() && p.peek() != '\n' {
				p.next()
			}
		default:
			return
		}
	}
}

func (p *ttlParser) parse() error {
	for {
		p.skipWS()
		if p.eof() {
			return nil
		}
		if err := p.statement(); err != nil {
			return err
		}
	}
}

// statement parses either a directive or a triples block.
func (p *ttlParser) statement() error {
	if p.hasKeyword("@prefix") || p.hasKeyword("PREFIX") {
		return p.prefixDecl()
	}
	if p.hasKeyword("@base") || p.hasKeyword("BASE") {
		return p.baseDecl()
	}
	return p.triples()
}

// hasKeyword reports whether the input at the cursor starts with the word,
// case-insensitively for the SPARQL-style forms, without consuming it.
func (p *ttlParser) hasKeyword(word string) bool {
	if p.pos+len(word) > len(p.src) {
		return false
	}
	got := string(p.src[p.pos : p.pos+len(word)])
	if strings.HasPrefix(word, "@") {
		return got == word
	}
	return strings.EqualFold(got, word)
}

func (p *ttlParser) consumeKeyword(word string) {
	p.pos += len(word)
}

func (p *ttlParser) prefixDecl() error {
	sparql := !(p.peek() == '@')
	if sparql {
		p.consumeKeyword("PREFIX")
	} else {
		p.consumeKeyword("@prefix")
	}
	p.skipWS()

	var name strings.Builder
	for !p.eof() && p.peek() != ':' {
		r := p.next()
		if unicode.IsSpace(r) {
			return p.errf("malformed prefix name")
		}
		name.WriteRune(r)
	}
	if p.eof() {
		return p.errf("unterminated prefix declaration")
	}
	p.next() // ':'
	p.skipWS()

	iri, err := p.iriRef()
	if err != nil {
		return err
	}
	p.graph.Bind(name.String(), iri)

	if !sparql {
		p.skipWS()
		if p.peek() != '.' {
			return p.errf("missing '.' after @prefix")
		}
		p.next()
	}
	return nil
}

func (p *ttlParser) baseDecl() error {
	sparql := !(p.peek() == '@')
	if sparql {
		p.consumeKeyword("BASE")
	} else {
		p.consumeKeyword("@base")
	}
	p.skipWS()
	iri, err := p.iriRef()
	if err != nil {
		return err
	}
	p.base = iri
	if !sparql {
		p.skipWS()
		if p.peek() != '.' {
			return p.errf("missing '.' after @base")
		}
		p.next()
	}
	return nil
}

// triples parses "subject predicateObjectList .".
func (p *ttlParser) triples() error {
	subj, err := p.subject()
	if err != nil {
		return err
	}
	if err := p.predicateObjectList(subj); err != nil {
		return err
	}
	p.skipWS()
	if p.peek() != '.' {
		return p.errf("expected '.' to end statement")
	}
	p.next()
	return nil
}

func (p *ttlParser) predicateObjectList(subj Term) error {
	for {
		p.skipWS()
		pred, err := p.predicate()
		if err != nil {
			return err
		}
		for {
			p.skipWS()
			obj, err := p.object()
			if err != nil {
				return err
			}
			p.graph.Add(subj, pred, obj)
			p.skipWS()
			if p.peek() == ',' {
				p.next()
				continue
			}
			break
		}
		if p.peek() == ';' {
			p.next()
			p.skipWS()
			// A ';' may be trailing before '.' or ']'.
			if p.peek() == '.' || p.peek() == ']' {
				return nil
			}
			continue
		}
		return nil
	}
}

func (p *ttlParser) subject() (Term, error) {
	p.skipWS()
	switch {
	case p.peek() == '<':
		iri, err := p.iriRef()
		return IRI(iri), err
	case p.peek() == '[':
		return p.anonBlank()
	case p.peek() == '_' && p.peekAt(p.pos+1) == ':':
		return p.blankLabel()
	default:
		return p.prefixedName()
	}
}

func (p *ttlParser) predicate() (Term, error) {
	if p.peek() == 'a' && p.isBoundary(p.pos+1) {
		p.next()
		return IRI(RDFType), nil
	}
	if p.peek() == '<' {
		iri, err := p.iriRef()
		return IRI(iri), err
	}
	return p.prefixedName()
}

func (p *ttlParser) object() (Term, error) {
	switch r := p.peek(); {
	case r == '<':
		iri, err := p.iriRef()
		return IRI(iri), err
	case r == '"' || r == '\'':
		return p.literal()
	case r == '[':
		return p.anonBlank()
	case r == '_' && p.peekAt(p.pos+1) == ':':
		return p.blankLabel()
	case r == '+' || r == '-' || (r >= '0' && r <= '9'):
		return p.numericLiteral()
	case p.hasKeyword("true") && p.isBoundary(p.pos+4):
		p.pos += 4
		return TypedLiteral("true", XSDBoolean), nil
	case p.hasKeyword("false") && p.isBoundary(p.pos+5):
		p.pos += 5
		return TypedLiteral("false", XSDBoolean), nil
	default:
		return p.prefixedName()
	}
}

func (p *ttlParser) peekAt(i int) rune {
	if i >= len(p.src) {
		return 0
	}
	return p.src[i]
}

// isBoundary reports whether position i is past a token boundary.
func (p *ttlParser) isBoundary(i int) bool {
	if i >= len(p.src) {
		return true
	}
	r := p.src[i]
	return unicode.IsSpace(r) || strings.ContainsRune("<>\"';,.[]()#", r)
}

func (p *ttlParser) iriRef() (string, error) {
	if p.peek() != '<' {
		return "", p.errf("expected IRI")
	}
	p.next()
	var b strings.Builder
	for !p.eof() {
		r := p.next()
		if r == '>' {
			iri := b.String()
			if p.base != "" && !strings.Contains(iri, ":") {
				iri = p.base + iri
			}
			return iri, nil
		}
		b.WriteRune(r)
	}
	return "", p.errf("unterminated IRI")
}

// prefixedName resolves "prefix:local" (or ":local") through the bindings.
func (p *ttlParser) prefixedName() (Term, error) {
	var b strings.Builder
	for !p.eof() {
		r := p.peek()
		if unicode.IsSpace(r) || strings.ContainsRune("<>\"';,[]()#", r) {
			break
		}
		// '.' terminates a statement unless it is inside the local part
		// followed by more name characters.
		if r == '.' && p.isBoundary(p.pos+1) {
			break
		}
		b.WriteRune(p.next())
	}
	tok := b.String()
	if tok == "" {
		return Term{}, p.errf("expected term")
	}
	i := strings.Index(tok, ":")
	if i < 0 {
		return Term{}, p.errf("not a prefixed name: %q", tok)
	}
	prefix, local := tok[:i], tok[i+1:]
	ns, ok := p.graph.prefixes[prefix]
	if !ok {
		return Term{}, p.errf("unknown prefix %q", prefix)
	}
	return IRI(ns + local), nil
}

func (p *ttlParser) blankLabel() (Term, error) {
	p.next() // '_'
	p.next() // ':'
	var b strings.Builder
	for !p.eof() && !p.isBoundary(p.pos) {
		b.WriteRune(p.next())
	}
	if b.Len() == 0 {
		return Term{}, p.errf("empty blank node label")
	}
	return Blank(b.String()), nil
}

// anonBlank parses "[ ... ]", minting a fresh blank node and attaching any
// enclosed predicate-object list to it.
func (p *ttlParser) anonBlank() (Term, error) {
	p.next() // '['
	node := Blank(fmt.Sprintf("anon%d", p.anonSeq))
	p.anonSeq++
	p.skipWS()
	if p.peek() == ']' {
		p.next()
		return node, nil
	}
	if err := p.predicateObjectList(node); err != nil {
		return Term{}, err
	}
	p.skipWS()
	if p.peek() != ']' {
		return Term{}, p.errf("unterminated blank node")
	}
	p.next()
	return node, nil
}

func (p *ttlParser) numericLiteral() (Term, error) {
	var b strings.Builder
	for !p.eof() {
		r := p.peek()
		if r == '+' || r == '-' || r == '.' || r == 'e' || r == 'E' || (r >= '0' && r <= '9') {
			// A '.' followed by a boundary ends the statement, not the number.
			if r == '.' && p.isBoundary(p.pos+1) {
				break
			}
			b.WriteRune(p.next())
			continue
		}
		break
	}
	lex := b.String()
	if _, err := strconv.ParseInt(lex, 10, 64); err == nil {
		return TypedLiteral(lex, XSDInteger), nil
	}
	if _, err := strconv.ParseFloat(lex, 64); err == nil {
		return TypedLiteral(lex, XSDDecimal), nil
	}
	return Term{}, p.errf("malformed numeric literal %q", lex)
}

func (p *ttlParser) literal() (Term, error) {
	quote := p.next()
	long := false
	if p.peek() == quote && p.peekAt(p.pos+1) == quote {
		p.next()
		p.next()
		long = true
	}

	var b strings.Builder
	for {
		if p.eof() {
			return Term{}, p.errf("unterminated string literal")
		}
		r := p.next()
		if r == quote {
			if !long {
				break
			}
			if p.peek() == quote && p.peekAt(p.pos+1) == quote {
				p.next()
				p.next()
				break
			}
			b.WriteRune(r)
			continue
		}
		if r == '\\' {
			dec, err := p.escape()
			if err != nil {
				return Term{}, err
			}
			b.WriteRune(dec)
			continue
		}
		if r == '\n' && !long {
			return Term{}, p.errf("newline in short string literal")
		}
		b.WriteRune(r)
	}

	lex := b.String()
	switch {
	case p.peek() == '@':
		p.next()
		var lang strings.Builder
		for !p.eof() && !p.isBoundary(p.pos) {
			lang.WriteRune(p.next())
		}
		return LangLiteral(lex, lang.String()), nil
	case p.peek() == '^' && p.peekAt(p.pos+1) == '^':
		p.next()
		p.next()
		var dt Term
		var err error
		if p.peek() == '<' {
			var iri string
			iri, err = p.iriRef()
			dt = IRI(iri)
		} else {
			dt, err = p.prefixedName()
		}
		if err != nil {
			return Term{}, err
		}
		return TypedLiteral(lex, dt.Value), nil
	default:
		return Literal(lex), nil
	}
}

func (p *ttlParser) escape() (rune, error) {
	if p.eof() {
		return 0, p.errf("dangling escape")
	}
	r := p.next()
	switch r {
	case 't':
		return '\t', nil
	case 'n':
		return '\n', nil
	case 'r':
		return '\r', nil
	case 'b':
		return '\b', nil
	case 'f':
		return '\f', nil
	case '"', '\'', '\\':
		return r, nil
	case 'u', 'U':
		n := 4
		if r == 'U' {
			n = 8
		}
		if p.pos+n > len(p.src) {
			return 0, p.errf("truncated unicode escape")
		}
		hex := string(p.src[p.pos : p.pos+n])
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return 0, p.errf("bad unicode escape %q", hex)
		}
		p.pos += n
		return rune(v), nil
	default:
		return 0, p.errf("unknown escape \\%c", r)
	}
}
