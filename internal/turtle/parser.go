package turtle

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/roach88/typox/internal/rdferr"
	"github.com/roach88/typox/internal/term"
)

// Options configures parsing.
type Options struct {
	// BaseIRI resolves relative IRIs until the document declares its own
	// base. Relative IRIs are kept verbatim when no base is known.
	BaseIRI string

	// Normalize applies Unicode NFC to IRIs and lexical forms.
	Normalize bool
}

// anonPrefix labels [] nodes. It cannot appear in a lexed _:label, so
// generated labels never clash with the document's own.
const anonPrefix = ".anon"

type parser struct {
	toks []token
	pos  int
	opts Options

	base     *url.URL
	prefixes map[string]string
	anon     int

	triples []term.Triple
}

// Parse parses a Turtle document into triples. Blank node labels in the
// result are local to this document. Parse never touches a store.
func Parse(text string, opts Options) ([]term.Triple, error) {
	toks, err := tokenize(text)
	if err != nil {
		return nil, err
	}

	p := &parser{
		toks:     toks,
		opts:     opts,
		prefixes: make(map[string]string),
	}
	if opts.BaseIRI != "" {
		base, err := url.Parse(opts.BaseIRI)
		if err != nil {
			return nil, rdferr.NewParseError("turtle", 0, 0, "invalid base IRI %q: %v", opts.BaseIRI, err)
		}
		p.base = base
	}

	for p.peek().kind != tokEOF {
		if err := p.statement(); err != nil {
			return nil, err
		}
	}
	return p.triples, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) errorAt(tok token, format string, args ...any) error {
	return rdferr.NewParseError("turtle", tok.line, tok.col, format, args...)
}

func (p *parser) expect(kind tokenKind) (token, error) {
	tok := p.next()
	if tok.kind != kind {
		return tok, p.errorAt(tok, "expected %s, found %s", kind, describe(tok))
	}
	return tok, nil
}

func describe(tok token) string {
	switch tok.kind {
	case tokEOF:
		return "end of input"
	case tokIRI:
		return "<" + tok.text + ">"
	case tokString:
		return "string"
	default:
		if tok.text != "" {
			return "'" + tok.text + "'"
		}
		return tok.kind.String()
	}
}

func (p *parser) statement() error {
	tok := p.peek()
	switch {
	case tok.kind == tokAtWord && tok.text == "prefix":
		p.next()
		if err := p.prefixDecl(); err != nil {
			return err
		}
		_, err := p.expect(tokDot)
		return err
	case tok.kind == tokAtWord && tok.text == "base":
		p.next()
		if err := p.baseDecl(); err != nil {
			return err
		}
		_, err := p.expect(tokDot)
		return err
	case tok.kind == tokAtWord:
		return p.errorAt(tok, "unknown directive @%s", tok.text)
	case tok.kind == tokWord && strings.EqualFold(tok.text, "PREFIX"):
		p.next()
		return p.prefixDecl()
	case tok.kind == tokWord && strings.EqualFold(tok.text, "BASE"):
		p.next()
		return p.baseDecl()
	}

	if err := p.triplesStatement(); err != nil {
		return err
	}
	tok = p.next()
	if tok.kind != tokDot {
		return p.errorAt(tok, "expected '.' to end statement, found %s", describe(tok))
	}
	return nil
}

func (p *parser) prefixDecl() error {
	tok := p.next()
	if tok.kind != tokPName || !strings.HasSuffix(tok.text, ":") || strings.Count(tok.text, ":") != 1 {
		return p.errorAt(tok, "expected prefix name ending in ':', found %s", describe(tok))
	}
	iriTok, err := p.expect(tokIRI)
	if err != nil {
		return err
	}
	p.prefixes[strings.TrimSuffix(tok.text, ":")] = string(p.resolve(iriTok.text))
	return nil
}

func (p *parser) baseDecl() error {
	iriTok, err := p.expect(tokIRI)
	if err != nil {
		return err
	}
	resolved := string(p.resolve(iriTok.text))
	base, perr := url.Parse(resolved)
	if perr != nil {
		return p.errorAt(iriTok, "invalid base IRI <%s>", iriTok.text)
	}
	p.base = base
	return nil
}

func (p *parser) triplesStatement() error {
	subj, err := p.subject()
	if err != nil {
		return err
	}
	return p.predicateObjectList(subj)
}

func (p *parser) subject() (term.Term, error) {
	tok := p.peek()
	switch tok.kind {
	case tokIRI, tokPName:
		return p.iri()
	case tokBlank:
		p.next()
		return term.BlankNode(tok.text), nil
	case tokLBracket:
		return p.anonymous()
	case tokLParen:
		return nil, p.errorAt(tok, "RDF collections are not supported")
	case tokLQuote:
		return nil, p.errorAt(tok, "quoted triples are not supported")
	case tokString, tokInteger, tokDecimal, tokDouble:
		return nil, p.errorAt(tok, "literal cannot be a subject")
	case tokWord:
		if tok.text == "true" || tok.text == "false" {
			return nil, p.errorAt(tok, "literal cannot be a subject")
		}
	}
	return nil, p.errorAt(tok, "expected subject, found %s", describe(tok))
}

// anonymous accepts only the empty form [].
func (p *parser) anonymous() (term.Term, error) {
	open := p.next()
	if p.peek().kind != tokRBracket {
		return nil, p.errorAt(open, "blank node property lists are not supported")
	}
	p.next()
	p.anon++
	return term.BlankNode(anonPrefix + strconv.Itoa(p.anon)), nil
}

func (p *parser) predicateObjectList(subj term.Term) error {
	for {
		pred, err := p.verb()
		if err != nil {
			return err
		}
		if err := p.objectList(subj, pred); err != nil {
			return err
		}

		if p.peek().kind != tokSemicolon {
			return nil
		}
		for p.peek().kind == tokSemicolon {
			p.next()
		}
		// A trailing ';' before '.' is allowed.
		if k := p.peek().kind; k == tokDot || k == tokRBracket || k == tokEOF {
			return nil
		}
	}
}

func (p *parser) verb() (term.IRI, error) {
	tok := p.peek()
	switch tok.kind {
	case tokWord:
		if tok.text == "a" {
			p.next()
			return term.RDFType, nil
		}
	case tokIRI, tokPName:
		return p.iri()
	case tokBlank, tokLBracket:
		return "", p.errorAt(tok, "blank node cannot be a predicate")
	case tokString, tokInteger, tokDecimal, tokDouble:
		return "", p.errorAt(tok, "literal cannot be a predicate")
	}
	return "", p.errorAt(tok, "expected predicate, found %s", describe(tok))
}

func (p *parser) objectList(subj term.Term, pred term.IRI) error {
	for {
		obj, err := p.object()
		if err != nil {
			return err
		}
		p.triples = append(p.triples, term.Triple{S: subj, P: pred, O: obj})

		if tok := p.peek(); tok.kind == tokLAnnotate {
			return p.errorAt(tok, "annotation syntax is not supported")
		}
		if p.peek().kind != tokComma {
			return nil
		}
		p.next()
	}
}

func (p *parser) object() (term.Term, error) {
	tok := p.peek()
	switch tok.kind {
	case tokIRI, tokPName:
		return p.iri()
	case tokBlank:
		p.next()
		return term.BlankNode(tok.text), nil
	case tokLBracket:
		return p.anonymous()
	case tokLParen:
		return nil, p.errorAt(tok, "RDF collections are not supported")
	case tokLQuote:
		return nil, p.errorAt(tok, "quoted triples are not supported")
	case tokString:
		return p.literal()
	case tokInteger:
		p.next()
		return term.NewLiteral(tok.text, term.XSDInteger), nil
	case tokDecimal:
		p.next()
		return term.NewLiteral(tok.text, term.XSDDecimal), nil
	case tokDouble:
		p.next()
		return term.NewLiteral(tok.text, term.XSDDouble), nil
	case tokWord:
		if tok.text == "true" || tok.text == "false" {
			p.next()
			return term.NewLiteral(tok.text, term.XSDBoolean), nil
		}
	}
	return nil, p.errorAt(tok, "expected object, found %s", describe(tok))
}

func (p *parser) literal() (term.Term, error) {
	tok := p.next()
	lexical := p.normalize(tok.text)

	switch p.peek().kind {
	case tokAtWord:
		lang := p.next()
		return term.NewLangLiteral(lexical, lang.text), nil
	case tokCarets:
		p.next()
		dtTok := p.peek()
		if dtTok.kind != tokIRI && dtTok.kind != tokPName {
			return nil, p.errorAt(dtTok, "expected datatype IRI after '^^', found %s", describe(dtTok))
		}
		dt, err := p.iri()
		if err != nil {
			return nil, err
		}
		return term.NewLiteral(lexical, dt), nil
	}
	return term.NewString(lexical), nil
}

// iri consumes an IRIREF or prefixed name and returns the resolved IRI.
func (p *parser) iri() (term.IRI, error) {
	tok := p.next()
	switch tok.kind {
	case tokIRI:
		return p.resolve(tok.text), nil
	case tokPName:
		prefix, local, _ := strings.Cut(tok.text, ":")
		ns, ok := p.prefixes[prefix]
		if !ok {
			return "", p.errorAt(tok, "undefined prefix %q", prefix+":")
		}
		return term.IRI(p.normalize(ns + local)), nil
	}
	return "", p.errorAt(tok, "expected IRI, found %s", describe(tok))
}

func (p *parser) resolve(ref string) term.IRI {
	ref = p.normalize(ref)
	if p.base == nil {
		return term.IRI(ref)
	}
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return term.IRI(ref)
	}
	return term.IRI(p.base.ResolveReference(u).String())
}

func (p *parser) normalize(s string) string {
	if !p.opts.Normalize {
		return s
	}
	return term.NormalizeNFC(s)
}
