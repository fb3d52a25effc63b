package sparql

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/roach88/typox/internal/rdferr"
	"github.com/roach88/typox/internal/term"
)

// Options configures query parsing.
type Options struct {
	// Normalize applies Unicode NFC to IRIs and literal lexical forms, the
	// same normalization the loader applies to data.
	Normalize bool
}

// Parse parses a SELECT query.
//
// Malformed text fails with *rdferr.ParseError. Syntactically recognized
// constructs outside the supported subset fail with *rdferr.EvaluationError
// (code UNSUPPORTED) before any evaluation happens.
func Parse(text string, opts Options) (*Query, error) {
	toks, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	p := &parser{
		toks:     toks,
		opts:     opts,
		prefixes: term.WellKnownPrefixes(),
		declared: make(map[string]string),
		seen:     make(map[string]bool),
	}
	return p.query()
}

// DeclaredPrefixes returns the PREFIX declarations of a query's prologue.
// Nothing after the prologue is checked, so text outside the supported
// subset still yields its prefixes; a malformed prologue yields the
// declarations before the fault.
func DeclaredPrefixes(text string) map[string]string {
	p := &parser{
		toks:     leadingTokens(text),
		prefixes: term.WellKnownPrefixes(),
		declared: make(map[string]string),
		seen:     make(map[string]bool),
	}
	_ = p.prologue()
	return p.declared
}

type parser struct {
	toks []token
	pos  int
	opts Options

	base *url.URL
	// prefixes resolves prefixed names: the well-known set overridden by
	// declared, which holds only the query's own PREFIX lines.
	prefixes map[string]string
	declared map[string]string
	anon     int

	// pattern variables in order of first appearance, for SELECT *
	order []string
	seen  map[string]bool
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) errorAt(tok token, format string, args ...any) error {
	return rdferr.NewParseError("sparql", tok.line, tok.col, format, args...)
}

func (p *parser) unsupported(tok token, construct string) error {
	return rdferr.NewUnsupportedError(construct, fmt.Sprintf("at line %d, column %d", tok.line, tok.col))
}

func (p *parser) expectPunct(text string) error {
	tok := p.next()
	if !tok.is(tokPunct, text) {
		return p.errorAt(tok, "expected '%s', found %s", text, tok.describe())
	}
	return nil
}

func (p *parser) query() (*Query, error) {
	if err := p.prologue(); err != nil {
		return nil, err
	}

	tok := p.peek()
	switch {
	case tok.isKeyword("SELECT"):
		return p.selectQuery()
	case tok.isKeyword("CONSTRUCT"), tok.isKeyword("ASK"), tok.isKeyword("DESCRIBE"),
		tok.isKeyword("INSERT"), tok.isKeyword("DELETE"), tok.isKeyword("LOAD"),
		tok.isKeyword("CLEAR"), tok.isKeyword("CREATE"), tok.isKeyword("DROP"),
		tok.isKeyword("COPY"), tok.isKeyword("MOVE"), tok.isKeyword("ADD"),
		tok.isKeyword("WITH"):
		return nil, p.unsupported(tok, strings.ToUpper(tok.text))
	}
	return nil, p.errorAt(tok, "expected SELECT, found %s", tok.describe())
}

func (p *parser) prologue() error {
	for {
		tok := p.peek()
		switch {
		case tok.isKeyword("PREFIX"):
			p.next()
			name := p.next()
			if name.kind != tokPName || !strings.HasSuffix(name.text, ":") || strings.Count(name.text, ":") != 1 {
				return p.errorAt(name, "expected prefix name ending in ':', found %s", name.describe())
			}
			iri := p.next()
			if iri.kind != tokIRI {
				return p.errorAt(iri, "expected IRI, found %s", iri.describe())
			}
			prefix, ns := strings.TrimSuffix(name.text, ":"), string(p.resolve(iri.text))
			p.prefixes[prefix] = ns
			p.declared[prefix] = ns
		case tok.isKeyword("BASE"):
			p.next()
			iri := p.next()
			if iri.kind != tokIRI {
				return p.errorAt(iri, "expected IRI, found %s", iri.describe())
			}
			base, err := url.Parse(string(p.resolve(iri.text)))
			if err != nil {
				return p.errorAt(iri, "invalid base IRI %s", iri.describe())
			}
			p.base = base
		default:
			return nil
		}
	}
}

func (p *parser) selectQuery() (*Query, error) {
	p.next() // SELECT
	q := &Query{Limit: -1}

	switch {
	case p.peek().isKeyword("DISTINCT"):
		p.next()
		q.Distinct = true
	case p.peek().isKeyword("REDUCED"):
		p.next()
	}

	if p.peek().is(tokPunct, "*") {
		p.next()
		q.Star = true
	} else {
		projected := make(map[string]bool)
		for {
			tok := p.peek()
			if tok.kind == tokVar {
				p.next()
				if !projected[tok.text] {
					projected[tok.text] = true
					q.Variables = append(q.Variables, tok.text)
				}
				continue
			}
			if tok.is(tokPunct, "(") {
				inner := p.peekAt(1)
				if name, ok := unsupportedFunctions[strings.ToLower(inner.text)]; ok && inner.kind == tokWord {
					return nil, p.unsupported(inner, name)
				}
				return nil, p.unsupported(tok, "PROJECTION EXPRESSION")
			}
			break
		}
		if len(q.Variables) == 0 {
			tok := p.peek()
			return nil, p.errorAt(tok, "expected variables or '*' after SELECT, found %s", tok.describe())
		}
	}

	if tok := p.peek(); tok.isKeyword("FROM") {
		return nil, p.unsupported(tok, "FROM")
	}
	if p.peek().isKeyword("WHERE") {
		p.next()
	}
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	where, filters, err := p.groupBody(true)
	if err != nil {
		return nil, err
	}
	q.Where = where
	q.Filters = filters

	if err := p.solutionModifiers(q); err != nil {
		return nil, err
	}

	if tok := p.peek(); tok.isKeyword("VALUES") {
		return nil, p.unsupported(tok, "VALUES")
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, p.errorAt(tok, "unexpected %s after query", tok.describe())
	}

	if q.Star {
		q.Variables = append([]string(nil), p.order...)
	}
	q.Prefixes = p.declared
	return q, nil
}

// groupBody parses the inside of { ... } after the opening brace. top is
// false inside OPTIONAL, where another OPTIONAL is rejected.
func (p *parser) groupBody(top bool) ([]Element, []Expr, error) {
	var elems []Element
	var filters []Expr

	for {
		tok := p.peek()
		switch {
		case tok.is(tokPunct, "}"):
			p.next()
			if tok := p.peek(); tok.isKeyword("UNION") {
				return nil, nil, p.unsupported(tok, "UNION")
			}
			return elems, filters, nil
		case tok.kind == tokEOF:
			return nil, nil, p.errorAt(tok, "unterminated group, expected '}'")
		case tok.is(tokPunct, "."):
			p.next()
		case tok.isKeyword("OPTIONAL"):
			if !top {
				return nil, nil, p.unsupported(tok, "NESTED OPTIONAL")
			}
			p.next()
			if err := p.expectPunct("{"); err != nil {
				return nil, nil, err
			}
			inner, innerFilters, err := p.groupBody(false)
			if err != nil {
				return nil, nil, err
			}
			group := OptionalGroup{Filters: innerFilters}
			for _, e := range inner {
				group.Patterns = append(group.Patterns, e.(TriplePattern))
			}
			elems = append(elems, group)
		case tok.isKeyword("FILTER"):
			p.next()
			e, err := p.constraint()
			if err != nil {
				return nil, nil, err
			}
			filters = append(filters, e)
		case tok.is(tokPunct, "{"):
			if p.peekAt(1).isKeyword("SELECT") {
				return nil, nil, p.unsupported(tok, "SUBQUERY")
			}
			return nil, nil, p.unsupported(tok, p.nestedGroupConstruct())
		case tok.isKeyword("UNION"), tok.isKeyword("MINUS"), tok.isKeyword("BIND"),
			tok.isKeyword("VALUES"), tok.isKeyword("SERVICE"), tok.isKeyword("GRAPH"):
			return nil, nil, p.unsupported(tok, strings.ToUpper(tok.text))
		default:
			patterns, err := p.triplesSameSubject()
			if err != nil {
				return nil, nil, err
			}
			for _, tp := range patterns {
				elems = append(elems, tp)
			}
		}
	}
}

// nestedGroupConstruct names what a nested { ... } is part of by looking
// past its closing brace.
func (p *parser) nestedGroupConstruct() string {
	depth := 0
	for i := p.pos; i < len(p.toks); i++ {
		tok := p.toks[i]
		switch {
		case tok.is(tokPunct, "{"):
			depth++
		case tok.is(tokPunct, "}"):
			depth--
			if depth == 0 {
				if i+1 < len(p.toks) && p.toks[i+1].isKeyword("UNION") {
					return "UNION"
				}
				return "NESTED GROUP"
			}
		}
	}
	return "NESTED GROUP"
}

func (p *parser) triplesSameSubject() ([]TriplePattern, error) {
	subj, err := p.node(false)
	if err != nil {
		return nil, err
	}

	var patterns []TriplePattern
	for {
		pred, err := p.verb()
		if err != nil {
			return nil, err
		}
		for {
			obj, err := p.node(true)
			if err != nil {
				return nil, err
			}
			patterns = append(patterns, TriplePattern{S: subj, P: pred, O: obj})
			if !p.peek().is(tokPunct, ",") {
				break
			}
			p.next()
		}

		if !p.peek().is(tokPunct, ";") {
			return patterns, nil
		}
		for p.peek().is(tokPunct, ";") {
			p.next()
		}
		if tok := p.peek(); tok.is(tokPunct, ".") || tok.is(tokPunct, "}") {
			return patterns, nil
		}
	}
}

func (p *parser) verb() (Node, error) {
	tok := p.peek()
	var n Node
	switch {
	case tok.kind == tokWord && tok.text == "a":
		p.next()
		n = Node{Term: term.RDFType}
	case tok.kind == tokVar:
		p.next()
		n = p.variable(tok.text)
	case tok.kind == tokIRI || tok.kind == tokPName:
		iri, err := p.iri()
		if err != nil {
			return Node{}, err
		}
		n = Node{Term: iri}
	case tok.is(tokPunct, "^"), tok.is(tokPunct, "("), tok.is(tokPunct, "!"):
		return Node{}, p.unsupported(tok, "PROPERTY PATH")
	case tok.kind == tokBlank, tok.is(tokPunct, "["):
		return Node{}, p.errorAt(tok, "blank node cannot be a predicate")
	default:
		return Node{}, p.errorAt(tok, "expected predicate, found %s", tok.describe())
	}

	if tok := p.peek(); tok.kind == tokPunct {
		switch tok.text {
		case "/", "|", "*", "+", "?", "^":
			return Node{}, p.unsupported(tok, "PROPERTY PATH")
		}
	}
	return n, nil
}

// node parses a subject or object position.
func (p *parser) node(object bool) (Node, error) {
	tok := p.peek()
	switch {
	case tok.kind == tokVar:
		p.next()
		return p.variable(tok.text), nil
	case tok.kind == tokIRI || tok.kind == tokPName:
		iri, err := p.iri()
		if err != nil {
			return Node{}, err
		}
		return Node{Term: iri}, nil
	case tok.kind == tokBlank:
		p.next()
		return p.variable("_:" + tok.text), nil
	case tok.is(tokPunct, "["):
		if p.peekAt(1).is(tokPunct, "]") {
			p.next()
			p.next()
			p.anon++
			return p.variable("_:.anon" + strconv.Itoa(p.anon)), nil
		}
		return Node{}, p.unsupported(tok, "BLANK NODE PROPERTY LIST")
	case tok.is(tokPunct, "("):
		return Node{}, p.unsupported(tok, "COLLECTION")
	case object || tok.kind == tokString || tok.kind == tokInteger || tok.kind == tokDecimal || tok.kind == tokDouble:
		lit, err := p.literal()
		if err != nil {
			return Node{}, err
		}
		return Node{Term: lit}, nil
	}
	return Node{}, p.errorAt(tok, "expected subject, found %s", tok.describe())
}

func (p *parser) variable(name string) Node {
	if !p.seen[name] {
		p.seen[name] = true
		if !isHidden(name) {
			p.order = append(p.order, name)
		}
	}
	return Node{Var: name}
}

// literal parses a string, number or boolean constant.
func (p *parser) literal() (term.Term, error) {
	tok := p.next()
	switch tok.kind {
	case tokString:
		lexical := p.normalize(tok.text)
		if p.peek().kind == tokLangTag {
			return term.NewLangLiteral(lexical, p.next().text), nil
		}
		if p.peek().is(tokPunct, "^^") {
			p.next()
			dt, err := p.iri()
			if err != nil {
				return nil, err
			}
			return term.NewLiteral(lexical, dt), nil
		}
		return term.NewString(lexical), nil
	case tokInteger:
		return term.NewLiteral(tok.text, term.XSDInteger), nil
	case tokDecimal:
		return term.NewLiteral(tok.text, term.XSDDecimal), nil
	case tokDouble:
		return term.NewLiteral(tok.text, term.XSDDouble), nil
	case tokWord:
		if strings.EqualFold(tok.text, "true") || strings.EqualFold(tok.text, "false") {
			return term.NewLiteral(strings.ToLower(tok.text), term.XSDBoolean), nil
		}
	}
	return nil, p.errorAt(tok, "expected term, found %s", tok.describe())
}

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
	return "", p.errorAt(tok, "expected IRI, found %s", tok.describe())
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

func (p *parser) solutionModifiers(q *Query) error {
	if tok := p.peek(); tok.isKeyword("GROUP") {
		return p.unsupported(tok, "GROUP BY")
	}
	if tok := p.peek(); tok.isKeyword("HAVING") {
		return p.unsupported(tok, "HAVING")
	}

	if p.peek().isKeyword("ORDER") {
		p.next()
		if tok := p.next(); !tok.isKeyword("BY") {
			return p.errorAt(tok, "expected BY after ORDER, found %s", tok.describe())
		}
		keys, err := p.orderKeys()
		if err != nil {
			return err
		}
		q.OrderBy = keys
	}

	seenLimit, seenOffset := false, false
	for {
		tok := p.peek()
		switch {
		case tok.isKeyword("LIMIT") && !seenLimit:
			p.next()
			n, err := p.count("LIMIT")
			if err != nil {
				return err
			}
			q.Limit = n
			seenLimit = true
		case tok.isKeyword("OFFSET") && !seenOffset:
			p.next()
			n, err := p.count("OFFSET")
			if err != nil {
				return err
			}
			q.Offset = n
			seenOffset = true
		default:
			return nil
		}
	}
}

func (p *parser) count(clause string) (int, error) {
	tok := p.next()
	if tok.kind != tokInteger {
		return 0, p.errorAt(tok, "expected non-negative integer after %s, found %s", clause, tok.describe())
	}
	n, err := strconv.Atoi(tok.text)
	if err != nil {
		return 0, p.errorAt(tok, "%s value %s is out of range", clause, tok.text)
	}
	return n, nil
}

func (p *parser) orderKeys() ([]OrderKey, error) {
	var keys []OrderKey
	for {
		tok := p.peek()
		switch {
		case tok.isKeyword("ASC"), tok.isKeyword("DESC"):
			p.next()
			if err := p.expectPunct("("); err != nil {
				return nil, err
			}
			e, err := p.expression()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			keys = append(keys, OrderKey{Expr: e, Descending: tok.isKeyword("DESC")})
		case tok.kind == tokVar:
			p.next()
			keys = append(keys, OrderKey{Expr: VarExpr{Name: tok.text}})
		case tok.is(tokPunct, "("), tok.kind == tokWord && isFunctionName(tok.text):
			e, err := p.constraint()
			if err != nil {
				return nil, err
			}
			keys = append(keys, OrderKey{Expr: e})
		default:
			if len(keys) == 0 {
				return nil, p.errorAt(tok, "expected ORDER BY key, found %s", tok.describe())
			}
			return keys, nil
		}
	}
}

func isFunctionName(name string) bool {
	lower := strings.ToLower(name)
	_, ok := builtins[lower]
	_, rejected := unsupportedFunctions[lower]
	return ok || rejected
}

// constraint parses the argument of FILTER: a bracketed expression or a
// bare function call.
func (p *parser) constraint() (Expr, error) {
	tok := p.peek()
	switch {
	case tok.is(tokPunct, "("):
		p.next()
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return e, nil
	case tok.kind == tokWord:
		return p.primary()
	}
	return nil, p.errorAt(tok, "expected '(' or function call, found %s", tok.describe())
}

func (p *parser) expression() (Expr, error) {
	left, err := p.andExpr()
	if err != nil {
		return nil, err
	}
	for p.peek().is(tokPunct, "||") {
		p.next()
		right, err := p.andExpr()
		if err != nil {
			return nil, err
		}
		left = OrExpr{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) andExpr() (Expr, error) {
	left, err := p.relational()
	if err != nil {
		return nil, err
	}
	for p.peek().is(tokPunct, "&&") {
		p.next()
		right, err := p.relational()
		if err != nil {
			return nil, err
		}
		left = AndExpr{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) relational() (Expr, error) {
	left, err := p.operand()
	if err != nil {
		return nil, err
	}
	tok := p.peek()
	if tok.kind == tokPunct {
		switch op := CompareOp(tok.text); op {
		case OpEq, OpNe, OpLt, OpGt, OpLe, OpGe:
			p.next()
			right, err := p.operand()
			if err != nil {
				return nil, err
			}
			return CompareExpr{Op: op, Left: left, Right: right}, nil
		}
	}
	if tok.isKeyword("IN") || tok.isKeyword("NOT") {
		return nil, p.unsupported(tok, "IN")
	}
	return left, nil
}

// operand parses a unary expression and rejects arithmetic after it.
func (p *parser) operand() (Expr, error) {
	e, err := p.unary()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind == tokPunct {
		switch tok.text {
		case "+", "-", "*", "/":
			return nil, p.unsupported(tok, "ARITHMETIC")
		}
	}
	return e, nil
}

func (p *parser) unary() (Expr, error) {
	tok := p.peek()
	switch {
	case tok.is(tokPunct, "!"):
		p.next()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return NotExpr{X: x}, nil
	case tok.is(tokPunct, "-"), tok.is(tokPunct, "+"):
		num := p.peekAt(1)
		if num.kind != tokInteger && num.kind != tokDecimal && num.kind != tokDouble {
			return nil, p.unsupported(tok, "ARITHMETIC")
		}
		p.next()
		lit, err := p.literal()
		if err != nil {
			return nil, err
		}
		l := lit.(term.Literal)
		lexical := l.Lexical()
		if tok.text == "-" {
			lexical = "-" + lexical
		}
		return TermExpr{Term: term.NewLiteral(lexical, l.Datatype())}, nil
	}
	return p.primary()
}

func (p *parser) primary() (Expr, error) {
	tok := p.peek()
	switch tok.kind {
	case tokVar:
		p.next()
		return VarExpr{Name: tok.text}, nil
	case tokIRI, tokPName:
		iri, err := p.iri()
		if err != nil {
			return nil, err
		}
		if call := p.peek(); call.is(tokPunct, "(") {
			return nil, p.unsupported(tok, "FUNCTION "+iri.String())
		}
		return TermExpr{Term: iri}, nil
	case tokString, tokInteger, tokDecimal, tokDouble:
		lit, err := p.literal()
		if err != nil {
			return nil, err
		}
		return TermExpr{Term: lit}, nil
	case tokPunct:
		if tok.text == "(" {
			p.next()
			e, err := p.expression()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return e, nil
		}
	case tokWord:
		lower := strings.ToLower(tok.text)
		if lower == "true" || lower == "false" {
			lit, err := p.literal()
			if err != nil {
				return nil, err
			}
			return TermExpr{Term: lit}, nil
		}
		if lower == "not" && p.peekAt(1).isKeyword("EXISTS") {
			return nil, p.unsupported(tok, "NOT EXISTS")
		}
		if name, ok := unsupportedFunctions[lower]; ok {
			return nil, p.unsupported(tok, name)
		}
		if _, ok := builtins[lower]; ok {
			return p.call(tok, lower)
		}
		if p.peekAt(1).is(tokPunct, "(") {
			return nil, p.unsupported(tok, "FUNCTION "+strings.ToUpper(tok.text))
		}
	}
	return nil, p.errorAt(tok, "expected expression, found %s", tok.describe())
}

func (p *parser) call(tok token, name string) (Expr, error) {
	p.next()
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var args []Expr
	if !p.peek().is(tokPunct, ")") {
		for {
			arg, err := p.expression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.peek().is(tokPunct, ",") {
				break
			}
			p.next()
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}

	if want := builtins[name]; len(args) != want {
		return nil, &rdferr.EvaluationError{
			Code:    rdferr.ErrCodeInvalidQuery,
			Message: fmt.Sprintf("%s() takes %d argument(s), got %d at line %d, column %d", tok.text, want, len(args), tok.line, tok.col),
		}
	}
	if name == "bound" {
		if _, ok := args[0].(VarExpr); !ok {
			return nil, &rdferr.EvaluationError{
				Code:    rdferr.ErrCodeInvalidQuery,
				Message: fmt.Sprintf("bound() requires a variable at line %d, column %d", tok.line, tok.col),
			}
		}
	}
	return CallExpr{Func: name, Args: args}, nil
}
