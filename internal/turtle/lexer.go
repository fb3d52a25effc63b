package turtle

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/roach88/typox/internal/rdferr"
)

type tokenKind uint8

const (
	tokEOF    tokenKind = iota
	tokIRI              // <...>, text is the unescaped IRI
	tokPName            // prefix:local, text is the raw name
	tokBlank            // _:label, text is the label
	tokString           // quoted string, text is the unescaped value
	tokAtWord           // @prefix, @base or a language tag; text excludes '@'
	tokInteger
	tokDecimal
	tokDouble
	tokWord // bare keyword: a, true, false, PREFIX, BASE, ...
	tokDot
	tokSemicolon
	tokComma
	tokCarets    // ^^
	tokLBracket  // [
	tokRBracket  // ]
	tokLParen    // (
	tokRParen    // )
	tokLQuote    // <<
	tokRQuote    // >>
	tokLAnnotate // {|
	tokRAnnotate // |}
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokIRI:
		return "IRI"
	case tokPName:
		return "prefixed name"
	case tokBlank:
		return "blank node"
	case tokString:
		return "string"
	case tokAtWord:
		return "'@' directive or language tag"
	case tokInteger, tokDecimal, tokDouble:
		return "number"
	case tokWord:
		return "keyword"
	case tokDot:
		return "'.'"
	case tokSemicolon:
		return "';'"
	case tokComma:
		return "','"
	case tokCarets:
		return "'^^'"
	case tokLBracket:
		return "'['"
	case tokRBracket:
		return "']'"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokLQuote:
		return "'<<'"
	case tokRQuote:
		return "'>>'"
	case tokLAnnotate:
		return "'{|'"
	case tokRAnnotate:
		return "'|}'"
	default:
		return "token"
	}
}

type token struct {
	kind tokenKind
	text string
	line int
	col  int
}

// lexer turns Turtle text into tokens. Positions are 1-based and count
// runes, not bytes.
type lexer struct {
	src  string
	pos  int
	line int
	col  int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1, col: 1}
}

// tokenize lexes the whole input.
func tokenize(src string) ([]token, error) {
	lx := newLexer(src)
	var toks []token
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.kind == tokEOF {
			return toks, nil
		}
	}
}

func (lx *lexer) errorf(line, col int, format string, args ...any) error {
	return rdferr.NewParseError("turtle", line, col, format, args...)
}

func (lx *lexer) peek() rune {
	if lx.pos >= len(lx.src) {
		return -1
	}
	r, _ := utf8.DecodeRuneInString(lx.src[lx.pos:])
	return r
}

func (lx *lexer) peekAt(offset int) rune {
	p := lx.pos
	for i := 0; i < offset; i++ {
		if p >= len(lx.src) {
			return -1
		}
		_, size := utf8.DecodeRuneInString(lx.src[p:])
		p += size
	}
	if p >= len(lx.src) {
		return -1
	}
	r, _ := utf8.DecodeRuneInString(lx.src[p:])
	return r
}

func (lx *lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(lx.src[lx.pos:])
	lx.pos += size
	if r == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
	return r
}

func (lx *lexer) skipSpaceAndComments() {
	for lx.pos < len(lx.src) {
		r := lx.peek()
		switch {
		case r == '#':
			for lx.pos < len(lx.src) && lx.peek() != '\n' {
				lx.advance()
			}
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			lx.advance()
		default:
			return
		}
	}
}

func (lx *lexer) next() (token, error) {
	lx.skipSpaceAndComments()
	line, col := lx.line, lx.col
	tok := func(kind tokenKind, text string) (token, error) {
		return token{kind: kind, text: text, line: line, col: col}, nil
	}

	if lx.pos >= len(lx.src) {
		return tok(tokEOF, "")
	}

	r := lx.peek()
	switch {
	case r == '<':
		if lx.peekAt(1) == '<' {
			lx.advance()
			lx.advance()
			return tok(tokLQuote, "<<")
		}
		iri, err := lx.lexIRI()
		if err != nil {
			return token{}, err
		}
		return tok(tokIRI, iri)
	case r == '>' && lx.peekAt(1) == '>':
		lx.advance()
		lx.advance()
		return tok(tokRQuote, ">>")
	case r == '"' || r == '\'':
		s, err := lx.lexString()
		if err != nil {
			return token{}, err
		}
		return tok(tokString, s)
	case r == '@':
		lx.advance()
		word := lx.takeWhile(func(r rune) bool {
			return isASCIILetter(r) || r == '-' || (r >= '0' && r <= '9')
		})
		if word == "" {
			return token{}, lx.errorf(line, col, "expected directive or language tag after '@'")
		}
		return tok(tokAtWord, word)
	case r == '_' && lx.peekAt(1) == ':':
		lx.advance()
		lx.advance()
		label := lx.lexNameChars(true)
		if label == "" {
			return token{}, lx.errorf(line, col, "empty blank node label")
		}
		return tok(tokBlank, label)
	case r == '^' && lx.peekAt(1) == '^':
		lx.advance()
		lx.advance()
		return tok(tokCarets, "^^")
	case r == '{' && lx.peekAt(1) == '|':
		lx.advance()
		lx.advance()
		return tok(tokLAnnotate, "{|")
	case r == '|' && lx.peekAt(1) == '}':
		lx.advance()
		lx.advance()
		return tok(tokRAnnotate, "|}")
	case r == '.':
		if isDigit(lx.peekAt(1)) {
			return lx.lexNumber(line, col)
		}
		lx.advance()
		return tok(tokDot, ".")
	case r == ';':
		lx.advance()
		return tok(tokSemicolon, ";")
	case r == ',':
		lx.advance()
		return tok(tokComma, ",")
	case r == '[':
		lx.advance()
		return tok(tokLBracket, "[")
	case r == ']':
		lx.advance()
		return tok(tokRBracket, "]")
	case r == '(':
		lx.advance()
		return tok(tokLParen, "(")
	case r == ')':
		lx.advance()
		return tok(tokRParen, ")")
	case r == '+' || r == '-' || isDigit(r):
		return lx.lexNumber(line, col)
	case r == ':' || isPNCharsBase(r):
		return lx.lexNameOrKeyword(line, col)
	}

	return token{}, lx.errorf(line, col, "unexpected character %q", r)
}

func (lx *lexer) takeWhile(ok func(rune) bool) string {
	start := lx.pos
	for lx.pos < len(lx.src) && ok(lx.peek()) {
		lx.advance()
	}
	return lx.src[start:lx.pos]
}

// lexIRI reads <...> and decodes UCHAR escapes.
func (lx *lexer) lexIRI() (string, error) {
	line, col := lx.line, lx.col
	lx.advance() // <
	var b strings.Builder
	for {
		if lx.pos >= len(lx.src) {
			return "", lx.errorf(line, col, "unterminated IRI")
		}
		rl, rc := lx.line, lx.col
		r := lx.advance()
		switch {
		case r == '>':
			return b.String(), nil
		case r == '\\':
			if lx.pos >= len(lx.src) {
				return "", lx.errorf(line, col, "unterminated IRI")
			}
			esc := lx.advance()
			if esc != 'u' && esc != 'U' {
				return "", lx.errorf(lx.line, lx.col, "invalid escape \\%c in IRI", esc)
			}
			u, err := lx.lexUCHAR(esc)
			if err != nil {
				return "", err
			}
			b.WriteRune(u)
		case r <= 0x20 || strings.ContainsRune(`<"{}|^`+"`", r):
			return "", lx.errorf(rl, rc, "invalid character %q in IRI", r)
		default:
			b.WriteRune(r)
		}
	}
}

func (lx *lexer) lexUCHAR(kind rune) (rune, error) {
	n := 4
	if kind == 'U' {
		n = 8
	}
	line, col := lx.line, lx.col
	if lx.pos+n > len(lx.src) {
		return 0, lx.errorf(line, col, "truncated \\%c escape", kind)
	}
	hex := lx.src[lx.pos : lx.pos+n]
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil || !utf8.ValidRune(rune(v)) {
		return 0, lx.errorf(line, col, "invalid \\%c escape %q", kind, hex)
	}
	for i := 0; i < n; i++ {
		lx.advance()
	}
	return rune(v), nil
}

// lexString reads short or long strings with either quote character.
func (lx *lexer) lexString() (string, error) {
	line, col := lx.line, lx.col
	q := lx.advance()
	long := false
	if lx.peek() == q && lx.peekAt(1) == q {
		lx.advance()
		lx.advance()
		long = true
	}

	var b strings.Builder
	for {
		if lx.pos >= len(lx.src) {
			return "", lx.errorf(line, col, "unterminated string")
		}
		r := lx.peek()
		switch {
		case r == q && !long:
			lx.advance()
			return b.String(), nil
		case r == q && long && lx.peekAt(1) == q && lx.peekAt(2) == q:
			lx.advance()
			lx.advance()
			lx.advance()
			return b.String(), nil
		case r == '\\':
			lx.advance()
			if lx.pos >= len(lx.src) {
				return "", lx.errorf(line, col, "unterminated string")
			}
			esc := lx.advance()
			switch esc {
			case 't':
				b.WriteByte('\t')
			case 'b':
				b.WriteByte('\b')
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 'f':
				b.WriteByte('\f')
			case '"', '\'', '\\':
				b.WriteRune(esc)
			case 'u', 'U':
				u, err := lx.lexUCHAR(esc)
				if err != nil {
					return "", err
				}
				b.WriteRune(u)
			default:
				return "", lx.errorf(lx.line, lx.col-1, "invalid escape \\%c in string", esc)
			}
		case (r == '\n' || r == '\r') && !long:
			return "", lx.errorf(lx.line, lx.col, "newline in short string")
		default:
			b.WriteRune(lx.advance())
		}
	}
}

// lexNumber reads INTEGER, DECIMAL or DOUBLE. A trailing '.' that is not
// followed by a digit ends the statement and is left for the next token.
func (lx *lexer) lexNumber(line, col int) (token, error) {
	start := lx.pos
	if r := lx.peek(); r == '+' || r == '-' {
		lx.advance()
	}
	intDigits := lx.takeWhile(isDigit)
	kind := tokInteger

	if lx.peek() == '.' && isDigit(lx.peekAt(1)) {
		lx.advance()
		lx.takeWhile(isDigit)
		kind = tokDecimal
	}
	if r := lx.peek(); r == 'e' || r == 'E' {
		lx.advance()
		if r := lx.peek(); r == '+' || r == '-' {
			lx.advance()
		}
		if lx.takeWhile(isDigit) == "" {
			return token{}, lx.errorf(lx.line, lx.col, "malformed exponent in number")
		}
		kind = tokDouble
	}

	text := lx.src[start:lx.pos]
	if intDigits == "" && kind == tokInteger {
		return token{}, lx.errorf(line, col, "expected digits after sign")
	}
	return token{kind: kind, text: text, line: line, col: col}, nil
}

// lexNameOrKeyword reads a prefixed name (prefix:local, :local, prefix:)
// or a bare keyword.
func (lx *lexer) lexNameOrKeyword(line, col int) (token, error) {
	prefix := ""
	if lx.peek() != ':' {
		prefix = lx.lexNameChars(false)
	}
	if lx.peek() != ':' {
		if prefix == "" {
			return token{}, lx.errorf(line, col, "unexpected character %q", lx.peek())
		}
		return token{kind: tokWord, text: prefix, line: line, col: col}, nil
	}
	lx.advance() // :
	local, err := lx.lexLocal()
	if err != nil {
		return token{}, err
	}
	return token{kind: tokPName, text: prefix + ":" + local, line: line, col: col}, nil
}

// lexNameChars reads PN_CHARS with interior dots; a trailing dot is not
// consumed.
func (lx *lexer) lexNameChars(allowLeadingDigit bool) string {
	start := lx.pos
	first := true
	for lx.pos < len(lx.src) {
		r := lx.peek()
		ok := isPNChars(r)
		if first {
			ok = isPNCharsBase(r) || r == '_' || (allowLeadingDigit && isDigit(r))
		}
		if r == '.' && !first && isPNChars(lx.peekAt(1)) {
			ok = true
		}
		if !ok {
			break
		}
		lx.advance()
		first = false
	}
	return lx.src[start:lx.pos]
}

// lexLocal reads PN_LOCAL, including ':' and backslash escapes.
func (lx *lexer) lexLocal() (string, error) {
	var b strings.Builder
	for lx.pos < len(lx.src) {
		r := lx.peek()
		switch {
		case r == '\\':
			lx.advance()
			esc := lx.peek()
			if esc < 0 || !strings.ContainsRune(`_~.-!$&'()*+,;=/?#@%`, esc) {
				return "", lx.errorf(lx.line, lx.col, "invalid escape in local name")
			}
			b.WriteRune(lx.advance())
		case r == '%':
			if !isHex(lx.peekAt(1)) || !isHex(lx.peekAt(2)) {
				return "", lx.errorf(lx.line, lx.col, "invalid percent encoding in local name")
			}
			b.WriteRune(lx.advance())
			b.WriteRune(lx.advance())
			b.WriteRune(lx.advance())
		case r == '.':
			nx := lx.peekAt(1)
			if !(isPNChars(nx) || nx == ':' || nx == '%' || nx == '\\') {
				return b.String(), nil
			}
			b.WriteRune(lx.advance())
		case isPNChars(r) || r == ':':
			b.WriteRune(lx.advance())
		default:
			return b.String(), nil
		}
	}
	return b.String(), nil
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isHex(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isPNCharsBase(r rune) bool {
	if isASCIILetter(r) {
		return true
	}
	return r >= 0xC0 && r != 0xD7 && r != 0xF7 && unicode.IsPrint(r) && !unicode.IsSpace(r)
}

func isPNChars(r rune) bool {
	return isPNCharsBase(r) || r == '_' || r == '-' || isDigit(r) || r == 0xB7
}
