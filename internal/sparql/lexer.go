package sparql

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/roach88/typox/internal/rdferr"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokIRI
	tokPName
	tokVar
	tokBlank
	tokString
	tokLangTag
	tokInteger
	tokDecimal
	tokDouble
	tokWord
	tokPunct // { } ( ) [ ] . ; , * ^^ / | ^ + - ? = != < > <= >= && || !
)

type token struct {
	kind tokenKind
	text string
	line int
	col  int
}

func (t token) is(kind tokenKind, text string) bool {
	return t.kind == kind && t.text == text
}

// isKeyword reports whether t is the case-insensitive keyword kw.
func (t token) isKeyword(kw string) bool {
	return t.kind == tokWord && strings.EqualFold(t.text, kw)
}

func (t token) describe() string {
	switch t.kind {
	case tokEOF:
		return "end of query"
	case tokIRI:
		return "<" + t.text + ">"
	case tokVar:
		return "?" + t.text
	case tokBlank:
		return "_:" + t.text
	case tokString:
		return strconv.Quote(t.text)
	case tokLangTag:
		return "@" + t.text
	default:
		return "'" + t.text + "'"
	}
}

type lexer struct {
	src  string
	pos  int
	line int
	col  int
	prev tokenKind
}

func tokenize(src string) ([]token, error) {
	lx := &lexer{src: src, line: 1, col: 1}
	var toks []token
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		lx.prev = tok.kind
		if tok.kind == tokEOF {
			return toks, nil
		}
	}
}

// leadingTokens lexes src up to its first lexical error and ends the
// sequence with EOF there.
func leadingTokens(src string) []token {
	lx := &lexer{src: src, line: 1, col: 1}
	var toks []token
	for {
		tok, err := lx.next()
		if err != nil {
			return append(toks, token{kind: tokEOF, line: lx.line, col: lx.col})
		}
		toks = append(toks, tok)
		lx.prev = tok.kind
		if tok.kind == tokEOF {
			return toks
		}
	}
}

func (lx *lexer) errorf(line, col int, format string, args ...any) error {
	return rdferr.NewParseError("sparql", line, col, format, args...)
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

func (lx *lexer) peek() rune { return lx.peekAt(0) }

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

func (lx *lexer) takeWhile(ok func(rune) bool) string {
	start := lx.pos
	for lx.pos < len(lx.src) && ok(lx.peek()) {
		lx.advance()
	}
	return lx.src[start:lx.pos]
}

func (lx *lexer) next() (token, error) {
	for lx.pos < len(lx.src) {
		r := lx.peek()
		if r == '#' {
			lx.takeWhile(func(r rune) bool { return r != '\n' })
			continue
		}
		if !unicode.IsSpace(r) {
			break
		}
		lx.advance()
	}

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
		if iri, ok := lx.scanIRI(); ok {
			return tok(tokIRI, iri)
		}
		lx.advance()
		if lx.peek() == '=' {
			lx.advance()
			return tok(tokPunct, "<=")
		}
		return tok(tokPunct, "<")
	case r == '?' || r == '$':
		if isVarChar(lx.peekAt(1)) {
			lx.advance()
			return tok(tokVar, lx.takeWhile(isVarChar))
		}
		lx.advance()
		return tok(tokPunct, string(r))
	case r == '_' && lx.peekAt(1) == ':':
		lx.advance()
		lx.advance()
		label := lx.takeWhile(func(r rune) bool {
			return isNameChar(r) || (r == '.' && isNameChar(lx.peekAt(1)))
		})
		if label == "" {
			return token{}, lx.errorf(line, col, "empty blank node label")
		}
		return tok(tokBlank, label)
	case r == '"' || r == '\'':
		s, err := lx.lexString()
		if err != nil {
			return token{}, err
		}
		return tok(tokString, s)
	case r == '@' && lx.prev == tokString:
		lx.advance()
		lang := lx.takeWhile(func(r rune) bool {
			return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-'
		})
		if lang == "" {
			return token{}, lx.errorf(line, col, "empty language tag")
		}
		return tok(tokLangTag, lang)
	case isDigit(r) || (r == '.' && isDigit(lx.peekAt(1))):
		return lx.lexNumber(line, col)
	case r == ':' || unicode.IsLetter(r):
		return lx.lexWord(line, col)
	}

	two := string(r)
	if nx := lx.peekAt(1); nx >= 0 {
		two += string(nx)
	}
	switch two {
	case "^^", "!=", ">=", "&&", "||":
		lx.advance()
		lx.advance()
		return tok(tokPunct, two)
	}
	if strings.ContainsRune("{}()[].;,*/|^+-=>!", r) {
		lx.advance()
		return tok(tokPunct, string(r))
	}
	return token{}, lx.errorf(line, col, "unexpected character %q", r)
}

// scanIRI tries to read an IRIREF at the current position. It fails,
// consuming nothing, when the text between '<' and '>' contains characters
// an IRI cannot, which is how "<" as an operator is told apart.
func (lx *lexer) scanIRI() (string, bool) {
	end := -1
	for i := lx.pos + 1; i < len(lx.src); i++ {
		c := lx.src[i]
		if c == '>' {
			end = i
			break
		}
		if c <= 0x20 || strings.IndexByte(`<"{}|^`+"`\\", c) >= 0 {
			return "", false
		}
	}
	if end < 0 {
		return "", false
	}
	iri := lx.src[lx.pos+1 : end]
	for lx.pos <= end {
		lx.advance()
	}
	return iri, true
}

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
			el, ec := lx.line, lx.col
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
				n := 4
				if esc == 'U' {
					n = 8
				}
				if lx.pos+n > len(lx.src) {
					return "", lx.errorf(el, ec, "truncated \\%c escape", esc)
				}
				v, err := strconv.ParseUint(lx.src[lx.pos:lx.pos+n], 16, 32)
				if err != nil || !utf8.ValidRune(rune(v)) {
					return "", lx.errorf(el, ec, "invalid \\%c escape", esc)
				}
				for i := 0; i < n; i++ {
					lx.advance()
				}
				b.WriteRune(rune(v))
			default:
				return "", lx.errorf(el, ec, "invalid escape \\%c in string", esc)
			}
		case (r == '\n' || r == '\r') && !long:
			return "", lx.errorf(lx.line, lx.col, "newline in short string")
		default:
			b.WriteRune(lx.advance())
		}
	}
}

func (lx *lexer) lexNumber(line, col int) (token, error) {
	start := lx.pos
	lx.takeWhile(isDigit)
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
	return token{kind: kind, text: lx.src[start:lx.pos], line: line, col: col}, nil
}

// lexWord reads a keyword, function name, or prefixed name.
func (lx *lexer) lexWord(line, col int) (token, error) {
	start := lx.pos
	if lx.peek() != ':' {
		lx.takeWhile(func(r rune) bool {
			return isNameChar(r) || (r == '.' && isNameChar(lx.peekAt(1)))
		})
	}
	if lx.peek() != ':' {
		return token{kind: tokWord, text: lx.src[start:lx.pos], line: line, col: col}, nil
	}
	lx.advance()
	for lx.pos < len(lx.src) {
		r := lx.peek()
		switch {
		case isNameChar(r) || r == ':':
			lx.advance()
		case r == '.' && (isNameChar(lx.peekAt(1)) || lx.peekAt(1) == ':'):
			lx.advance()
		case r == '%' && isHex(lx.peekAt(1)) && isHex(lx.peekAt(2)):
			lx.advance()
			lx.advance()
			lx.advance()
		default:
			return token{kind: tokPName, text: lx.src[start:lx.pos], line: line, col: col}, nil
		}
	}
	return token{kind: tokPName, text: lx.src[start:lx.pos], line: line, col: col}, nil
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isHex(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isNameChar(r rune) bool {
	return r == '_' || r == '-' || isDigit(r) || unicode.IsLetter(r) || r == 0xB7
}

func isVarChar(r rune) bool {
	return r == '_' || isDigit(r) || unicode.IsLetter(r) || r == 0xB7
}
