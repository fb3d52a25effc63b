package term

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Kind identifies the variant of a Term.
// The numeric order is the ordering used by Compare: blank < IRI < literal.
type Kind uint8

const (
	KindBlank Kind = iota + 1
	KindIRI
	KindLiteral
)

func (k Kind) String() string {
	switch k {
	case KindBlank:
		return "blank"
	case KindIRI:
		return "iri"
	case KindLiteral:
		return "literal"
	default:
		return "unknown"
	}
}

// Term is a sealed interface over the three RDF term variants.
// Only IRI, BlankNode and Literal implement it.
type Term interface {
	Kind() Kind
	// String returns the N-Triples serialization of the term.
	String() string
	term() // Sealed
}

// IRI is an absolute IRI reference, stored without angle brackets.
type IRI string

func (IRI) term() {}

// Kind returns KindIRI.
func (IRI) Kind() Kind { return KindIRI }

// String returns the IRI in angle brackets.
func (i IRI) String() string { return "<" + string(i) + ">" }

// Value returns the bare IRI string.
func (i IRI) Value() string { return string(i) }

// BlankNode is a blank node identified by a label scoped to one store
// (or, before it is applied, to one parsed document).
type BlankNode string

func (BlankNode) term() {}

// Kind returns KindBlank.
func (BlankNode) Kind() Kind { return KindBlank }

// String returns the label prefixed with "_:".
func (b BlankNode) String() string { return "_:" + string(b) }

// ID returns the label without the "_:" prefix.
func (b BlankNode) ID() string { return string(b) }

// Equal reports whether two terms are structurally identical.
// A nil term is only equal to another nil term.
func Equal(a, b Term) bool {
	return a == b
}

// Key returns the dedupe/index key for a term.
func Key(t Term) string {
	if t == nil {
		return ""
	}
	return t.String()
}

// NormalizeNFC returns s in Unicode normalization form C.
// The loader and the query parser apply it once at parse time so that
// matching never has to normalize.
func NormalizeNFC(s string) string {
	if isASCII(s) {
		return s
	}
	return norm.NFC.String(s)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// escapeLexical escapes a lexical form for N-Triples output.
func escapeLexical(s string) string {
	if !strings.ContainsAny(s, "\\\"\n\r\t") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
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
