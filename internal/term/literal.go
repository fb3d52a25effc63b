package term

import (
	"strconv"
	"strings"
)

// DatatypeTag is the closed classification of a literal's datatype.
// It is computed once when the literal is constructed; the result codec
// and the filter evaluator switch on it instead of comparing IRIs.
type DatatypeTag uint8

const (
	TagOther DatatypeTag = iota
	TagInteger
	TagDecimal
	TagDouble
	TagBoolean
	TagPlainString
	TagLangString
)

func (t DatatypeTag) String() string {
	switch t {
	case TagInteger:
		return "Integer"
	case TagDecimal:
		return "Decimal"
	case TagDouble:
		return "Double"
	case TagBoolean:
		return "Boolean"
	case TagPlainString:
		return "PlainString"
	case TagLangString:
		return "LangString"
	default:
		return "Other"
	}
}

// IsNumeric reports whether the tag is Integer, Decimal or Double.
func (t DatatypeTag) IsNumeric() bool {
	return t == TagInteger || t == TagDecimal || t == TagDouble
}

// IsStringLike reports whether the tag is PlainString or LangString.
func (t DatatypeTag) IsStringLike() bool {
	return t == TagPlainString || t == TagLangString
}

// ClassifyDatatype returns the closed tag for a datatype IRI.
func ClassifyDatatype(dt IRI) DatatypeTag {
	if tag, ok := datatypeTags[dt]; ok {
		return tag
	}
	return TagOther
}

// Literal is an RDF literal. Fields are unexported so that the tag always
// agrees with the datatype; use the constructors.
type Literal struct {
	lexical  string
	datatype IRI
	lang     string
	tag      DatatypeTag
}

func (Literal) term() {}

// NewLiteral creates a typed literal. An empty datatype means xsd:string.
// Use NewLangLiteral for language-tagged strings.
func NewLiteral(lexical string, datatype IRI) Literal {
	if datatype == "" {
		datatype = XSDString
	}
	return Literal{
		lexical:  lexical,
		datatype: datatype,
		tag:      ClassifyDatatype(datatype),
	}
}

// NewString creates an xsd:string literal.
func NewString(lexical string) Literal {
	return NewLiteral(lexical, XSDString)
}

// NewLangLiteral creates a language-tagged literal. Language tags are
// case-insensitive and stored lower-cased. An empty language yields a
// plain xsd:string literal.
func NewLangLiteral(lexical, lang string) Literal {
	if lang == "" {
		return NewString(lexical)
	}
	return Literal{
		lexical:  lexical,
		datatype: RDFLangString,
		lang:     strings.ToLower(lang),
		tag:      TagLangString,
	}
}

// NewInteger creates an xsd:integer literal from an int64.
func NewInteger(n int64) Literal {
	return NewLiteral(strconv.FormatInt(n, 10), XSDInteger)
}

// NewBoolean creates an xsd:boolean literal.
func NewBoolean(b bool) Literal {
	return NewLiteral(strconv.FormatBool(b), XSDBoolean)
}

// Kind returns KindLiteral.
func (Literal) Kind() Kind { return KindLiteral }

// Lexical returns the lexical form.
func (l Literal) Lexical() string { return l.lexical }

// Datatype returns the datatype IRI (rdf:langString for tagged literals).
func (l Literal) Datatype() IRI { return l.datatype }

// Language returns the lower-cased language tag, or "".
func (l Literal) Language() string { return l.lang }

// Tag returns the closed datatype classification.
func (l Literal) Tag() DatatypeTag { return l.tag }

// Float parses the lexical form as a float64. ok is false for
// non-numeric tags and for lexical forms that do not parse.
func (l Literal) Float() (f float64, ok bool) {
	if !l.tag.IsNumeric() {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(l.lexical), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// String returns the N-Triples form. xsd:string literals carry no suffix.
func (l Literal) String() string {
	quoted := `"` + escapeLexical(l.lexical) + `"`
	switch {
	case l.lang != "":
		return quoted + "@" + l.lang
	case l.datatype == XSDString || l.datatype == "":
		return quoted
	default:
		return quoted + "^^" + l.datatype.String()
	}
}
