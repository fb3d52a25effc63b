package term

import "strings"

// Compare orders two terms for ORDER BY.
//
// Ordering: unbound (nil) < blank node < IRI < literal.
// Two literals with numeric tags compare by value; when either side fails
// to parse, or the tags are not both numeric, literals compare by lexical
// form, then datatype IRI, then language tag. The result is total and
// deterministic.
func Compare(a, b Term) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}

	switch av := a.(type) {
	case nil:
		return 0
	case BlankNode:
		return strings.Compare(string(av), string(b.(BlankNode)))
	case IRI:
		return strings.Compare(string(av), string(b.(IRI)))
	case Literal:
		return compareLiterals(av, b.(Literal))
	}
	return 0
}

func rank(t Term) int {
	if t == nil {
		return 0
	}
	return int(t.Kind())
}

func compareLiterals(a, b Literal) int {
	if a.tag.IsNumeric() && b.tag.IsNumeric() {
		fa, okA := a.Float()
		fb, okB := b.Float()
		if okA && okB {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
		}
	}
	if c := strings.Compare(a.lexical, b.lexical); c != 0 {
		return c
	}
	if c := strings.Compare(string(a.datatype), string(b.datatype)); c != 0 {
		return c
	}
	return strings.Compare(a.lang, b.lang)
}
