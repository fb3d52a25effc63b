package term

import "fmt"

// Triple is an RDF statement. The predicate is typed as IRI so a blank or
// literal predicate is unrepresentable; NewTriple rejects literal subjects.
type Triple struct {
	S Term
	P IRI
	O Term
}

// NewTriple validates and builds a triple.
func NewTriple(s Term, p IRI, o Term) (Triple, error) {
	if s == nil || o == nil {
		return Triple{}, fmt.Errorf("triple: subject and object are required")
	}
	if s.Kind() == KindLiteral {
		return Triple{}, fmt.Errorf("triple: literal %s cannot be a subject", s)
	}
	if p == "" {
		return Triple{}, fmt.Errorf("triple: predicate is required")
	}
	return Triple{S: s, P: p, O: o}, nil
}

// String returns the N-Triples line for the triple, without a newline.
func (t Triple) String() string {
	return t.S.String() + " " + t.P.String() + " " + t.O.String() + " ."
}

// Key returns the dedupe key of the triple.
func (t Triple) Key() string {
	return t.String()
}
