package interop

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
	"github.com/knakk/rdf"

	"github.com/roach88/typox/internal/term"
)

// EncodeOptions configures EncodeNTriples.
type EncodeOptions struct {
	// Skolemize replaces blank nodes with urn:uuid: IRIs.
	Skolemize bool

	// Namespace scopes skolem IRIs, normally the store name. The same
	// namespace and blank id always give the same IRI.
	Namespace string
}

// EncodeNTriples writes triples as N-Triples in the given order.
func EncodeNTriples(triples []term.Triple, opts EncodeOptions) ([]byte, error) {
	var buf bytes.Buffer
	enc := rdf.NewTripleEncoder(&buf, rdf.NTriples)
	for _, t := range triples {
		rt, err := toTriple(t, opts)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", t, err)
		}
		if err := enc.Encode(rt); err != nil {
			return nil, err
		}
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SkolemIRI returns the IRI that replaces blank node id under namespace.
func SkolemIRI(namespace, id string) string {
	return "urn:uuid:" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(namespace+"#"+id)).String()
}

func toTriple(t term.Triple, opts EncodeOptions) (rdf.Triple, error) {
	s, err := toTerm(t.S, opts)
	if err != nil {
		return rdf.Triple{}, err
	}
	p, err := rdf.NewIRI(t.P.Value())
	if err != nil {
		return rdf.Triple{}, err
	}
	o, err := toTerm(t.O, opts)
	if err != nil {
		return rdf.Triple{}, err
	}
	return rdf.Triple{Subj: s.(rdf.Subject), Pred: p, Obj: o.(rdf.Object)}, nil
}

func toTerm(t term.Term, opts EncodeOptions) (rdf.Term, error) {
	switch v := t.(type) {
	case term.IRI:
		return rdf.NewIRI(v.Value())
	case term.BlankNode:
		if opts.Skolemize {
			return rdf.NewIRI(SkolemIRI(opts.Namespace, v.ID()))
		}
		return rdf.NewBlank(v.ID())
	case term.Literal:
		if v.Language() != "" {
			return rdf.NewLangLiteral(v.Lexical(), v.Language())
		}
		dt, err := rdf.NewIRI(string(v.Datatype()))
		if err != nil {
			return nil, err
		}
		return rdf.NewTypedLiteral(v.Lexical(), dt), nil
	}
	return nil, fmt.Errorf("unsupported term %T", t)
}
