// Package interop converts between the engine's terms and the standard RDF
// interchange formats: N-Triples, N-Quads, RDF/XML and JSON-LD.
//
// Decoding always produces a complete batch or an error; callers apply the
// batch to a store in one step, so a bad document never leaves a partial
// load behind.
package interop

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/knakk/rdf"
	"github.com/piprate/json-gold/ld"

	"github.com/roach88/typox/internal/rdferr"
	"github.com/roach88/typox/internal/term"
)

// DecodeOptions configures the decoders.
type DecodeOptions struct {
	// BaseIRI resolves relative references in JSON-LD documents.
	BaseIRI string

	// Normalize applies Unicode NFC to IRIs and lexical forms.
	Normalize bool
}

// DecodeNTriples parses an N-Triples document.
func DecodeNTriples(text string, opts DecodeOptions) ([]term.Triple, error) {
	dec := rdf.NewTripleDecoder(strings.NewReader(text), rdf.NTriples)
	decoded, err := dec.DecodeAll()
	if err != nil {
		return nil, rdferr.NewParseError("ntriples", 0, 0, "%v", err)
	}
	return fromTriples("ntriples", decoded, opts)
}

// DecodeNQuads parses an N-Quads document. Graph names are dropped: a
// store holds a single graph.
func DecodeNQuads(text string, opts DecodeOptions) ([]term.Triple, error) {
	dec := rdf.NewQuadDecoder(strings.NewReader(text), rdf.NQuads)
	quads, err := dec.DecodeAll()
	if err != nil {
		return nil, rdferr.NewParseError("nquads", 0, 0, "%v", err)
	}
	triples := make([]rdf.Triple, len(quads))
	for i, q := range quads {
		triples[i] = q.Triple
	}
	return fromTriples("nquads", triples, opts)
}

// DecodeRDFXML parses an RDF/XML document. BaseIRI resolves rdf:about and
// rdf:resource references when the document has no xml:base.
func DecodeRDFXML(text string, opts DecodeOptions) ([]term.Triple, error) {
	dec := rdf.NewTripleDecoder(strings.NewReader(text), rdf.RDFXML)
	if opts.BaseIRI != "" {
		base, err := rdf.NewIRI(opts.BaseIRI)
		if err != nil {
			return nil, rdferr.NewParseError("rdfxml", 0, 0, "base IRI: %v", err)
		}
		if err := dec.SetOption(rdf.Base, base); err != nil {
			return nil, rdferr.NewParseError("rdfxml", 0, 0, "%v", err)
		}
	}
	decoded, err := dec.DecodeAll()
	if err != nil {
		return nil, rdferr.NewParseError("rdfxml", 0, 0, "%v", err)
	}
	return fromTriples("rdfxml", decoded, opts)
}

// DecodeJSONLD expands a JSON-LD document to RDF. Remote contexts are
// never fetched; a document that references one fails to load.
func DecodeJSONLD(text string, opts DecodeOptions) ([]term.Triple, error) {
	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, rdferr.NewParseError("jsonld", 0, 0, "%v", err)
	}

	proc := ld.NewJsonLdProcessor()
	options := ld.NewJsonLdOptions(opts.BaseIRI)
	options.ProcessingMode = ld.JsonLd_1_1
	options.Format = "application/nquads"
	options.DocumentLoader = offlineLoader{}

	out, err := proc.ToRDF(doc, options)
	if err != nil {
		return nil, rdferr.NewParseError("jsonld", 0, 0, "%v", err)
	}
	nquads, ok := out.(string)
	if !ok {
		return nil, rdferr.NewParseError("jsonld", 0, 0, "unexpected processor output %T", out)
	}
	return DecodeNQuads(nquads, opts)
}

// offlineLoader refuses every remote document.
type offlineLoader struct{}

func (offlineLoader) LoadDocument(u string) (*ld.RemoteDocument, error) {
	return nil, ld.NewJsonLdError(ld.LoadingDocumentFailed, fmt.Sprintf("remote context %s is not loaded", u))
}

func fromTriples(source string, in []rdf.Triple, opts DecodeOptions) ([]term.Triple, error) {
	out := make([]term.Triple, 0, len(in))
	for i, t := range in {
		s, err := fromTerm(t.Subj, opts)
		if err != nil {
			return nil, rdferr.NewParseError(source, i+1, 0, "subject: %v", err)
		}
		p, err := fromTerm(t.Pred, opts)
		if err != nil {
			return nil, rdferr.NewParseError(source, i+1, 0, "predicate: %v", err)
		}
		pred, ok := p.(term.IRI)
		if !ok {
			return nil, rdferr.NewParseError(source, i+1, 0, "predicate must be an IRI, got %s", p)
		}
		o, err := fromTerm(t.Obj, opts)
		if err != nil {
			return nil, rdferr.NewParseError(source, i+1, 0, "object: %v", err)
		}
		triple, err := term.NewTriple(s, pred, o)
		if err != nil {
			return nil, rdferr.NewParseError(source, i+1, 0, "%v", err)
		}
		out = append(out, triple)
	}
	return out, nil
}

func fromTerm(t rdf.Term, opts DecodeOptions) (term.Term, error) {
	norm := func(s string) string {
		if opts.Normalize {
			return term.NormalizeNFC(s)
		}
		return s
	}

	switch v := t.(type) {
	case rdf.IRI:
		return term.IRI(norm(v.String())), nil
	case rdf.Blank:
		return term.BlankNode(strings.TrimPrefix(v.String(), "_:")), nil
	case rdf.Literal:
		if lang := v.Lang(); lang != "" {
			return term.NewLangLiteral(norm(v.String()), lang), nil
		}
		return term.NewLiteral(norm(v.String()), term.IRI(v.DataType.String())), nil
	}
	return nil, fmt.Errorf("unsupported term %T", t)
}
