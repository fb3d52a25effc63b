package turtle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/typox/internal/rdferr"
	"github.com/roach88/typox/internal/term"
	"github.com/roach88/typox/internal/triplestore"
)

const foafDoc = `@prefix foaf: <http://xmlns.com/foaf/0.1/> .
@prefix ex: <http://example.org/> .
ex:alice foaf:name "Alice" ; foaf:age 28 .
ex:bob foaf:name "Bob" ; foaf:age 32 .
`

func mustParse(t *testing.T, text string) []term.Triple {
	t.Helper()
	triples, err := Parse(text, Options{Normalize: true})
	require.NoError(t, err)
	return triples
}

func TestParse_PredicateObjectLists(t *testing.T) {
	triples := mustParse(t, foafDoc)
	require.Len(t, triples, 4)

	assert.Equal(t, term.IRI("http://example.org/alice"), triples[0].S)
	assert.Equal(t, term.IRI("http://xmlns.com/foaf/0.1/name"), triples[0].P)
	assert.Equal(t, term.NewString("Alice"), triples[0].O)

	assert.Equal(t, term.NewLiteral("28", term.XSDInteger), triples[1].O)
	assert.Equal(t, term.IRI("http://example.org/bob"), triples[3].S)
}

func TestParse_ObjectListAndTypeKeyword(t *testing.T) {
	triples := mustParse(t, `
PREFIX ex: <http://example.org/>
ex:a a ex:Person ;
     ex:knows ex:b, ex:c , _:x ;
     .
`)
	require.Len(t, triples, 4)
	assert.Equal(t, term.RDFType, triples[0].P)
	assert.Equal(t, term.IRI("http://example.org/c"), triples[2].O)
	assert.Equal(t, term.BlankNode("x"), triples[3].O)
}

func TestParse_Literals(t *testing.T) {
	triples := mustParse(t, `@prefix ex: <http://example.org/> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .
ex:s ex:p "chat"@FR ,
  "3.5"^^xsd:decimal ,
  "x"^^<http://example.org/dt> ,
  -7 , 1.25 , 6.02e23 , true ,
  'single' , """long
"quoted" text""" , "tab\there é" .
`)
	objs := make([]term.Term, len(triples))
	for i, tr := range triples {
		objs[i] = tr.O
	}

	assert.Equal(t, []term.Term{
		term.NewLangLiteral("chat", "fr"),
		term.NewLiteral("3.5", term.XSDDecimal),
		term.NewLiteral("x", "http://example.org/dt"),
		term.NewLiteral("-7", term.XSDInteger),
		term.NewLiteral("1.25", term.XSDDecimal),
		term.NewLiteral("6.02e23", term.XSDDouble),
		term.NewLiteral("true", term.XSDBoolean),
		term.NewString("single"),
		term.NewString("long\n\"quoted\" text"),
		term.NewString("tab\there é"),
	}, objs)
}

func TestParse_IntegerBeforeDot(t *testing.T) {
	triples := mustParse(t, "<http://s> <http://p> 28.")
	require.Len(t, triples, 1)
	assert.Equal(t, term.NewLiteral("28", term.XSDInteger), triples[0].O)
}

func TestParse_LocalNameBeforeDot(t *testing.T) {
	triples := mustParse(t, "@prefix ex: <http://example.org/> .\nex:a ex:b ex:c.d.")
	require.Len(t, triples, 1)
	assert.Equal(t, term.IRI("http://example.org/c.d"), triples[0].O)
}

func TestParse_BaseResolution(t *testing.T) {
	triples, err := Parse(`<alice> <knows> <../bob> .
@base <http://other.org/x/> .
<carol> <knows> <#me> .`, Options{BaseIRI: "http://example.org/people/"})
	require.NoError(t, err)
	require.Len(t, triples, 2)

	assert.Equal(t, term.IRI("http://example.org/people/alice"), triples[0].S)
	assert.Equal(t, term.IRI("http://example.org/bob"), triples[0].O)
	assert.Equal(t, term.IRI("http://other.org/x/carol"), triples[1].S)
	assert.Equal(t, term.IRI("http://other.org/x/#me"), triples[1].O)
}

func TestParse_AnonymousNodesAreDistinct(t *testing.T) {
	triples := mustParse(t, "[] <http://p> [] .\n[] <http://p> _:x .")
	require.Len(t, triples, 2)
	assert.NotEqual(t, triples[0].S, triples[0].O)
	assert.NotEqual(t, triples[0].S, triples[1].S)
	assert.Equal(t, term.KindBlank, triples[1].S.Kind())
}

func TestParse_NormalizesNFC(t *testing.T) {
	doc := "<http://s> <http://p> \"Cafe\u0301\" ."

	triples := mustParse(t, doc)
	assert.Equal(t, term.NewString("Caf\u00e9"), triples[0].O)

	raw, err := Parse(doc, Options{})
	require.NoError(t, err)
	assert.Equal(t, term.NewString("Cafe\u0301"), raw[0].O)
}

// TestParse_Rejections tests that unsupported syntax fails with a positioned
// ParseError instead of being approximated.
func TestParse_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		line    int
		col     int
		message string
	}{
		{"property list", "<http://s> <http://p> [ <http://q> 1 ] .", 1, 23, "blank node property lists"},
		{"collection", "<http://s> <http://p> ( 1 2 ) .", 1, 23, "collections"},
		{"quoted triple", "<< <http://a> <http://b> <http://c> >> <http://p> 1 .", 1, 1, "quoted triples"},
		{"annotation", "<http://s> <http://p> 1 {| <http://q> 2 |} .", 1, 25, "annotation"},
		{"undefined prefix", "ex:a <http://p> 1 .", 1, 1, "undefined prefix"},
		{"literal subject", "\"x\" <http://p> 1 .", 1, 1, "literal cannot be a subject"},
		{"blank predicate", "<http://s> _:p 1 .", 1, 12, "blank node cannot be a predicate"},
		{"missing dot", "<http://s> <http://p> 1\n<http://t> <http://p> 2 .", 2, 1, "expected '.'"},
		{"unterminated string", "<http://s> <http://p> \"abc", 1, 23, "unterminated string"},
		{"bad escape", "<http://s> <http://p> \"a\\qb\" .", 1, 26, "invalid escape"},
		{"unknown directive", "@import <http://x> .", 1, 1, "unknown directive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input, Options{})
			require.Error(t, err)

			var pe *rdferr.ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.line, pe.Line, "line")
			assert.Equal(t, tt.col, pe.Column, "column")
			assert.Contains(t, pe.Message, tt.message)
		})
	}
}

// TestLoad_TransactionalFailure tests that a syntax error partway through a
// document leaves the store exactly as it was.
func TestLoad_TransactionalFailure(t *testing.T) {
	store := triplestore.NewStore("g", 0)
	n, err := Load(store, foafDoc, Options{})
	require.NoError(t, err)
	require.Equal(t, 4, n)

	_, err = Load(store, `@prefix ex: <http://example.org/> .
ex:carol ex:name "Carol" .
_:b ex:name "Dave" .
ex:erin ex:name "Erin"
`, Options{})
	require.Error(t, err)
	assert.True(t, rdferr.IsParseError(err))
	assert.Equal(t, 4, store.Size())
	assert.Equal(t, int64(0), store.Counter().Current())
}

func TestLoad_Idempotent(t *testing.T) {
	store := triplestore.NewStore("g", 0)
	_, err := Load(store, foafDoc, Options{})
	require.NoError(t, err)

	n, err := Load(store, foafDoc, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 4, store.Size())
}
