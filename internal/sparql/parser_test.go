package sparql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/typox/internal/rdferr"
	"github.com/roach88/typox/internal/term"
)

func mustParse(t *testing.T, text string) *Query {
	t.Helper()
	q, err := Parse(text, Options{Normalize: true})
	require.NoError(t, err)
	return q
}

func TestParse_SelectWithModifiers(t *testing.T) {
	q := mustParse(t, `
PREFIX foaf: <http://xmlns.com/foaf/0.1/>
SELECT DISTINCT ?name ?age ?name
WHERE {
  ?p foaf:name ?name ;
     foaf:age ?age .
  FILTER(?age >= 18 && lang(?name) = "")
}
ORDER BY DESC(?age) ?name
OFFSET 1 LIMIT 10`)

	assert.True(t, q.Distinct)
	assert.Equal(t, []string{"name", "age"}, q.Variables, "duplicates are dropped")
	assert.Equal(t, map[string]string{"foaf": "http://xmlns.com/foaf/0.1/"}, q.Prefixes)

	require.Len(t, q.Where, 2)
	tp := q.Where[1].(TriplePattern)
	assert.Equal(t, "p", tp.S.Var)
	assert.Equal(t, term.IRI("http://xmlns.com/foaf/0.1/age"), tp.P.Term)
	assert.Equal(t, "age", tp.O.Var)

	require.Len(t, q.Filters, 1)
	_, isAnd := q.Filters[0].(AndExpr)
	assert.True(t, isAnd)

	require.Len(t, q.OrderBy, 2)
	assert.True(t, q.OrderBy[0].Descending)
	assert.Equal(t, VarExpr{Name: "name"}, q.OrderBy[1].Expr)
	assert.Equal(t, 10, q.Limit)
	assert.Equal(t, 1, q.Offset)
}

func TestParse_WellKnownPrefixesNeedNoDeclaration(t *testing.T) {
	q := mustParse(t, `SELECT ?name ?age WHERE { ?p foaf:name ?name ; foaf:age ?age } ORDER BY ?age`)

	require.Len(t, q.Where, 2)
	assert.Equal(t, term.IRI("http://xmlns.com/foaf/0.1/name"), q.Where[0].(TriplePattern).P.Term)
	assert.Empty(t, q.Prefixes, "only declared prefixes are reported")

	q = mustParse(t, `PREFIX foaf: <http://example.org/people#>
SELECT ?o WHERE { ?s foaf:name ?o . ?s rdf:type ?t }`)
	assert.Equal(t, term.IRI("http://example.org/people#name"), q.Where[0].(TriplePattern).P.Term, "a declaration overrides the well-known namespace")
	assert.Equal(t, term.RDFType, q.Where[1].(TriplePattern).P.Term)
	assert.Equal(t, map[string]string{"foaf": "http://example.org/people#"}, q.Prefixes)
}

func TestDeclaredPrefixes(t *testing.T) {
	got := DeclaredPrefixes("BASE <http://example.org/>\nPREFIX ex: <people/>\nPREFIX foaf: <http://xmlns.com/foaf/0.1/>\nCONSTRUCT { ?s ?p ?o } WHERE { ?s ?p ?o }")
	assert.Equal(t, map[string]string{
		"ex":   "http://example.org/people/",
		"foaf": "http://xmlns.com/foaf/0.1/",
	}, got, "relative namespaces resolve against BASE and the query body is ignored")

	assert.Equal(t, map[string]string{"a": "http://a/"}, DeclaredPrefixes("PREFIX a: <http://a/> PREFIX b <http://b/>"))
	assert.Empty(t, DeclaredPrefixes(""))
}

func TestParse_StarOrderOfFirstAppearance(t *testing.T) {
	q := mustParse(t, `SELECT * { ?s <http://p> ?o . _:b <http://q> ?s OPTIONAL { ?o <http://r> ?z } FILTER(bound(?w)) }`)
	assert.True(t, q.Star)
	assert.Equal(t, []string{"s", "o", "z"}, q.Variables, "blank nodes and filter-only variables are not selected")
	assert.Equal(t, -1, q.Limit)
}

func TestParse_OptionalGroupWithFilter(t *testing.T) {
	q := mustParse(t, `SELECT ?s ?e WHERE {
  ?s a <http://example.org/Person> .
  OPTIONAL { ?s <http://example.org/email> ?e FILTER(strEnds(?e, ".org")) }
}`)
	require.Len(t, q.Where, 2)
	assert.Equal(t, term.RDFType, q.Where[0].(TriplePattern).P.Term)

	og, ok := q.Where[1].(OptionalGroup)
	require.True(t, ok)
	assert.Len(t, og.Patterns, 1)
	assert.Len(t, og.Filters, 1)
	assert.Empty(t, q.Filters)
}

func TestParse_NegativeNumbersAndBooleans(t *testing.T) {
	q := mustParse(t, `SELECT ?x { ?x <http://p> ?v FILTER(?v > -2.5 || ?v = true) }`)
	or := q.Filters[0].(OrExpr)
	cmp := or.Left.(CompareExpr)
	assert.Equal(t, TermExpr{Term: term.NewLiteral("-2.5", term.XSDDecimal)}, cmp.Right)
	assert.Equal(t, TermExpr{Term: term.NewBoolean(true)}, or.Right.(CompareExpr).Right)
}

func TestParse_LessThanIsNotAnIRI(t *testing.T) {
	q := mustParse(t, `SELECT ?x { ?x <http://p> ?v FILTER(?v < 30) }`)
	cmp := q.Filters[0].(CompareExpr)
	assert.Equal(t, OpLt, cmp.Op)
}

// TestParse_Unsupported tests that constructs outside the subset are
// rejected before evaluation with the construct name.
func TestParse_Unsupported(t *testing.T) {
	tests := []struct {
		query     string
		construct string
	}{
		{`CONSTRUCT { ?s ?p ?o } WHERE { ?s ?p ?o }`, "CONSTRUCT"},
		{`ASK { ?s ?p ?o }`, "ASK"},
		{`DESCRIBE <http://x>`, "DESCRIBE"},
		{`INSERT DATA { <http://a> <http://b> <http://c> }`, "INSERT"},
		{`SELECT (COUNT(?s) AS ?n) WHERE { ?s ?p ?o }`, "COUNT"},
		{`SELECT (?s AS ?x) WHERE { ?s ?p ?o }`, "PROJECTION EXPRESSION"},
		{`SELECT ?s WHERE { ?s ?p ?o } GROUP BY ?s`, "GROUP BY"},
		{`SELECT ?s WHERE { { SELECT ?s WHERE { ?s ?p ?o } } }`, "SUBQUERY"},
		{`SELECT ?s WHERE { ?s <http://a>/<http://b> ?o }`, "PROPERTY PATH"},
		{`SELECT ?s WHERE { ?s <http://a>* ?o }`, "PROPERTY PATH"},
		{`SELECT ?s WHERE { ?s ^<http://a> ?o }`, "PROPERTY PATH"},
		{`SELECT ?s WHERE { { ?s ?p ?o } UNION { ?o ?p ?s } }`, "UNION"},
		{`SELECT ?s WHERE { ?s ?p ?o MINUS { ?s ?p 1 } }`, "MINUS"},
		{`SELECT ?s WHERE { ?s ?p ?o BIND(1 AS ?x) }`, "BIND"},
		{`SELECT ?s FROM <http://g> WHERE { ?s ?p ?o }`, "FROM"},
		{`SELECT ?s WHERE { OPTIONAL { ?s ?p ?o OPTIONAL { ?o ?p ?s } } }`, "NESTED OPTIONAL"},
		{`SELECT ?s WHERE { ?s ?p ?o FILTER(regex(?o, "a")) }`, "FUNCTION REGEX"},
		{`SELECT ?s WHERE { ?s ?p ?o FILTER NOT EXISTS { ?s ?p 1 } }`, "NOT EXISTS"},
		{`SELECT ?s WHERE { ?s ?p ?o FILTER(?o + 1 > 2) }`, "ARITHMETIC"},
		{`SELECT ?s WHERE { ?s ?p [ <http://q> 1 ] }`, "BLANK NODE PROPERTY LIST"},
	}

	for _, tt := range tests {
		t.Run(tt.construct, func(t *testing.T) {
			_, err := Parse(tt.query, Options{})
			require.Error(t, err)

			var ee *rdferr.EvaluationError
			require.ErrorAs(t, err, &ee, "got %v", err)
			assert.Equal(t, rdferr.ErrCodeUnsupported, ee.Code)
			assert.Equal(t, tt.construct, ee.Unsupported)
		})
	}
}

func TestParse_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name  string
		query string
		line  int
		col   int
	}{
		{"missing brace", "SELECT ?s WHERE { ?s ?p ?o", 1, 27},
		{"no projection", "SELECT WHERE { ?s ?p ?o }", 1, 8},
		{"undefined prefix", "SELECT ?s WHERE {\n  ?s ex:p ?o }", 2, 6},
		{"bad limit", "SELECT ?s WHERE { ?s ?p ?o } LIMIT ten", 1, 36},
		{"trailing tokens", "SELECT ?s WHERE { ?s ?p ?o } ?x", 1, 30},
		{"not a query", "HELLO", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.query, Options{})
			require.Error(t, err)

			var pe *rdferr.ParseError
			require.ErrorAs(t, err, &pe, "got %v", err)
			assert.Equal(t, tt.line, pe.Line)
			assert.Equal(t, tt.col, pe.Column)
		})
	}
}

func TestParse_FunctionArity(t *testing.T) {
	_, err := Parse(`SELECT ?s { ?s ?p ?o FILTER(lang(?o, "en")) }`, Options{})
	require.Error(t, err)
	var ee *rdferr.EvaluationError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, rdferr.ErrCodeInvalidQuery, ee.Code)

	_, err = Parse(`SELECT ?s { ?s ?p ?o FILTER(bound("x")) }`, Options{})
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, rdferr.ErrCodeInvalidQuery, ee.Code)
}
