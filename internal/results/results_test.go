package results

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/typox/internal/rdferr"
	"github.com/roach88/typox/internal/sparql"
	"github.com/roach88/typox/internal/term"
)

func encodeJSON(t *testing.T, vars []string, sols []sparql.Solution, table *PrefixTable) string {
	t.Helper()
	recs, err := Encode(vars, sols, table)
	require.NoError(t, err)
	out, err := MarshalJSON(recs)
	require.NoError(t, err)
	return string(out)
}

// TestEncode_People tests the canonical two-person result.
func TestEncode_People(t *testing.T) {
	sols := []sparql.Solution{
		{"name": term.NewString("Alice"), "age": term.NewInteger(28)},
		{"name": term.NewString("Bob"), "age": term.NewInteger(32)},
	}
	got := encodeJSON(t, []string{"name", "age"}, sols, NewPrefixTable())
	assert.Equal(t, `[{"name":"Alice","age":28},{"name":"Bob","age":32}]`, got)
}

func TestEncode_EmptyIsArray(t *testing.T) {
	assert.Equal(t, `[]`, encodeJSON(t, []string{"x"}, nil, nil))
	assert.Equal(t, `[]`, encodeJSON(t, []string{"x"}, []sparql.Solution{}, nil))
}

// TestEncode_UnboundOmitted tests that unbound variables produce no key
// and that a fully unbound solution is an empty object.
func TestEncode_UnboundOmitted(t *testing.T) {
	sols := []sparql.Solution{
		{"name": term.NewString("Alice"), "mbox": term.IRI("mailto:alice@example.org")},
		{"name": term.NewString("Bob")},
		{},
	}
	got := encodeJSON(t, []string{"name", "mbox"}, sols, nil)
	assert.Equal(t, `[{"name":"Alice","mbox":"mailto:alice@example.org"},{"name":"Bob"},{}]`, got)
}

// TestEncode_KeyOrderFollowsProjection tests that keys are not sorted.
func TestEncode_KeyOrderFollowsProjection(t *testing.T) {
	sols := []sparql.Solution{{"z": term.NewString("1"), "a": term.NewString("2")}}
	assert.Equal(t, `[{"z":"1","a":"2"}]`, encodeJSON(t, []string{"z", "a"}, sols, nil))
	assert.Equal(t, `[{"a":"2","z":"1"}]`, encodeJSON(t, []string{"a", "z"}, sols, nil))
}

func TestEncodeTerm(t *testing.T) {
	table := NewPrefixTable(map[string]string{"ex": "http://example.org/"})

	tests := []struct {
		name string
		in   term.Term
		want Value
	}{
		{"integer", term.NewInteger(-7), Number("-7")},
		{"integer leading zeros", term.NewLiteral("0042", term.XSDInteger), Number("42")},
		{"integer plus sign", term.NewLiteral("+5", term.XSDInt), Number("5")},
		{"big integer", term.NewLiteral("123456789012345678901234567890", term.XSDInteger), Number("123456789012345678901234567890")},
		{"decimal", term.NewLiteral("3.50", term.XSDDecimal), Number("3.5")},
		{"decimal whole", term.NewLiteral("28.0", term.XSDDecimal), Number("28")},
		{"double exponent", term.NewLiteral("1.5E2", term.XSDDouble), Number("150")},
		{"float", term.NewLiteral("0.25", term.XSDFloat), Number("0.25")},
		{"plain string", term.NewString("Alice"), String("Alice")},
		{"lang string drops tag", term.NewLangLiteral("Chat", "fr"), String("Chat")},
		{"boolean as string", term.NewBoolean(true), String("true")},
		{"other datatype", term.NewLiteral("2024-01-01", term.IRI(term.NamespaceXSD+"date")), String("2024-01-01")},
		{"iri with builtin prefix", term.IRI(term.NamespaceFOAF + "name"), String("foaf:name")},
		{"iri with query prefix", term.IRI("http://example.org/alice"), String("ex:alice")},
		{"iri without prefix", term.IRI("http://other.org/x"), String("http://other.org/x")},
		{"blank", term.BlankNode("b3"), String("_:b3")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeTerm(tt.in, table)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeTerm_NumericCoercion(t *testing.T) {
	bad := []term.Literal{
		term.NewLiteral("abc", term.XSDInteger),
		term.NewLiteral("1.5", term.XSDInteger),
		term.NewLiteral("NaN", term.XSDDouble),
		term.NewLiteral("INF", term.XSDDouble),
		term.NewLiteral("0x10", term.XSDDecimal),
		term.NewLiteral("", term.XSDDecimal),
		term.NewLiteral("1e5", term.XSDDecimal),
		term.NewLiteral("2.5E-3", term.XSDDecimal),
	}
	for _, lit := range bad {
		t.Run(lit.Lexical(), func(t *testing.T) {
			_, err := EncodeTerm(lit, nil)
			require.Error(t, err)

			var ee *rdferr.EvaluationError
			require.ErrorAs(t, err, &ee)
			assert.Equal(t, rdferr.ErrCodeNumericCoercion, ee.Code)
		})
	}
}

// TestEncode_CoercionFailsWholeResult tests that one bad literal fails the
// encoding instead of producing a partial array.
func TestEncode_CoercionFailsWholeResult(t *testing.T) {
	sols := []sparql.Solution{
		{"age": term.NewInteger(1)},
		{"age": term.NewLiteral("many", term.XSDInteger)},
	}
	recs, err := Encode([]string{"age"}, sols, nil)
	assert.Nil(t, recs)
	assert.True(t, rdferr.IsEvaluationError(err))
}

func TestMarshalJSON_NoHTMLEscaping(t *testing.T) {
	sols := []sparql.Solution{{"s": term.NewString(`<a href="x">&amp;</a>`)}}
	got := encodeJSON(t, []string{"s"}, sols, nil)
	assert.Equal(t, `[{"s":"<a href=\"x\">&amp;</a>"}]`, got)
}

func TestMarshalJSON_Deterministic(t *testing.T) {
	sols := []sparql.Solution{
		{"a": term.NewString("x"), "b": term.NewInteger(1), "c": term.BlankNode("b0")},
	}
	first := encodeJSON(t, []string{"a", "b", "c"}, sols, NewPrefixTable())
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, encodeJSON(t, []string{"a", "b", "c"}, sols, NewPrefixTable()))
	}
}

func TestMarshalIndent(t *testing.T) {
	recs := []Record{{{Name: "name", Value: String("Alice")}, {Name: "age", Value: Number("28")}}}
	out, err := MarshalIndent(recs)
	require.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"name\": \"Alice\",\n    \"age\": 28\n  }\n]", string(out))
}

func TestMarshalStrings(t *testing.T) {
	out, err := MarshalStrings([]string{"memory", "people"})
	require.NoError(t, err)
	assert.Equal(t, `["memory","people"]`, string(out))

	out, err = MarshalStrings(nil)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(out))
}

func TestRecord_Get(t *testing.T) {
	rec := Record{{Name: "a", Value: String("x")}}
	v, ok := rec.Get("a")
	assert.True(t, ok)
	assert.Equal(t, String("x"), v)
	_, ok = rec.Get("b")
	assert.False(t, ok)
}

func TestPrefixTable_LongestNamespaceWins(t *testing.T) {
	table := NewPrefixTable(map[string]string{
		"ex":    "http://example.org/",
		"exppl": "http://example.org/people/",
	})
	assert.Equal(t, "exppl:alice", table.Shorten("http://example.org/people/alice"))
	assert.Equal(t, "ex:thing", table.Shorten("http://example.org/thing"))
}

// TestPrefixTable_QueryPrefixOverridesBuiltin tests both rebinding a
// built-in name and aliasing a built-in namespace.
func TestPrefixTable_QueryPrefixOverridesBuiltin(t *testing.T) {
	table := NewPrefixTable(map[string]string{"foaf": "http://example.org/foaf#"})
	assert.Equal(t, "foaf:x", table.Shorten("http://example.org/foaf#x"))
	assert.Equal(t, "http://xmlns.com/foaf/0.1/name", table.Shorten("http://xmlns.com/foaf/0.1/name"))

	table = NewPrefixTable(map[string]string{"f": term.NamespaceFOAF})
	assert.Equal(t, "f:name", table.Shorten(term.NamespaceFOAF+"name"))
}

func TestPrefixTable_TiesBrokenByName(t *testing.T) {
	table := NewPrefixTable(map[string]string{"b": "http://x.org/", "a": "http://x.org/"})
	assert.Equal(t, "a:y", table.Shorten("http://x.org/y"))
}

func TestPrefixTable_Builtins(t *testing.T) {
	table := NewPrefixTable()
	ns, ok := table.Lookup("skos")
	require.True(t, ok)
	assert.Equal(t, term.NamespaceSKOS, ns)
	assert.Equal(t, "rdf:type", table.Shorten(string(term.RDFType)))
	assert.Len(t, table.Prefixes(), 8)
	assert.Equal(t, "dc", table.Prefixes()[0].Name)
}

func TestPrefixTable_NilShortensNothing(t *testing.T) {
	var table *PrefixTable
	assert.Equal(t, "http://x.org/y", table.Shorten("http://x.org/y"))
}
