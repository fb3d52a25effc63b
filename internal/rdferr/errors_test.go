package rdferr

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseError_Message(t *testing.T) {
	err := NewParseError("turtle", 3, 7, "unexpected %q", ";")
	assert.Equal(t, `turtle parse error at line 3, column 7: unexpected ";"`, err.Error())

	noCol := &ParseError{Source: "sparql", Line: 2, Message: "boom"}
	assert.Equal(t, "sparql parse error at line 2: boom", noCol.Error())

	noPos := &ParseError{Source: "jsonld", Message: "bad document"}
	assert.Equal(t, "jsonld parse error: bad document", noPos.Error())
}

func TestEvaluationError_Message(t *testing.T) {
	err := NewUnsupportedError("CONSTRUCT", "")
	assert.Equal(t, "unsupported query construct CONSTRUCT", err.Error())

	withMsg := NewUnsupportedError("UNION", "use separate queries")
	assert.Equal(t, "unsupported query construct UNION: use separate queries", withMsg.Error())

	coercion := NewCoercionError("abc", "http://www.w3.org/2001/XMLSchema#integer")
	assert.Contains(t, coercion.Error(), "NUMERIC_COERCION")
	assert.Contains(t, coercion.Error(), `"abc"`)
}

func TestCapacityError_Message(t *testing.T) {
	err := &CapacityError{Resource: "triples", Limit: 10, Requested: 11}
	assert.Equal(t, "capacity exceeded: 11 triples requested, limit is 10", err.Error())
}

func TestErrorHelpers_Wrapped(t *testing.T) {
	parse := fmt.Errorf("load: %w", NewParseError("turtle", 1, 1, "x"))
	eval := fmt.Errorf("query: %w", NewUnsupportedError("ASK", ""))
	capacity := fmt.Errorf("apply: %w", &CapacityError{Resource: "bindings", Limit: 1, Requested: 2})

	require.True(t, IsParseError(parse))
	require.False(t, IsParseError(eval))

	require.True(t, IsEvaluationError(eval))
	require.True(t, IsUnsupported(eval))
	require.False(t, IsUnsupported(NewCoercionError("x", "y")))

	require.True(t, IsCapacityError(capacity))
	require.False(t, IsCapacityError(parse))
}
