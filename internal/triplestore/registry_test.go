package triplestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/typox/internal/term"
)

func TestRegistry_GetOrCreate(t *testing.T) {
	r := NewRegistry(0)

	a := r.GetOrCreate("a")
	assert.Same(t, a, r.GetOrCreate("a"))

	_, ok := r.Lookup("A")
	assert.False(t, ok, "names are case-sensitive")
	assert.Equal(t, 1, r.Len())
}

// TestRegistry_Isolation tests that loading into one store never changes
// another.
func TestRegistry_Isolation(t *testing.T) {
	r := NewRegistry(0)
	_, err := r.GetOrCreate("a").Apply([]term.Triple{triple(iri("s"), "p", iri("o"))})
	require.NoError(t, err)

	b := r.GetOrCreate("b")
	assert.Equal(t, 0, b.Size())
	assert.Equal(t, 1, r.GetOrCreate("a").Size())
}

func TestRegistry_NamesSorted(t *testing.T) {
	r := NewRegistry(0)
	for _, name := range []string{"zeta", "Alpha", "beta", "alpha"} {
		r.GetOrCreate(name)
	}
	assert.Equal(t, []string{"Alpha", "alpha", "beta", "zeta"}, r.Names())
}

func TestRegistry_RestoreAndDrop(t *testing.T) {
	r := NewRegistry(0)
	triples := []term.Triple{
		triple(term.BlankNode("b7"), "p", iri("o")),
		triple(term.BlankNode("b7"), "p", iri("o")),
	}

	s, err := r.Restore("snap", triples, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Size())
	assert.Equal(t, term.BlankNode("b7"), s.Triples()[0].S, "restored ids are kept")

	_, err = s.Apply([]term.Triple{triple(term.BlankNode("x"), "p", iri("o"))})
	require.NoError(t, err)
	assert.Equal(t, term.BlankNode("b8"), s.Triples()[1].S)

	assert.True(t, r.Drop("snap"))
	assert.False(t, r.Drop("snap"))
	assert.Empty(t, r.Names())
}

func TestRegistry_RestoreOverCapacity(t *testing.T) {
	r := NewRegistry(1)
	_, err := r.Restore("snap", []term.Triple{
		triple(iri("a"), "p", iri("b")),
		triple(iri("a"), "p", iri("c")),
	}, 0)
	require.Error(t, err)

	_, ok := r.Lookup("snap")
	assert.False(t, ok)
}
