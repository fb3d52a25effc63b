package results

import (
	"sort"
	"strings"

	"github.com/roach88/typox/internal/term"
)

// Prefix is one prefix table entry.
type Prefix struct {
	Name      string
	Namespace string
}

// BuiltinPrefixes returns the prefixes every table starts with.
func BuiltinPrefixes() map[string]string {
	return term.WellKnownPrefixes()
}

type entry struct {
	Prefix
	rank int
}

// PrefixTable shortens IRIs for output. It never affects matching.
type PrefixTable struct {
	byName  map[string]entry
	ordered []entry
}

// NewPrefixTable builds a table from the built-ins followed by each layer
// in turn. A later layer replaces an earlier binding of the same name and
// wins ties when two names share a namespace.
func NewPrefixTable(layers ...map[string]string) *PrefixTable {
	pt := &PrefixTable{byName: make(map[string]entry)}
	pt.add(BuiltinPrefixes(), 0)
	for i, layer := range layers {
		pt.add(layer, i+1)
	}

	pt.ordered = make([]entry, 0, len(pt.byName))
	for _, e := range pt.byName {
		pt.ordered = append(pt.ordered, e)
	}
	// Longest namespace first so the most specific prefix wins; the order
	// is total so output never depends on map iteration.
	sort.Slice(pt.ordered, func(i, j int) bool {
		a, b := pt.ordered[i], pt.ordered[j]
		if len(a.Namespace) != len(b.Namespace) {
			return len(a.Namespace) > len(b.Namespace)
		}
		if a.rank != b.rank {
			return a.rank > b.rank
		}
		return a.Name < b.Name
	})
	return pt
}

func (pt *PrefixTable) add(m map[string]string, rank int) {
	for name, ns := range m {
		if ns == "" {
			continue
		}
		pt.byName[name] = entry{Prefix: Prefix{Name: name, Namespace: ns}, rank: rank}
	}
}

// Shorten returns prefix:local for the best matching namespace, or the IRI
// unchanged.
func (pt *PrefixTable) Shorten(iri string) string {
	if pt == nil {
		return iri
	}
	for _, e := range pt.ordered {
		if strings.HasPrefix(iri, e.Namespace) {
			return e.Name + ":" + iri[len(e.Namespace):]
		}
	}
	return iri
}

// Lookup returns the namespace bound to name.
func (pt *PrefixTable) Lookup(name string) (string, bool) {
	e, ok := pt.byName[name]
	return e.Namespace, ok
}

// Prefixes returns the table sorted by name.
func (pt *PrefixTable) Prefixes() []Prefix {
	out := make([]Prefix, 0, len(pt.byName))
	for _, e := range pt.byName {
		out = append(out, e.Prefix)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
