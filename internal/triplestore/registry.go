package triplestore

import (
	"sort"

	"github.com/roach88/typox/internal/term"
)

// Registry maps case-sensitive store names to stores.
//
// A registry belongs to one engine instance; there is no package-level
// registry. Reads of a name that was never created behave as an empty store
// (see Lookup), and GetOrCreate is how load, query, size and clear obtain
// their target.
type Registry struct {
	stores     map[string]*Store
	maxTriples int
}

// NewRegistry creates an empty registry whose stores hold at most
// maxTriples triples each (<= 0 means unlimited).
func NewRegistry(maxTriples int) *Registry {
	return &Registry{
		stores:     make(map[string]*Store),
		maxTriples: maxTriples,
	}
}

// GetOrCreate returns the named store, creating it empty if needed.
func (r *Registry) GetOrCreate(name string) *Store {
	if s, ok := r.stores[name]; ok {
		return s
	}
	s := NewStore(name, r.maxTriples)
	r.stores[name] = s
	return s
}

// Lookup returns the named store without creating it.
func (r *Registry) Lookup(name string) (*Store, bool) {
	s, ok := r.stores[name]
	return s, ok
}

// Names returns all store names in byte order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.stores))
	for name := range r.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of stores.
func (r *Registry) Len() int { return len(r.stores) }

// Restore replaces the named store with the given triples and counter
// position. Triples are inserted as-is: their blank ids are already
// store-scoped.
func (r *Registry) Restore(name string, triples []term.Triple, counter int64) (*Store, error) {
	s := newStoreAt(name, r.maxTriples, NewCounterAt(counter))
	for _, t := range triples {
		s.Insert(t)
	}
	if err := s.quota.Check(s.Size()); err != nil {
		return nil, err
	}
	r.stores[name] = s
	return s, nil
}

// Drop removes a store. It returns false if the name was unknown.
func (r *Registry) Drop(name string) bool {
	if _, ok := r.stores[name]; !ok {
		return false
	}
	delete(r.stores, name)
	return true
}
