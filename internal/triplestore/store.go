package triplestore

import (
	"strconv"

	"github.com/roach88/typox/internal/term"
)

// Pattern is a triple pattern. A nil position matches any term.
type Pattern struct {
	S term.Term
	P term.Term
	O term.Term
}

// Matches reports whether t satisfies the pattern.
func (p Pattern) Matches(t term.Triple) bool {
	if p.S != nil && !term.Equal(p.S, t.S) {
		return false
	}
	if p.P != nil && !term.Equal(p.P, t.P) {
		return false
	}
	if p.O != nil && !term.Equal(p.O, t.O) {
		return false
	}
	return true
}

// Store is a set of triples with a blank-node counter.
//
// Triples are kept in insertion order; each position has an index from the
// term key to the ascending list of slots holding that term, so Match
// returns triples in insertion order regardless of which index it used.
type Store struct {
	name    string
	triples []term.Triple
	keys    map[string]struct{}

	bySubject   map[string][]int
	byPredicate map[string][]int
	byObject    map[string][]int

	counter *Counter
	quota   *Quota
}

// NewStore creates an empty store. maxTriples <= 0 means unlimited.
func NewStore(name string, maxTriples int) *Store {
	return newStoreAt(name, maxTriples, NewCounter())
}

func newStoreAt(name string, maxTriples int, counter *Counter) *Store {
	return &Store{
		name:        name,
		keys:        make(map[string]struct{}),
		bySubject:   make(map[string][]int),
		byPredicate: make(map[string][]int),
		byObject:    make(map[string][]int),
		counter:     counter,
		quota:       NewQuota("triples", maxTriples),
	}
}

// Name returns the registry name of the store.
func (s *Store) Name() string { return s.name }

// Size returns the number of distinct triples.
func (s *Store) Size() int { return len(s.triples) }

// Counter returns the store's blank-node counter.
func (s *Store) Counter() *Counter { return s.counter }

// Insert adds a triple. It returns false when the triple was already
// present. Insert does not rename blank nodes or check the quota; loaders go
// through Apply.
func (s *Store) Insert(t term.Triple) bool {
	key := t.Key()
	if _, ok := s.keys[key]; ok {
		return false
	}
	slot := len(s.triples)
	s.triples = append(s.triples, t)
	s.keys[key] = struct{}{}
	s.bySubject[term.Key(t.S)] = append(s.bySubject[term.Key(t.S)], slot)
	s.byPredicate[term.Key(t.P)] = append(s.byPredicate[term.Key(t.P)], slot)
	s.byObject[term.Key(t.O)] = append(s.byObject[term.Key(t.O)], slot)
	return true
}

// Contains reports whether t is in the store.
func (s *Store) Contains(t term.Triple) bool {
	_, ok := s.keys[t.Key()]
	return ok
}

// Match returns the triples matching p in insertion order.
//
// The smallest bucket among the bound positions is scanned and the other
// positions are checked per triple, so the cost is O(m) for the most
// selective bucket size m. A fully unbound pattern scans the store.
func (s *Store) Match(p Pattern) []term.Triple {
	slots, scanAll := s.candidates(p)
	if scanAll {
		return s.Triples()
	}

	var out []term.Triple
	for _, slot := range slots {
		t := s.triples[slot]
		if p.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// candidates picks the smallest index bucket for the bound positions.
func (s *Store) candidates(p Pattern) (slots []int, scanAll bool) {
	found := false
	consider := func(index map[string][]int, t term.Term) {
		if t == nil {
			return
		}
		bucket := index[term.Key(t)]
		if !found || len(bucket) < len(slots) {
			slots = bucket
			found = true
		}
	}
	consider(s.bySubject, p.S)
	consider(s.byPredicate, p.P)
	consider(s.byObject, p.O)
	return slots, !found
}

// Triples returns a copy of all triples in insertion order.
func (s *Store) Triples() []term.Triple {
	out := make([]term.Triple, len(s.triples))
	copy(out, s.triples)
	return out
}

// Clear removes every triple. The blank-node counter keeps its position so
// ids are never reused within a store.
func (s *Store) Clear() {
	s.triples = nil
	s.keys = make(map[string]struct{})
	s.bySubject = make(map[string][]int)
	s.byPredicate = make(map[string][]int)
	s.byObject = make(map[string][]int)
}

// Apply inserts a parsed batch atomically and returns the number of triples
// that were new.
//
// Blank nodes in the batch carry document-local labels; each distinct label
// is renamed to a fresh store-scoped id from the counter. The quota is
// checked against the deduplicated result before anything is written, so a
// failed Apply leaves the store and its counter untouched.
func (s *Store) Apply(batch []term.Triple) (int, error) {
	renamed, used := s.renameBlanks(batch)

	added := make([]term.Triple, 0, len(renamed))
	seen := make(map[string]struct{}, len(renamed))
	for _, t := range renamed {
		key := t.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if s.Contains(t) {
			continue
		}
		added = append(added, t)
	}

	if err := s.quota.Check(len(s.triples) + len(added)); err != nil {
		return 0, err
	}

	s.counter.advance(used)
	for _, t := range added {
		s.Insert(t)
	}
	return len(added), nil
}

// renameBlanks maps document-local labels to ids continuing from the
// counter's current position without advancing it.
func (s *Store) renameBlanks(batch []term.Triple) ([]term.Triple, int64) {
	labels := make(map[term.BlankNode]term.BlankNode)
	next := s.counter.Current()
	var used int64

	rename := func(t term.Term) term.Term {
		b, ok := t.(term.BlankNode)
		if !ok {
			return t
		}
		if id, ok := labels[b]; ok {
			return id
		}
		used++
		id := term.BlankNode("b" + strconv.FormatInt(next+used, 10))
		labels[b] = id
		return id
	}

	out := make([]term.Triple, len(batch))
	for i, t := range batch {
		out[i] = term.Triple{S: rename(t.S), P: t.P, O: rename(t.O)}
	}
	return out, used
}
