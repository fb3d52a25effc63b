package sparql

import (
	"sort"
	"strings"

	"github.com/roach88/typox/internal/term"
	"github.com/roach88/typox/internal/triplestore"
)

// Solution binds variable names to terms. An absent key is unbound.
type Solution map[string]term.Term

// Source is the read side of a triple store.
type Source interface {
	Match(p triplestore.Pattern) []term.Triple
}

// Result is an evaluated query: the projected variables and the solution
// sequence in final order.
type Result struct {
	Vars      []string
	Solutions []Solution
}

// EvalOptions bounds evaluation.
type EvalOptions struct {
	// MaxBindings caps the size of any intermediate solution sequence.
	// Zero or less disables the cap.
	MaxBindings int
}

// Evaluate runs q against src. A nil src behaves as an empty store.
//
// Steps, in order:
//  1. Join the WHERE elements left to right, starting from one empty
//     solution. A triple pattern is a nested-loop join: each solution is
//     substituted into the pattern and the store is scanned for matches.
//     An OPTIONAL group keeps a solution unchanged when the group has no
//     match for it.
//  2. Drop solutions for which a top-level FILTER is false or a type error.
//  3. Sort by ORDER BY keys (stable, so full ties keep join order).
//  4. Project onto the selected variables, then apply DISTINCT.
//  5. Apply OFFSET, then LIMIT.
//
// Sorting happens before projection so keys may reference variables that
// are not selected; for selected keys the order is the same either way.
//
// Cost: a pattern step is O(|Ω|·m) where |Ω| is the incoming sequence size
// and m the size of the most selective index bucket for the substituted
// pattern, so a BGP of k patterns is bounded by the product of its bucket
// sizes. MaxBindings caps every intermediate |Ω|. Filtering is O(|Ω|·f) for
// f filter nodes, sorting O(n log n · k) comparisons for k keys, and
// DISTINCT O(n) with hashing.
func Evaluate(src Source, q *Query, opts EvalOptions) (*Result, error) {
	quota := triplestore.NewQuota("bindings", opts.MaxBindings)

	solutions := []Solution{{}}
	if src != nil {
		var err error
		for _, elem := range q.Where {
			switch el := elem.(type) {
			case TriplePattern:
				solutions, err = joinPattern(src, solutions, el, quota)
			case OptionalGroup:
				solutions, err = leftJoin(src, solutions, el, quota)
			}
			if err != nil {
				return nil, err
			}
		}
	} else if len(q.Where) > 0 {
		solutions = nil
	}

	solutions = applyFilters(solutions, q.Filters)

	if len(q.OrderBy) > 0 {
		sortSolutions(solutions, q.OrderBy)
	}

	rows := project(solutions, q.Variables)
	if q.Distinct {
		rows = distinct(rows, q.Variables)
	}

	rows = slice(rows, q.Offset, q.Limit)
	return &Result{Vars: q.Variables, Solutions: rows}, nil
}

// joinPattern extends every solution with the matches of one pattern.
// Solutions without a match are dropped.
func joinPattern(src Source, in []Solution, tp TriplePattern, quota *triplestore.Quota) ([]Solution, error) {
	var out []Solution
	for _, sol := range in {
		for _, t := range src.Match(substitute(tp, sol)) {
			ext, ok := extend(sol, tp, t)
			if !ok {
				continue
			}
			out = append(out, ext)
			if err := quota.Check(len(out)); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// leftJoin evaluates an OPTIONAL group once per incoming solution.
func leftJoin(src Source, in []Solution, g OptionalGroup, quota *triplestore.Quota) ([]Solution, error) {
	var out []Solution
	for _, sol := range in {
		group := []Solution{sol}
		var err error
		for _, tp := range g.Patterns {
			group, err = joinPattern(src, group, tp, quota)
			if err != nil {
				return nil, err
			}
			if len(group) == 0 {
				break
			}
		}
		group = applyFilters(group, g.Filters)

		if len(group) == 0 {
			out = append(out, sol)
		} else {
			out = append(out, group...)
		}
		if err := quota.Check(len(out)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// substitute turns a triple pattern into a store pattern, replacing bound
// variables with their values and leaving unbound ones as wildcards.
func substitute(tp TriplePattern, sol Solution) triplestore.Pattern {
	resolve := func(n Node) term.Term {
		if !n.IsVar() {
			return n.Term
		}
		return sol[n.Var]
	}
	return triplestore.Pattern{S: resolve(tp.S), P: resolve(tp.P), O: resolve(tp.O)}
}

// extend binds the pattern's unbound variables to the matched triple. It
// fails when one variable occurs twice in the pattern with different terms.
func extend(sol Solution, tp TriplePattern, t term.Triple) (Solution, bool) {
	ext := make(Solution, len(sol)+3)
	for k, v := range sol {
		ext[k] = v
	}
	positions := [3]struct {
		n Node
		t term.Term
	}{{tp.S, t.S}, {tp.P, t.P}, {tp.O, t.O}}

	for _, pos := range positions {
		if !pos.n.IsVar() {
			continue
		}
		if prev, ok := ext[pos.n.Var]; ok {
			if !term.Equal(prev, pos.t) {
				return nil, false
			}
			continue
		}
		ext[pos.n.Var] = pos.t
	}
	return ext, true
}

// applyFilters keeps the solutions for which every filter is true.
func applyFilters(in []Solution, filters []Expr) []Solution {
	if len(filters) == 0 {
		return in
	}
	out := in[:0:0]
	for _, sol := range in {
		keep := true
		for _, f := range filters {
			ok, err := effectiveBool(f, sol)
			if err != nil || !ok {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, sol)
		}
	}
	return out
}

// sortSolutions orders solutions by the keys. An unbound or erroring key
// sorts first, as term.Compare does for nil.
func sortSolutions(solutions []Solution, keys []OrderKey) {
	values := make([][]term.Term, len(solutions))
	for i, sol := range solutions {
		row := make([]term.Term, len(keys))
		for k, key := range keys {
			if t, err := evalExpr(key.Expr, sol); err == nil {
				row[k] = t
			}
		}
		values[i] = row
	}

	idx := make([]int, len(solutions))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ra, rb := values[idx[a]], values[idx[b]]
		for k, key := range keys {
			c := term.Compare(ra[k], rb[k])
			if key.Descending {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})

	sorted := make([]Solution, len(solutions))
	for i, j := range idx {
		sorted[i] = solutions[j]
	}
	copy(solutions, sorted)
}

// project copies each solution down to the selected variables.
func project(in []Solution, vars []string) []Solution {
	out := make([]Solution, len(in))
	for i, sol := range in {
		row := make(Solution, len(vars))
		for _, v := range vars {
			if t, ok := sol[v]; ok {
				row[v] = t
			}
		}
		out[i] = row
	}
	return out
}

// distinct keeps the first occurrence of each projected row.
func distinct(in []Solution, vars []string) []Solution {
	seen := make(map[string]struct{}, len(in))
	out := in[:0:0]
	var b strings.Builder
	for _, sol := range in {
		b.Reset()
		for _, v := range vars {
			if t, ok := sol[v]; ok {
				b.WriteString(t.String())
			}
			b.WriteByte(0)
		}
		key := b.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, sol)
	}
	return out
}

func slice(in []Solution, offset, limit int) []Solution {
	if offset > 0 {
		if offset >= len(in) {
			return nil
		}
		in = in[offset:]
	}
	if limit >= 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}
