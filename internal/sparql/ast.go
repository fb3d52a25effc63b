package sparql

import (
	"github.com/roach88/typox/internal/term"
)

// Query is a parsed SELECT query.
type Query struct {
	// Prefixes holds the PREFIX declarations in the query text. They are
	// used only to shorten IRIs in the result; matching uses resolved IRIs.
	Prefixes map[string]string

	Distinct bool

	// Star is true for SELECT *. Variables is then filled with every
	// pattern variable in order of first appearance.
	Star      bool
	Variables []string

	Where   []Element
	Filters []Expr

	OrderBy []OrderKey

	// Limit is -1 when absent.
	Limit  int
	Offset int
}

// Element is a member of the WHERE group.
// Sealed: only TriplePattern and OptionalGroup implement it.
type Element interface {
	element() // Sealed
}

// TriplePattern is one triple pattern. Each position is a variable or a
// concrete term.
type TriplePattern struct {
	S, P, O Node
}

func (TriplePattern) element() {}

// Vars returns the variables of the pattern in S, P, O order.
func (tp TriplePattern) Vars() []string {
	var vars []string
	for _, n := range []Node{tp.S, tp.P, tp.O} {
		if n.IsVar() {
			vars = append(vars, n.Var)
		}
	}
	return vars
}

// OptionalGroup is OPTIONAL { ... }. Its filters constrain only the group's
// own extension of a binding.
type OptionalGroup struct {
	Patterns []TriplePattern
	Filters  []Expr
}

func (OptionalGroup) element() {}

// Node is a pattern position: a variable when Var is set, otherwise Term.
// Blank nodes in query patterns become hidden variables whose names start
// with "_:"; they join like variables but are never projected.
type Node struct {
	Var  string
	Term term.Term
}

// IsVar reports whether the node is a variable.
func (n Node) IsVar() bool { return n.Var != "" }

// IsHidden reports whether the node is a blank-node variable.
func (n Node) IsHidden() bool { return isHidden(n.Var) }

func isHidden(name string) bool {
	return len(name) > 2 && name[0] == '_' && name[1] == ':'
}

// OrderKey is one ORDER BY key.
type OrderKey struct {
	Expr       Expr
	Descending bool
}

// Expr is a FILTER or ORDER BY expression.
// Sealed: only the types in this file implement it.
type Expr interface {
	expr() // Sealed
}

// VarExpr references a variable.
type VarExpr struct {
	Name string
}

func (VarExpr) expr() {}

// TermExpr is a constant.
type TermExpr struct {
	Term term.Term
}

func (TermExpr) expr() {}

// CompareOp is a relational operator.
type CompareOp string

const (
	OpEq CompareOp = "="
	OpNe CompareOp = "!="
	OpLt CompareOp = "<"
	OpGt CompareOp = ">"
	OpLe CompareOp = "<="
	OpGe CompareOp = ">="
)

// CompareExpr is Left Op Right.
type CompareExpr struct {
	Op          CompareOp
	Left, Right Expr
}

func (CompareExpr) expr() {}

// AndExpr is Left && Right.
type AndExpr struct {
	Left, Right Expr
}

func (AndExpr) expr() {}

// OrExpr is Left || Right.
type OrExpr struct {
	Left, Right Expr
}

func (OrExpr) expr() {}

// NotExpr is !X.
type NotExpr struct {
	X Expr
}

func (NotExpr) expr() {}

// CallExpr is a built-in function call. Func is the lower-cased name.
type CallExpr struct {
	Func string
	Args []Expr
}

func (CallExpr) expr() {}

// builtins maps supported function names to their arity.
var builtins = map[string]int{
	"lang":        1,
	"langmatches": 2,
	"str":         1,
	"datatype":    1,
	"bound":       1,
	"isiri":       1,
	"isuri":       1,
	"isblank":     1,
	"isliteral":   1,
	"isnumeric":   1,
	"contains":    2,
	"strstarts":   2,
	"strends":     2,
}

// unsupportedFunctions are recognized SPARQL function names that this
// evaluator rejects, reported by their canonical spelling.
var unsupportedFunctions = map[string]string{
	"count":        "COUNT",
	"sum":          "SUM",
	"avg":          "AVG",
	"min":          "MIN",
	"max":          "MAX",
	"sample":       "SAMPLE",
	"group_concat": "GROUP_CONCAT",
	"exists":       "EXISTS",
}
