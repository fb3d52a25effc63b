package sparql

import (
	"errors"
	"math"
	"strings"

	"github.com/roach88/typox/internal/term"
)

// errType marks a FILTER type error. It never leaves this package: a filter
// that raises it simply rejects the binding.
var errType = errors.New("type error")

var (
	trueLit  = term.NewBoolean(true)
	falseLit = term.NewBoolean(false)
)

func boolTerm(b bool) term.Term {
	if b {
		return trueLit
	}
	return falseLit
}

// evalExpr evaluates e under binding b.
func evalExpr(e Expr, b Solution) (term.Term, error) {
	switch x := e.(type) {
	case VarExpr:
		t, ok := b[x.Name]
		if !ok {
			return nil, errType
		}
		return t, nil
	case TermExpr:
		return x.Term, nil
	case NotExpr:
		v, err := effectiveBool(x.X, b)
		if err != nil {
			return nil, err
		}
		return boolTerm(!v), nil
	case AndExpr:
		// SPARQL logical-and: false wins over an error.
		l, lerr := effectiveBool(x.Left, b)
		r, rerr := effectiveBool(x.Right, b)
		switch {
		case lerr == nil && !l, rerr == nil && !r:
			return falseLit, nil
		case lerr != nil:
			return nil, lerr
		case rerr != nil:
			return nil, rerr
		}
		return trueLit, nil
	case OrExpr:
		l, lerr := effectiveBool(x.Left, b)
		r, rerr := effectiveBool(x.Right, b)
		switch {
		case lerr == nil && l, rerr == nil && r:
			return trueLit, nil
		case lerr != nil:
			return nil, lerr
		case rerr != nil:
			return nil, rerr
		}
		return falseLit, nil
	case CompareExpr:
		l, err := evalExpr(x.Left, b)
		if err != nil {
			return nil, err
		}
		r, err := evalExpr(x.Right, b)
		if err != nil {
			return nil, err
		}
		ok, err := compareTerms(x.Op, l, r)
		if err != nil {
			return nil, err
		}
		return boolTerm(ok), nil
	case CallExpr:
		return evalCall(x, b)
	}
	return nil, errType
}

// effectiveBool computes the effective boolean value of e.
func effectiveBool(e Expr, b Solution) (bool, error) {
	t, err := evalExpr(e, b)
	if err != nil {
		return false, err
	}
	lit, ok := t.(term.Literal)
	if !ok {
		return false, errType
	}
	switch lit.Tag() {
	case term.TagBoolean:
		switch lit.Lexical() {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
		return false, nil
	case term.TagInteger, term.TagDecimal, term.TagDouble:
		f, ok := lit.Float()
		if !ok {
			return false, nil
		}
		return f != 0 && !math.IsNaN(f), nil
	case term.TagPlainString, term.TagLangString:
		return lit.Lexical() != "", nil
	}
	return false, errType
}

// compareTerms applies a relational operator.
//
// Numeric against numeric compares by value. String-like against
// string-like compares lexical forms, and only when the language tags
// agree. Booleans compare false < true. Literals of the same other datatype
// compare lexically. IRIs and blank nodes support only = and !=. Every
// other combination is a type error, except = and != between terms of
// different kinds, which are simply false and true.
func compareTerms(op CompareOp, l, r term.Term) (bool, error) {
	ll, lok := l.(term.Literal)
	rl, rok := r.(term.Literal)

	if !lok || !rok {
		switch op {
		case OpEq:
			return term.Equal(l, r), nil
		case OpNe:
			return !term.Equal(l, r), nil
		}
		return false, errType
	}

	var c int
	switch lt, rt := ll.Tag(), rl.Tag(); {
	case lt.IsNumeric() && rt.IsNumeric():
		lf, ok1 := ll.Float()
		rf, ok2 := rl.Float()
		if !ok1 || !ok2 {
			return false, errType
		}
		switch {
		case lf < rf:
			c = -1
		case lf > rf:
			c = 1
		}
	case lt.IsStringLike() && rt.IsStringLike():
		if ll.Language() != rl.Language() {
			switch op {
			case OpEq:
				return false, nil
			case OpNe:
				return true, nil
			}
			return false, errType
		}
		c = strings.Compare(ll.Lexical(), rl.Lexical())
	case lt == term.TagBoolean && rt == term.TagBoolean:
		lb, err := parseBool(ll.Lexical())
		if err != nil {
			return false, err
		}
		rb, err := parseBool(rl.Lexical())
		if err != nil {
			return false, err
		}
		switch {
		case !lb && rb:
			c = -1
		case lb && !rb:
			c = 1
		}
	case lt == term.TagOther && rt == term.TagOther && ll.Datatype() == rl.Datatype():
		c = strings.Compare(ll.Lexical(), rl.Lexical())
	default:
		return false, errType
	}

	switch op {
	case OpEq:
		return c == 0, nil
	case OpNe:
		return c != 0, nil
	case OpLt:
		return c < 0, nil
	case OpGt:
		return c > 0, nil
	case OpLe:
		return c <= 0, nil
	case OpGe:
		return c >= 0, nil
	}
	return false, errType
}

func parseBool(lexical string) (bool, error) {
	switch lexical {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return false, errType
}

func evalCall(c CallExpr, b Solution) (term.Term, error) {
	if c.Func == "bound" {
		_, ok := b[c.Args[0].(VarExpr).Name]
		return boolTerm(ok), nil
	}

	args := make([]term.Term, len(c.Args))
	for i, a := range c.Args {
		t, err := evalExpr(a, b)
		if err != nil {
			return nil, err
		}
		args[i] = t
	}

	switch c.Func {
	case "lang":
		lit, ok := args[0].(term.Literal)
		if !ok {
			return nil, errType
		}
		return term.NewString(lit.Language()), nil
	case "langmatches":
		tag, ok1 := stringValue(args[0])
		rng, ok2 := stringValue(args[1])
		if !ok1 || !ok2 {
			return nil, errType
		}
		return boolTerm(langMatches(tag, rng)), nil
	case "str":
		switch v := args[0].(type) {
		case term.IRI:
			return term.NewString(v.Value()), nil
		case term.Literal:
			return term.NewString(v.Lexical()), nil
		}
		return nil, errType
	case "datatype":
		lit, ok := args[0].(term.Literal)
		if !ok {
			return nil, errType
		}
		return lit.Datatype(), nil
	case "isiri", "isuri":
		return boolTerm(args[0].Kind() == term.KindIRI), nil
	case "isblank":
		return boolTerm(args[0].Kind() == term.KindBlank), nil
	case "isliteral":
		return boolTerm(args[0].Kind() == term.KindLiteral), nil
	case "isnumeric":
		lit, ok := args[0].(term.Literal)
		if !ok || !lit.Tag().IsNumeric() {
			return falseLit, nil
		}
		_, valid := lit.Float()
		return boolTerm(valid), nil
	case "contains", "strstarts", "strends":
		hay, ok1 := args[0].(term.Literal)
		needle, ok2 := args[1].(term.Literal)
		if !ok1 || !ok2 || !hay.Tag().IsStringLike() || !needle.Tag().IsStringLike() {
			return nil, errType
		}
		if needle.Language() != "" && needle.Language() != hay.Language() {
			return nil, errType
		}
		switch c.Func {
		case "contains":
			return boolTerm(strings.Contains(hay.Lexical(), needle.Lexical())), nil
		case "strstarts":
			return boolTerm(strings.HasPrefix(hay.Lexical(), needle.Lexical())), nil
		default:
			return boolTerm(strings.HasSuffix(hay.Lexical(), needle.Lexical())), nil
		}
	}
	return nil, errType
}

// stringValue returns the lexical form of a simple (untagged) string literal.
func stringValue(t term.Term) (string, bool) {
	lit, ok := t.(term.Literal)
	if !ok || lit.Tag() != term.TagPlainString {
		return "", false
	}
	return lit.Lexical(), true
}

// langMatches implements basic filtering from RFC 4647: "*" matches any
// non-empty tag, otherwise the range must equal the tag or be a prefix of
// it ending at a '-', case-insensitively.
func langMatches(tag, rng string) bool {
	if rng == "*" {
		return tag != ""
	}
	tag, rng = strings.ToLower(tag), strings.ToLower(rng)
	return tag == rng || strings.HasPrefix(tag, rng+"-")
}
