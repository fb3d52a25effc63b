package results

import (
	"encoding/json"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/roach88/typox/internal/rdferr"
	"github.com/roach88/typox/internal/sparql"
	"github.com/roach88/typox/internal/term"
)

// Encode converts a solution sequence into records.
func Encode(vars []string, solutions []sparql.Solution, table *PrefixTable) ([]Record, error) {
	records := make([]Record, 0, len(solutions))
	for _, sol := range solutions {
		rec := make(Record, 0, len(vars))
		for _, v := range vars {
			t, ok := sol[v]
			if !ok || t == nil {
				continue
			}
			val, err := EncodeTerm(t, table)
			if err != nil {
				return nil, err
			}
			rec = append(rec, Field{Name: v, Value: val})
		}
		records = append(records, rec)
	}
	return records, nil
}

// EncodeTerm encodes one term by its kind and datatype tag:
//   - Integer, Decimal, Double: a JSON number; an unparsable lexical form
//     is an EvaluationError
//   - PlainString, LangString: the lexical form without the language tag
//   - Boolean: the lexical form as a string
//   - other literals: the lexical form
//   - IRI: prefix:local when a namespace matches, otherwise the full IRI
//   - blank node: "_:" + id
func EncodeTerm(t term.Term, table *PrefixTable) (Value, error) {
	switch v := t.(type) {
	case term.IRI:
		return String(table.Shorten(v.Value())), nil
	case term.BlankNode:
		return String(v.String()), nil
	case term.Literal:
		switch v.Tag() {
		case term.TagInteger:
			return encodeInteger(v)
		case term.TagDecimal, term.TagDouble:
			return encodeFloat(v)
		default:
			return String(v.Lexical()), nil
		}
	}
	return nil, &rdferr.EvaluationError{
		Code:    rdferr.ErrCodeInvalidQuery,
		Message: "cannot encode unbound term",
	}
}

func encodeInteger(l term.Literal) (Value, error) {
	lexical := strings.TrimSpace(l.Lexical())
	n, ok := new(big.Int).SetString(lexical, 10)
	if !ok {
		return nil, rdferr.NewCoercionError(l.Lexical(), string(l.Datatype()))
	}
	return Number(n.String()), nil
}

func encodeFloat(l term.Literal) (Value, error) {
	lexical := strings.TrimSpace(l.Lexical())
	bad := "xX_pP"
	if l.Tag() == term.TagDecimal {
		// xsd:decimal has no exponent form.
		bad += "eE"
	}
	if strings.ContainsAny(lexical, bad) {
		return nil, rdferr.NewCoercionError(l.Lexical(), string(l.Datatype()))
	}
	f, err := strconv.ParseFloat(lexical, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, rdferr.NewCoercionError(l.Lexical(), string(l.Datatype()))
	}
	// encoding/json picks the shortest round-trip form.
	b, err := json.Marshal(f)
	if err != nil {
		return nil, rdferr.NewCoercionError(l.Lexical(), string(l.Datatype()))
	}
	return Number(b), nil
}
