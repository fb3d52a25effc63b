// Package turtle parses the supported Turtle subset and applies it to a
// triple store.
//
// Supported: @prefix/PREFIX, @base/BASE, IRIs in <...> or prefixed form,
// 'a', _:label blank nodes, the empty anonymous node [], ';' and ','
// abbreviations, short and long strings with escapes, language tags,
// ^^datatype, bare numbers and booleans.
//
// Rejected with a ParseError rather than approximated: blank node property
// lists ([ p o ]), collections ( ... ), quoted triples << >> and
// annotations {| |}.
package turtle

import (
	"github.com/roach88/typox/internal/triplestore"
)

// Load parses text completely, then applies the triples to store in one
// step. On any error the store is left unchanged.
func Load(store *triplestore.Store, text string, opts Options) (int, error) {
	triples, err := Parse(text, opts)
	if err != nil {
		return 0, err
	}
	return store.Apply(triples)
}
