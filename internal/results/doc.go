// Package results encodes SELECT solutions as JSON records.
//
// Each solution becomes one object whose keys are the projected variables
// in projection order; unbound variables are left out. Numeric literals
// (integer, decimal, double families) become JSON numbers, every other term
// a JSON string. IRIs are shortened through a PrefixTable built from the
// well-known vocabularies plus the query's own PREFIX declarations.
//
// The output is compact, has no HTML escaping and depends only on the
// solution sequence, so equal inputs always give equal bytes.
package results
