// Package term provides the RDF term model for typox.
//
// This package contains value types only. Every other internal package
// imports term; term imports nothing internal.
//
// Key design constraints:
//   - Term is a sealed interface: only IRI, BlankNode and Literal implement it
//   - Terms are comparable values; equality is structural and exact
//   - A literal's datatype tag is computed once by its constructor and never
//     re-derived from the datatype IRI afterwards
//   - String() is the N-Triples form and doubles as the dedupe/index key
package term
