// Package sparql parses and evaluates the supported SELECT subset.
//
// Supported: PREFIX and BASE, SELECT [DISTINCT] with variables or *, a
// WHERE group of triple patterns (with ';' and ',' abbreviations and 'a'),
// one level of OPTIONAL groups, FILTER with comparisons, &&, ||, ! and a
// small set of built-in functions, ORDER BY with ASC/DESC keys, LIMIT and
// OFFSET.
//
// Everything else that SPARQL 1.1 defines and this package recognizes
// (CONSTRUCT, ASK, DESCRIBE, updates, aggregates, GROUP BY, subqueries,
// property paths, UNION, MINUS, BIND, VALUES, SERVICE, GRAPH, FROM) is
// rejected at parse time with an UNSUPPORTED EvaluationError, so nothing
// is ever partially evaluated.
//
// FILTER type errors are not errors: the binding is dropped.
package sparql
