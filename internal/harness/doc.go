// Package harness runs conformance scenarios against the protocol surface.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: foaf_people
//	description: "Load a FOAF document and query it"
//	setup:
//	  max_triples: 100
//	steps:
//	  - op: load
//	    store: people
//	    data: |
//	      @prefix foaf: <http://xmlns.com/foaf/0.1/> .
//	      <http://example.org/alice> foaf:name "Alice" .
//	    expect:
//	      status: ok
//	      payload: "OK: loaded 1 triples"
//	  - op: query
//	    store: people
//	    data: "SELECT ?n WHERE { ?s ?p ?n }"
//	    expect:
//	      json: '[{"n":"Alice"}]'
//	      paths: { "0.n": "Alice" }
//	assertions:
//	  - type: store_size
//	    store: people
//	    count: 1
//
// Each step becomes one Protocol.Call. The store and data fields fill the
// argument list the operation expects; args overrides them verbatim, which
// lets a scenario exercise arity errors.
//
// # Assertion Types
//
//   - store_size: the named store holds exactly count triples
//   - stores: the registry lists exactly these names, in order
//   - query: running query against store yields json
//
// # Deterministic Testing
//
// Every scenario gets a fresh engine with logging discarded. Store names,
// blank node labels and query output are all deterministic, so the trace
// of calls can be compared byte for byte against a golden file.
package harness
