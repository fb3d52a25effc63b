package engine

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/roach88/typox/internal/interop"
	"github.com/roach88/typox/internal/results"
	"github.com/roach88/typox/internal/sparql"
	"github.com/roach88/typox/internal/term"
	"github.com/roach88/typox/internal/triplestore"
	"github.com/roach88/typox/internal/turtle"
)

// Format names an input syntax.
type Format string

const (
	FormatTurtle   Format = "turtle"
	FormatNTriples Format = "ntriples"
	FormatNQuads   Format = "nquads"
	FormatJSONLD   Format = "jsonld"
	FormatRDFXML   Format = "rdfxml"
)

// FormatForPath picks a format from a file extension.
func FormatForPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ttl", ".turtle":
		return FormatTurtle, true
	case ".nt":
		return FormatNTriples, true
	case ".nq":
		return FormatNQuads, true
	case ".jsonld":
		return FormatJSONLD, true
	case ".rdf", ".owl":
		return FormatRDFXML, true
	}
	return "", false
}

// LoadOptions selects the syntax of loaded text.
type LoadOptions struct {
	// Format defaults to FormatTurtle.
	Format Format

	// BaseIRI resolves relative IRI references.
	BaseIRI string
}

// Engine owns a store registry. All methods are safe for concurrent use;
// operations run one at a time.
type Engine struct {
	mu       sync.Mutex
	registry *triplestore.Registry
	logger   *slog.Logger

	maxTriples   int
	maxBindings  int
	defaultStore string
	normalize    bool
	prefixes     map[string]string
}

// New creates an Engine. The default store exists from the start.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:       slog.Default(),
		maxTriples:   DefaultMaxTriples,
		maxBindings:  DefaultMaxBindings,
		defaultStore: DefaultStore,
		normalize:    true,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.registry = triplestore.NewRegistry(e.maxTriples)
	if e.defaultStore != "" {
		e.registry.GetOrCreate(e.defaultStore)
	}
	return e
}

// WithPrefixes adds output prefixes between the built-ins and a query's own
// PREFIX declarations.
func WithPrefixes(prefixes map[string]string) Option {
	return func(e *Engine) {
		e.prefixes = prefixes
	}
}

// Parse decodes text without touching any store. It is safe to call from
// many goroutines and pairs with Apply.
func (e *Engine) Parse(text string, opts LoadOptions) ([]term.Triple, error) {
	decode := interop.DecodeOptions{BaseIRI: opts.BaseIRI, Normalize: e.normalize}

	switch opts.Format {
	case "", FormatTurtle:
		return turtle.Parse(text, turtle.Options{BaseIRI: opts.BaseIRI, Normalize: e.normalize})
	case FormatNTriples:
		return interop.DecodeNTriples(text, decode)
	case FormatNQuads:
		return interop.DecodeNQuads(text, decode)
	case FormatJSONLD:
		return interop.DecodeJSONLD(text, decode)
	case FormatRDFXML:
		return interop.DecodeRDFXML(text, decode)
	}
	return nil, fmt.Errorf("unknown format %q", opts.Format)
}

// Apply inserts a parsed batch into the named store in one step and
// returns the number of new triples. On error the store is unchanged.
func (e *Engine) Apply(store string, batch []term.Triple) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.registry.GetOrCreate(store)
	added, err := s.Apply(batch)
	if err != nil {
		e.logger.Warn("apply failed", "store", store, "triples", len(batch), "error", err)
		return 0, err
	}
	e.logger.Info("triples applied", "store", store, "added", added, "size", s.Size())
	return added, nil
}

// LoadAs parses text in the given syntax and applies it to store.
func (e *Engine) LoadAs(store, text string, opts LoadOptions) (int, error) {
	e.logger.Debug("load starting", "store", store, "format", opts.Format, "bytes", len(text))

	batch, err := e.Parse(text, opts)
	if err != nil {
		e.logger.Warn("load failed", "store", store, "error", err)
		return 0, err
	}
	return e.Apply(store, batch)
}

// Load parses Turtle text into store.
func (e *Engine) Load(store, text string) (int, error) {
	return e.LoadAs(store, text, LoadOptions{Format: FormatTurtle})
}

// LoadNTriples parses N-Triples text into store.
func (e *Engine) LoadNTriples(store, text string) (int, error) {
	return e.LoadAs(store, text, LoadOptions{Format: FormatNTriples})
}

// LoadJSONLD expands a JSON-LD document into store.
func (e *Engine) LoadJSONLD(store, text string) (int, error) {
	return e.LoadAs(store, text, LoadOptions{Format: FormatJSONLD})
}

// Select parses and evaluates a query against store. A store that was never
// loaded is created empty. The query is parsed first, so malformed text
// creates nothing.
func (e *Engine) Select(store, query string) (*sparql.Query, *sparql.Result, error) {
	e.logger.Debug("query starting", "store", store)

	q, err := sparql.Parse(query, sparql.Options{Normalize: e.normalize})
	if err != nil {
		e.logger.Warn("query rejected", "store", store, "error", err)
		return nil, nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.registry.GetOrCreate(store)
	res, err := sparql.Evaluate(s, q, sparql.EvalOptions{MaxBindings: e.maxBindings})
	if err != nil {
		e.logger.Warn("query failed", "store", store, "error", err)
		return nil, nil, err
	}
	e.logger.Info("query evaluated", "store", store, "rows", len(res.Solutions))
	return q, res, nil
}

// QueryRecords evaluates a query and encodes the solutions.
func (e *Engine) QueryRecords(store, query string) ([]results.Record, error) {
	q, res, err := e.Select(store, query)
	if err != nil {
		return nil, err
	}
	return results.Encode(res.Vars, res.Solutions, e.PrefixTable(q.Prefixes))
}

// Query evaluates a query and returns the compact JSON encoding.
func (e *Engine) Query(store, query string) ([]byte, error) {
	records, err := e.QueryRecords(store, query)
	if err != nil {
		return nil, err
	}
	return results.MarshalJSON(records)
}

// PrefixTable returns the output prefix table for a query's declarations.
func (e *Engine) PrefixTable(declared map[string]string) *results.PrefixTable {
	return results.NewPrefixTable(e.prefixes, declared)
}

// Clear removes every triple from store. Its blank-node counter keeps
// counting so later loads never reuse an id.
func (e *Engine) Clear(store string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.registry.GetOrCreate(store)
	removed := s.Size()
	s.Clear()
	e.logger.Info("store cleared", "store", store, "removed", removed)
}

// Size returns the number of triples in store.
func (e *Engine) Size(store string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.registry.GetOrCreate(store).Size()
}

// ListStores returns the store names in byte order.
func (e *Engine) ListStores() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.registry.Names()
}

// Export writes store as N-Triples in insertion order. With Skolemize and no
// Namespace, the store name scopes the skolem IRIs.
func (e *Engine) Export(store string, opts interop.EncodeOptions) ([]byte, error) {
	e.mu.Lock()
	triples := e.registry.GetOrCreate(store).Triples()
	e.mu.Unlock()

	if opts.Namespace == "" {
		opts.Namespace = store
	}
	out, err := interop.EncodeNTriples(triples, opts)
	if err != nil {
		return nil, err
	}
	e.logger.Info("store exported", "store", store, "triples", len(triples))
	return out, nil
}

// Snapshot returns the triples of store and its counter position, for
// persistence. ok is false when the store does not exist.
func (e *Engine) Snapshot(store string) (triples []term.Triple, counter int64, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.registry.Lookup(store)
	if !ok {
		return nil, 0, false
	}
	return s.Triples(), s.Counter().Current(), true
}

// Restore replaces store with persisted triples and counter position.
func (e *Engine) Restore(store string, triples []term.Triple, counter int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.registry.Restore(store, triples, counter); err != nil {
		return fmt.Errorf("restore %s: %w", store, err)
	}
	e.logger.Debug("store restored", "store", store, "triples", len(triples), "counter", counter)
	return nil
}
