package engine

import (
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/roach88/typox/internal/interop"
	"github.com/roach88/typox/internal/results"
)

// Status is the outcome code of a protocol call.
type Status int32

const (
	StatusOK    Status = 0
	StatusError Status = 1
)

// Operation names accepted by Protocol.Call. The legacy names load_turtle,
// clear_store and get_store_size are accepted as aliases.
const (
	OpLoad         = "load"
	OpLoadNTriples = "load_ntriples"
	OpLoadJSONLD   = "load_jsonld"
	OpLoadRDFXML   = "load_rdf_xml"
	OpQuery        = "query"
	OpClear        = "clear"
	OpListStores   = "list_stores"
	OpStoreSize    = "store_size"
	OpExport       = "export"
)

var aliases = map[string]string{
	"load_turtle":    OpLoad,
	"clear_store":    OpClear,
	"get_store_size": OpStoreSize,
}

// Protocol adapts an Engine to the byte-buffer calling convention.
type Protocol struct {
	engine *Engine
}

// NewProtocol wraps e.
func NewProtocol(e *Engine) *Protocol {
	return &Protocol{engine: e}
}

// Engine returns the wrapped engine.
func (p *Protocol) Engine() *Engine { return p.engine }

// Call runs one operation. On failure the payload is "ERROR: <message>"
// and the status is StatusError; a panic inside the operation is reported
// the same way.
func (p *Protocol) Call(op string, args ...[]byte) (out []byte, status Status) {
	defer func() {
		if r := recover(); r != nil {
			p.engine.logger.Error("operation panicked", "op", op, "panic", r)
			out, status = failure(fmt.Errorf("internal error: %v", r))
		}
	}()

	if canonical, ok := aliases[op]; ok {
		op = canonical
	}

	payload, err := p.dispatch(op, args)
	if err != nil {
		return failure(err)
	}
	return payload, StatusOK
}

func failure(err error) ([]byte, Status) {
	return []byte("ERROR: " + err.Error()), StatusError
}

func (p *Protocol) dispatch(op string, args [][]byte) ([]byte, error) {
	switch op {
	case OpLoad, OpLoadNTriples, OpLoadJSONLD, OpLoadRDFXML:
		store, text, err := storeAndText(op, args, "data")
		if err != nil {
			return nil, err
		}
		format := FormatTurtle
		switch op {
		case OpLoadNTriples:
			format = FormatNTriples
		case OpLoadJSONLD:
			format = FormatJSONLD
		case OpLoadRDFXML:
			format = FormatRDFXML
		}
		n, err := p.engine.LoadAs(store, text, LoadOptions{Format: format})
		if err != nil {
			return nil, err
		}
		return []byte(fmt.Sprintf("OK: loaded %d triples", n)), nil

	case OpQuery:
		store, query, err := storeAndText(op, args, "SPARQL query")
		if err != nil {
			return nil, err
		}
		return p.engine.Query(store, query)

	case OpClear:
		store, err := storeOnly(op, args)
		if err != nil {
			return nil, err
		}
		p.engine.Clear(store)
		return []byte("OK"), nil

	case OpStoreSize:
		store, err := storeOnly(op, args)
		if err != nil {
			return nil, err
		}
		return []byte(strconv.Itoa(p.engine.Size(store))), nil

	case OpExport:
		store, err := storeOnly(op, args)
		if err != nil {
			return nil, err
		}
		return p.engine.Export(store, interop.EncodeOptions{})

	case OpListStores:
		if err := arity(op, args, 0); err != nil {
			return nil, err
		}
		return results.MarshalStrings(p.engine.ListStores())
	}
	return nil, fmt.Errorf("unknown operation %q", op)
}

func arity(op string, args [][]byte, want int) error {
	if len(args) != want {
		return fmt.Errorf("%s expects %d arguments, got %d", op, want, len(args))
	}
	return nil
}

func storeOnly(op string, args [][]byte) (string, error) {
	if err := arity(op, args, 1); err != nil {
		return "", err
	}
	return decodeStoreName(args[0])
}

func storeAndText(op string, args [][]byte, what string) (string, string, error) {
	if err := arity(op, args, 2); err != nil {
		return "", "", err
	}
	store, err := decodeStoreName(args[0])
	if err != nil {
		return "", "", err
	}
	if !utf8.Valid(args[1]) {
		return "", "", fmt.Errorf("invalid %s: not valid UTF-8", what)
	}
	return store, string(args[1]), nil
}

func decodeStoreName(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", errors.New("invalid store name: not valid UTF-8")
	}
	return string(b), nil
}
