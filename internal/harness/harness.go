package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/roach88/typox/internal/engine"
)

// Harness is the scenario execution engine.
type Harness struct {
	protocol *engine.Protocol
	logger   *slog.Logger
}

// New creates a harness with a fresh engine configured by setup.
func New(setup *Setup) *Harness {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts := []engine.Option{engine.WithLogger(logger)}
	if setup != nil {
		if setup.MaxTriples > 0 {
			opts = append(opts, engine.WithMaxTriples(setup.MaxTriples))
		}
		if setup.MaxBindings > 0 {
			opts = append(opts, engine.WithMaxBindings(setup.MaxBindings))
		}
		if setup.DefaultStore != nil {
			opts = append(opts, engine.WithDefaultStore(*setup.DefaultStore))
		}
		if setup.Normalize != nil {
			opts = append(opts, engine.WithNormalization(*setup.Normalize))
		}
		if len(setup.Prefixes) > 0 {
			opts = append(opts, engine.WithPrefixes(setup.Prefixes))
		}
	}
	return &Harness{
		protocol: engine.NewProtocol(engine.New(opts...)),
		logger:   logger,
	}
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs against a fresh engine, so scenarios never share
// stores. Execution flow:
// 1. Build the engine from the setup block
// 2. Execute steps, checking each expect clause
// 3. Record final store sizes
// 4. Evaluate assertions in order
func Run(scenario *Scenario) (*Result, error) {
	if scenario == nil {
		return nil, fmt.Errorf("scenario is nil")
	}
	return New(scenario.Setup).Run(scenario), nil
}

// Run executes scenario against h's engine.
func (h *Harness) Run(scenario *Scenario) *Result {
	result := NewResult()

	for i, step := range scenario.Steps {
		h.executeStep(i, step, result)
	}

	e := h.protocol.Engine()
	for _, name := range e.ListStores() {
		result.State[name] = e.Size(name)
	}

	for i, a := range scenario.Assertions {
		if err := h.evaluateAssertion(a); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d] (%s): %v", i, a.Type, err))
		}
	}
	return result
}

func (h *Harness) executeStep(index int, step Step, result *Result) {
	out, status := h.protocol.Call(step.Op, step.args()...)
	got := StatusOK
	if status != engine.StatusOK {
		got = StatusError
	}
	payload := string(out)

	store := step.Store
	if len(step.Args) > 0 {
		store = step.Args[0]
	}
	seq := result.AddTrace(step.Op, store, got, payload)
	h.logger.Debug("step executed", "seq", seq, "op", step.Op, "status", got)

	expect := step.Expect
	if expect == nil {
		expect = &Expect{}
	}
	want := expect.Status
	if want == "" {
		want = StatusOK
	}

	prefix := fmt.Sprintf("steps[%d] (%s)", index, step.Op)
	if got != want {
		result.AddError(fmt.Sprintf("%s: expected status %s, got %s: %s", prefix, want, got, payload))
		return
	}
	if expect.Payload != "" && payload != expect.Payload {
		result.AddError(fmt.Sprintf("%s: expected payload %q, got %q", prefix, expect.Payload, payload))
	}
	if expect.Contains != "" && !strings.Contains(payload, expect.Contains) {
		result.AddError(fmt.Sprintf("%s: payload %q does not contain %q", prefix, payload, expect.Contains))
	}
	if expect.JSON != "" {
		if err := compareJSON(expect.JSON, out); err != nil {
			result.AddError(fmt.Sprintf("%s: %v", prefix, err))
		}
	}
	for path, want := range expect.Paths {
		if err := comparePath(out, path, want); err != nil {
			result.AddError(fmt.Sprintf("%s: %v", prefix, err))
		}
	}
}

func (h *Harness) evaluateAssertion(a Assertion) error {
	e := h.protocol.Engine()
	switch a.Type {
	case AssertStoreSize:
		if n := e.Size(a.Store); n != a.Count {
			return fmt.Errorf("store %q holds %d triples, expected %d", a.Store, n, a.Count)
		}
	case AssertStores:
		got := e.ListStores()
		want := a.Stores
		if want == nil {
			want = []string{}
		}
		if !reflect.DeepEqual(got, want) {
			return fmt.Errorf("stores are %v, expected %v", got, want)
		}
	case AssertQuery:
		out, err := e.Query(a.Store, a.Query)
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}
		return compareJSON(a.JSON, out)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// compareJSON reports whether payload is semantically equal to want.
// Numbers compare by their literal text, so 28 and 28.0 differ.
func compareJSON(want string, payload []byte) error {
	w, err := decodeJSON([]byte(want))
	if err != nil {
		return fmt.Errorf("expected json is invalid: %w", err)
	}
	g, err := decodeJSON(payload)
	if err != nil {
		return fmt.Errorf("payload is not json: %w", err)
	}
	if !reflect.DeepEqual(w, g) {
		return fmt.Errorf("expected json %s, got %s", want, payload)
	}
	return nil
}

func decodeJSON(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func comparePath(payload []byte, path, want string) error {
	if !gjson.ValidBytes(payload) {
		return fmt.Errorf("payload is not json: %s", payload)
	}
	r := gjson.GetBytes(payload, path)
	if !r.Exists() {
		return fmt.Errorf("path %q not found in %s", path, payload)
	}
	if r.String() != want {
		return fmt.Errorf("path %q is %q, expected %q", path, r.String(), want)
	}
	return nil
}
