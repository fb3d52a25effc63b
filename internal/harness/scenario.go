package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/typox/internal/engine"
)

// Scenario defines a conformance test scenario: a sequence of protocol
// calls with expected outcomes, followed by assertions on final state.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Setup configures the engine the scenario runs against.
	Setup *Setup `yaml:"setup,omitempty"`

	// Steps are executed in order, each as one protocol call.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final engine state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Setup holds engine options. Zero values keep the engine defaults.
type Setup struct {
	MaxTriples   int               `yaml:"max_triples,omitempty"`
	MaxBindings  int               `yaml:"max_bindings,omitempty"`
	DefaultStore *string           `yaml:"default_store,omitempty"`
	Normalize    *bool             `yaml:"normalize,omitempty"`
	Prefixes     map[string]string `yaml:"prefixes,omitempty"`
}

// Step is one protocol call.
type Step struct {
	// Op is the operation name, including legacy aliases.
	Op string `yaml:"op"`

	// Store is the store name argument.
	Store string `yaml:"store,omitempty"`

	// Data is the document or query argument.
	Data string `yaml:"data,omitempty"`

	// DataFile names a file whose contents replace Data. Relative paths
	// resolve against the scenario file's directory.
	DataFile string `yaml:"data_file,omitempty"`

	// Args, when set, is passed verbatim instead of Store and Data.
	Args []string `yaml:"args,omitempty"`

	// Expect validates the call outcome. If nil, only success is required.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the expected outcome of a step.
type Expect struct {
	// Status is "ok" or "error". Defaults to "ok".
	Status string `yaml:"status,omitempty"`

	// Payload must equal the returned bytes exactly.
	Payload string `yaml:"payload,omitempty"`

	// Contains must be a substring of the payload.
	Contains string `yaml:"contains,omitempty"`

	// JSON must be semantically equal to the payload.
	JSON string `yaml:"json,omitempty"`

	// Paths maps gjson paths into the payload to their expected string form.
	Paths map[string]string `yaml:"paths,omitempty"`
}

// Assertion validates final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "store_size": Store holds exactly Count triples
	// - "stores": The registry lists exactly Stores
	// - "query": Running Query against Store yields JSON
	Type string `yaml:"type"`

	Store  string   `yaml:"store,omitempty"`
	Count  int      `yaml:"count,omitempty"`
	Stores []string `yaml:"stores,omitempty"`
	Query  string   `yaml:"query,omitempty"`
	JSON   string   `yaml:"json,omitempty"`
}

// Assertion type constants.
const (
	AssertStoreSize = "store_size"
	AssertStores    = "stores"
	AssertQuery     = "query"
)

// Expected step statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	// Inline data files so Run never touches the filesystem.
	base := filepath.Dir(path)
	for i := range scenario.Steps {
		step := &scenario.Steps[i]
		if step.DataFile == "" {
			continue
		}
		p := step.DataFile
		if !filepath.IsAbs(p) {
			p = filepath.Join(base, p)
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: failed to read data file: %w", i, err)
		}
		step.Data = string(b)
		step.DataFile = ""
	}

	return scenario, nil
}

// ParseScenario parses scenario YAML without resolving data files.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Op == "" {
			return fmt.Errorf("steps[%d]: op is required", i)
		}
		if step.Data != "" && step.DataFile != "" {
			return fmt.Errorf("steps[%d]: data and data_file are mutually exclusive", i)
		}
		if step.Args != nil && (step.Store != "" || step.Data != "" || step.DataFile != "") {
			return fmt.Errorf("steps[%d]: args cannot be combined with store or data", i)
		}
		if step.Expect != nil {
			switch step.Expect.Status {
			case "", StatusOK, StatusError:
			default:
				return fmt.Errorf("steps[%d].expect: status must be %q or %q", i, StatusOK, StatusError)
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertStoreSize:
		if a.Store == "" {
			return fmt.Errorf("assertions[%d]: store is required for store_size", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for store_size", index)
		}
	case AssertStores:
		// An empty list asserts that no stores exist.
	case AssertQuery:
		if a.Query == "" {
			return fmt.Errorf("assertions[%d]: query is required for query", index)
		}
		if a.JSON == "" {
			return fmt.Errorf("assertions[%d]: json is required for query", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// args builds the argument list for a step.
func (s Step) args() [][]byte {
	if s.Args != nil {
		out := make([][]byte, len(s.Args))
		for i, a := range s.Args {
			out[i] = []byte(a)
		}
		return out
	}
	switch s.Op {
	case engine.OpListStores:
		return nil
	case engine.OpClear, engine.OpStoreSize, engine.OpExport, "clear_store", "get_store_size":
		return [][]byte{[]byte(s.Store)}
	}
	return [][]byte{[]byte(s.Store), []byte(s.Data)}
}
