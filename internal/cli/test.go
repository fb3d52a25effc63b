package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/typox/internal/harness"
)

// Golden file states reported per scenario.
const (
	GoldenMatch    = "match"
	GoldenUpdated  = "updated"
	GoldenMismatch = "mismatch"
	GoldenAbsent   = "absent"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool
	Filter string
}

// ScenarioReport is the outcome of one scenario file.
type ScenarioReport struct {
	Name   string         `json:"name"`
	File   string         `json:"file"`
	Pass   bool           `json:"pass"`
	Steps  int            `json:"steps"`
	Golden string         `json:"golden,omitempty"`
	Stores map[string]int `json:"stores,omitempty"`
	Errors []string       `json:"errors,omitempty"`
}

// SuiteReport aggregates a test run.
type SuiteReport struct {
	Scenarios []ScenarioReport `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
}

// Total is the number of scenarios run.
func (r SuiteReport) Total() int { return r.Passed + r.Failed }

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run conformance scenarios against a fresh engine",
		Long: `Run YAML conformance scenarios, each against its own engine.

Every step's expectations and the final assertions must hold. When
<dir>/golden/<name>.golden exists next to a scenario, the protocol
transcript must also match it byte for byte.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (missing directory, bad filter)

Examples:
  typox test ./scenarios
  typox test ./scenarios --filter "foaf*"
  typox test ./scenarios --update
  typox test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden transcripts from this run")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenarios whose file name matches this glob")

	return cmd
}

func runTests(cmd *cobra.Command, opts *TestOptions, dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", dir))
	}

	files, err := findScenarioFiles(dir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	report := SuiteReport{Scenarios: make([]ScenarioReport, 0, len(files))}
	out := cmd.OutOrStdout()
	text := opts.Format != "json"

	if len(files) == 0 && text {
		fmt.Fprintln(out, "No scenarios found.")
		return nil
	}

	for _, file := range files {
		r := runScenarioFile(file, opts.Update)
		report.Scenarios = append(report.Scenarios, r)
		if r.Pass {
			report.Passed++
		} else {
			report.Failed++
		}
		if text {
			printScenarioReport(out, r)
		}
	}

	if !text {
		return writeSuiteJSON(cmd, report)
	}

	fmt.Fprintf(out, "\n%d/%d scenarios passed", report.Passed, report.Total())
	if report.Failed > 0 {
		fmt.Fprintf(out, " (%d failed)\n", report.Failed)
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", report.Failed))
	}
	fmt.Fprintln(out)
	return nil
}

// findScenarioFiles returns the YAML files under dir in lexical order,
// skipping golden directories.
func findScenarioFiles(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && d.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			ok, err := filepath.Match(filter, strings.TrimSuffix(d.Name(), ext))
			if err != nil {
				return fmt.Errorf("invalid filter pattern %q: %w", filter, err)
			}
			if !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// goldenFilePath maps dir/name.yaml to dir/golden/name.golden.
func goldenFilePath(scenarioFile string) string {
	base := filepath.Base(scenarioFile)
	return filepath.Join(filepath.Dir(scenarioFile), "golden", strings.TrimSuffix(base, filepath.Ext(base))+".golden")
}

func runScenarioFile(file string, update bool) ScenarioReport {
	report := ScenarioReport{Name: filepath.Base(file), File: file}
	fail := func(format string, args ...any) ScenarioReport {
		report.Pass = false
		report.Errors = append(report.Errors, fmt.Sprintf(format, args...))
		return report
	}

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return fail("failed to load scenario: %v", err)
	}
	report.Name = scenario.Name
	report.Steps = len(scenario.Steps)

	result, err := harness.Run(scenario)
	if err != nil {
		return fail("execution failed: %v", err)
	}
	report.Pass = result.Pass
	report.Stores = result.State
	report.Errors = append(report.Errors, result.Errors...)

	transcript, err := harness.Snapshot(scenario.Name, result)
	if err != nil {
		return fail("failed to render transcript: %v", err)
	}

	path := goldenFilePath(file)
	if update {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fail("failed to create golden directory: %v", err)
		}
		if err := os.WriteFile(path, transcript, 0o644); err != nil {
			return fail("failed to update golden file: %v", err)
		}
		report.Golden = GoldenUpdated
		return report
	}

	golden, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		report.Golden = GoldenAbsent
	case err != nil:
		return fail("failed to read golden file: %v", err)
	case bytes.Equal(golden, transcript):
		report.Golden = GoldenMatch
	default:
		report.Golden = GoldenMismatch
		return fail("transcript does not match golden file at %s (run with --update to regenerate)", firstDiff(golden, transcript))
	}
	return report
}

// firstDiff names the first line where two transcripts differ.
func firstDiff(want, got []byte) string {
	wl := strings.Split(string(want), "\n")
	gl := strings.Split(string(got), "\n")
	for i := 0; i < len(wl) || i < len(gl); i++ {
		var w, g string
		if i < len(wl) {
			w = wl[i]
		}
		if i < len(gl) {
			g = gl[i]
		}
		if w != g {
			return fmt.Sprintf("line %d: want %q, got %q", i+1, strings.TrimSpace(w), strings.TrimSpace(g))
		}
	}
	return "end of file"
}

func printScenarioReport(w io.Writer, r ScenarioReport) {
	if !r.Pass {
		fmt.Fprintf(w, "✗ %s\n", r.Name)
		for _, e := range r.Errors {
			fmt.Fprintf(w, "    %s\n", e)
		}
		return
	}
	suffix := ""
	if r.Golden == GoldenUpdated {
		suffix = " (golden updated)"
	}
	fmt.Fprintf(w, "✓ %s [%d steps]%s\n", r.Name, r.Steps, suffix)
}

func writeSuiteJSON(cmd *cobra.Command, report SuiteReport) error {
	response := CLIResponse{Status: "ok", Data: report}
	var failure error
	if report.Failed > 0 {
		msg := fmt.Sprintf("%d scenario(s) failed", report.Failed)
		response.Status = "error"
		response.Error = &CLIError{Code: CodeTestFailed, Message: msg}
		failure = NewExitError(ExitFailure, msg)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(response); err != nil {
		return err
	}
	return failure
}
