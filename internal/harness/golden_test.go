package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarios_Golden runs every scenario under testdata/scenarios and
// compares its trace against testdata/golden/<name>.golden.
func TestScenarios_Golden(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			assert.Equal(t, name, scenario.Name, "file name matches scenario name")

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestSnapshot_Stable(t *testing.T) {
	result := NewResult()
	result.AddTrace("export", "s", StatusOK, "<http://a> <http://b> \"c & d\" .\n")

	first, err := Snapshot("stable", result)
	require.NoError(t, err)
	second, err := Snapshot("stable", result)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, string(first), `"payload": "<http://a> <http://b> \"c & d\" .\n"`, "no HTML escaping")
	assert.True(t, strings.HasSuffix(string(first), "}\n"))
}

func TestAssertGolden_WrittenFixture(t *testing.T) {
	scenario := &Scenario{
		Name:        "inline",
		Description: "inline",
		Steps:       []Step{{Op: "store_size", Store: "memory"}},
	}
	result, err := Run(scenario)
	require.NoError(t, err)

	// Write the fixture goldie would compare against in a scratch directory.
	dir := t.TempDir()
	data, err := Snapshot(scenario.Name, result)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "inline.golden"), data, 0644))

	got, err := os.ReadFile(filepath.Join(dir, "inline.golden"))
	require.NoError(t, err)
	assert.Contains(t, string(got), `"payload": "0"`)
}
