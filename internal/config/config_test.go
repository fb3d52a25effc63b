package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/typox/internal/engine"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, engine.DefaultMaxTriples, cfg.Limits.MaxTriples)
	assert.Equal(t, engine.DefaultMaxBindings, cfg.Limits.MaxBindings)
	assert.Equal(t, "typox.db", cfg.DB)
	assert.Equal(t, "memory", cfg.Store)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Empty(t, cfg.Endpoint)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typox.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db: people.db
store: people
timeout: 5s
limits:
  max_triples: 100
prefixes:
  ex: http://example.org/
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "people.db", cfg.DB)
	assert.Equal(t, "people", cfg.Store)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 100, cfg.Limits.MaxTriples)
	assert.Equal(t, engine.DefaultMaxBindings, cfg.Limits.MaxBindings)
	assert.Equal(t, map[string]string{"ex": "http://example.org/"}, cfg.Prefixes)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typox.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: fromfile\n"), 0o644))
	t.Setenv("TYPOX_STORE", "fromenv")
	t.Setenv("TYPOX_LIMITS_MAX_BINDINGS", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fromenv", cfg.Store)
	assert.Equal(t, 7, cfg.Limits.MaxBindings)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate_CollectsAll(t *testing.T) {
	cfg := &Config{
		Limits:   LimitsConfig{MaxTriples: -1, MaxBindings: -1},
		Endpoint: "ftp://example.org",
		Prefixes: map[string]string{"x": ""},
	}
	assert.Len(t, cfg.Validate(), 4)
}

func TestIsEndpoint(t *testing.T) {
	assert.True(t, IsEndpoint("http://dbpedia.org/sparql"))
	assert.True(t, IsEndpoint("https://query.wikidata.org/sparql"))
	assert.False(t, IsEndpoint("people"))
}

func TestEngineOptions(t *testing.T) {
	cfg := &Config{Limits: LimitsConfig{MaxTriples: 2}}
	e := engine.New(cfg.EngineOptions()...)

	_, err := e.Load("s", `<http://a> <http://p> 1, 2, 3 .`)
	assert.Error(t, err)
}
