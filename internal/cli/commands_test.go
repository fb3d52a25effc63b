package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const peopleTTL = `@prefix foaf: <http://xmlns.com/foaf/0.1/> .
@prefix ex: <http://example.org/> .
ex:alice foaf:name "Alice" ; foaf:age 28 .
ex:bob foaf:name "Bob" ; foaf:age 32 .
`

const namesQuery = `PREFIX foaf: <http://xmlns.com/foaf/0.1/>
SELECT ?name ?age WHERE { ?p foaf:name ?name ; foaf:age ?age } ORDER BY ?name`

// fixture writes files into a temp dir and returns the dir and a db path.
func fixture(t *testing.T, files map[string]string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir, filepath.Join(dir, "graph.db")
}

func TestLoad_RequiresExistingDatabase(t *testing.T) {
	dir, db := fixture(t, map[string]string{"people.ttl": peopleTTL})

	_, err := execute(t, "load", "--db", db, "--store", "people", filepath.Join(dir, "people.ttl"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")
}

func TestLoadQueryRoundTrip(t *testing.T) {
	dir, db := fixture(t, map[string]string{"people.ttl": peopleTTL})

	out, err := execute(t, "load", "--db", db, "--store", "people", "--create", filepath.Join(dir, "people.ttl"))
	require.NoError(t, err)
	assert.Contains(t, out, "people.ttl: 4 triples (4 new)")
	assert.Contains(t, out, "Loaded 4 new triples into people (size 4)")

	out, err = execute(t, "query", "--db", db, "--store", "people", "-q", namesQuery)
	require.NoError(t, err)
	assert.Equal(t, `[
  {
    "name": "Alice",
    "age": 28
  },
  {
    "name": "Bob",
    "age": 32
  }
]
`, out)

	out, err = execute(t, "--format", "json", "query", "--db", db, "--store", "people", "-q", namesQuery)
	require.NoError(t, err)
	assert.Equal(t, `{"status":"ok","data":[{"name":"Alice","age":28},{"name":"Bob","age":32}]}`+"\n", out)
}

func TestLoad_Idempotent(t *testing.T) {
	dir, db := fixture(t, map[string]string{"people.ttl": peopleTTL})
	path := filepath.Join(dir, "people.ttl")

	_, err := execute(t, "load", "--db", db, "--store", "people", "--create", path)
	require.NoError(t, err)
	out, err := execute(t, "--format", "json", "load", "--db", db, "--store", "people", path)
	require.NoError(t, err)

	var resp struct {
		Data LoadResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 0, resp.Data.Added)
	assert.Equal(t, 4, resp.Data.Size)
	require.Len(t, resp.Data.Files, 1)
	assert.Equal(t, "turtle", resp.Data.Files[0].Format)
	assert.Equal(t, 4, resp.Data.Files[0].Triples)
}

func TestLoad_DirectoryMixedFormats(t *testing.T) {
	dir, db := fixture(t, map[string]string{
		"data/a.ttl":    `<http://example.org/a> <http://example.org/p> "a" .`,
		"data/b.nt":     "<http://example.org/b> <http://example.org/p> \"b\" .\n",
		"data/c.jsonld": `{"@id": "http://example.org/c", "http://example.org/p": "c"}`,
		"data/notes.md": "not rdf",
	})

	out, err := execute(t, "--format", "json", "load", "--db", db, "--store", "mixed", "--create", filepath.Join(dir, "data"))
	require.NoError(t, err)

	var resp struct {
		Data LoadResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 3, resp.Data.Added)
	require.Len(t, resp.Data.Files, 3)
	assert.Equal(t, []string{"turtle", "ntriples", "jsonld"},
		[]string{resp.Data.Files[0].Format, resp.Data.Files[1].Format, resp.Data.Files[2].Format},
		"files are applied in sorted path order")
}

// TestLoad_FailureSavesNothing tests that one bad file keeps every other
// file in the same run out of the database.
func TestLoad_FailureSavesNothing(t *testing.T) {
	dir, db := fixture(t, map[string]string{
		"a.ttl": `<http://example.org/a> <http://example.org/p> "a" .`,
		"b.ttl": `<http://example.org/b> <http://example.org/p> "unterminated .`,
	})

	_, err := execute(t, "load", "--db", db, "--store", "s", "--create", filepath.Join(dir, "*.ttl"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "b.ttl")
	assert.Contains(t, err.Error(), "unterminated string")

	out, err := execute(t, "stores", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "No stores found.\n", out)
}

func TestLoad_ParseErrorJSON(t *testing.T) {
	dir, db := fixture(t, map[string]string{"bad.ttl": `<http://a> <http://b> .`})

	out, err := execute(t, "--format", "json", "load", "--db", db, "--create", filepath.Join(dir, "bad.ttl"))
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, CodeParse, resp.Error.Code)
}

func TestLoad_NoMatches(t *testing.T) {
	dir, db := fixture(t, nil)
	_, err := execute(t, "load", "--db", db, "--create", filepath.Join(dir, "*.ttl"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestStoresSizeClearDrop(t *testing.T) {
	dir, db := fixture(t, map[string]string{"people.ttl": peopleTTL})
	path := filepath.Join(dir, "people.ttl")

	_, err := execute(t, "load", "--db", db, "--store", "zeta", "--create", path)
	require.NoError(t, err)
	_, err = execute(t, "load", "--db", db, "--store", "alpha", path)
	require.NoError(t, err)

	out, err := execute(t, "stores", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "alpha\nzeta\n", out)

	out, err = execute(t, "--format", "json", "stores", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, `{"status":"ok","data":["alpha","zeta"]}`+"\n", out)

	out, err = execute(t, "size", "--db", db, "--store", "zeta")
	require.NoError(t, err)
	assert.Equal(t, "4\n", out)

	out, err = execute(t, "size", "--db", db, "--store", "never-loaded")
	require.NoError(t, err)
	assert.Equal(t, "0\n", out)

	out, err = execute(t, "clear", "--db", db, "--store", "zeta")
	require.NoError(t, err)
	assert.Equal(t, "Cleared store zeta\n", out)

	out, err = execute(t, "--format", "json", "size", "--db", db, "--store", "zeta")
	require.NoError(t, err)
	assert.Equal(t, `{"status":"ok","data":{"store":"zeta","size":0}}`+"\n", out)

	out, err = execute(t, "stores", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "alpha\nzeta\n", out, "a cleared store stays listed")

	out, err = execute(t, "drop", "--db", db, "--store", "zeta")
	require.NoError(t, err)
	assert.Equal(t, "Dropped store zeta\n", out)

	_, err = execute(t, "drop", "--db", db, "--store", "zeta")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	out, err = execute(t, "stores", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "alpha\n", out)
}

// TestClear_KeepsBlankCounter tests that blank labels stay unique across
// clear when the store is persisted between commands.
func TestClear_KeepsBlankCounter(t *testing.T) {
	dir, db := fixture(t, map[string]string{"blank.ttl": `_:x <http://example.org/p> "v" .`})
	path := filepath.Join(dir, "blank.ttl")

	_, err := execute(t, "load", "--db", db, "--store", "s", "--create", path)
	require.NoError(t, err)
	_, err = execute(t, "clear", "--db", db, "--store", "s")
	require.NoError(t, err)
	_, err = execute(t, "load", "--db", db, "--store", "s", path)
	require.NoError(t, err)

	out, err := execute(t, "--format", "json", "query", "--db", db, "--store", "s", "-q", "SELECT ?s WHERE { ?s ?p ?o }")
	require.NoError(t, err)
	assert.Equal(t, `{"status":"ok","data":[{"s":"_:b2"}]}`+"\n", out)
}

func TestQuery_FromFileToOutput(t *testing.T) {
	dir, db := fixture(t, map[string]string{
		"people.ttl": peopleTTL,
		"names.rq":   namesQuery,
	})
	_, err := execute(t, "load", "--db", db, "--store", "people", "--create", filepath.Join(dir, "people.ttl"))
	require.NoError(t, err)

	target := filepath.Join(dir, "out.json")
	out, err := execute(t, "query", "--db", db, "--store", "people", "-f", filepath.Join(dir, "names.rq"), "-o", target)
	require.NoError(t, err)
	assert.Equal(t, "Wrote 2 records to "+target+"\n", out)

	written, err := os.ReadFile(target)
	require.NoError(t, err)
	var records []map[string]any
	require.NoError(t, json.Unmarshal(written, &records))
	assert.Len(t, records, 2)
}

func TestQuery_Errors(t *testing.T) {
	dir, db := fixture(t, map[string]string{"people.ttl": peopleTTL})
	_, err := execute(t, "load", "--db", db, "--store", "people", "--create", filepath.Join(dir, "people.ttl"))
	require.NoError(t, err)

	_, err = execute(t, "query", "--db", db, "--store", "people")
	require.Error(t, err, "one of -q or -f is required")

	_, err = execute(t, "query", "--db", db, "--store", "people", "-q", "SELEKT ?x WHERE { }")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "sparql parse error")

	out, err := execute(t, "--format", "json", "query", "--db", db, "--store", "people", "-q", "ASK { ?s ?p ?o }")
	require.Error(t, err)
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, CodeUnsupported, resp.Error.Code)

	_, err = execute(t, "query", "--db", filepath.Join(dir, "missing.db"), "-q", namesQuery)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestQuery_Endpoint(t *testing.T) {
	defer gock.Off()

	gock.New("http://sparql.example.org").
		Post("/query").
		MatchHeader("Content-Type", "application/sparql-query").
		Reply(200).
		JSON(map[string]any{
			"head": map[string]any{"vars": []string{"name", "age"}},
			"results": map[string]any{"bindings": []any{
				map[string]any{
					"name": map[string]any{"type": "literal", "value": "Alice"},
					"age":  map[string]any{"type": "literal", "value": "28", "datatype": "http://www.w3.org/2001/XMLSchema#integer"},
				},
			}},
		})

	out, err := execute(t, "--format", "json", "query", "--store", "http://sparql.example.org/query", "-q", namesQuery)
	require.NoError(t, err)
	assert.Equal(t, `{"status":"ok","data":[{"name":"Alice","age":28}]}`+"\n", out)
	assert.True(t, gock.IsDone())
}

// TestQuery_EndpointShortensWithDeclaredPrefixes tests that IRIs returned by
// an endpoint are shortened with the query's own PREFIX lines, even when the
// query uses constructs the local evaluator rejects.
func TestQuery_EndpointShortensWithDeclaredPrefixes(t *testing.T) {
	defer gock.Off()

	gock.New("http://sparql.example.org").
		Post("/query").
		Reply(200).
		JSON(map[string]any{
			"head": map[string]any{"vars": []string{"s", "type"}},
			"results": map[string]any{"bindings": []any{
				map[string]any{
					"s":    map[string]any{"type": "uri", "value": "http://example.org/alice"},
					"type": map[string]any{"type": "uri", "value": "http://xmlns.com/foaf/0.1/Person"},
				},
			}},
		})

	query := `PREFIX ex: <http://example.org/>
SELECT ?s ?type WHERE { GRAPH ?g { ?s a ?type } }`
	out, err := execute(t, "--format", "json", "query", "--endpoint", "http://sparql.example.org/query", "-q", query)
	require.NoError(t, err)
	assert.Equal(t, `{"status":"ok","data":[{"s":"ex:alice","type":"foaf:Person"}]}`+"\n", out)
	assert.True(t, gock.IsDone())
}

func TestQuery_EndpointError(t *testing.T) {
	defer gock.Off()

	gock.New("http://sparql.example.org").
		Post("/query").
		Reply(503).
		BodyString("unavailable")

	out, err := execute(t, "--format", "json", "query", "--endpoint", "http://sparql.example.org/query", "-q", namesQuery)
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, CodeEndpoint, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "503")
}

func TestExport(t *testing.T) {
	dir, db := fixture(t, map[string]string{"blank.ttl": `_:x <http://example.org/p> "v" .`})
	_, err := execute(t, "load", "--db", db, "--store", "s", "--create", filepath.Join(dir, "blank.ttl"))
	require.NoError(t, err)

	out, err := execute(t, "export", "--db", db, "--store", "s")
	require.NoError(t, err)
	assert.Contains(t, out, "_:b1")
	assert.Contains(t, out, "<http://example.org/p>")

	first, err := execute(t, "export", "--db", db, "--store", "s", "--skolemize")
	require.NoError(t, err)
	second, err := execute(t, "export", "--db", db, "--store", "s", "--skolemize")
	require.NoError(t, err)
	assert.Contains(t, first, "<urn:uuid:")
	assert.NotContains(t, first, "_:")
	assert.Equal(t, first, second, "skolem IRIs are stable")

	target := filepath.Join(dir, "s.nt")
	out, err = execute(t, "export", "--db", db, "--store", "s", "-o", target)
	require.NoError(t, err)
	assert.Equal(t, "Exported 1 triples to "+target+"\n", out)
	written, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(written), "_:b1")
}

func TestConfigFile(t *testing.T) {
	dir, db := fixture(t, map[string]string{"people.ttl": peopleTTL})
	cfgPath := filepath.Join(dir, "typox.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("db: "+db+"\nstore: people\nprefixes:\n  ex: http://example.org/\n"), 0644))

	_, err := execute(t, "--config", cfgPath, "load", "--create", filepath.Join(dir, "people.ttl"))
	require.NoError(t, err)

	out, err := execute(t, "--config", cfgPath, "--format", "json", "query", "-q",
		"SELECT ?p WHERE { ?p <http://xmlns.com/foaf/0.1/name> \"Alice\" }")
	require.NoError(t, err)
	assert.Equal(t, `{"status":"ok","data":[{"p":"ex:alice"}]}`+"\n", out)

	out, err = execute(t, "--config", cfgPath, "size", "--store", "other")
	require.NoError(t, err)
	assert.Equal(t, "0\n", out, "flags override the config file")
}

func TestConfigFile_Invalid(t *testing.T) {
	dir, _ := fixture(t, map[string]string{"typox.yaml": "limits:\n  max_triples: -1\n"})
	_, err := execute(t, "--config", filepath.Join(dir, "typox.yaml"), "stores")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "limits.max_triples")
}
