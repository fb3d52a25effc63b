package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/typox/internal/config"
	"github.com/roach88/typox/internal/remote"
	"github.com/roach88/typox/internal/results"
	"github.com/roach88/typox/internal/sparql"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	StoreOptions
	Endpoint  string
	Query     string
	QueryFile string
	Output    string
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{StoreOptions: StoreOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a SPARQL SELECT query",
		Long: `Run a SPARQL SELECT query against a local store or a remote endpoint.

Results print as a JSON array of objects, one per solution, with unbound
variables omitted. A store name starting with http:// or https:// is
treated as an endpoint.

Examples:
  typox query --store people -q 'SELECT ?name WHERE { ?p <http://xmlns.com/foaf/0.1/name> ?name }'
  typox query --store people -f ./queries/names.rq -o names.json
  typox query --endpoint https://dbpedia.org/sparql -f ./queries/cities.rq`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, cmd)
		},
	}

	addStoreFlags(cmd, &opts.StoreOptions)
	cmd.Flags().StringVar(&opts.Endpoint, "endpoint", "", "SPARQL endpoint URL (overrides --store)")
	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "SPARQL query text")
	cmd.Flags().StringVarP(&opts.QueryFile, "query-file", "f", "", "file containing the SPARQL query")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write results to file instead of stdout")
	cmd.MarkFlagsOneRequired("query", "query-file")
	cmd.MarkFlagsMutuallyExclusive("query", "query-file")

	return cmd
}

func runQuery(opts *QueryOptions, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	out := opts.formatter(cmd)

	query := opts.Query
	if opts.QueryFile != "" {
		b, err := os.ReadFile(opts.QueryFile)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read query file", err)
		}
		query = string(b)
	}

	var records []results.Record
	if endpoint := endpointFor(cfg); endpoint != "" {
		records, err = queryRemote(cmd, cfg, endpoint, query)
	} else {
		records, err = queryLocal(cmd, cfg, query)
	}
	if err != nil {
		return out.Fail("query failed", err)
	}
	slog.Info("query complete", "records", len(records))

	if opts.Output != "" {
		data, err := results.MarshalIndent(records)
		if err != nil {
			return out.Fail("query failed", err)
		}
		if err := os.WriteFile(opts.Output, append(data, '\n'), 0644); err != nil {
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
		if opts.Format == "json" {
			return out.Success(map[string]any{"output": opts.Output, "records": len(records)})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d records to %s\n", len(records), opts.Output)
		return nil
	}

	if opts.Format == "json" {
		data, err := results.MarshalJSON(records)
		if err != nil {
			return out.Fail("query failed", err)
		}
		return out.Success(json.RawMessage(data))
	}
	data, err := results.MarshalIndent(records)
	if err != nil {
		return out.Fail("query failed", err)
	}
	return out.Success(append(data, '\n'))
}

// endpointFor returns the endpoint to query, or "" for a local store.
func endpointFor(cfg *config.Config) string {
	if cfg.Endpoint != "" {
		return cfg.Endpoint
	}
	if config.IsEndpoint(cfg.Store) {
		return cfg.Store
	}
	return ""
}

func queryLocal(cmd *cobra.Command, cfg *config.Config, query string) ([]results.Record, error) {
	s, err := openSession(commandContext(cmd), cfg, false, cfg.Store)
	if err != nil {
		return nil, err
	}
	defer s.close()
	return s.engine.QueryRecords(cfg.Store, query)
}

func queryRemote(cmd *cobra.Command, cfg *config.Config, endpoint, query string) ([]results.Record, error) {
	client := remote.New(endpoint)
	if cfg.Timeout > 0 {
		client.Timeout = cfg.Timeout
	}
	slog.Debug("querying endpoint", "endpoint", endpoint)
	res, err := client.Select(commandContext(cmd), query)
	if err != nil {
		return nil, err
	}
	table := results.NewPrefixTable(cfg.Prefixes, sparql.DeclaredPrefixes(query))
	return results.Encode(res.Vars, res.Solutions, table)
}
