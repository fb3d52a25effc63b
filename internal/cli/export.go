package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/typox/internal/interop"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	StoreOptions
	Skolemize bool
	Namespace string
	Output    string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{StoreOptions: StoreOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a store as N-Triples",
		Long: `Write every triple of a store as N-Triples in insertion order.

With --skolemize, blank nodes become stable urn:uuid: IRIs derived from
the namespace (default: the store name) and the node label.

Examples:
  typox export --store people > people.nt
  typox export --store people --skolemize -o people.nt`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	addStoreFlags(cmd, &opts.StoreOptions)
	cmd.Flags().BoolVar(&opts.Skolemize, "skolemize", false, "replace blank nodes with urn:uuid: IRIs")
	cmd.Flags().StringVar(&opts.Namespace, "namespace", "", "skolem namespace (default: store name)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to file instead of stdout")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	out := opts.formatter(cmd)

	s, err := openSession(commandContext(cmd), cfg, false, cfg.Store)
	if err != nil {
		return err
	}
	defer s.close()

	data, err := s.engine.Export(cfg.Store, interop.EncodeOptions{
		Skolemize: opts.Skolemize,
		Namespace: opts.Namespace,
	})
	if err != nil {
		return out.Fail("export failed", err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, data, 0644); err != nil {
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
		out.VerboseLog("wrote %d bytes to %s", len(data), opts.Output)
		if opts.Format == "json" {
			return out.Success(map[string]any{"output": opts.Output, "triples": s.engine.Size(cfg.Store)})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d triples to %s\n", s.engine.Size(cfg.Store), opts.Output)
		return nil
	}

	if opts.Format == "json" {
		return out.Success(string(data))
	}
	return out.Success(data)
}
