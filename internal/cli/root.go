package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/typox/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the typox CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "typox",
		Short: "typox - embeddable RDF graph engine",
		Long: `Load RDF documents into named stores and query them with SPARQL SELECT.

Stores persist in a SQLite database between invocations. Query results
are JSON arrays of objects with numbers kept as numbers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			setupLogging(opts.Verbose)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "path to typox.yaml")

	cmd.AddCommand(NewLoadCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewStoresCommand(opts))
	cmd.AddCommand(NewSizeCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))
	cmd.AddCommand(NewDropCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// setupLogging installs a text handler on stderr. Verbose lowers the level
// to Debug.
func setupLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// loadConfig resolves configuration for cmd: its flags override the
// environment, which overrides the config file and the defaults.
func (o *RootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := config.New()
	if o.ConfigFile != "" {
		if err := config.ReadFile(v, o.ConfigFile); err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load config", err)
		}
	}
	for _, key := range []string{"db", "store", "endpoint"} {
		if f := cmd.Flags().Lookup(key); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, WrapExitError(ExitCommandError, "failed to bind flag", err)
			}
		}
	}
	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	return cfg, nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
