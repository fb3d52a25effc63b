package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/typox/internal/snapshot"
)

// StoreSize is the size command's JSON payload.
type StoreSize struct {
	Store string `json:"store"`
	Size  int    `json:"size"`
}

// NewStoresCommand creates the stores command.
func NewStoresCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stores",
		Short: "List stores in the database",
		Long: `List the names of all stores saved in the database, sorted.

Example:
  typox stores --db ./graph.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStores(opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config: typox.db)")
	return cmd
}

func runStores(opts *StoreOptions, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfg.DB); errors.Is(err, os.ErrNotExist) {
		return NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", cfg.DB))
	}
	db, err := snapshot.Open(cfg.DB)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer db.Close()

	names, err := db.Names(commandContext(cmd))
	if err != nil {
		return opts.formatter(cmd).Fail("failed to list stores", err)
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(names)
	}
	w := cmd.OutOrStdout()
	if len(names) == 0 {
		fmt.Fprintln(w, "No stores found.")
		return nil
	}
	for _, name := range names {
		fmt.Fprintln(w, name)
	}
	return nil
}

// NewSizeCommand creates the size command.
func NewSizeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "size",
		Short: "Print the number of triples in a store",
		Long: `Print the number of triples in a store. A store that was never
loaded has size 0.

Example:
  typox size --store people`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSize(opts, cmd)
		},
	}
	addStoreFlags(cmd, opts)
	return cmd
}

func runSize(opts *StoreOptions, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg, false)
	if err != nil {
		return err
	}
	defer db.Close()

	// A store without a snapshot is empty.
	size, err := db.Size(commandContext(cmd), cfg.Store)
	if err != nil && !errors.Is(err, snapshot.ErrNotFound) {
		return opts.formatter(cmd).Fail("failed to read store size", err)
	}
	if opts.Format == "json" {
		return opts.formatter(cmd).Success(StoreSize{Store: cfg.Store, Size: size})
	}
	fmt.Fprintln(cmd.OutOrStdout(), size)
	return nil
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all triples from a store",
		Long: `Remove all triples from a store. The store stays listed and keeps
its blank node counter, so later loads never reuse a label.

Example:
  typox clear --store people`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear(opts, cmd)
		},
	}
	addStoreFlags(cmd, opts)
	return cmd
}

func runClear(opts *StoreOptions, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	s, err := openSession(ctx, cfg, false, cfg.Store)
	if err != nil {
		return err
	}
	defer s.close()

	s.engine.Clear(cfg.Store)
	if err := s.save(ctx, cfg.Store); err != nil {
		return opts.formatter(cmd).Fail("clear failed", err)
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(StoreSize{Store: cfg.Store, Size: 0})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cleared store %s\n", cfg.Store)
	return nil
}

// NewDropCommand creates the drop command.
func NewDropCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Delete a store from the database",
		Long: `Delete a store and all of its triples from the database.

Example:
  typox drop --store scratch`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDrop(opts, cmd)
		},
	}
	addStoreFlags(cmd, opts)
	return cmd
}

func runDrop(opts *StoreOptions, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfg.DB); errors.Is(err, os.ErrNotExist) {
		return NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", cfg.DB))
	}
	db, err := snapshot.Open(cfg.DB)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer db.Close()

	out := opts.formatter(cmd)
	found, err := db.Delete(commandContext(cmd), cfg.Store)
	if err != nil {
		return out.Fail("drop failed", err)
	}
	if !found {
		return out.Fail("drop failed", fmt.Errorf("store %s: %w", cfg.Store, snapshot.ErrNotFound))
	}

	if opts.Format == "json" {
		return out.Success(map[string]string{"dropped": cfg.Store})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Dropped store %s\n", cfg.Store)
	return nil
}
