package cli

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/typox/internal/engine"
	"github.com/roach88/typox/internal/term"
)

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	StoreOptions
	Create  bool
	BaseIRI string
}

// FileResult reports one loaded file.
type FileResult struct {
	Path    string `json:"path"`
	Format  string `json:"format"`
	Triples int    `json:"triples"`
	Added   int    `json:"added"`
}

// LoadResult holds the outcome of a load.
type LoadResult struct {
	Store string       `json:"store"`
	Files []FileResult `json:"files"`
	Added int          `json:"added"`
	Size  int          `json:"size"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{StoreOptions: StoreOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "load <file|dir|glob>...",
		Short: "Load RDF documents into a store",
		Long: `Load Turtle, N-Triples, N-Quads or JSON-LD documents into a store.

The syntax is chosen by extension (.ttl, .turtle, .nt, .nq, .jsonld,
.rdf, .owl).
Directories are walked for files with those extensions. Files are parsed
in parallel and applied in sorted path order; the store is saved only if
every file loads.

Examples:
  typox load --create --store people ./data/people.ttl
  typox load --store people "./data/*.nt"
  typox load --db ./graph.db ./data --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, args, cmd)
		},
	}

	addStoreFlags(cmd, &opts.StoreOptions)
	cmd.Flags().BoolVar(&opts.Create, "create", false, "create the database if it does not exist")
	cmd.Flags().StringVar(&opts.BaseIRI, "base-iri", "", "base IRI for relative references (default: the file's URL)")

	return cmd
}

func runLoad(opts *LoadOptions, args []string, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	out := opts.formatter(cmd)

	files, err := expandInputs(args)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to resolve inputs", err)
	}
	if len(files) == 0 {
		return NewExitError(ExitCommandError, "no RDF files matched")
	}

	ctx := commandContext(cmd)
	s, err := openSession(ctx, cfg, opts.Create, cfg.Store)
	if err != nil {
		return err
	}
	defer s.close()

	batches, err := parseFiles(cmd, s.engine, files, opts.BaseIRI)
	if err != nil {
		return out.Fail("load failed", err)
	}

	result := LoadResult{Store: cfg.Store, Files: make([]FileResult, 0, len(files))}
	for i, path := range files {
		added, err := s.engine.Apply(cfg.Store, batches[i])
		if err != nil {
			return out.Fail("load failed", fmt.Errorf("%s: %w", path, err))
		}
		format, ok := engine.FormatForPath(path)
		if !ok {
			format = engine.FormatTurtle
		}
		result.Files = append(result.Files, FileResult{
			Path:    path,
			Format:  string(format),
			Triples: len(batches[i]),
			Added:   added,
		})
		result.Added += added
		out.VerboseLog("%s: %d triples (%d new)", path, len(batches[i]), added)
	}

	if err := s.save(ctx, cfg.Store); err != nil {
		return out.Fail("load failed", err)
	}
	result.Size = s.engine.Size(cfg.Store)
	slog.Info("load complete", "store", cfg.Store, "files", len(files), "added", result.Added)

	if opts.Format == "json" {
		return out.Success(result)
	}
	w := cmd.OutOrStdout()
	for _, f := range result.Files {
		fmt.Fprintf(w, "✓ %s: %d triples (%d new)\n", f.Path, f.Triples, f.Added)
	}
	fmt.Fprintf(w, "Loaded %d new triples into %s (size %d)\n", result.Added, result.Store, result.Size)
	return nil
}

// parseFiles reads and parses every file concurrently. The returned batches
// are index-aligned with files.
func parseFiles(cmd *cobra.Command, e *engine.Engine, files []string, baseIRI string) ([][]term.Triple, error) {
	batches := make([][]term.Triple, len(files))
	g, ctx := errgroup.WithContext(commandContext(cmd))
	g.SetLimit(8)

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			format, _ := engine.FormatForPath(path)
			base := baseIRI
			if base == "" {
				base = fileURL(path)
			}
			batch, err := e.Parse(string(data), engine.LoadOptions{Format: format, BaseIRI: base})
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			batches[i] = batch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return batches, nil
}

// expandInputs resolves globs and directories to a sorted, de-duplicated
// list of files with a known RDF extension. An explicit file path is kept
// even if its extension is unknown so the user sees the parse error.
func expandInputs(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no such file: %s", arg)
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil {
				return nil, err
			}
			if !info.IsDir() {
				if _, ok := engine.FormatForPath(m); ok || m == arg {
					add(m)
				}
				continue
			}
			err = filepath.WalkDir(m, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.IsDir() {
					return nil
				}
				if _, ok := engine.FormatForPath(path); ok {
					add(path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

func fileURL(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
}
