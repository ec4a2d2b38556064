package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/rdflift/internal/rules"
	"github.com/roach88/rdflift/internal/store"
)

// CatalogOptions holds flags shared by the catalog commands.
type CatalogOptions struct {
	*RootOptions
	DB  string
	Run string
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CatalogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, or the queries of one run",
		Long: `List the compile runs recorded in the query catalog, oldest first.

With --run, list the queries linked from that run instead. --run latest
selects the most recent run.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "catalog database path (default: database from config)")
	cmd.Flags().StringVar(&opts.Run, "run", "", "list the queries of this run id (or \"latest\")")

	return cmd
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CatalogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <mapping|query-id>",
		Short: "Print a query from the catalog",
		Long: `Print a compiled query from the query catalog.

The argument is a mapping name, resolved to the query of the latest run
that compiled it, or a query id.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "catalog database path (default: database from config)")

	return cmd
}

func runList(opts *CatalogOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := commandContext(cmd)

	s, err := openCatalog(formatter, opts.config().ResolvedDatabase(opts.DB))
	if err != nil {
		return err
	}
	defer s.Close()

	if opts.Run == "" {
		runs, err := s.ListRuns(ctx)
		if err != nil {
			return outputCatalogError(formatter, err)
		}
		if formatter.Format == "json" {
			return formatter.Success(runs)
		}
		if len(runs) == 0 {
			fmt.Fprintln(formatter.Writer, "No runs recorded")
			return nil
		}
		for _, r := range runs {
			fmt.Fprintf(formatter.Writer, "%4d  %s  %d mapping(s)  %s  (rdflift %s)\n",
				r.Seq, r.ID, r.MappingCount, r.SpecsDir, r.ToolVersion)
		}
		return nil
	}

	runID := opts.Run
	if runID == "latest" {
		latest, err := s.LatestRun(ctx)
		if err != nil {
			return outputCatalogError(formatter, err)
		}
		runID = latest.ID
	} else if _, err := s.ReadRun(ctx, runID); err != nil {
		return outputCatalogError(formatter, err)
	}

	queries, err := s.ListQueries(ctx, runID)
	if err != nil {
		return outputCatalogError(formatter, err)
	}
	if formatter.Format == "json" {
		return formatter.SuccessWithRun(queries, runID)
	}
	fmt.Fprintf(formatter.Writer, "Run %s\n\n", runID)
	for _, q := range queries {
		fmt.Fprintf(formatter.Writer, "  %-24s %-9s %s\n", q.Mapping, q.Kind, q.ID)
		for _, w := range q.Warnings {
			fmt.Fprintf(formatter.Writer, "    warning: %s\n", w)
		}
	}
	return nil
}

func runShow(opts *CatalogOptions, ref string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := commandContext(cmd)

	s, err := openCatalog(formatter, opts.config().ResolvedDatabase(opts.DB))
	if err != nil {
		return err
	}
	defer s.Close()

	rec, err := s.LatestQuery(ctx, ref)
	if errors.Is(err, store.ErrNotFound) {
		formatter.VerboseLog("No mapping named %s, trying query id", ref)
		rec, err = s.ReadQuery(ctx, ref)
	}
	if err != nil {
		return outputCatalogError(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.SuccessWithRun(rec, rec.RunID)
	}
	fmt.Fprint(formatter.Writer, rec.Text)
	return nil
}

// openCatalog opens an existing catalog. A missing file is an error rather
// than a fresh empty catalog.
func openCatalog(formatter *OutputFormatter, path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, outputCompileError(formatter, rules.ErrCodeNotFound, fmt.Sprintf("catalog not found: %s", path), nil)
	}
	s, err := store.Open(path)
	if err != nil {
		return nil, outputCompileError(formatter, rules.ErrCodeLoadFailed, fmt.Sprintf("opening catalog: %v", err), nil)
	}
	formatter.VerboseLog("Opened catalog %s", path)
	return s, nil
}

func outputCatalogError(formatter *OutputFormatter, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		_ = formatter.Error(rules.ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitFailure, "catalog lookup failed", err)
	}
	return outputCompileError(formatter, rules.ErrCodeGeneric, err.Error(), nil)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
