package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/rdflift/internal/query"
	"github.com/roach88/rdflift/internal/rules"
	"github.com/roach88/rdflift/internal/sparql"
	"github.com/roach88/rdflift/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output  string // directory for <mapping>.rq files
	Mapping string // compile a single mapping
	Store   bool   // record the run in the catalog
	DB      string // catalog path (overrides config)
}

// CompiledQuery is one serialized mapping.
type CompiledQuery struct {
	Mapping  string   `json:"mapping"`
	Kind     string   `json:"kind"`
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Warnings []string `json:"warnings"`

	spec *rules.Spec
}

// CompilationResult is the JSON payload of the compile command.
type CompilationResult struct {
	SpecsDir string          `json:"specs_dir"`
	Queries  []CompiledQuery `json:"queries"`
	Files    []string        `json:"files,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [specs-dir]",
		Short: "Compile mapping specs to SPARQL",
		Long: `Compile CUE and YAML mapping specs to SPARQL queries.

Each mapping becomes one CONSTRUCT, INSERT or DELETE query. Queries are
printed, written to <mapping>.rq files with --output, and recorded in the
query catalog with --store. The specs directory defaults to specs_dir from
the configuration.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "directory to write <mapping>.rq files to")
	cmd.Flags().StringVarP(&opts.Mapping, "mapping", "m", "", "compile only this mapping")
	cmd.Flags().BoolVar(&opts.Store, "store", false, "record the compiled queries in the catalog")
	cmd.Flags().StringVar(&opts.DB, "db", "", "catalog database path (default: database from config)")

	return cmd
}

func runCompile(opts *CompileOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	cfg := opts.config()
	specsDir := cfg.ResolvedSpecsDir(args)

	specs, err := loadSpecs(formatter, specsDir, opts.Mapping)
	if err != nil {
		return err
	}

	compiled, errs := compileSpecs(formatter, specs, rules.Options{Prefixes: cfg.Prefixes})
	if len(errs) > 0 {
		return outputCompileErrors(formatter, errs)
	}

	result := &CompilationResult{SpecsDir: specsDir, Queries: compiled}

	if opts.Output != "" {
		files, err := writeQueryFiles(opts.Output, compiled)
		if err != nil {
			return outputCompileError(formatter, rules.ErrCodeWriteFailed, fmt.Sprintf("writing output files: %v", err), nil)
		}
		result.Files = files
	}

	var runID string
	if opts.Store {
		db := cfg.ResolvedDatabase(opts.DB)
		runID, err = recordRun(cmd.Context(), db, specsDir, compiled, store.UUIDv7Generator{})
		if err != nil {
			return outputCompileError(formatter, rules.ErrCodeWriteFailed, fmt.Sprintf("recording run in %s: %v", db, err), nil)
		}
		formatter.VerboseLog("Recorded run %s in %s", runID, db)
	}

	return outputCompileSuccess(formatter, result, runID)
}

// loadSpecs loads every spec under dir, or just the named one.
func loadSpecs(formatter *OutputFormatter, dir, name string) ([]*rules.Spec, error) {
	result, errs := rules.Load(dir, rules.LoadModeCollectAll)
	if result == nil && len(errs) > 0 {
		code, message := parseCompileError(errs[0])
		return nil, outputCompileError(formatter, code, message, nil)
	}
	if len(errs) > 0 {
		return nil, outputCompileErrors(formatter, errs)
	}

	formatter.VerboseLog("Found %d spec file(s) in %s (%d CUE, %d YAML)",
		result.FileCount(), dir, result.CUEFiles, result.YAMLFiles)

	if name == "" {
		return result.Specs, nil
	}
	spec, ok := result.Lookup(name)
	if !ok {
		return nil, outputCompileError(formatter, rules.ErrCodeNotFound, fmt.Sprintf("mapping %q not found in %s", name, dir), nil)
	}
	return []*rules.Spec{spec}, nil
}

// compileSpecs compiles and serializes every spec, collecting all errors.
func compileSpecs(formatter *OutputFormatter, specs []*rules.Spec, opts rules.Options) ([]CompiledQuery, []error) {
	var (
		out  []CompiledQuery
		errs []error
	)
	for _, spec := range specs {
		formatter.VerboseLog("Compiling mapping: %s", spec.Name)

		q, err := rules.Compile(spec, opts)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		text := sparql.Serialize(q)
		out = append(out, CompiledQuery{
			Mapping:  spec.Name,
			Kind:     q.Kind().String(),
			ID:       store.QueryID(text),
			Text:     text,
			Warnings: query.Validate(q).Warnings,
			spec:     spec,
		})
	}
	return out, errs
}

// recordRun writes one catalog run holding every compiled query, in a
// single transaction.
func recordRun(ctx context.Context, db, specsDir string, compiled []CompiledQuery, ids store.IDGenerator) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	records := make([]store.QueryRecord, 0, len(compiled))
	for _, c := range compiled {
		hash, err := specHash(c.spec)
		if err != nil {
			return "", fmt.Errorf("hashing mapping %q: %w", c.Mapping, err)
		}
		records = append(records, store.QueryRecord{
			Mapping:  c.Mapping,
			Kind:     c.Kind,
			Text:     c.Text,
			SpecHash: hash,
			Warnings: c.Warnings,
		})
	}

	s, err := store.Open(db)
	if err != nil {
		return "", err
	}
	defer s.Close()

	run, err := s.RecordRun(ctx, store.Run{
		ID:          ids.Generate(),
		SpecsDir:    specsDir,
		ToolVersion: Version,
	}, records)
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

// specHash hashes the YAML rendering of a spec, so the same mapping
// hashes the same whether it was written in CUE or YAML.
func specHash(spec *rules.Spec) (string, error) {
	if spec == nil {
		return "", nil
	}
	data, err := rules.MarshalYAML([]*rules.Spec{spec})
	if err != nil {
		return "", err
	}
	return store.SpecHash(data), nil
}

// writeQueryFiles writes <mapping>.rq files into dir.
func writeQueryFiles(dir string, compiled []CompiledQuery) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	files := make([]string, 0, len(compiled))
	for _, c := range compiled {
		path := filepath.Join(dir, c.Mapping+".rq")
		if err := os.WriteFile(path, []byte(c.Text), 0o644); err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	return files, nil
}

// outputCompileSuccess prints the queries, or a summary when they went to files.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, runID string) error {
	if formatter.Format == "json" {
		return formatter.SuccessWithRun(result, runID)
	}

	w := formatter.Writer
	if len(result.Files) > 0 {
		fmt.Fprintf(w, "✓ Compiled %d mapping(s)\n\n", len(result.Queries))
		for i, c := range result.Queries {
			fmt.Fprintf(w, "  %s (%s) → %s\n", c.Mapping, c.Kind, result.Files[i])
		}
		if runID != "" {
			fmt.Fprintf(w, "\nRecorded run %s\n", runID)
		}
		return nil
	}

	// SPARQL comments keep the output loadable as a query file.
	if runID != "" {
		fmt.Fprintf(w, "# run: %s\n\n", runID)
	}
	for i, c := range result.Queries {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "# mapping: %s\n", c.Mapping)
		for _, warning := range c.Warnings {
			fmt.Fprintf(w, "# warning: %s\n", warning)
		}
		fmt.Fprint(w, c.Text)
	}
	return nil
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}

// outputCompileErrors outputs multiple compilation errors.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := parseCompileError(err)
			cliErrors[i] = CLIError{Code: code, Message: message}
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors,
		}); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		code, message := parseCompileError(err)
		if pos := errorPosition(err); pos != "" {
			fmt.Fprintln(formatter.Writer, pos)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}

	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// parseCompileError extracts error code and message from an error.
func parseCompileError(err error) (string, string) {
	var compileErr *rules.CompileError
	if errors.As(err, &compileErr) {
		field := compileErr.Field
		if compileErr.Mapping != "" {
			field = compileErr.Mapping + "." + compileErr.Field
		}
		return rules.MapFieldToErrorCode(compileErr.Field), field + ": " + compileErr.Message
	}
	var loadErr *rules.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return rules.ErrCodeGeneric, err.Error()
}

// errorPosition returns "file:line:col" for errors carrying a position.
func errorPosition(err error) string {
	var compileErr *rules.CompileError
	if errors.As(err, &compileErr) && compileErr.Pos.IsValid() {
		p := compileErr.Pos
		return fmt.Sprintf("%s:%d:%d", p.Filename(), p.Line(), p.Column())
	}
	var loadErr *rules.LoadError
	if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
		p := loadErr.Pos
		return fmt.Sprintf("%s:%d:%d", p.Filename(), p.Line(), p.Column())
	}
	return ""
}
