package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/rdflift/internal/rules"
)

// WarnCodeQuery marks a query that compiles but an endpoint would reject
// or partly ignore.
const WarnCodeQuery = "W001"

// ValidationIssue is one problem found by validate.
type ValidationIssue struct {
	Mapping string `json:"mapping,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Mappings int               `json:"mappings"`
	Issues   []ValidationIssue `json:"issues,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [specs-dir]",
		Short: "Check mapping specs and the queries they produce",
		Long: `Validate mapping specs without writing any output.

Every mapping is compiled and the resulting query is checked for
constructs a SPARQL endpoint would reject or ignore: unbound template
variables, variables in DATA forms, blank nodes in DELETE templates and
empty groups. Any spec error or warning fails validation.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	cfg := opts.config()
	specsDir := cfg.ResolvedSpecsDir(args)

	result, err := ValidateSpecsDir(specsDir, rules.Options{Prefixes: cfg.Prefixes}, formatter)
	if err != nil {
		var loadErr *rules.LoadError
		if errors.As(err, &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message, nil)
		}
		return outputValidateError(formatter, rules.ErrCodeGeneric, err.Error(), nil)
	}

	if !result.Valid {
		return outputValidationIssues(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// ValidateSpecsDir loads and compiles every spec in specsDir and collects
// spec errors and query warnings. The error return is reserved for
// problems reading the directory itself. A nil formatter is silent.
func ValidateSpecsDir(specsDir string, opts rules.Options, formatter *OutputFormatter) (*ValidationResult, error) {
	if formatter == nil {
		formatter = &OutputFormatter{Format: "text", Writer: io.Discard}
	}

	loaded, loadErrs := rules.Load(specsDir, rules.LoadModeCollectAll)
	if loaded == nil && len(loadErrs) > 0 {
		return nil, loadErrs[0]
	}

	result := &ValidationResult{}
	for _, err := range loadErrs {
		result.Issues = append(result.Issues, issueFromError(err))
	}
	if loaded != nil {
		formatter.VerboseLog("Found %d spec file(s) in %s", loaded.FileCount(), specsDir)
		result.Mappings = len(loaded.Specs)

		compiled, errs := compileSpecs(formatter, loaded.Specs, opts)
		for _, err := range errs {
			result.Issues = append(result.Issues, issueFromError(err))
		}
		for _, c := range compiled {
			for _, w := range c.Warnings {
				result.Issues = append(result.Issues, ValidationIssue{
					Mapping: c.Mapping,
					Code:    WarnCodeQuery,
					Message: w,
					Line:    c.spec.Pos.Line(),
				})
			}
		}
	}

	result.Valid = len(result.Issues) == 0
	return result, nil
}

func issueFromError(err error) ValidationIssue {
	code, message := parseCompileError(err)
	issue := ValidationIssue{Code: code, Message: message}

	var compileErr *rules.CompileError
	if errors.As(err, &compileErr) {
		issue.Mapping = compileErr.Mapping
		if compileErr.Pos.IsValid() {
			issue.Line = compileErr.Pos.Line()
		}
	}
	var loadErr *rules.LoadError
	if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
		issue.Line = loadErr.Pos.Line()
	}
	return issue
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result *ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ All %d mapping(s) valid\n", result.Mappings)
	return nil
}

// outputValidateError outputs an error reading the specs directory.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationIssues outputs spec errors and query warnings.
func outputValidationIssues(formatter *OutputFormatter, result *ValidationResult) error {
	issues := result.Issues
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    issues[0].Code,
				Message: issues[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d issue(s)", len(issues)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, issue := range issues {
		switch {
		case issue.Mapping != "" && issue.Line > 0:
			fmt.Fprintf(formatter.Writer, "%s (line %d)\n", issue.Mapping, issue.Line)
		case issue.Mapping != "":
			fmt.Fprintln(formatter.Writer, issue.Mapping)
		case issue.Line > 0:
			fmt.Fprintf(formatter.Writer, "line %d\n", issue.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", issue.Code, issue.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d issue(s)", len(issues)))
}
