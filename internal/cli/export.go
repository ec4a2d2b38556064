package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rdflift/internal/rules"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Mapping string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export [specs-dir]",
		Short: "Print mapping specs as YAML",
		Long: `Load mapping specs from CUE and YAML files and print them as a single
YAML document. The output loads back with the same meaning.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Mapping, "mapping", "m", "", "export only this mapping")

	return cmd
}

func runExport(opts *ExportOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	specs, err := loadSpecs(formatter, opts.config().ResolvedSpecsDir(args), opts.Mapping)
	if err != nil {
		return err
	}

	if formatter.Format == "json" {
		byName := make(map[string]*rules.Spec, len(specs))
		for _, s := range specs {
			byName[s.Name] = s
		}
		return formatter.Success(byName)
	}

	data, err := rules.MarshalYAML(specs)
	if err != nil {
		return outputCompileError(formatter, rules.ErrCodeGeneric, fmt.Sprintf("encoding YAML: %v", err), nil)
	}
	_, err = formatter.Writer.Write(data)
	return err
}
