package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ndcstatic/internal/schema"
)

// SchemaOptions holds flags for the schema command.
type SchemaOptions struct {
	*RootOptions
	Capabilities bool
	Check        bool
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchemaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the schema or capabilities document",
		Long: `Print the schema document served on /schema, or with --capabilities the
document served on /capabilities.

With --check, verify instead that every advertised comparison operator is
supported and every collection of the dataset is declared.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Capabilities, "capabilities", false, "print the capabilities document")
	cmd.Flags().BoolVar(&opts.Check, "check", false, "check the schema against the dataset")

	return cmd
}

func runSchema(opts *SchemaOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Check {
		return runSchemaCheck(opts, formatter, cmd)
	}

	doc, err := schema.Default()
	if err != nil {
		return formatter.Fail(err, ErrCodeLoadFailed, ExitCommandError)
	}

	data := doc.SchemaJSON()
	if opts.Capabilities {
		data = doc.CapabilitiesJSON()
	}
	if opts.Format == "json" {
		return formatter.Success(json.RawMessage(data))
	}
	return formatter.Success(string(data))
}

func runSchemaCheck(opts *SchemaOptions, formatter *OutputFormatter, cmd *cobra.Command) error {
	rt, err := loadRuntime(opts.RootOptions, cmd)
	if err != nil {
		return formatter.Fail(err, ErrCodeLoadFailed, ExitCommandError)
	}

	problems := schema.Check(rt.Schema, rt.Store.Names())
	if problems == nil {
		problems = []schema.CheckError{}
	}
	if opts.Format == "json" {
		if err := formatter.Success(map[string]any{"valid": len(problems) == 0, "errors": problems}); err != nil {
			return err
		}
	} else if len(problems) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Schema matches the dataset")
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "✗ %d problem(s):\n", len(problems))
		for _, p := range problems {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", p.Error())
		}
	}

	if len(problems) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d schema problem(s)", len(problems)))
	}
	return nil
}
