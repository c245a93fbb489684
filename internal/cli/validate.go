package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/ndcstatic/internal/engine"
	"github.com/roach88/ndcstatic/internal/queryir"
	"github.com/roach88/ndcstatic/internal/schema"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Warnings []string `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <request.json|->",
		Short: "Check a query request without executing it",
		Long: `Check a query request against the schema without executing it.

Reports undeclared collections and columns, unknown relationships, kinds
the executor rejects, like patterns that do not compile, and nested
clauses that are ignored unless nested queries are enabled.

Exit codes:
  0 - No warnings
  1 - Warnings found, or the request does not decode
  2 - Command error`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, input string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	body, err := readInput(cmd, input)
	if err != nil {
		return formatter.Fail(err, ErrCodeReadFailed, ExitCommandError)
	}

	doc, err := schema.Default()
	if err != nil {
		return formatter.Fail(err, ErrCodeLoadFailed, ExitCommandError)
	}

	req, err := queryir.DecodeRequest(body)
	if err != nil {
		return formatter.Fail(engine.NewInvalidRequestError("%v", err), "", ExitFailure)
	}

	result := queryir.Validate(req, doc)
	formatter.VerboseLog("Validated request on collection %q: %d warning(s)", req.Collection, len(result.Warnings))

	out := ValidationResult{Valid: result.Clean, Warnings: result.Warnings}
	if opts.Format == "json" {
		if err := formatter.Success(out); err != nil {
			return err
		}
	} else {
		writeValidationText(cmd.OutOrStdout(), out)
	}

	if !out.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%d validation warning(s)", len(out.Warnings)))
	}
	return nil
}

func writeValidationText(w io.Writer, result ValidationResult) {
	if result.Valid {
		fmt.Fprintln(w, "✓ Request is valid")
		return
	}
	fmt.Fprintf(w, "✗ %d warning(s):\n", len(result.Warnings))
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "  %s\n", warning)
	}
}
