package cli

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ndcstatic/internal/engine"
	"github.com/roach88/ndcstatic/internal/ir"
	"github.com/roach88/ndcstatic/internal/queryir"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Canonical bool
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <request.json|->",
		Short: "Execute one query request",
		Long: `Execute one query request against the dataset and print the response.

The request is read from a file, or from stdin when the argument is "-".

Exit codes:
  0 - Query succeeded
  1 - Query failed (error code is printed)
  2 - Command error (unreadable file, dataset failed to load)

Examples:
  ndcstatic query request.json
  ndcstatic query --canonical request.json
  cat request.json | ndcstatic query - --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Canonical, "canonical", false, "print canonical JSON (sorted keys)")

	return cmd
}

func runQuery(opts *QueryOptions, input string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	body, err := readInput(cmd, input)
	if err != nil {
		return formatter.Fail(err, ErrCodeReadFailed, ExitCommandError)
	}

	rt, err := loadRuntime(opts.RootOptions, cmd)
	if err != nil {
		return formatter.Fail(err, ErrCodeLoadFailed, ExitCommandError)
	}

	req, err := queryir.DecodeRequest(body)
	if err != nil {
		return formatter.Fail(engine.NewInvalidRequestError("%v", err), "", ExitFailure)
	}
	formatter.VerboseLog("Executing query on collection %q", req.Collection)

	resp, err := rt.Executor().Execute(commandContext(cmd), req)
	if err != nil {
		return formatter.Fail(err, ErrCodeGeneric, ExitFailure)
	}

	out, err := encodeResponse(resp, opts.Canonical)
	if err != nil {
		return formatter.Fail(err, ErrCodeGeneric, ExitFailure)
	}

	if opts.Format == "json" {
		return formatter.Success(json.RawMessage(out))
	}
	return formatter.Success(string(out))
}

// encodeResponse marshals resp in request key order, or canonically.
func encodeResponse(resp queryir.QueryResponse, canonical bool) ([]byte, error) {
	if canonical {
		return ir.MarshalCanonical([]ir.RowSet(resp))
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
