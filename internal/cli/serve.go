package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/roach88/ndcstatic/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions

	// RequestIDs overrides the request ID generator (for testing).
	// If nil, defaults to server.UUIDv7Generator.
	RequestIDs server.RequestIDGenerator

	// Ready, if set, receives the server once it is built.
	Ready func(*server.Server)
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the connector over HTTP",
		Long: `Serve the connector over HTTP.

Loads the dataset (embedded default, --data directory or --sqlite file)
and serves /capabilities, /schema, /query, /metrics and /healthz until
interrupted.

Example:
  ndcstatic serve --addr :8080
  ndcstatic serve --data ./tables --log-format json
  NDCSTATIC_SERVER_ADDR=:9000 ndcstatic serve`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().String("addr", ":8080", "listen address")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	rt, err := loadRuntime(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	if n := rt.CheckSchema(); n > 0 {
		rt.Logger.Warn("schema and dataset disagree", "problems", n)
	}

	gin.SetMode(gin.ReleaseMode)
	metrics := server.NewMetrics(nil)
	exec := rt.Executor(metrics)

	serverOpts := []server.Option{
		server.WithLogger(rt.Logger),
		server.WithMetrics(metrics),
	}
	if opts.RequestIDs != nil {
		serverOpts = append(serverOpts, server.WithRequestIDs(opts.RequestIDs))
	}
	srv, err := server.New(exec, rt.Schema, serverOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build server", err)
	}
	if opts.Ready != nil {
		opts.Ready(srv)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt.Logger.Info("server starting",
		"addr", rt.Config.Server.Addr,
		"collections", len(rt.Store.Names()),
		"nested_queries", rt.Config.Engine.NestedQueries,
	)
	fmt.Fprintf(cmd.OutOrStdout(), "Serving on %s. Press Ctrl-C to stop.\n", rt.Config.Server.Addr)

	cfg := rt.Config.Server
	if err := srv.Run(ctx, cfg.Addr, cfg.ReadTimeout, cfg.ShutdownTimeout); err != nil && err != context.Canceled {
		return WrapExitError(ExitFailure, "server error", err)
	}

	rt.Logger.Info("server stopped gracefully")
	return nil
}
