package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ndcstatic/internal/config"
	"github.com/roach88/ndcstatic/internal/engine"
	"github.com/roach88/ndcstatic/internal/schema"
	"github.com/roach88/ndcstatic/internal/store"
)

// Runtime is everything a command needs to execute queries.
type Runtime struct {
	Config *config.Config
	Logger *slog.Logger
	Store  *store.Store
	Schema *schema.Document
}

// loadConfig resolves configuration for cmd. Global flags that the user
// set take precedence over files and the environment.
func loadConfig(opts *RootOptions, cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(config.Options{
		File:    opts.ConfigFile,
		EnvFile: opts.EnvFile,
		Flags:   cmd.Flags(),
	})
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// newLogger builds the slog logger described by cfg, writing to w.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(handler), nil
}

// loadStore opens the dataset selected by cfg: a SQLite file, a directory
// of JSON files, or the embedded default.
func loadStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	switch {
	case cfg.Data.SQLite != "":
		if _, err := os.Stat(cfg.Data.SQLite); err != nil {
			return nil, fmt.Errorf("sqlite database: %w", err)
		}
		return store.LoadSQLite(ctx, cfg.Data.SQLite)
	case cfg.Data.Dir != "":
		return store.LoadDir(cfg.Data.Dir)
	default:
		return store.Default()
	}
}

// loadRuntime resolves config, logger, dataset and schema. Logs go to the
// command's stderr. Failures are ExitErrors with ExitCommandError.
func loadRuntime(opts *RootOptions, cmd *cobra.Command) (*Runtime, error) {
	cfg, err := loadConfig(opts, cmd)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	st, err := loadStore(commandContext(cmd), cfg)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load dataset", err)
	}
	logger.Debug("dataset loaded", "collections", strings.Join(st.Names(), ","))

	doc, err := schema.Default()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load schema", err)
	}

	return &Runtime{Config: cfg, Logger: logger, Store: st, Schema: doc}, nil
}

// Executor builds an Executor over the dataset with the configured options
// and a debug-level SlogHook plus any extra hooks.
func (r *Runtime) Executor(hooks ...engine.Hook) *engine.Executor {
	opts := []engine.Option{engine.WithHook(engine.SlogHook{Logger: r.Logger})}
	for _, h := range hooks {
		opts = append(opts, engine.WithHook(h))
	}
	if r.Config.Engine.NestedQueries {
		opts = append(opts, engine.WithNestedQueries())
	}
	return engine.New(r.Store, opts...)
}

// CheckSchema logs every mismatch between the schema and the dataset.
// It returns the number of problems.
func (r *Runtime) CheckSchema() int {
	problems := schema.Check(r.Schema, r.Store.Names())
	for _, p := range problems {
		r.Logger.Warn("schema check", "code", p.Code, "field", p.Field, "message", p.Message)
	}
	return len(problems)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// readInput reads a file argument, or stdin for "-".
func readInput(cmd *cobra.Command, arg string) ([]byte, error) {
	if arg == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(arg)
}
