package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/ndcstatic/internal/engine"
	"github.com/roach88/ndcstatic/internal/queryir"
	"github.com/roach88/ndcstatic/internal/store"
)

// Harness executes scenarios.
type Harness struct {
	logger *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger routes executor debug logs to logger. By default they are
// discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = logger
	}
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with a default Harness.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(context.Background(), scenario)
}

// Run executes a scenario and evaluates its expectations.
//
// A query failure is part of the result, not an error: the returned error
// covers problems with the scenario itself (dataset, request rendering).
//
// Execution flow:
// 1. Load the dataset (Data dir or embedded default)
// 2. Render the request to JSON and decode it
// 3. Execute it on a fresh Executor
// 4. Compare Expect and evaluate assertions
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := loadData(scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	body, err := scenario.RequestJSON()
	if err != nil {
		return nil, err
	}

	opts := []engine.Option{engine.WithHook(engine.SlogHook{Logger: h.logger})}
	if scenario.NestedQueries {
		opts = append(opts, engine.WithNestedQueries())
	}
	exec := engine.New(st, opts...)

	result := NewResult()
	req, err := queryir.DecodeRequest(body)
	if err != nil {
		result.Err = err
		result.ErrorCode = string(engine.ErrCodeInvalidRequest)
	} else {
		resp, err := exec.Execute(ctx, req)
		if err != nil {
			result.Err = err
			code, ok := engine.CodeOf(err)
			if !ok {
				return nil, fmt.Errorf("execute: %w", err)
			}
			result.ErrorCode = string(code)
		} else {
			result.Response = resp
		}
	}

	h.logger.Debug("scenario executed",
		"scenario", scenario.Name,
		"rows", len(result.Rows()),
		"error_code", result.ErrorCode,
	)

	for _, msg := range checkExpect(result, scenario.Expect) {
		result.AddError(msg)
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func loadData(scenario *Scenario) (*store.Store, error) {
	if scenario.Data == "" {
		return store.Default()
	}
	return store.LoadDir(scenario.Data)
}
