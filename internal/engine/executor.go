package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/ndcstatic/internal/ir"
	"github.com/roach88/ndcstatic/internal/queryir"
)

// Collections is the read-only table source an Executor queries.
// Implemented by store.Store.
type Collections interface {
	Lookup(name string) (ir.Table, bool)
}

// Executor evaluates query requests against a fixed set of collections.
//
// An Executor holds no per-request state and never mutates its
// collections, so a single instance may serve concurrent requests.
type Executor struct {
	collections   Collections
	hooks         Hooks
	nestedQueries bool
}

// Option configures an Executor.
type Option func(*Executor)

// WithHook registers an observability hook. Hooks run in registration order.
func WithHook(h Hook) Option {
	return func(e *Executor) {
		e.hooks = append(e.hooks, h)
	}
}

// WithNestedQueries applies where and order_by of nested relationship
// queries to the matched rows before cardinality selection. Without it
// those clauses are ignored and reported to OnIgnoredNestedClauses.
func WithNestedQueries() Option {
	return func(e *Executor) {
		e.nestedQueries = true
	}
}

// New creates an Executor over collections.
func New(collections Collections, opts ...Option) *Executor {
	e := &Executor{collections: collections}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// planner compiles one request. It lives for a single Execute call.
type planner struct {
	collections   Collections
	relationships map[string]queryir.Relationship
	nestedQueries bool
	patterns      patternCache
	ignored       []NestedClauseInfo
}

// plan is a compiled top-level query.
type plan struct {
	sort   *sorter
	where  predicate
	fields *projector
}

func (p *planner) compileQuery(q queryir.Query) (*plan, error) {
	const path = "query"

	s, err := compileOrderBy(path, q.OrderBy)
	if err != nil {
		return nil, err
	}
	var where predicate
	if q.Where != nil {
		if where, err = compilePredicate(path+".where", q.Where, p.patterns); err != nil {
			return nil, err
		}
	}
	fields, err := p.compileFields(path, q.Fields)
	if err != nil {
		return nil, err
	}
	return &plan{sort: s, where: where, fields: fields}, nil
}

// Execute runs the pipeline for one request:
//
//  1. Look up the collection (UNKNOWN_COLLECTION)
//  2. Sort the full table by order_by
//  3. Filter the ordered rows by where
//  4. Project fields, resolving relationships recursively
//  5. Wrap as a single row set
//
// The request is checked as a whole before any row is read, so shape errors
// do not depend on table contents. The context is checked between phases;
// cancellation returns the context error and no result.
func (e *Executor) Execute(ctx context.Context, req *queryir.QueryRequest) (queryir.QueryResponse, error) {
	if req == nil {
		return nil, NewInvalidRequestError("request is nil")
	}
	start := time.Now()

	if err := checkContext(ctx, "lookup"); err != nil {
		return nil, err
	}
	table, ok := e.collections.Lookup(req.Collection)
	if !ok {
		return nil, NewUnknownCollectionError(req.Collection)
	}

	p := &planner{
		collections:   e.collections,
		relationships: req.CollectionRelationships,
		nestedQueries: e.nestedQueries,
		patterns:      make(patternCache),
	}
	compiled, err := p.compileQuery(req.Query)
	if err != nil {
		return nil, err
	}
	for _, info := range p.ignored {
		e.hooks.OnIgnoredNestedClauses(ctx, info)
	}

	ordered := compiled.sort.sort(table.Rows)
	if err := checkContext(ctx, "filter"); err != nil {
		return nil, err
	}

	e.hooks.BeforeFilter(ctx, PhaseInfo{
		Collection: req.Collection,
		Rows:       len(ordered),
		Elapsed:    time.Since(start),
	})
	filtered, err := filterRows(ordered, compiled.where)
	if err != nil {
		return nil, err
	}
	if err := checkContext(ctx, "project"); err != nil {
		return nil, err
	}

	rows, err := compiled.fields.project(filtered)
	if err != nil {
		return nil, err
	}
	if err := checkContext(ctx, "response"); err != nil {
		return nil, err
	}
	e.hooks.AfterProject(ctx, PhaseInfo{
		Collection: req.Collection,
		Rows:       len(rows),
		Elapsed:    time.Since(start),
	})

	return queryir.QueryResponse{{Rows: rows}}, nil
}

func checkContext(ctx context.Context, phase string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("query aborted before %s: %w", phase, err)
	}
	return nil
}
