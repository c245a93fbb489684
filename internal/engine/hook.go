package engine

import (
	"context"
	"log/slog"
	"time"
)

// Hook observes query execution at fixed pipeline boundaries.
//
// Hooks never influence the result. Implementations must be safe for
// concurrent use: one Executor serves many requests at once.
type Hook interface {
	// BeforeFilter is called after sorting, with the number of rows about to
	// be filtered.
	BeforeFilter(ctx context.Context, info PhaseInfo)

	// AfterProject is called once the response rows are built.
	AfterProject(ctx context.Context, info PhaseInfo)

	// OnIgnoredNestedClauses is called for each relationship field whose
	// nested query carries where or order_by while nested queries are off.
	OnIgnoredNestedClauses(ctx context.Context, info NestedClauseInfo)
}

// PhaseInfo describes the state of one execution at a pipeline boundary.
type PhaseInfo struct {
	Collection string
	Rows       int
	Elapsed    time.Duration
}

// NestedClauseInfo identifies a nested query whose clauses were not applied.
type NestedClauseInfo struct {
	Path         string // e.g. "query.fields.articles.query"
	Relationship string
	Where        bool
	OrderBy      bool
}

// NopHook implements Hook with no-ops. Embed it to override a subset.
type NopHook struct{}

func (NopHook) BeforeFilter(context.Context, PhaseInfo)                 {}
func (NopHook) AfterProject(context.Context, PhaseInfo)                 {}
func (NopHook) OnIgnoredNestedClauses(context.Context, NestedClauseInfo) {}

// Hooks fans out to every hook in order.
type Hooks []Hook

func (hs Hooks) BeforeFilter(ctx context.Context, info PhaseInfo) {
	for _, h := range hs {
		h.BeforeFilter(ctx, info)
	}
}

func (hs Hooks) AfterProject(ctx context.Context, info PhaseInfo) {
	for _, h := range hs {
		h.AfterProject(ctx, info)
	}
}

func (hs Hooks) OnIgnoredNestedClauses(ctx context.Context, info NestedClauseInfo) {
	for _, h := range hs {
		h.OnIgnoredNestedClauses(ctx, info)
	}
}

// SlogHook logs pipeline boundaries at DEBUG and ignored nested clauses at WARN.
type SlogHook struct {
	Logger *slog.Logger // nil uses slog.Default()
}

func (h SlogHook) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

func (h SlogHook) BeforeFilter(ctx context.Context, info PhaseInfo) {
	h.logger().DebugContext(ctx, "query.before_filter",
		"collection", info.Collection,
		"rows", info.Rows,
	)
}

func (h SlogHook) AfterProject(ctx context.Context, info PhaseInfo) {
	h.logger().DebugContext(ctx, "query.after_project",
		"collection", info.Collection,
		"rows", info.Rows,
		"elapsed", info.Elapsed,
	)
}

func (h SlogHook) OnIgnoredNestedClauses(ctx context.Context, info NestedClauseInfo) {
	h.logger().WarnContext(ctx, "nested query clauses ignored",
		"path", info.Path,
		"relationship", info.Relationship,
		"where", info.Where,
		"order_by", info.OrderBy,
	)
}
