package engine

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ndcstatic/internal/testutil"
)

func TestSlogHook(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e := New(testutil.Store(t), WithHook(SlogHook{Logger: logger}))

	_, err := e.Execute(context.Background(), nestedRequest())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "level=WARN msg=\"nested query clauses ignored\" path=query.fields.articles.query relationship=author_articles where=true order_by=true")
	assert.Contains(t, out, "level=DEBUG msg=query.before_filter collection=authors rows=2")
	assert.Contains(t, out, "level=DEBUG msg=query.after_project collection=authors rows=1")
}

func TestSlogHook_InfoLevelHidesPhases(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	e := New(testutil.Store(t), WithHook(SlogHook{Logger: logger}))

	_, err := e.Execute(context.Background(), nestedRequest())
	require.NoError(t, err)

	assert.NotContains(t, buf.String(), "query.before_filter")
	assert.Contains(t, buf.String(), "nested query clauses ignored")
}

// countingHook counts BeforeFilter calls and ignores the rest.
type countingHook struct {
	NopHook
	n *int
}

func (h countingHook) BeforeFilter(context.Context, PhaseInfo) { *h.n++ }

func TestHooks_FanOutInOrder(t *testing.T) {
	var a, b int
	hooks := Hooks{countingHook{n: &a}, countingHook{n: &b}, NopHook{}}

	hooks.BeforeFilter(context.Background(), PhaseInfo{})
	hooks.BeforeFilter(context.Background(), PhaseInfo{})
	hooks.AfterProject(context.Background(), PhaseInfo{})
	hooks.OnIgnoredNestedClauses(context.Background(), NestedClauseInfo{})

	assert.Equal(t, 2, a)
	assert.Equal(t, 2, b)
}
