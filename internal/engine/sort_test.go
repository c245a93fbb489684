package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ndcstatic/internal/ir"
	"github.com/roach88/ndcstatic/internal/queryir"
)

func orderBy(elems ...queryir.OrderByElement) *queryir.OrderBy {
	return &queryir.OrderBy{Elements: elems}
}

func key(column string, dir queryir.OrderDirection) queryir.OrderByElement {
	return queryir.OrderByElement{Target: queryir.ColumnTarget{Name: column}, Direction: dir}
}

func ids(rows []ir.Row) []ir.IRValue {
	out := make([]ir.IRValue, len(rows))
	for i, r := range rows {
		out[i] = r.Get("id")
	}
	return out
}

var sortFixture = []ir.Row{
	{"id": ir.IRInt(1), "group": ir.IRString("b"), "n": ir.IRInt(2)},
	{"id": ir.IRInt(2), "group": ir.IRString("a"), "n": ir.IRInt(2)},
	{"id": ir.IRInt(3), "group": ir.IRString("b"), "n": ir.IRInt(1)},
	{"id": ir.IRInt(4), "group": ir.IRString("a"), "n": ir.IRInt(1)},
}

func TestSort_AbsentIsIdentity(t *testing.T) {
	for _, ob := range []*queryir.OrderBy{nil, {}, {Elements: []queryir.OrderByElement{}}} {
		s, err := compileOrderBy("query", ob)
		require.NoError(t, err)
		assert.Nil(t, s)

		got := s.sort(sortFixture)
		assert.Equal(t, ids(sortFixture), ids(got))
	}
}

func TestSort_Keys(t *testing.T) {
	tests := []struct {
		name  string
		order *queryir.OrderBy
		want  []ir.IRValue
	}{
		{
			name:  "single key desc",
			order: orderBy(key("id", queryir.Desc)),
			want:  []ir.IRValue{ir.IRInt(4), ir.IRInt(3), ir.IRInt(2), ir.IRInt(1)},
		},
		{
			name:  "first differing key decides",
			order: orderBy(key("group", queryir.Asc), key("n", queryir.Desc)),
			want:  []ir.IRValue{ir.IRInt(2), ir.IRInt(4), ir.IRInt(1), ir.IRInt(3)},
		},
		{
			name:  "stable on equal keys",
			order: orderBy(key("group", queryir.Asc)),
			want:  []ir.IRValue{ir.IRInt(2), ir.IRInt(4), ir.IRInt(1), ir.IRInt(3)},
		},
		{
			name:  "stable desc keeps input order among equals",
			order: orderBy(key("n", queryir.Desc)),
			want:  []ir.IRValue{ir.IRInt(1), ir.IRInt(2), ir.IRInt(3), ir.IRInt(4)},
		},
		{
			name:  "missing column sorts as null everywhere",
			order: orderBy(key("nope", queryir.Asc)),
			want:  []ir.IRValue{ir.IRInt(1), ir.IRInt(2), ir.IRInt(3), ir.IRInt(4)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := compileOrderBy("query", tt.order)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(s.sort(sortFixture)))
		})
	}
}

func TestSort_DoesNotMutateInput(t *testing.T) {
	input := []ir.Row{{"id": ir.IRInt(2)}, {"id": ir.IRInt(1)}}
	s, err := compileOrderBy("query", orderBy(key("id", queryir.Asc)))
	require.NoError(t, err)

	got := s.sort(input)

	assert.Equal(t, []ir.IRValue{ir.IRInt(1), ir.IRInt(2)}, ids(got))
	assert.Equal(t, []ir.IRValue{ir.IRInt(2), ir.IRInt(1)}, ids(input))
}

func TestSort_MixedTypesDoNotPanic(t *testing.T) {
	input := []ir.Row{
		{"id": ir.IRInt(1), "v": ir.IRString("x")},
		{"id": ir.IRInt(2), "v": ir.IRInt(5)},
		{"id": ir.IRInt(3), "v": ir.IRNull{}},
		{"id": ir.IRInt(4), "v": ir.IRBool(true)},
	}
	s, err := compileOrderBy("query", orderBy(key("v", queryir.Asc)))
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		// null < bool < int < string
		assert.Equal(t, []ir.IRValue{ir.IRInt(3), ir.IRInt(4), ir.IRInt(2), ir.IRInt(1)}, ids(s.sort(input)))
	})
}

func TestCompileOrderBy_Errors(t *testing.T) {
	_, err := compileOrderBy("query", orderBy(queryir.OrderByElement{
		Target:    queryir.UnsupportedTarget{Type: "root_collection_column"},
		Direction: queryir.Asc,
	}))
	assert.True(t, HasCode(err, ErrCodeUnsupportedColumnReference))

	_, err = compileOrderBy("query", orderBy(key("id", "up")))
	require.True(t, HasCode(err, ErrCodeInvalidRequest))
	assert.Contains(t, err.Error(), `unknown order direction "up"`)
}
