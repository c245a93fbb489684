package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRValueSealed(t *testing.T) {
	var _ IRValue = IRNull{}
	var _ IRValue = IRString("test")
	var _ IRValue = IRInt(42)
	var _ IRValue = IRBool(true)
	var _ IRValue = NewObject(0)
	var _ IRValue = RowSet{}
}

func TestEqualIsStrict(t *testing.T) {
	tests := []struct {
		name string
		a, b IRValue
		want bool
	}{
		{"same int", IRInt(1), IRInt(1), true},
		{"different int", IRInt(1), IRInt(2), false},
		{"same string", IRString("a"), IRString("a"), true},
		{"string vs int", IRString("1"), IRInt(1), false},
		{"bool vs int", IRBool(true), IRInt(1), false},
		{"null vs null", IRNull{}, IRNull{}, true},
		{"nil vs null", nil, IRNull{}, true},
		{"null vs empty string", IRNull{}, IRString(""), false},
		{"null vs zero", IRNull{}, IRInt(0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
			assert.Equal(t, tt.want, Equal(tt.b, tt.a))
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b IRValue
		want int
	}{
		{"ints ascending", IRInt(1), IRInt(2), -1},
		{"ints equal", IRInt(7), IRInt(7), 0},
		{"negative ints", IRInt(-5), IRInt(-10), 1},
		{"strings lexicographic", IRString("Ada"), IRString("Alan"), -1},
		{"string prefix first", IRString("A"), IRString("AB"), -1},
		{"bools", IRBool(false), IRBool(true), -1},
		{"null before int", IRNull{}, IRInt(0), -1},
		{"int before string", IRInt(100), IRString("1"), -1},
		{"bool before int", IRBool(true), IRInt(-1), -1},
		{"nil equals null", nil, IRNull{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.a, tt.b))
			assert.Equal(t, -tt.want, Compare(tt.b, tt.a))
		})
	}
}

func TestUnmarshalScalar(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    IRValue
		wantErr string
	}{
		{name: "string", input: `"hello"`, want: IRString("hello")},
		{name: "int", input: `42`, want: IRInt(42)},
		{name: "negative int", input: `-7`, want: IRInt(-7)},
		{name: "bool", input: `true`, want: IRBool(true)},
		{name: "null", input: `null`, want: IRNull{}},
		{name: "float", input: `1.5`, wantErr: "floats"},
		{name: "exponent", input: `1e3`, wantErr: "floats"},
		{name: "array", input: `[1]`, wantErr: "arrays"},
		{name: "object", input: `{"a":1}`, wantErr: "objects"},
		{name: "overflow", input: `99999999999999999999`, wantErr: "range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnmarshalScalar([]byte(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKind(t *testing.T) {
	assert.Equal(t, "null", Kind(nil))
	assert.Equal(t, "null", Kind(IRNull{}))
	assert.Equal(t, "string", Kind(IRString("")))
	assert.Equal(t, "int", Kind(IRInt(0)))
	assert.Equal(t, "bool", Kind(IRBool(false)))
	assert.Equal(t, "object", Kind(NewObject(0)))
	assert.Equal(t, "rowset", Kind(RowSet{}))
}

func TestRowUnmarshalJSON(t *testing.T) {
	var row Row
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"title":"A","draft":false,"note":null}`), &row))

	assert.Equal(t, IRInt(1), row.Get("id"))
	assert.Equal(t, IRString("A"), row.Get("title"))
	assert.Equal(t, IRBool(false), row.Get("draft"))
	assert.Equal(t, IRNull{}, row.Get("note"))
	assert.Equal(t, IRNull{}, row.Get("missing"))
}

func TestRowUnmarshalJSONRejectsNested(t *testing.T) {
	var row Row
	err := json.Unmarshal([]byte(`{"tags":["a"]}`), &row)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `column "tags"`)

	err = json.Unmarshal([]byte(`{"score":9.5}`), &row)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floats")
}

func TestRowMarshalJSONSortsColumns(t *testing.T) {
	row := Row{"title": IRString("A"), "id": IRInt(10), "author_id": IRInt(1)}
	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.Equal(t, `{"author_id":1,"id":10,"title":"A"}`, string(data))
}

func TestDecodeRows(t *testing.T) {
	rows, err := DecodeRows([]byte(`[{"id":1},{"id":2}]`))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, IRInt(2), rows[1].Get("id"))

	_, err = DecodeRows([]byte(`null`))
	require.Error(t, err)

	_, err = DecodeRows([]byte(`{"id":1}`))
	require.Error(t, err)
}
