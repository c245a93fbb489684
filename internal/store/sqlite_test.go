package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ndcstatic/internal/ir"
)

// createTestDB creates a SQLite file by running stmts and returns its path.
func createTestDB(t *testing.T, stmts ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	return path
}

func TestLoadSQLite(t *testing.T) {
	path := createTestDB(t,
		`CREATE TABLE authors (id INTEGER, first_name TEXT, last_name TEXT)`,
		`INSERT INTO authors VALUES (2, 'Alan', 'Turing')`,
		`INSERT INTO authors VALUES (1, 'Ada', NULL)`,
		`CREATE TABLE flags (name TEXT, enabled BOOLEAN)`,
		`INSERT INTO flags VALUES ('x', 1)`,
	)

	s, err := LoadSQLite(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []string{"authors", "flags"}, s.Names())

	authors, ok := s.Lookup("authors")
	require.True(t, ok)
	assert.Equal(t, []ir.Row{
		{"id": ir.IRInt(2), "first_name": ir.IRString("Alan"), "last_name": ir.IRString("Turing")},
		{"id": ir.IRInt(1), "first_name": ir.IRString("Ada"), "last_name": ir.IRNull{}},
	}, authors.Rows, "rows keep rowid order")

	flags, _ := s.Lookup("flags")
	assert.Equal(t, ir.IRBool(true), flags.Rows[0]["enabled"])
}

func TestLoadSQLite_RejectsReal(t *testing.T) {
	path := createTestDB(t,
		`CREATE TABLE prices (amount REAL)`,
		`INSERT INTO prices VALUES (1.5)`,
	)

	_, err := LoadSQLite(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REAL values are not supported")
	assert.Contains(t, err.Error(), `table "prices"`)
}

func TestLoadSQLite_MissingFile(t *testing.T) {
	_, err := LoadSQLite(context.Background(), filepath.Join(t.TempDir(), "missing.db"))
	assert.Error(t, err)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"plain"`, quoteIdent("plain"))
	assert.Equal(t, `"we""ird"`, quoteIdent(`we"ird`))
}

func TestSQLToIRValue(t *testing.T) {
	tests := []struct {
		in      any
		want    ir.IRValue
		wantErr bool
	}{
		{nil, ir.IRNull{}, false},
		{int64(7), ir.IRInt(7), false},
		{"s", ir.IRString("s"), false},
		{[]byte("b"), ir.IRString("b"), false},
		{true, ir.IRBool(true), false},
		{1.5, nil, true},
		{struct{}{}, nil, true},
	}
	for _, tt := range tests {
		got, err := sqlToIRValue(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "%#v", tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
