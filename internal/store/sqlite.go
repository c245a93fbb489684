package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/ndcstatic/internal/ir"
)

// LoadSQLite builds a Store from every user table of a SQLite database.
//
// The file is opened read-only and closed before returning; the Store keeps
// no connection. Rows are loaded in rowid order. Column values map as:
//   - INTEGER → ir.IRInt
//   - TEXT, BLOB → ir.IRString
//   - BOOLEAN (declared type) → ir.IRBool
//   - NULL → ir.IRNull
//
// REAL and time values fail the load.
func LoadSQLite(ctx context.Context, path string) (*Store, error) {
	db, err := openReadOnly(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	names, err := listTables(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("load sqlite %s: %w", path, err)
	}

	tables := make([]ir.Table, 0, len(names))
	for _, name := range names {
		rows, err := readTable(ctx, db, name)
		if err != nil {
			return nil, fmt.Errorf("load sqlite %s: table %q: %w", path, name, err)
		}
		tables = append(tables, ir.Table{Name: name, Rows: rows})
	}
	return New(tables...)
}

// openReadOnly opens path without creating it.
//
// The connection is configured with:
//   - mode=ro so a missing file is an error rather than a new database
//   - query_only as a second guard against writes
//   - 5-second busy timeout for files another process is writing
func openReadOnly(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	return db, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA query_only = ON",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

func listTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func readTable(ctx context.Context, db *sql.DB, name string) ([]ir.Row, error) {
	rows, err := db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(name)+" ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []ir.Row
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make(ir.Row, len(columns))
		for i, col := range columns {
			v, err := sqlToIRValue(values[i])
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", len(out)+1, col, err)
			}
			row[col] = v
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// sqlToIRValue converts a value scanned by go-sqlite3 into an IRValue.
func sqlToIRValue(v any) (ir.IRValue, error) {
	switch val := v.(type) {
	case nil:
		return ir.IRNull{}, nil
	case int64:
		return ir.IRInt(val), nil
	case string:
		return ir.IRString(val), nil
	case []byte:
		return ir.IRString(string(val)), nil
	case bool:
		return ir.IRBool(val), nil
	case float64:
		return nil, fmt.Errorf("REAL values are not supported (got %v)", val)
	default:
		return nil, fmt.Errorf("unsupported SQLite value type %T", v)
	}
}

// quoteIdent quotes a SQLite identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
