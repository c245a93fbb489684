package store

import (
	"fmt"
	"slices"

	"github.com/roach88/ndcstatic/internal/ir"
)

// Store holds the named tables a query can select from.
//
// A Store is immutable once built: there is no method that adds, removes or
// changes a table or row. It is safe for concurrent use without locking.
type Store struct {
	tables map[string]ir.Table
}

// New builds a Store from tables. Table names must be unique and non-empty.
// The row slices are copied; the rows themselves are shared.
func New(tables ...ir.Table) (*Store, error) {
	s := &Store{tables: make(map[string]ir.Table, len(tables))}
	for _, t := range tables {
		if t.Name == "" {
			return nil, fmt.Errorf("table name is required")
		}
		if _, exists := s.tables[t.Name]; exists {
			return nil, fmt.Errorf("duplicate table %q", t.Name)
		}
		rows := slices.Clone(t.Rows)
		if rows == nil {
			rows = []ir.Row{}
		}
		s.tables[t.Name] = ir.Table{Name: t.Name, Rows: rows}
	}
	return s, nil
}

// Lookup returns the named table. The second result is false when no such
// collection is registered.
//
// Callers must not modify the returned rows.
func (s *Store) Lookup(name string) (ir.Table, bool) {
	t, ok := s.tables[name]
	return t, ok
}

// Names returns the collection names sorted.
func (s *Store) Names() []string {
	return sortedKeys(s.tables)
}

// Len returns the number of collections.
func (s *Store) Len() int {
	return len(s.tables)
}

// Columns returns the sorted union of column names present in a
// collection's rows.
func (s *Store) Columns(name string) ([]string, bool) {
	t, ok := s.tables[name]
	if !ok {
		return nil, false
	}
	seen := make(map[string]struct{})
	for _, row := range t.Rows {
		for col := range row {
			seen[col] = struct{}{}
		}
	}
	return sortedKeys(seen), true
}

// sortedKeys returns m's keys in ascending order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
