package engine

import (
	"fmt"
	"slices"

	"github.com/roach88/ndcstatic/internal/ir"
	"github.com/roach88/ndcstatic/internal/queryir"
)

// sortKey is one compiled order_by element.
type sortKey struct {
	column string
	desc   bool
}

// sorter orders row sequences by a list of keys. The first differing key
// decides; rows equal on every key keep their input order.
// A nil sorter is the identity.
type sorter struct {
	keys []sortKey
}

// compileOrderBy checks an order_by clause and returns its sorter.
// Absent or empty order_by yields nil.
func compileOrderBy(path string, orderBy *queryir.OrderBy) (*sorter, error) {
	if orderBy == nil || len(orderBy.Elements) == 0 {
		return nil, nil
	}

	s := &sorter{keys: make([]sortKey, 0, len(orderBy.Elements))}
	for i, elem := range orderBy.Elements {
		elemPath := fmt.Sprintf("%s.order_by.elements[%d]", path, i)

		col, err := columnOf(elemPath+".target", elem.Target)
		if err != nil {
			return nil, err
		}

		var desc bool
		switch elem.Direction {
		case queryir.Asc:
		case queryir.Desc:
			desc = true
		default:
			err := NewInvalidRequestError("unknown order direction %q", elem.Direction)
			err.Details = map[string]string{"path": elemPath}
			return nil, err
		}
		s.keys = append(s.keys, sortKey{column: col, desc: desc})
	}
	return s, nil
}

// sort returns rows in key order. The input slice is never reordered, so
// a table's stored rows can be passed directly.
func (s *sorter) sort(rows []ir.Row) []ir.Row {
	if s == nil {
		return rows
	}
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, s.compare)
	return sorted
}

func (s *sorter) compare(a, b ir.Row) int {
	for _, k := range s.keys {
		c := ir.Compare(a.Get(k.column), b.Get(k.column))
		if c == 0 {
			continue
		}
		if k.desc {
			return -c
		}
		return c
	}
	return 0
}

// columnOf resolves a comparison target to a direct column name.
func columnOf(path string, target queryir.ComparisonTarget) (string, error) {
	switch t := target.(type) {
	case queryir.ColumnTarget:
		return t.Name, nil
	case queryir.UnsupportedTarget:
		return "", unsupportedError(ErrCodeUnsupportedColumnReference, "column reference type", t.Type, path)
	case nil:
		return "", NewInvalidRequestError("%s: column reference is required", path)
	default:
		return "", unsupportedError(ErrCodeUnsupportedColumnReference, "column reference type", fmt.Sprintf("%T", target), path)
	}
}
