package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/ndcstatic/internal/ir"
	"github.com/roach88/ndcstatic/internal/queryir"
	"github.com/roach88/ndcstatic/internal/store"
)

// Authors returns the authors fixture table.
//
//	id | first_name | last_name
//	 1 | Ada        | Lovelace
//	 2 | Alan       | Turing
func Authors() ir.Table {
	return ir.Table{Name: "authors", Rows: []ir.Row{
		{"id": ir.IRInt(1), "first_name": ir.IRString("Ada"), "last_name": ir.IRString("Lovelace")},
		{"id": ir.IRInt(2), "first_name": ir.IRString("Alan"), "last_name": ir.IRString("Turing")},
	}}
}

// Articles returns the articles fixture table.
//
//	id | author_id | title
//	10 | 1         | A
//	11 | 1         | B
//	12 | 2         | C
func Articles() ir.Table {
	return ir.Table{Name: "articles", Rows: []ir.Row{
		{"id": ir.IRInt(10), "author_id": ir.IRInt(1), "title": ir.IRString("A")},
		{"id": ir.IRInt(11), "author_id": ir.IRInt(1), "title": ir.IRString("B")},
		{"id": ir.IRInt(12), "author_id": ir.IRInt(2), "title": ir.IRString("C")},
	}}
}

// Store returns a store holding Authors and Articles.
func Store(t testing.TB) *store.Store {
	t.Helper()
	s, err := store.New(Authors(), Articles())
	require.NoError(t, err)
	return s
}

// AuthorArticles is the array relationship authors.id → articles.author_id.
func AuthorArticles() queryir.Relationship {
	return queryir.Relationship{
		Type:             queryir.ArrayRelationship,
		TargetCollection: "articles",
		ColumnMapping:    []queryir.ColumnPair{{Source: "id", Target: "author_id"}},
	}
}

// ArticleAuthor is the object relationship articles.author_id → authors.id.
func ArticleAuthor() queryir.Relationship {
	return queryir.Relationship{
		Type:             queryir.ObjectRelationship,
		TargetCollection: "authors",
		ColumnMapping:    []queryir.ColumnPair{{Source: "author_id", Target: "id"}},
	}
}

// Columns builds a field list projecting each column under its own name.
func Columns(names ...string) queryir.Fields {
	fields := make(queryir.Fields, 0, len(names))
	for _, n := range names {
		fields = append(fields, queryir.NamedField{Key: n, Field: queryir.ColumnField{Column: n}})
	}
	return fields
}
