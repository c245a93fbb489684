package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ndcstatic/internal/ir"
)

// stubCatalog declares collections by column list.
type stubCatalog map[string][]string

func (c stubCatalog) Columns(collection string) ([]string, bool) {
	cols, ok := c[collection]
	return cols, ok
}

var testCatalog = stubCatalog{
	"authors":  {"id", "first_name", "last_name"},
	"articles": {"id", "author_id", "title"},
}

var authorArticles = Relationship{
	Type:             ArrayRelationship,
	TargetCollection: "articles",
	ColumnMapping:    []ColumnPair{{Source: "id", Target: "author_id"}},
}

func TestValidate_CleanRequest(t *testing.T) {
	req := &QueryRequest{
		Collection:              "authors",
		CollectionRelationships: map[string]Relationship{"author_articles": authorArticles},
		Query: Query{
			Fields: Fields{
				{Key: "id", Field: ColumnField{Column: "id"}},
				{Key: "articles", Field: RelationshipField{
					Relationship: "author_articles",
					Query:        Query{Fields: Fields{{Key: "title", Field: ColumnField{Column: "title"}}}},
				}},
			},
			Where: And{Expressions: []Expression{
				BinaryComparison{
					Column:   ColumnTarget{Name: "first_name"},
					Operator: OtherOperator{Name: LikeOperator},
					Value:    ScalarValue{Value: ir.IRString("^A")},
				},
			}},
			OrderBy: &OrderBy{Elements: []OrderByElement{{Target: ColumnTarget{Name: "id"}, Direction: Asc}}},
		},
	}

	result := Validate(req, testCatalog)

	assert.True(t, result.Clean)
	assert.Empty(t, result.Warnings)
}

func TestValidate_UndeclaredNames(t *testing.T) {
	req := &QueryRequest{
		Collection: "authors",
		CollectionRelationships: map[string]Relationship{
			"to_nowhere": {Type: ObjectRelationship, TargetCollection: "editors"},
		},
		Query: Query{
			Fields: Fields{
				{Key: "nick", Field: ColumnField{Column: "nickname"}},
				{Key: "editor", Field: RelationshipField{Relationship: "to_nowhere"}},
				{Key: "missing", Field: RelationshipField{Relationship: "undefined"}},
			},
		},
	}

	result := Validate(req, testCatalog)

	require.False(t, result.Clean)
	assert.Equal(t, []string{
		`query.fields.nick: column "nickname" is not declared on collection "authors"`,
		`query.fields.editor: relationship "to_nowhere" targets undeclared collection "editors"`,
		`query.fields.missing: relationship "undefined" is not defined in collection_relationships`,
	}, result.Warnings)
}

func TestValidate_UnknownCollection(t *testing.T) {
	result := Validate(&QueryRequest{Collection: "editors"}, testCatalog)

	assert.False(t, result.Clean)
	assert.Equal(t, []string{`collection "editors" is not declared in the schema`}, result.Warnings)
}

func TestValidate_NilCatalogSkipsNameChecks(t *testing.T) {
	req := &QueryRequest{
		Collection: "editors",
		Query:      Query{Fields: Fields{{Key: "x", Field: ColumnField{Column: "x"}}}},
	}

	result := Validate(req, nil)

	assert.True(t, result.Clean)
}

func TestValidate_UnsupportedKinds(t *testing.T) {
	req := &QueryRequest{
		Collection: "articles",
		Query: Query{
			Fields: Fields{{Key: "n", Field: UnsupportedField{Type: "aggregate"}}},
			Where: And{Expressions: []Expression{
				UnsupportedExpression{Type: "or"},
				BinaryComparison{
					Column:   UnsupportedTarget{Type: "root_collection_column"},
					Operator: UnsupportedOperator{Type: "greater_than"},
					Value:    UnsupportedValue{Type: "variable"},
				},
				BinaryComparison{
					Column:   ColumnTarget{Name: "title"},
					Operator: OtherOperator{Name: "ilike"},
					Value:    ScalarValue{Value: ir.IRString("a")},
				},
			}},
			OrderBy: &OrderBy{Elements: []OrderByElement{{Target: ColumnTarget{Name: "id"}, Direction: "sideways"}}},
		},
	}

	result := Validate(req, testCatalog)

	assert.Equal(t, []string{
		`query.fields.n: unsupported field type "aggregate"`,
		`query.where.expressions[0]: unsupported expression type "or"`,
		`query.where.expressions[1].column: unsupported column reference type "root_collection_column"`,
		`query.where.expressions[1].value: unsupported value type "variable"`,
		`query.where.expressions[1].operator: unsupported operator type "greater_than"`,
		`query.where.expressions[2].operator: unsupported operator "ilike"`,
		`query.order_by.elements[0]: unknown order direction "sideways"`,
	}, result.Warnings)
}

func TestValidate_LikePatterns(t *testing.T) {
	like := func(v ir.IRValue) Expression {
		return BinaryComparison{
			Column:   ColumnTarget{Name: "title"},
			Operator: OtherOperator{Name: LikeOperator},
			Value:    ScalarValue{Value: v},
		}
	}

	result := Validate(&QueryRequest{Collection: "articles", Query: Query{Where: like(ir.IRString("(unclosed"))}}, testCatalog)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "like pattern does not compile")

	result = Validate(&QueryRequest{Collection: "articles", Query: Query{Where: like(ir.IRInt(1))}}, testCatalog)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "like pattern must be a string, got int")
}

func TestValidate_FlagsIgnoredNestedClauses(t *testing.T) {
	req := &QueryRequest{
		Collection:              "authors",
		CollectionRelationships: map[string]Relationship{"author_articles": authorArticles},
		Query: Query{Fields: Fields{
			{Key: "articles", Field: RelationshipField{
				Relationship: "author_articles",
				Query: Query{
					Fields:  Fields{{Key: "title", Field: ColumnField{Column: "title"}}},
					OrderBy: &OrderBy{Elements: []OrderByElement{{Target: ColumnTarget{Name: "id"}, Direction: Desc}}},
				},
			}},
		}},
	}

	result := Validate(req, testCatalog)

	assert.Equal(t, []string{
		"query.fields.articles.query: nested where/order_by is ignored unless nested queries are enabled",
	}, result.Warnings)
}

func TestValidate_RelationshipMappingColumns(t *testing.T) {
	req := &QueryRequest{
		Collection: "authors",
		CollectionRelationships: map[string]Relationship{
			"bad": {
				Type:             "many",
				TargetCollection: "articles",
				ColumnMapping:    []ColumnPair{{Source: "uuid", Target: "writer"}},
			},
		},
		Query: Query{Fields: Fields{{Key: "a", Field: RelationshipField{Relationship: "bad"}}}},
	}

	result := Validate(req, testCatalog)

	assert.Equal(t, []string{
		`query.fields.a: relationship "bad" has unknown type "many"`,
		`query.fields.a: column "uuid" is not declared on collection "authors"`,
		`query.fields.a: column "writer" is not declared on collection "articles"`,
	}, result.Warnings)
}
