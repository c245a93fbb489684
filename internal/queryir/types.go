package queryir

import "github.com/roach88/ndcstatic/internal/ir"

// QueryRequest is a decoded /query request body.
//
// Example (JSON):
//
//	{
//	  "collection": "articles",
//	  "collection_relationships": {},
//	  "query": {
//	    "fields": {"id": {"type": "column", "column": "id"}},
//	    "where": {"type": "binary_comparison_operator", ...},
//	    "order_by": {"elements": [...]}
//	  }
//	}
type QueryRequest struct {
	Collection              string                  // Collection name (e.g., "articles")
	CollectionRelationships map[string]Relationship // name → relationship
	Query                   Query
}

// QueryResponse is the row-set envelope returned for a request.
// It always holds exactly one RowSet.
type QueryResponse []ir.RowSet

// Query is the projection, filter and ordering applied to one collection.
// Nil members are absent.
type Query struct {
	Fields  Fields     // Output fields in request order (nil = absent)
	Where   Expression // Filter (nil = no filter)
	OrderBy *OrderBy   // Ordering (nil = stored order)
}

// Fields is the projection list. Order follows the request so output keys
// come out in the order they were asked for.
type Fields []NamedField

// NamedField binds an output key to a Field.
type NamedField struct {
	Key   string
	Field Field
}

// Field is a projection entry.
//
// This is a sealed interface - only types in this package implement it.
//
// Field types:
//   - ColumnField: copy a column value
//   - RelationshipField: resolve a relationship and project the matches
//   - UnsupportedField: any other "type", rejected at evaluation
type Field interface {
	fieldNode() // Marker method - seals interface to this package
}

// ColumnField copies Column from the source row.
type ColumnField struct {
	Column string
}

func (ColumnField) fieldNode() {}

// RelationshipField resolves Relationship for each row and projects the
// matched rows with Query.Fields.
type RelationshipField struct {
	Relationship string
	Query        Query
}

func (RelationshipField) fieldNode() {}

// UnsupportedField keeps the raw type of a field kind the executor does not
// handle.
type UnsupportedField struct {
	Type string
}

func (UnsupportedField) fieldNode() {}

// Expression is a node of the predicate tree.
//
// This is a sealed interface - only types in this package implement it.
//
// Expression types:
//   - BinaryComparison: column <operator> literal
//   - And: all children must be true (empty = always true)
//   - UnsupportedExpression: any other "type" (e.g. "or", "not")
type Expression interface {
	expressionNode() // Marker method - seals interface to this package
}

// BinaryComparison compares a column against a value.
//
// Semantics:
//
//	<column> = <value>        (EqualOperator)
//	<column> ~ <value>        (OtherOperator{Name: "like"}, regex search)
type BinaryComparison struct {
	Column   ComparisonTarget
	Operator Operator
	Value    ComparisonValue
}

func (BinaryComparison) expressionNode() {}

// And represents a conjunction of expressions (all must be true).
// An empty Expressions slice means "always true" (vacuous truth).
type And struct {
	Expressions []Expression
}

func (And) expressionNode() {}

// UnsupportedExpression keeps the raw type of an expression kind the
// executor does not evaluate.
type UnsupportedExpression struct {
	Type string
}

func (UnsupportedExpression) expressionNode() {}

// ComparisonTarget is a column reference in a comparison or an order-by key.
//
// This is a sealed interface - only types in this package implement it.
type ComparisonTarget interface {
	targetNode() // Marker method - seals interface to this package
}

// ColumnTarget references a column of the row being evaluated.
type ColumnTarget struct {
	Name string
}

func (ColumnTarget) targetNode() {}

// UnsupportedTarget keeps the raw type of any other column reference kind.
type UnsupportedTarget struct {
	Type string
}

func (UnsupportedTarget) targetNode() {}

// Operator is a binary comparison operator.
//
// This is a sealed interface - only types in this package implement it.
type Operator interface {
	operatorNode() // Marker method - seals interface to this package
}

// EqualOperator is strict equality.
type EqualOperator struct{}

func (EqualOperator) operatorNode() {}

// OtherOperator is a named, scalar-type specific operator (e.g. "like").
type OtherOperator struct {
	Name string
}

func (OtherOperator) operatorNode() {}

// UnsupportedOperator keeps the raw type of any other operator kind.
type UnsupportedOperator struct {
	Type string
}

func (UnsupportedOperator) operatorNode() {}

// LikeOperator is the name of the pattern-match operator.
const LikeOperator = "like"

// ComparisonValue is the right-hand side of a comparison.
//
// This is a sealed interface - only types in this package implement it.
type ComparisonValue interface {
	valueNode() // Marker method - seals interface to this package
}

// ScalarValue is a literal scalar.
type ScalarValue struct {
	Value ir.IRValue
}

func (ScalarValue) valueNode() {}

// UnsupportedValue keeps the raw type of any other value kind (e.g.
// "column", "variable").
type UnsupportedValue struct {
	Type string
}

func (UnsupportedValue) valueNode() {}

// OrderBy is an ordered list of sort keys; the first differing key decides.
type OrderBy struct {
	Elements []OrderByElement
}

// OrderByElement is one sort key.
type OrderByElement struct {
	Target    ComparisonTarget
	Direction OrderDirection
}

// OrderDirection is "asc" or "desc".
type OrderDirection string

// Order directions.
const (
	Asc  OrderDirection = "asc"
	Desc OrderDirection = "desc"
)

// RelationshipType is the cardinality of a relationship.
type RelationshipType string

// Relationship types.
const (
	ArrayRelationship  RelationshipType = "array"  // zero or more matches
	ObjectRelationship RelationshipType = "object" // at most one match
)

// Relationship is an equality join from the current collection to
// TargetCollection.
type Relationship struct {
	Type             RelationshipType
	TargetCollection string
	ColumnMapping    []ColumnPair // Request order; every pair must match
}

// ColumnPair maps a source column to a target column.
type ColumnPair struct {
	Source string
	Target string
}
