package schema

// Type is a reference to a scalar or object type, optionally nullable.
type Type struct {
	Type           string `json:"type"` // "named" or "nullable"
	Name           string `json:"name,omitempty"`
	UnderlyingType *Type  `json:"underlying_type,omitempty"`
}

// NamedType returns the name at the bottom of a (possibly nullable) type.
func (t Type) NamedType() string {
	if t.UnderlyingType != nil {
		return t.UnderlyingType.NamedType()
	}
	return t.Name
}

// Argument is an argument of a collection, function, procedure or field.
type Argument struct {
	Description string `json:"description,omitempty"`
	Type        Type   `json:"type"`
}

// AggregateFunction is advertised on a scalar type. None are evaluated.
type AggregateFunction struct {
	ResultType Type `json:"result_type"`
}

// ComparisonOperator is a named operator usable in an "other" comparison.
type ComparisonOperator struct {
	ArgumentType Type `json:"argument_type"`
}

// ScalarType declares the operators available on a scalar.
type ScalarType struct {
	AggregateFunctions  map[string]AggregateFunction  `json:"aggregate_functions"`
	ComparisonOperators map[string]ComparisonOperator `json:"comparison_operators"`
	UpdateOperators     map[string]map[string]any     `json:"update_operators"`
}

// ObjectField is one field of an object type.
type ObjectField struct {
	Description string              `json:"description,omitempty"`
	Arguments   map[string]Argument `json:"arguments"`
	Type        Type                `json:"type"`
}

// ObjectType is the row type of a collection.
type ObjectType struct {
	Description string                 `json:"description,omitempty"`
	Fields      map[string]ObjectField `json:"fields"`
}

// UniquenessConstraint lists columns that identify a row.
type UniquenessConstraint struct {
	UniqueColumns []string `json:"unique_columns"`
}

// ForeignKey declares a reference to another collection.
type ForeignKey struct {
	ColumnMapping     map[string]string `json:"column_mapping"`
	ForeignCollection string            `json:"foreign_collection"`
}

// Collection is a queryable collection.
type Collection struct {
	Name                  string                          `json:"name"`
	Description           string                          `json:"description,omitempty"`
	Arguments             map[string]Argument             `json:"arguments"`
	Type                  string                          `json:"type"`
	Deletable             bool                            `json:"deletable"`
	UniquenessConstraints map[string]UniquenessConstraint `json:"uniqueness_constraints"`
	ForeignKeys           map[string]ForeignKey           `json:"foreign_keys"`
}

// Function is a read-only operation. Functions and procedures are declared
// only; neither is executed.
type Function struct {
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Arguments   map[string]Argument `json:"arguments"`
	ResultType  Type                `json:"result_type"`
}

// Schema is the /schema document.
type Schema struct {
	ScalarTypes map[string]ScalarType `json:"scalar_types"`
	ObjectTypes map[string]ObjectType `json:"object_types"`
	Collections []Collection          `json:"collections"`
	Functions   []Function            `json:"functions"`
	Procedures  []Function            `json:"procedures"`
}

// Capabilities is the /capabilities document.
type Capabilities struct {
	Versions     string       `json:"versions"`
	Capabilities CapabilitySet `json:"capabilities"`
}

// Empty marks a capability as present. It serializes as {}.
type Empty struct{}

// CapabilitySet lists supported features. A nil entry is not advertised.
type CapabilitySet struct {
	Query struct {
		RelationComparisons *Empty `json:"relation_comparisons,omitempty"`
		OrderByAggregate    *Empty `json:"order_by_aggregate,omitempty"`
		Foreach             *Empty `json:"foreach,omitempty"`
	} `json:"query"`
	Mutations struct {
		NestedInserts *Empty `json:"nested_inserts,omitempty"`
		Returning     *Empty `json:"returning,omitempty"`
	} `json:"mutations"`
	Relationships *Empty `json:"relationships,omitempty"`
}
