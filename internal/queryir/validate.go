package queryir

import (
	"fmt"
	"regexp"

	"github.com/roach88/ndcstatic/internal/ir"
)

// Catalog describes declared collections for static validation.
// schema.Document implements it.
type Catalog interface {
	// Columns returns the declared column names of a collection and whether
	// the collection is declared at all.
	Columns(collection string) ([]string, bool)
}

// ValidationResult contains the static analysis of a request.
//
// Warnings do not stop execution. They flag requests that will fail at
// evaluation, reference undeclared names, or carry nested clauses the
// executor ignores by default.
type ValidationResult struct {
	// Clean is true when no warnings were produced.
	Clean bool

	// Warnings lists every finding in traversal order.
	Warnings []string
}

// Validate walks a request and reports problems without evaluating it.
// A nil catalog skips the declared-name checks.
//
// Validate is a pure function with no side effects.
func Validate(req *QueryRequest, catalog Catalog) ValidationResult {
	v := &validator{
		catalog:  catalog,
		rels:     req.CollectionRelationships,
		warnings: []string{},
	}
	v.validateCollection(req.Collection)
	v.validateQuery("query", req.Collection, req.Query, false)

	return ValidationResult{
		Clean:    len(v.warnings) == 0,
		Warnings: v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	catalog  Catalog
	rels     map[string]Relationship
	warnings []string
}

// addWarning appends a warning message.
func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validateCollection(name string) {
	if v.catalog == nil {
		return
	}
	if _, ok := v.catalog.Columns(name); !ok {
		v.addWarning("collection %q is not declared in the schema", name)
	}
}

// validateColumn warns when column is not declared on collection.
func (v *validator) validateColumn(path, collection, column string) {
	if v.catalog == nil {
		return
	}
	columns, ok := v.catalog.Columns(collection)
	if !ok {
		return // Already reported on the collection
	}
	for _, c := range columns {
		if c == column {
			return
		}
	}
	v.addWarning("%s: column %q is not declared on collection %q", path, column, collection)
}

func (v *validator) validateQuery(path, collection string, q Query, nested bool) {
	if nested && (q.Where != nil || q.OrderBy != nil) {
		v.addWarning("%s: nested where/order_by is ignored unless nested queries are enabled", path)
	}

	for _, nf := range q.Fields {
		v.validateField(path+".fields."+nf.Key, collection, nf.Field)
	}
	if q.Where != nil {
		v.validateExpression(path+".where", collection, q.Where)
	}
	if q.OrderBy != nil {
		for i, elem := range q.OrderBy.Elements {
			elemPath := fmt.Sprintf("%s.order_by.elements[%d]", path, i)
			v.validateTarget(elemPath, collection, elem.Target)
			if elem.Direction != Asc && elem.Direction != Desc {
				v.addWarning("%s: unknown order direction %q", elemPath, elem.Direction)
			}
		}
	}
}

func (v *validator) validateField(path, collection string, f Field) {
	switch field := f.(type) {
	case ColumnField:
		v.validateColumn(path, collection, field.Column)
	case RelationshipField:
		rel, ok := v.rels[field.Relationship]
		if !ok {
			v.addWarning("%s: relationship %q is not defined in collection_relationships", path, field.Relationship)
			return
		}
		v.validateRelationship(path, collection, field.Relationship, rel)
		v.validateQuery(path+".query", rel.TargetCollection, field.Query, true)
	case UnsupportedField:
		v.addWarning("%s: unsupported field type %q", path, field.Type)
	default:
		v.addWarning("%s: unknown field type %T", path, f)
	}
}

func (v *validator) validateRelationship(path, collection, name string, rel Relationship) {
	if rel.Type != ArrayRelationship && rel.Type != ObjectRelationship {
		v.addWarning("%s: relationship %q has unknown type %q", path, name, rel.Type)
	}
	if v.catalog != nil {
		if _, ok := v.catalog.Columns(rel.TargetCollection); !ok {
			v.addWarning("%s: relationship %q targets undeclared collection %q", path, name, rel.TargetCollection)
			return
		}
	}
	for _, pair := range rel.ColumnMapping {
		v.validateColumn(path, collection, pair.Source)
		v.validateColumn(path, rel.TargetCollection, pair.Target)
	}
}

func (v *validator) validateExpression(path, collection string, e Expression) {
	switch expr := e.(type) {
	case BinaryComparison:
		v.validateTarget(path+".column", collection, expr.Column)
		v.validateComparison(path, expr)
	case And:
		for i, child := range expr.Expressions {
			v.validateExpression(fmt.Sprintf("%s.expressions[%d]", path, i), collection, child)
		}
	case UnsupportedExpression:
		v.addWarning("%s: unsupported expression type %q", path, expr.Type)
	default:
		v.addWarning("%s: unknown expression type %T", path, e)
	}
}

func (v *validator) validateTarget(path, collection string, t ComparisonTarget) {
	switch target := t.(type) {
	case ColumnTarget:
		v.validateColumn(path, collection, target.Name)
	case UnsupportedTarget:
		v.addWarning("%s: unsupported column reference type %q", path, target.Type)
	default:
		v.addWarning("%s: unknown column reference type %T", path, t)
	}
}

func (v *validator) validateComparison(path string, cmp BinaryComparison) {
	switch val := cmp.Value.(type) {
	case ScalarValue:
		if op, ok := cmp.Operator.(OtherOperator); ok && op.Name == LikeOperator {
			v.validatePattern(path, val)
		}
	case UnsupportedValue:
		v.addWarning("%s.value: unsupported value type %q", path, val.Type)
	}

	switch op := cmp.Operator.(type) {
	case EqualOperator:
	case OtherOperator:
		if op.Name != LikeOperator {
			v.addWarning("%s.operator: unsupported operator %q", path, op.Name)
		}
	case UnsupportedOperator:
		v.addWarning("%s.operator: unsupported operator type %q", path, op.Type)
	}
}

func (v *validator) validatePattern(path string, val ScalarValue) {
	pattern, ok := val.Value.(ir.IRString)
	if !ok {
		v.addWarning("%s.value: like pattern must be a string, got %s", path, ir.Kind(val.Value))
		return
	}
	if _, err := regexp.Compile(string(pattern)); err != nil {
		v.addWarning("%s.value: like pattern does not compile: %v", path, err)
	}
}
