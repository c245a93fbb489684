package schema

import (
	"fmt"
	"slices"

	"github.com/roach88/ndcstatic/internal/queryir"
)

// Check error codes (E100-E199)
const (
	ErrUnsupportedOperator  = "E101" // advertised comparison operator not evaluated
	ErrUndeclaredCollection = "E102" // data collection missing from schema
	ErrUnknownObjectType    = "E103" // collection type is not an object type
	ErrUnknownNamedType     = "E104" // type reference to an undeclared type
	ErrDuplicateCollection  = "E105" // collection declared twice
)

// SupportedOperators lists the "other" comparison operators the executor
// evaluates.
var SupportedOperators = []string{queryir.LikeOperator}

// CheckError is a consistency problem between the documents and the
// executor or dataset.
type CheckError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e CheckError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Check verifies the document against what the process can serve.
// Returns all errors found (does not fail-fast).
//
// dataCollections are the collections backed by data; each must be declared.
// Declared collections without data are allowed (articles_by_author is
// advertised only).
func Check(doc *Document, dataCollections []string) []CheckError {
	var errs []CheckError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, CheckError{Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
	}

	for _, scalar := range sortedKeys(doc.Schema.ScalarTypes) {
		st := doc.Schema.ScalarTypes[scalar]
		for _, op := range sortedKeys(st.ComparisonOperators) {
			field := fmt.Sprintf("scalar_types.%s.comparison_operators.%s", scalar, op)
			if !slices.Contains(SupportedOperators, op) {
				add(field, ErrUnsupportedOperator, "operator %q is advertised but not supported", op)
			}
			checkType(doc, field+".argument_type", st.ComparisonOperators[op].ArgumentType, add)
		}
		for _, fn := range sortedKeys(st.AggregateFunctions) {
			checkType(doc, fmt.Sprintf("scalar_types.%s.aggregate_functions.%s.result_type", scalar, fn),
				st.AggregateFunctions[fn].ResultType, add)
		}
	}

	for _, name := range sortedKeys(doc.Schema.ObjectTypes) {
		obj := doc.Schema.ObjectTypes[name]
		for _, f := range sortedKeys(obj.Fields) {
			checkType(doc, fmt.Sprintf("object_types.%s.fields.%s.type", name, f), obj.Fields[f].Type, add)
		}
	}

	seen := make(map[string]bool)
	for i, c := range doc.Schema.Collections {
		field := fmt.Sprintf("collections[%d]", i)
		if seen[c.Name] {
			add(field, ErrDuplicateCollection, "collection %q is declared more than once", c.Name)
		}
		seen[c.Name] = true
		if _, ok := doc.Schema.ObjectTypes[c.Type]; !ok {
			add(field+".type", ErrUnknownObjectType, "collection %q has unknown object type %q", c.Name, c.Type)
		}
	}

	for _, fn := range doc.Schema.Functions {
		checkType(doc, "functions."+fn.Name+".result_type", fn.ResultType, add)
	}
	for _, proc := range doc.Schema.Procedures {
		checkType(doc, "procedures."+proc.Name+".result_type", proc.ResultType, add)
	}

	for _, name := range dataCollections {
		if !seen[name] {
			add("collections", ErrUndeclaredCollection, "data collection %q is not declared in the schema", name)
		}
	}

	return errs
}

func checkType(doc *Document, field string, t Type, add func(field, code, format string, args ...any)) {
	name := t.NamedType()
	if _, ok := doc.Schema.ScalarTypes[name]; ok {
		return
	}
	if _, ok := doc.Schema.ObjectTypes[name]; ok {
		return
	}
	add(field, ErrUnknownNamedType, "type %q is not declared", name)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
