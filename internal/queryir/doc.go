// Package queryir provides the request model for the static-data connector.
//
// A /query request is decoded into QueryRequest: the target collection, the
// relationships the request may traverse, and a Query made of a projection
// (Fields), a predicate tree (Where) and an ordering (OrderBy).
//
// SEALED INTERFACES:
//
// Field, Expression, ComparisonTarget, Operator and ComparisonValue are
// sealed interfaces using the marker method pattern. Only types in this
// package implement them, which enables exhaustive type switches in the
// executor:
//
//	switch e := expr.(type) {
//	case queryir.BinaryComparison:
//	    // column <op> literal
//	case queryir.And:
//	    // conjunction
//	case queryir.UnsupportedExpression:
//	    // rejected with UNSUPPORTED_EXPRESSION
//	}
//
// UNSUPPORTED KINDS:
//
// The decoder never fails on an unknown "type" discriminator. It keeps the
// raw kind in an Unsupported* node so the executor reports the precise error
// code (UNSUPPORTED_EXPRESSION, UNSUPPORTED_OPERATOR, ...) instead of a
// generic decode failure. Structural problems (malformed JSON, a missing
// discriminator, a float literal) are decode errors.
//
// FIELD ORDER:
//
// Fields and column mappings are decoded with a streaming json.Decoder so
// that request order survives; output rows list their keys in that order.
//
// VALIDATION:
//
// Validate performs a static pass against a Catalog (the schema document)
// and returns warnings. It never blocks execution.
package queryir
