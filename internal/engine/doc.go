// Package engine implements the in-memory query executor.
//
// A request is compiled, then run as a strict linear pipeline over one
// collection:
//
//	lookup → sort → filter → project → [{rows: ...}]
//
// Compilation checks every node of the request (fields, predicates, order
// keys, relationships) and compiles like patterns once, so a request with an
// unsupported kind fails the same way on an empty table as on a full one.
// Only TYPE_MISMATCH depends on row data.
//
// CRITICAL PATTERNS:
//
// Immutable collections:
// Tables are shared read-only between concurrent executions. The sorter
// sorts a copy; the resolver and projector only read rows.
//
// Stable ordering:
// Sorting uses slices.SortStableFunc, so rows equal on every key keep their
// stored order. Relationship matches are returned in target table order.
//
// Strict equality:
// Equality and relationship joins never coerce. The string "1" does not
// equal the integer 1.
//
// Errors are *QueryError values with an ErrorCode. Every error aborts the
// request; there are no partial results.
package engine
