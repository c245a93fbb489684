package engine

import (
	"errors"
	"fmt"
)

// QueryError represents an error detected while executing a query request.
//
// Query errors include:
//   - Unknown names: collection or relationship not found
//   - Unsupported kinds: expression, column reference, value or operator
//   - Type mismatch: like applied to a non-string
//   - Invalid pattern: like pattern that does not compile
//   - Invalid request: malformed relationship type or order direction
//
// Every QueryError aborts the whole request. No partial result accompanies it.
type QueryError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context (names, kinds, paths).
	Details map[string]string
}

// ErrorCode categorizes query errors.
type ErrorCode string

const (
	// ErrCodeUnknownCollection indicates the collection is not in the store.
	ErrCodeUnknownCollection ErrorCode = "UNKNOWN_COLLECTION"

	// ErrCodeUnknownRelationship indicates the relationship name is not in
	// collection_relationships.
	ErrCodeUnknownRelationship ErrorCode = "UNKNOWN_RELATIONSHIP"

	// ErrCodeUnsupportedExpression indicates a predicate kind other than
	// binary_comparison_operator or and.
	ErrCodeUnsupportedExpression ErrorCode = "UNSUPPORTED_EXPRESSION"

	// ErrCodeUnsupportedColumnReference indicates a column reference that is
	// not a direct column.
	ErrCodeUnsupportedColumnReference ErrorCode = "UNSUPPORTED_COLUMN_REFERENCE"

	// ErrCodeUnsupportedValueKind indicates a comparison value that is not a
	// scalar literal.
	ErrCodeUnsupportedValueKind ErrorCode = "UNSUPPORTED_VALUE_KIND"

	// ErrCodeUnsupportedOperator indicates an operator other than equal or like.
	ErrCodeUnsupportedOperator ErrorCode = "UNSUPPORTED_OPERATOR"

	// ErrCodeTypeMismatch indicates like applied to a non-string.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// ErrCodeInvalidPattern indicates a like pattern that does not compile.
	ErrCodeInvalidPattern ErrorCode = "INVALID_PATTERN"

	// ErrCodeInvalidRequest indicates a structurally invalid request.
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
)

// Error implements the error interface.
func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf returns the code of the first QueryError in err's chain.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) (ErrorCode, bool) {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Code, true
	}
	return "", false
}

// HasCode returns true if err is a QueryError with the given code.
func HasCode(err error, code ErrorCode) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

// IsUnknownCollection returns true if the error is an unknown collection error.
func IsUnknownCollection(err error) bool {
	return HasCode(err, ErrCodeUnknownCollection)
}

// IsUnknownRelationship returns true if the error is an unknown relationship error.
func IsUnknownRelationship(err error) bool {
	return HasCode(err, ErrCodeUnknownRelationship)
}

// IsUnsupported returns true for any of the UNSUPPORTED_* codes.
func IsUnsupported(err error) bool {
	code, ok := CodeOf(err)
	if !ok {
		return false
	}
	switch code {
	case ErrCodeUnsupportedExpression,
		ErrCodeUnsupportedColumnReference,
		ErrCodeUnsupportedValueKind,
		ErrCodeUnsupportedOperator:
		return true
	}
	return false
}

// NewUnknownCollectionError creates a QueryError for a missing collection.
func NewUnknownCollectionError(name string) *QueryError {
	return &QueryError{
		Code:    ErrCodeUnknownCollection,
		Message: fmt.Sprintf("collection %q not found", name),
		Details: map[string]string{"collection": name},
	}
}

// NewInvalidRequestError creates a QueryError for a malformed request.
func NewInvalidRequestError(format string, args ...any) *QueryError {
	return &QueryError{
		Code:    ErrCodeInvalidRequest,
		Message: fmt.Sprintf(format, args...),
	}
}

func unknownRelationshipError(path, name string) *QueryError {
	return &QueryError{
		Code:    ErrCodeUnknownRelationship,
		Message: fmt.Sprintf("relationship %q not found in collection_relationships", name),
		Details: map[string]string{"relationship": name, "path": path},
	}
}

func unsupportedError(code ErrorCode, what, kind, path string) *QueryError {
	return &QueryError{
		Code:    code,
		Message: fmt.Sprintf("unsupported %s %q", what, kind),
		Details: map[string]string{"type": kind, "path": path},
	}
}

func typeMismatchError(path, column, got string) *QueryError {
	return &QueryError{
		Code:    ErrCodeTypeMismatch,
		Message: fmt.Sprintf("like requires a string, column %q is %s", column, got),
		Details: map[string]string{"column": column, "kind": got, "path": path},
	}
}

func invalidPatternError(path, pattern string, err error) *QueryError {
	return &QueryError{
		Code:    ErrCodeInvalidPattern,
		Message: fmt.Sprintf("like pattern %q does not compile: %v", pattern, err),
		Details: map[string]string{"pattern": pattern, "path": path},
	}
}
