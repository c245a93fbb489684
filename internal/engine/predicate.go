package engine

import (
	"fmt"
	"regexp"

	"github.com/roach88/ndcstatic/internal/ir"
	"github.com/roach88/ndcstatic/internal/queryir"
)

// predicate evaluates a compiled where clause against one row.
type predicate func(row ir.Row) (bool, error)

// patternCache holds compiled like patterns for one execution.
type patternCache map[string]*regexp.Regexp

func (c patternCache) compile(path, pattern string) (*regexp.Regexp, error) {
	if re, ok := c[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, invalidPatternError(path, pattern, err)
	}
	c[pattern] = re
	return re, nil
}

// compilePredicate checks the shape of a predicate tree and returns its
// evaluator. Unsupported kinds fail here, before any row is read.
// TYPE_MISMATCH depends on row data and is reported during evaluation.
func compilePredicate(path string, expr queryir.Expression, patterns patternCache) (predicate, error) {
	switch e := expr.(type) {
	case queryir.And:
		children := make([]predicate, 0, len(e.Expressions))
		for i, child := range e.Expressions {
			p, err := compilePredicate(fmt.Sprintf("%s.expressions[%d]", path, i), child, patterns)
			if err != nil {
				return nil, err
			}
			children = append(children, p)
		}
		return func(row ir.Row) (bool, error) {
			for _, p := range children {
				ok, err := p(row)
				if err != nil || !ok {
					return false, err
				}
			}
			return true, nil // Empty conjunction is true
		}, nil

	case queryir.BinaryComparison:
		return compileComparison(path, e, patterns)

	case queryir.UnsupportedExpression:
		return nil, unsupportedError(ErrCodeUnsupportedExpression, "expression type", e.Type, path)

	default:
		return nil, unsupportedError(ErrCodeUnsupportedExpression, "expression type", fmt.Sprintf("%T", expr), path)
	}
}

func compileComparison(path string, cmp queryir.BinaryComparison, patterns patternCache) (predicate, error) {
	column, err := columnOf(path+".column", cmp.Column)
	if err != nil {
		return nil, err
	}

	var value ir.IRValue
	switch v := cmp.Value.(type) {
	case queryir.ScalarValue:
		value = v.Value
		if value == nil {
			value = ir.IRNull{}
		}
	case queryir.UnsupportedValue:
		return nil, unsupportedError(ErrCodeUnsupportedValueKind, "value type", v.Type, path+".value")
	default:
		return nil, unsupportedError(ErrCodeUnsupportedValueKind, "value type", fmt.Sprintf("%T", cmp.Value), path+".value")
	}

	switch op := cmp.Operator.(type) {
	case queryir.EqualOperator:
		return func(row ir.Row) (bool, error) {
			return ir.Equal(row.Get(column), value), nil
		}, nil

	case queryir.OtherOperator:
		if op.Name != queryir.LikeOperator {
			return nil, unsupportedError(ErrCodeUnsupportedOperator, "operator", op.Name, path+".operator")
		}
		pattern, ok := value.(ir.IRString)
		if !ok {
			return nil, &QueryError{
				Code:    ErrCodeTypeMismatch,
				Message: fmt.Sprintf("like pattern must be a string, got %s", ir.Kind(value)),
				Details: map[string]string{"kind": ir.Kind(value), "path": path + ".value"},
			}
		}
		re, err := patterns.compile(path+".value", string(pattern))
		if err != nil {
			return nil, err
		}
		return func(row ir.Row) (bool, error) {
			s, ok := row.Get(column).(ir.IRString)
			if !ok {
				return false, typeMismatchError(path, column, ir.Kind(row.Get(column)))
			}
			return re.MatchString(string(s)), nil
		}, nil

	case queryir.UnsupportedOperator:
		return nil, unsupportedError(ErrCodeUnsupportedOperator, "operator type", op.Type, path+".operator")

	default:
		return nil, unsupportedError(ErrCodeUnsupportedOperator, "operator type", fmt.Sprintf("%T", cmp.Operator), path+".operator")
	}
}

// filterRows returns the rows for which p is true, in input order.
// A nil predicate keeps every row.
func filterRows(rows []ir.Row, p predicate) ([]ir.Row, error) {
	if p == nil {
		return rows, nil
	}
	kept := make([]ir.Row, 0, len(rows))
	for _, row := range rows {
		ok, err := p(row)
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, row)
		}
	}
	return kept, nil
}
