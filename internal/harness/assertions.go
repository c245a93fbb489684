package harness

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/roach88/ndcstatic/internal/ir"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Rows     string // Canonical response rows for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Rows != "" {
		fmt.Fprintf(&buf, "\nRows:\n  %s\n", e.Rows)
	}
	return buf.String()
}

// checkExpect compares the result against the expect block.
func checkExpect(result *Result, expect *Expect) []string {
	if expect == nil {
		return nil
	}

	if expect.Error != "" {
		if result.ErrorCode != expect.Error {
			return []string{(&AssertionError{
				Type:     "expect.error",
				Expected: expect.Error,
				Actual:   describeOutcome(result),
				Rows:     canonicalRows(result),
			}).Error()}
		}
		return nil
	}

	if result.ErrorCode != "" {
		return []string{(&AssertionError{
			Type:     "expect.rows",
			Expected: "a successful response",
			Actual:   describeOutcome(result),
		}).Error()}
	}

	rows := expect.Rows
	if rows == nil {
		rows = []any{}
	}
	want, err := ir.MarshalCanonical(map[string]any{"rows": rows})
	if err != nil {
		return []string{fmt.Sprintf("expect.rows: %v", err)}
	}
	got, err := ir.MarshalCanonical(result.Response[0])
	if err != nil {
		return []string{fmt.Sprintf("expect.rows: canonicalize response: %v", err)}
	}
	if !bytes.Equal(want, got) {
		return []string{(&AssertionError{
			Type:     "expect.rows",
			Expected: string(want),
			Actual:   string(got),
		}).Error()}
	}
	return nil
}

// assertRowCount checks the number of top-level rows.
func assertRowCount(result *Result, a Assertion) error {
	if result.ErrorCode != "" {
		return &AssertionError{
			Type:     AssertRowCount,
			Expected: fmt.Sprintf("%d rows", a.Count),
			Actual:   describeOutcome(result),
		}
	}
	if n := len(result.Rows()); n != a.Count {
		return &AssertionError{
			Type:     AssertRowCount,
			Expected: fmt.Sprintf("%d rows", a.Count),
			Actual:   fmt.Sprintf("%d rows", n),
			Rows:     canonicalRows(result),
		}
	}
	return nil
}

// assertRowContains checks that some row holds every expected key/value.
// Extra keys in the row are ignored.
func assertRowContains(result *Result, a Assertion) error {
	for _, row := range result.Rows() {
		if matchRow(row, a.Expect) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertRowContains,
		Expected: fmt.Sprintf("a row containing %s", canonicalOrString(a.Expect)),
		Actual:   "not found in response",
		Rows:     canonicalRows(result),
	}
}

// assertRowOrder checks the values of one column across the rows.
func assertRowOrder(result *Result, a Assertion) error {
	got := make([]any, 0, len(result.Rows()))
	for _, row := range result.Rows() {
		v, ok := row.Get(a.Column)
		if !ok {
			return &AssertionError{
				Type:     AssertRowOrder,
				Expected: fmt.Sprintf("column %q in every row", a.Column),
				Actual:   "column missing",
				Rows:     canonicalRows(result),
			}
		}
		got = append(got, v)
	}

	values := a.Values
	if values == nil {
		values = []any{}
	}
	if canonicalOrString(got) != canonicalOrString(values) {
		return &AssertionError{
			Type:     AssertRowOrder,
			Expected: fmt.Sprintf("%s = %s", a.Column, canonicalOrString(values)),
			Actual:   fmt.Sprintf("%s = %s", a.Column, canonicalOrString(got)),
		}
	}
	return nil
}

// assertErrorCode checks the failure code.
func assertErrorCode(result *Result, a Assertion) error {
	if result.ErrorCode != a.Code {
		return &AssertionError{
			Type:     AssertErrorCode,
			Expected: a.Code,
			Actual:   describeOutcome(result),
		}
	}
	return nil
}

// matchRow reports whether row contains every expected key with an equal
// value. Values compare by canonical JSON, so nested row sets can be
// written as plain YAML.
func matchRow(row *ir.Object, expected map[string]any) bool {
	for key, want := range expected {
		got, ok := row.Get(key)
		if !ok {
			return false
		}
		if canonicalOrString(got) != canonicalOrString(want) {
			return false
		}
	}
	return true
}

func canonicalOrString(v any) string {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func canonicalRows(result *Result) string {
	if len(result.Response) == 0 {
		return ""
	}
	return canonicalOrString(result.Response[0])
}

func describeOutcome(result *Result) string {
	if result.ErrorCode != "" {
		return fmt.Sprintf("error %s (%v)", result.ErrorCode, result.Err)
	}
	return fmt.Sprintf("success with %d rows", len(result.Rows()))
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a message per failed assertion.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertRowCount:
			err = assertRowCount(result, assertion)
		case AssertRowContains:
			err = assertRowContains(result, assertion)
		case AssertRowOrder:
			err = assertRowOrder(result, assertion)
		case AssertErrorCode:
			err = assertErrorCode(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
