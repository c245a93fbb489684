package ir

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"strings"
)

// IRValue is a sealed interface representing the values a row or an output
// object can hold. Scalars are IRNull, IRString, IRInt and IRBool; *Object
// and RowSet only appear in projected output.
// NO IRFloat - datasets and literals are integer-only.
type IRValue interface {
	irValue() // Sealed - only these types implement it
}

// IRNull represents a JSON null value in the IR.
// Using an explicit type ensures all IRValues satisfy the sealed interface.
type IRNull struct{}

func (IRNull) irValue() {}

// MarshalJSON implements json.Marshaler for IRNull.
func (IRNull) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// IRString represents a string value in the IR.
type IRString string

func (IRString) irValue() {}

// IRInt represents an integer value in the IR.
// Always int64, never float64.
type IRInt int64

func (IRInt) irValue() {}

// IRBool represents a boolean value in the IR.
type IRBool bool

func (IRBool) irValue() {}

// Kind returns a short name for the dynamic type of v.
// A nil IRValue reports "null".
func Kind(v IRValue) string {
	switch v.(type) {
	case nil, IRNull:
		return "null"
	case IRBool:
		return "bool"
	case IRInt:
		return "int"
	case IRString:
		return "string"
	case *Object:
		return "object"
	case RowSet:
		return "rowset"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Equal reports strict equality: same type and same value, no coercion.
// nil and IRNull are the same value.
func Equal(a, b IRValue) bool {
	a, b = orNull(a), orNull(b)
	switch av := a.(type) {
	case IRNull:
		_, ok := b.(IRNull)
		return ok
	case IRString:
		bv, ok := b.(IRString)
		return ok && av == bv
	case IRInt:
		bv, ok := b.(IRInt)
		return ok && av == bv
	case IRBool:
		bv, ok := b.(IRBool)
		return ok && av == bv
	default:
		// Output-only values never take part in comparisons
		return false
	}
}

// Compare orders two values. Within a type it uses the natural ordering
// (numeric, byte-wise lexicographic, false < true). Across types it orders
// by rank: null < bool < int < string < anything else.
func Compare(a, b IRValue) int {
	a, b = orNull(a), orNull(b)
	if ra, rb := rank(a), rank(b); ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch av := a.(type) {
	case IRBool:
		bv := b.(IRBool)
		switch {
		case av == bv:
			return 0
		case !bool(av):
			return -1
		default:
			return 1
		}
	case IRInt:
		return cmp.Compare(av, b.(IRInt))
	case IRString:
		return strings.Compare(string(av), string(b.(IRString)))
	default:
		return 0
	}
}

// rank is the cross-type position used by Compare.
func rank(v IRValue) int {
	switch v.(type) {
	case IRNull:
		return 0
	case IRBool:
		return 1
	case IRInt:
		return 2
	case IRString:
		return 3
	default:
		return 4
	}
}

func orNull(v IRValue) IRValue {
	if v == nil {
		return IRNull{}
	}
	return v
}

// UnmarshalScalar decodes a single JSON scalar into an IRValue.
// Floats, arrays and objects are rejected; null becomes IRNull.
func UnmarshalScalar(data []byte) (IRValue, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return ScalarFromAny(raw)
}

// ScalarFromAny converts a decoded Go value (from encoding/json with
// UseNumber, or from yaml.v3) into a scalar IRValue.
func ScalarFromAny(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return IRNull{}, nil
	case IRValue:
		return val, nil
	case bool:
		return IRBool(val), nil
	case string:
		return IRString(val), nil
	case int:
		return IRInt(val), nil
	case int64:
		return IRInt(val), nil
	case json.Number:
		s := string(val)
		if strings.ContainsAny(s, ".eE") {
			return nil, fmt.Errorf("floats are not supported: %s", s)
		}
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("number out of int64 range: %s", s)
		}
		return IRInt(n), nil
	case float32, float64:
		return nil, fmt.Errorf("floats are not supported: %v", val)
	case []any:
		return nil, fmt.Errorf("arrays are not scalar values")
	case map[string]any:
		return nil, fmt.Errorf("objects are not scalar values")
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// MarshalIRValue marshals an IRValue to JSON bytes.
// Uses type-switch dispatch to handle all IRValue types correctly.
func MarshalIRValue(v IRValue) ([]byte, error) {
	switch val := v.(type) {
	case nil, IRNull:
		return []byte("null"), nil
	case IRString:
		return json.Marshal(string(val))
	case IRInt:
		return json.Marshal(int64(val))
	case IRBool:
		return json.Marshal(bool(val))
	case *Object:
		return val.MarshalJSON()
	case RowSet:
		return val.MarshalJSON()
	default:
		return nil, fmt.Errorf("unknown IRValue type: %T", v)
	}
}
