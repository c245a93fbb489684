package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 canonical JSON of a query result.
// It is the serialization used for golden-file snapshots: identical results
// always produce identical bytes regardless of request field order.
//
// Key differences from standard json.Marshal:
// 1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
// 2. No HTML escaping (< > & are NOT escaped)
// 3. Strings are NFC normalized
// 4. No floats (returns error)
func MarshalCanonical(v any) ([]byte, error) {
	return marshalCanonical(v)
}

func marshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil, IRNull:
		return []byte("null"), nil
	case IRString:
		return marshalCanonicalString(string(val))
	case IRInt:
		return []byte(fmt.Sprintf("%d", val)), nil
	case IRBool:
		return marshalCanonicalBool(bool(val)), nil
	case *Object:
		if val == nil {
			return []byte("null"), nil
		}
		return marshalCanonicalObject(val.SortedKeys(), func(k string) any {
			v, _ := val.Get(k)
			return v
		})
	case RowSet:
		rows := make([]any, len(val.Rows))
		for i, row := range val.Rows {
			rows[i] = row
		}
		return marshalCanonicalObject([]string{"rows"}, func(string) any { return rows })
	case []RowSet:
		sets := make([]any, len(val))
		for i, rs := range val {
			sets[i] = rs
		}
		return marshalCanonicalArray(sets)
	case Row:
		return marshalCanonicalObject(sortedKeys(val), func(k string) any { return val[k] })
	case string:
		return marshalCanonicalString(val)
	case int64:
		return []byte(fmt.Sprintf("%d", val)), nil
	case int:
		return []byte(fmt.Sprintf("%d", val)), nil
	case bool:
		return marshalCanonicalBool(val), nil
	case json.Number:
		n, err := ScalarFromAny(val)
		if err != nil {
			return nil, err
		}
		return marshalCanonical(n)
	case []any:
		return marshalCanonicalArray(val)
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		slices.SortFunc(keys, compareKeysRFC8785)
		return marshalCanonicalObject(keys, func(k string) any { return val[k] })
	case float64, float32:
		return nil, fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

func marshalCanonicalBool(b bool) []byte {
	if b {
		return []byte("true")
	}
	return []byte("false")
}

// marshalCanonicalString writes s NFC-normalized as an RFC 8785 string.
// Only quote, backslash and U+0000..U+001F are escaped; <, >, & and
// U+2028/U+2029 are written as-is.
func marshalCanonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)
	if !utf8.ValidString(normalized) {
		return nil, fmt.Errorf("invalid UTF-8 in string %q", s)
	}

	buf := make([]byte, 0, len(normalized)+2)
	buf = append(buf, '"')
	for i := 0; i < len(normalized); i++ {
		c := normalized[i]
		switch c {
		case '"':
			buf = append(buf, '\\', '"')
		case '\\':
			buf = append(buf, '\\', '\\')
		case '\b':
			buf = append(buf, '\\', 'b')
		case '\f':
			buf = append(buf, '\\', 'f')
		case '\n':
			buf = append(buf, '\\', 'n')
		case '\r':
			buf = append(buf, '\\', 'r')
		case '\t':
			buf = append(buf, '\\', 't')
		default:
			if c < 0x20 {
				buf = append(buf, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xF])
				continue
			}
			buf = append(buf, c)
		}
	}
	buf = append(buf, '"')
	return buf, nil
}

const hexDigits = "0123456789abcdef"

// marshalCanonicalArray marshals an array to canonical JSON.
func marshalCanonicalArray(arr []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')

	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		elemBytes, err := marshalCanonical(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(elemBytes)
	}

	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// marshalCanonicalObject marshals keys (already in RFC 8785 order) and the
// values returned by lookup.
func marshalCanonicalObject(keys []string, lookup func(string) any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		// Marshal key (NFC normalized, no HTML escape)
		keyBytes, err := marshalCanonicalString(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := marshalCanonical(lookup(k))
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
