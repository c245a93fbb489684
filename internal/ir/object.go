package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf16"
)

// Object is a projected output row. Keys keep insertion order so the
// response lists fields in the order the request asked for them.
type Object struct {
	keys   []string
	values map[string]IRValue
}

func (*Object) irValue() {}

// NewObject creates an empty Object sized for n keys.
func NewObject(n int) *Object {
	return &Object{
		keys:   make([]string, 0, n),
		values: make(map[string]IRValue, n),
	}
}

// Set assigns key. A new key is appended; an existing key keeps its position.
func (o *Object) Set(key string, value IRValue) {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (IRValue, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return slices.Clone(o.keys)
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// CRITICAL: Go's sort.Strings uses UTF-8 which produces DIFFERENT order.
func (o *Object) SortedKeys() []string {
	keys := o.Keys()
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// MarshalJSON writes keys in insertion order. A nil Object is null.
func (o *Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := MarshalIRValue(o.values[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// RowSet is the {rows: [...]} envelope used both as the top-level result
// and as the value of a resolved relationship field. A nil entry in Rows
// is an object relationship with no match and serializes as null.
type RowSet struct {
	Rows []*Object
}

func (RowSet) irValue() {}

// MarshalJSON implements json.Marshaler. Rows is never emitted as null.
func (rs RowSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"rows":[`)
	for i, row := range rs.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		rowBytes, err := row.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("rows[%d]: %w", i, err)
		}
		buf.Write(rowBytes)
	}
	buf.WriteString(`]}`)
	return buf.Bytes(), nil
}

// sortedKeys returns the keys of a Row in RFC 8785 order.
func sortedKeys(r Row) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785 (Canonical JSON).
// CRITICAL: Must use unicode/utf16.Encode for correct surrogate handling.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	// If all compared units are equal, shorter string comes first
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}
