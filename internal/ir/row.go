package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Row maps column names to scalar values.
// Rows held by a Table are never mutated after loading.
type Row map[string]IRValue

// Get returns the value of column, or IRNull if the column is absent.
func (r Row) Get(column string) IRValue {
	v, ok := r[column]
	if !ok || v == nil {
		return IRNull{}
	}
	return v
}

// UnmarshalJSON decodes a JSON object of scalars into a Row.
// Nested arrays/objects and floats are rejected.
func (r *Row) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("row must be a JSON object")
	}

	*r = make(Row, len(raw))
	for k, v := range raw {
		val, err := UnmarshalScalar(v)
		if err != nil {
			return fmt.Errorf("column %q: %w", k, err)
		}
		(*r)[k] = val
	}
	return nil
}

// MarshalJSON implements json.Marshaler with sorted column names.
func (r Row) MarshalJSON() ([]byte, error) {
	obj := NewObject(len(r))
	for _, k := range sortedKeys(r) {
		obj.Set(k, r[k])
	}
	return obj.MarshalJSON()
}

// Table is a named, ordered, read-only sequence of rows.
type Table struct {
	Name string
	Rows []Row
}

// DecodeRows decodes a JSON array of row objects.
func DecodeRows(data []byte) ([]Row, error) {
	var rows []Row
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&rows); err != nil {
		return nil, err
	}
	if rows == nil {
		return nil, fmt.Errorf("expected a JSON array of rows")
	}
	return rows, nil
}
