package queryir

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/ndcstatic/internal/ir"
)

// DecodeRequest parses a JSON query request.
//
// Only the structure is checked here. Unknown expression, operator, target,
// value and field kinds decode into their Unsupported* variants so the
// executor reports them with a precise error code.
func DecodeRequest(data []byte) (*QueryRequest, error) {
	var wire struct {
		Collection              string                     `json:"collection"`
		CollectionRelationships map[string]json.RawMessage `json:"collection_relationships"`
		Query                   *json.RawMessage           `json:"query"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	if wire.Collection == "" {
		return nil, fmt.Errorf("decode request: collection is required")
	}
	if wire.Query == nil {
		return nil, fmt.Errorf("decode request: query is required")
	}

	req := &QueryRequest{
		Collection:              wire.Collection,
		CollectionRelationships: make(map[string]Relationship, len(wire.CollectionRelationships)),
	}
	for name, raw := range wire.CollectionRelationships {
		rel, err := decodeRelationship(raw)
		if err != nil {
			return nil, fmt.Errorf("decode request: collection_relationships[%q]: %w", name, err)
		}
		req.CollectionRelationships[name] = rel
	}

	q, err := decodeQuery(*wire.Query)
	if err != nil {
		return nil, fmt.Errorf("decode request: query: %w", err)
	}
	req.Query = q

	return req, nil
}

// decodeQuery decodes {fields?, where?, order_by?}.
func decodeQuery(data []byte) (Query, error) {
	var wire struct {
		Fields  json.RawMessage `json:"fields"`
		Where   json.RawMessage `json:"where"`
		OrderBy json.RawMessage `json:"order_by"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return Query{}, err
	}

	var q Query
	if !isAbsent(wire.Fields) {
		fields, err := decodeFields(wire.Fields)
		if err != nil {
			return Query{}, fmt.Errorf("fields: %w", err)
		}
		q.Fields = fields
	}
	if !isAbsent(wire.Where) {
		where, err := decodeExpression(wire.Where)
		if err != nil {
			return Query{}, fmt.Errorf("where: %w", err)
		}
		q.Where = where
	}
	if !isAbsent(wire.OrderBy) {
		orderBy, err := decodeOrderBy(wire.OrderBy)
		if err != nil {
			return Query{}, fmt.Errorf("order_by: %w", err)
		}
		q.OrderBy = orderBy
	}
	return q, nil
}

// decodeFields decodes the fields object, keeping key order.
func decodeFields(data []byte) (Fields, error) {
	fields := Fields{}
	seen := make(map[string]bool)
	err := decodeOrderedObject(data, func(key string, raw json.RawMessage) error {
		if seen[key] {
			return fmt.Errorf("duplicate field %q", key)
		}
		seen[key] = true

		field, err := decodeField(raw)
		if err != nil {
			return fmt.Errorf("%q: %w", key, err)
		}
		fields = append(fields, NamedField{Key: key, Field: field})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fields, nil
}

func decodeField(data []byte) (Field, error) {
	kind, err := peekType(data)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "column":
		var wire struct {
			Column string `json:"column"`
		}
		if err := json.Unmarshal(data, &wire); err != nil {
			return nil, err
		}
		if wire.Column == "" {
			return nil, fmt.Errorf("column field requires a column name")
		}
		return ColumnField{Column: wire.Column}, nil

	case "relationship":
		var wire struct {
			Relationship string          `json:"relationship"`
			Query        json.RawMessage `json:"query"`
		}
		if err := json.Unmarshal(data, &wire); err != nil {
			return nil, err
		}
		if wire.Relationship == "" {
			return nil, fmt.Errorf("relationship field requires a relationship name")
		}
		var nested Query
		if !isAbsent(wire.Query) {
			nested, err = decodeQuery(wire.Query)
			if err != nil {
				return nil, fmt.Errorf("query: %w", err)
			}
		}
		return RelationshipField{Relationship: wire.Relationship, Query: nested}, nil

	default:
		return UnsupportedField{Type: kind}, nil
	}
}

func decodeExpression(data []byte) (Expression, error) {
	kind, err := peekType(data)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "binary_comparison_operator":
		var wire struct {
			Column   json.RawMessage `json:"column"`
			Operator json.RawMessage `json:"operator"`
			Value    json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(data, &wire); err != nil {
			return nil, err
		}
		column, err := decodeTarget(wire.Column)
		if err != nil {
			return nil, fmt.Errorf("column: %w", err)
		}
		op, err := decodeOperator(wire.Operator)
		if err != nil {
			return nil, fmt.Errorf("operator: %w", err)
		}
		value, err := decodeValue(wire.Value)
		if err != nil {
			return nil, fmt.Errorf("value: %w", err)
		}
		return BinaryComparison{Column: column, Operator: op, Value: value}, nil

	case "and":
		var wire struct {
			Expressions []json.RawMessage `json:"expressions"`
		}
		if err := json.Unmarshal(data, &wire); err != nil {
			return nil, err
		}
		exprs := make([]Expression, 0, len(wire.Expressions))
		for i, raw := range wire.Expressions {
			expr, err := decodeExpression(raw)
			if err != nil {
				return nil, fmt.Errorf("expressions[%d]: %w", i, err)
			}
			exprs = append(exprs, expr)
		}
		return And{Expressions: exprs}, nil

	default:
		return UnsupportedExpression{Type: kind}, nil
	}
}

func decodeTarget(data []byte) (ComparisonTarget, error) {
	if isAbsent(data) {
		return nil, fmt.Errorf("required")
	}
	kind, err := peekType(data)
	if err != nil {
		return nil, err
	}
	if kind != "column" {
		return UnsupportedTarget{Type: kind}, nil
	}

	var wire struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	if wire.Name == "" {
		return nil, fmt.Errorf("column reference requires a name")
	}
	return ColumnTarget{Name: wire.Name}, nil
}

func decodeOperator(data []byte) (Operator, error) {
	if isAbsent(data) {
		return nil, fmt.Errorf("required")
	}
	kind, err := peekType(data)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "equal":
		return EqualOperator{}, nil
	case "other":
		var wire struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(data, &wire); err != nil {
			return nil, err
		}
		return OtherOperator{Name: wire.Name}, nil
	default:
		return UnsupportedOperator{Type: kind}, nil
	}
}

func decodeValue(data []byte) (ComparisonValue, error) {
	if isAbsent(data) {
		return nil, fmt.Errorf("required")
	}
	kind, err := peekType(data)
	if err != nil {
		return nil, err
	}
	if kind != "scalar" {
		return UnsupportedValue{Type: kind}, nil
	}

	var wire struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	if len(wire.Value) == 0 {
		return ScalarValue{Value: ir.IRNull{}}, nil
	}
	v, err := ir.UnmarshalScalar(wire.Value)
	if err != nil {
		return nil, fmt.Errorf("scalar: %w", err)
	}
	return ScalarValue{Value: v}, nil
}

func decodeOrderBy(data []byte) (*OrderBy, error) {
	var wire struct {
		Elements []struct {
			Target         json.RawMessage `json:"target"`
			OrderDirection OrderDirection  `json:"order_direction"`
		} `json:"elements"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}

	orderBy := &OrderBy{Elements: make([]OrderByElement, 0, len(wire.Elements))}
	for i, elem := range wire.Elements {
		target, err := decodeTarget(elem.Target)
		if err != nil {
			return nil, fmt.Errorf("elements[%d].target: %w", i, err)
		}
		orderBy.Elements = append(orderBy.Elements, OrderByElement{
			Target:    target,
			Direction: elem.OrderDirection,
		})
	}
	return orderBy, nil
}

func decodeRelationship(data []byte) (Relationship, error) {
	var wire struct {
		RelationshipType RelationshipType `json:"relationship_type"`
		TargetCollection string           `json:"target_collection"`
		ColumnMapping    json.RawMessage  `json:"column_mapping"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return Relationship{}, err
	}
	if wire.TargetCollection == "" {
		return Relationship{}, fmt.Errorf("target_collection is required")
	}

	rel := Relationship{
		Type:             wire.RelationshipType,
		TargetCollection: wire.TargetCollection,
	}
	if isAbsent(wire.ColumnMapping) {
		return rel, nil
	}
	err := decodeOrderedObject(wire.ColumnMapping, func(source string, raw json.RawMessage) error {
		var target string
		if err := json.Unmarshal(raw, &target); err != nil {
			return fmt.Errorf("column_mapping[%q]: %w", source, err)
		}
		rel.ColumnMapping = append(rel.ColumnMapping, ColumnPair{Source: source, Target: target})
		return nil
	})
	if err != nil {
		return Relationship{}, err
	}
	return rel, nil
}

// decodeOrderedObject walks a JSON object, calling fn for each member in
// document order. encoding/json maps would lose that order.
func decodeOrderedObject(data []byte, fn func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected a JSON object")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected an object key, got %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("%q: %w", key, err)
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}

	// Closing '}'
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// peekType reads the "type" discriminator of a tagged object.
func peekType(data []byte) (string, error) {
	var tagged struct {
		Type *string `json:"type"`
	}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return "", err
	}
	if tagged.Type == nil || *tagged.Type == "" {
		return "", fmt.Errorf("missing type discriminator")
	}
	return *tagged.Type, nil
}

// isAbsent reports whether a raw member was omitted or null.
func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
