package engine

import (
	"github.com/roach88/ndcstatic/internal/ir"
	"github.com/roach88/ndcstatic/internal/queryir"
)

// resolver joins a source row to the rows of a target table by equality on
// every mapped column pair.
type resolver struct {
	name    string
	kind    queryir.RelationshipType
	mapping []queryir.ColumnPair
	target  ir.Table
}

// compileRelationship looks up a named relationship and its target table.
func (p *planner) compileRelationship(path, name string) (*resolver, error) {
	rel, ok := p.relationships[name]
	if !ok {
		return nil, unknownRelationshipError(path, name)
	}

	switch rel.Type {
	case queryir.ArrayRelationship, queryir.ObjectRelationship:
	default:
		err := NewInvalidRequestError("relationship %q has unknown type %q", name, rel.Type)
		err.Details = map[string]string{"relationship": name, "path": path}
		return nil, err
	}

	target, ok := p.collections.Lookup(rel.TargetCollection)
	if !ok {
		err := NewUnknownCollectionError(rel.TargetCollection)
		err.Details["relationship"] = name
		err.Details["path"] = path
		return nil, err
	}

	return &resolver{
		name:    name,
		kind:    rel.Type,
		mapping: rel.ColumnMapping,
		target:  target,
	}, nil
}

// resolve scans the target table and returns every row matching source,
// in target table order. There is no index; each call is a full scan.
func (r *resolver) resolve(source ir.Row) []ir.Row {
	var matched []ir.Row
	for _, candidate := range r.target.Rows {
		if r.joins(source, candidate) {
			matched = append(matched, candidate)
		}
	}
	return matched
}

// joins reports whether every mapped pair is strictly equal.
// An empty mapping joins every row.
func (r *resolver) joins(source, candidate ir.Row) bool {
	for _, pair := range r.mapping {
		if !ir.Equal(source.Get(pair.Source), candidate.Get(pair.Target)) {
			return false
		}
	}
	return true
}

// limit applies the relationship cardinality to matched rows: array keeps
// all, object keeps only the first.
func (r *resolver) limit(matched []ir.Row) []ir.Row {
	if r.kind == queryir.ObjectRelationship && len(matched) > 1 {
		return matched[:1]
	}
	return matched
}

// wrap builds the row-set envelope for projected matches. An object
// relationship with no match holds a single null row.
func (r *resolver) wrap(rows []*ir.Object) ir.RowSet {
	if r.kind == queryir.ObjectRelationship && len(rows) == 0 {
		return ir.RowSet{Rows: []*ir.Object{nil}}
	}
	if rows == nil {
		rows = []*ir.Object{}
	}
	return ir.RowSet{Rows: rows}
}
