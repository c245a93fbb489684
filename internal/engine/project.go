package engine

import (
	"fmt"

	"github.com/roach88/ndcstatic/internal/ir"
	"github.com/roach88/ndcstatic/internal/queryir"
)

// projector builds output objects from rows, one entry per requested field
// in request order.
type projector struct {
	fields []fieldProjector
}

// fieldProjector is a compiled field. Exactly one of column or rel is set.
type fieldProjector struct {
	key    string
	column string
	rel    *relationProjector
}

// relationProjector resolves a relationship and projects the matches.
// sort and where are only set when nested queries are enabled.
type relationProjector struct {
	resolver *resolver
	sort     *sorter
	where    predicate
	fields   *projector
}

// compileFields checks every field of a projection, recursing into
// relationship fields.
func (p *planner) compileFields(path string, fields queryir.Fields) (*projector, error) {
	pr := &projector{fields: make([]fieldProjector, 0, len(fields))}
	for _, nf := range fields {
		fieldPath := path + ".fields." + nf.Key

		switch f := nf.Field.(type) {
		case queryir.ColumnField:
			pr.fields = append(pr.fields, fieldProjector{key: nf.Key, column: f.Column})

		case queryir.RelationshipField:
			rel, err := p.compileRelationField(fieldPath, f)
			if err != nil {
				return nil, err
			}
			pr.fields = append(pr.fields, fieldProjector{key: nf.Key, rel: rel})

		case queryir.UnsupportedField:
			return nil, NewInvalidRequestError("%s: unsupported field type %q", fieldPath, f.Type)

		default:
			return nil, NewInvalidRequestError("%s: unknown field type %T", fieldPath, nf.Field)
		}
	}
	return pr, nil
}

func (p *planner) compileRelationField(path string, f queryir.RelationshipField) (*relationProjector, error) {
	res, err := p.compileRelationship(path, f.Relationship)
	if err != nil {
		return nil, err
	}
	rp := &relationProjector{resolver: res}

	queryPath := path + ".query"
	nested := f.Query
	if nested.Where != nil || nested.OrderBy != nil {
		if p.nestedQueries {
			if rp.sort, err = compileOrderBy(queryPath, nested.OrderBy); err != nil {
				return nil, err
			}
			if nested.Where != nil {
				if rp.where, err = compilePredicate(queryPath+".where", nested.Where, p.patterns); err != nil {
					return nil, err
				}
			}
		} else {
			p.ignored = append(p.ignored, NestedClauseInfo{
				Path:         queryPath,
				Relationship: f.Relationship,
				Where:        nested.Where != nil,
				OrderBy:      nested.OrderBy != nil,
			})
		}
	}

	if rp.fields, err = p.compileFields(queryPath, nested.Fields); err != nil {
		return nil, err
	}
	return rp, nil
}

// project maps every row to an output object.
func (pr *projector) project(rows []ir.Row) ([]*ir.Object, error) {
	out := make([]*ir.Object, 0, len(rows))
	for _, row := range rows {
		obj, err := pr.projectRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, nil
}

func (pr *projector) projectRow(row ir.Row) (*ir.Object, error) {
	obj := ir.NewObject(len(pr.fields))
	for _, f := range pr.fields {
		if f.rel == nil {
			obj.Set(f.key, row.Get(f.column))
			continue
		}
		rs, err := f.rel.project(row)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.key, err)
		}
		obj.Set(f.key, rs)
	}
	return obj, nil
}

// project resolves the relationship for one source row and wraps the
// projected matches.
func (rp *relationProjector) project(source ir.Row) (ir.RowSet, error) {
	matched := rp.sort.sort(rp.resolver.resolve(source))
	matched, err := filterRows(matched, rp.where)
	if err != nil {
		return ir.RowSet{}, err
	}
	rows, err := rp.fields.project(rp.resolver.limit(matched))
	if err != nil {
		return ir.RowSet{}, err
	}
	return rp.resolver.wrap(rows), nil
}
