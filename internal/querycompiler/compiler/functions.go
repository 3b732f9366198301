package compiler

import (
	"strings"

	"github.com/temporalio/sqlparser"

	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/condition"
	qcerrors "github.com/mogudian/elasticsearch-orm/internal/querycompiler/errors"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/operator"
)

var geoFunctions = map[string]operator.Operator{
	"geo_intersects":   operator.GeoIntersects,
	"geo_bounding_box": operator.GeoBoundingBox,
	"geo_distance":     operator.GeoDistance,
	"geo_polygon":      operator.GeoPolygon,
}

// conditionFunctions lists the calls that form a whole condition on their own.
func conditionFunctions() []string {
	out := []string{"nested", "children", "script"}
	for name := range geoFunctions {
		out = append(out, name)
	}
	return out
}

// function handles a call used as a condition: geo predicates, nested(path, <cond>),
// children(type, <cond>) and script(...).
func (b *whereBuilder) function(f *sqlparser.FuncExpr) (*condition.Condition, error) {
	name := funcName(f)
	if op, ok := geoFunctions[name]; ok {
		return b.geo(f, op)
	}
	switch name {
	case "nested":
		return b.complexNested(f)
	case "children":
		return b.complexChildren(f)
	case "script":
		return b.script(f)
	}
	return nil, qcerrors.Parse(render(f), "unsupported method %s", name)
}

// geo builds GEO_*(field, args...). The field may itself be a nested(...) or children(...) wrapper.
func (b *whereBuilder) geo(f *sqlparser.FuncExpr, op operator.Operator) (*condition.Condition, error) {
	args, err := funcArgs(f)
	if err != nil {
		return nil, err
	}
	if len(args) < 2 {
		return nil, qcerrors.Parse(render(f), "%s expects a field and its parameters", op)
	}
	field, rel, err := b.leftSide(args[0])
	if err != nil {
		return nil, err
	}
	values, err := b.values(args[1:])
	if err != nil {
		return nil, err
	}
	return &condition.Condition{Field: field, Op: op, Values: values, Relation: rel}, nil
}

// simpleNested unwraps nested(path.field) and nested(path, field), each optionally followed by
// an inner hits object.
func (b *whereBuilder) simpleNested(f *sqlparser.FuncExpr) (string, *condition.Relation, error) {
	args, err := funcArgs(f)
	if err != nil {
		return "", nil, err
	}
	args, innerHits, err := splitInnerHits(args)
	if err != nil {
		return "", nil, err
	}
	switch len(args) {
	case 1:
		field, ok := identifier(args[0])
		dot := strings.LastIndexByte(field, '.')
		if !ok || dot <= 0 {
			return "", nil, qcerrors.Parse(render(f), "nested(field) expects a dotted path")
		}
		return field, &condition.Relation{Kind: condition.Nested, Path: field[:dot], InnerHits: innerHits}, nil
	case 2:
		path, ok := identifier(args[0])
		if !ok {
			return "", nil, qcerrors.Parse(render(f), "nested path must be a name")
		}
		field, ok := identifier(args[1])
		if !ok {
			return "", nil, qcerrors.Parse(render(f), "nested(path, field) expects a field name")
		}
		if !strings.HasPrefix(field, path+".") {
			field = path + "." + field
		}
		return field, &condition.Relation{Kind: condition.Nested, Path: path, InnerHits: innerHits}, nil
	}
	return "", nil, qcerrors.Parse(render(f), "nested expects one or two parameters")
}

// simpleChildren unwraps children(type, field); the field belongs to the child type.
func (b *whereBuilder) simpleChildren(f *sqlparser.FuncExpr) (string, *condition.Relation, error) {
	args, err := funcArgs(f)
	if err != nil {
		return "", nil, err
	}
	args, innerHits, err := splitInnerHits(args)
	if err != nil {
		return "", nil, err
	}
	if len(args) != 2 {
		return "", nil, qcerrors.Parse(render(f), "children expects 2 parameters (type, field)")
	}
	childType, ok := identifier(args[0])
	if !ok {
		return "", nil, qcerrors.Parse(render(f), "children type must be a name")
	}
	field, ok := identifier(args[1])
	if !ok {
		return "", nil, qcerrors.Parse(render(f), "children(type, field) expects a field name")
	}
	return field, &condition.Relation{Kind: condition.Children, Path: childType, InnerHits: innerHits}, nil
}

// complexNested builds nested(path, <cond>[, inner hits]), where every field of cond lives under path.
func (b *whereBuilder) complexNested(f *sqlparser.FuncExpr) (*condition.Condition, error) {
	args, err := funcArgs(f)
	if err != nil {
		return nil, err
	}
	args, innerHits, err := splitInnerHits(args)
	if err != nil {
		return nil, err
	}
	if len(args) != 2 {
		return nil, qcerrors.Parse(render(f), "nested condition expects 2 parameters (path, condition)")
	}
	path, ok := identifier(args[0])
	if !ok {
		return nil, qcerrors.Parse(render(f), "nested path must be a name")
	}
	inner := &whereBuilder{entity: b.entity, resolver: b.resolver, subqueries: b.subqueries, nestedPath: path}
	where, err := inner.build(args[1])
	if err != nil {
		return nil, err
	}
	if where.Empty() {
		return nil, qcerrors.Parse(render(f), "unable to parse nested condition")
	}
	return &condition.Condition{
		Field:    path,
		Op:       operator.Relationship,
		Relation: &condition.Relation{Kind: condition.Nested, Path: path, Where: where, InnerHits: innerHits},
	}, nil
}

// complexChildren builds children(type, <cond>); cond is resolved against the child type.
func (b *whereBuilder) complexChildren(f *sqlparser.FuncExpr) (*condition.Condition, error) {
	args, err := funcArgs(f)
	if err != nil {
		return nil, err
	}
	args, innerHits, err := splitInnerHits(args)
	if err != nil {
		return nil, err
	}
	if len(args) != 2 {
		return nil, qcerrors.Parse(render(f), "children condition expects 2 parameters (type, condition)")
	}
	childType, ok := identifier(args[0])
	if !ok {
		return nil, qcerrors.Parse(render(f), "children type must be a name")
	}
	inner := &whereBuilder{entity: childType, resolver: b.resolver, subqueries: b.subqueries}
	where, err := inner.build(args[1])
	if err != nil {
		return nil, err
	}
	if where.Empty() {
		return nil, qcerrors.Parse(render(f), "unable to parse children condition")
	}
	return &condition.Condition{
		Field:    childType,
		Op:       operator.Relationship,
		Relation: &condition.Relation{Kind: condition.Children, Path: childType, Where: where, InnerHits: innerHits},
	}, nil
}

// script builds script('source', key = value, ..., script_type = 'stored').
func (b *whereBuilder) script(f *sqlparser.FuncExpr) (*condition.Condition, error) {
	args, err := funcArgs(f)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 || !isStringLiteral(args[0]) {
		return nil, qcerrors.Parse(render(f), "script expects its source as first parameter")
	}
	s := condition.Script{Source: string(unparen(args[0]).(*sqlparser.SQLVal).Val)}
	for _, arg := range args[1:] {
		cmp, ok := unparen(arg).(*sqlparser.ComparisonExpr)
		if !ok || cmp.Operator != sqlparser.EqualStr {
			return nil, qcerrors.Parse(render(arg), "script parameters must be written as key = value")
		}
		key, ok := identifier(cmp.Left)
		if !ok {
			return nil, qcerrors.Parse(render(arg), "script parameter name must be an identifier")
		}
		v, err := literal(cmp.Right)
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(key, "script_type") {
			switch strings.ToLower(v.Text()) {
			case "stored", "indexed":
				s.Stored = true
			case "inline":
				s.Stored = false
			default:
				return nil, qcerrors.Parse(render(arg), "unknown script type")
			}
			continue
		}
		if s.Params == nil {
			s.Params = make(map[string]any)
		}
		s.Params[key] = v.Normalize()
	}
	return &condition.Condition{Op: operator.SCRIPT, Values: []condition.Value{condition.ScriptValue(s)}}, nil
}
