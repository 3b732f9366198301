package structured

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/condition"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/config"
	qcerrors "github.com/mogudian/elasticsearch-orm/internal/querycompiler/errors"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/metadata"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/operator"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/predicate"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/querymaker"
)

var logics = map[string]string{
	LogicMust:    LogicMust,
	"AND":        LogicMust,
	LogicShould:  LogicShould,
	"OR":         LogicShould,
	LogicMustNot: LogicMustNot,
	"NOT":        LogicMustNot,
}

var operators = map[string]string{
	OpTerm:      OpTerm,
	"EQUAL":     OpTerm,
	OpTerms:     OpTerms,
	"IN":        OpTerms,
	OpLike:      OpLike,
	"WILDCARD":  OpLike,
	OpRange:     OpRange,
	"BETWEEN":   OpRange,
	OpGT:        OpGT,
	OpGTE:       OpGTE,
	OpLT:        OpLT,
	OpLTE:       OpLTE,
	OpExists:    OpExists,
	OpNotExists: OpNotExists,
	OpNested:    OpNested,
}

var comparisons = map[string]operator.Operator{
	OpGT:        operator.GT,
	OpGTE:       operator.GTE,
	OpLT:        operator.LT,
	OpLTE:       operator.LTE,
	OpExists:    operator.EXISTS,
	OpNotExists: operator.NotExists,
}

var likeEscaper = strings.NewReplacer("%", "&PERCENT", "_", "&UNDERSCORE")

// Builder compiles structured requests of one entity type into predicate trees.
type Builder struct {
	resolver   metadata.Resolver
	entityType string
	maker      *querymaker.Maker
}

// NewBuilder creates a builder for entityType.
func NewBuilder(resolver metadata.Resolver, entityType string) *Builder {
	return &Builder{resolver: resolver, entityType: entityType, maker: querymaker.New(resolver, entityType)}
}

// Query joins the keyword, the field values and the expression tree of req in a single
// must list. A request without any of them yields an empty Bool.
func (b *Builder) Query(req Request) (*predicate.Bool, error) {
	root := &predicate.Bool{}
	if kw := strings.TrimSpace(req.Keyword); kw != "" {
		p, err := b.keyword(kw)
		if err != nil {
			return nil, err
		}
		if p != nil {
			root.Must = append(root.Must, p)
		}
	}

	names := make([]string, 0, len(req.Fields))
	for name := range req.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p, err := b.fieldValue(name, req.Fields[name])
		if err != nil {
			return nil, err
		}
		if p != nil {
			root.Must = append(root.Must, p)
		}
	}

	if req.Where != nil {
		p, err := b.expression(*req.Where, "")
		if err != nil {
			return nil, err
		}
		root.Must = append(root.Must, p)
	}
	return root, nil
}

// keyword matches kw as a phrase in any searchable property. Types without searchable
// properties ignore the keyword.
func (b *Builder) keyword(kw string) (predicate.Predicate, error) {
	entity, err := b.resolver.Entity(b.entityType)
	if err != nil {
		return nil, err
	}
	fields := entity.SearchFields()
	if len(fields) == 0 {
		return nil, nil
	}
	if len(fields) == 1 {
		return &predicate.Phrase{Field: fields[0], Text: kw}, nil
	}
	out := &predicate.Bool{}
	for _, f := range fields {
		out.Should = append(out.Should, &predicate.Phrase{Field: f, Text: kw})
	}
	return out, nil
}

// fieldValue matches a single value exactly, or any item of a list. Nil values are skipped.
func (b *Builder) fieldValue(name string, v interface{}) (predicate.Predicate, error) {
	if v == nil {
		return nil, nil
	}
	if list, ok := v.([]interface{}); ok {
		values, err := toValues(list)
		if err != nil {
			return nil, err
		}
		return b.leaf(name, operator.IN, values)
	}
	value, err := toValue(v)
	if err != nil {
		return nil, err
	}
	return b.leaf(name, operator.EQ, []condition.Value{value})
}

func (b *Builder) expression(e Expression, prefix string) (predicate.Predicate, error) {
	if e.IsLogic() {
		return b.logic(e, prefix)
	}
	return b.condition(e, prefix)
}

func (b *Builder) logic(e Expression, prefix string) (predicate.Predicate, error) {
	name := strings.ToUpper(strings.TrimSpace(e.Logic))
	if name == "" {
		name = LogicMust
	}
	logic, ok := logics[name]
	if !ok {
		return nil, qcerrors.Parse(e.Logic, "unknown logic")
	}
	out := &predicate.Bool{}
	for _, child := range e.Expressions {
		p, err := b.expression(child, prefix)
		if err != nil {
			return nil, err
		}
		switch logic {
		case LogicShould:
			out.Should = append(out.Should, p)
		case LogicMustNot:
			out.MustNot = append(out.MustNot, p)
		default:
			out.Must = append(out.Must, p)
		}
	}
	return out, nil
}

func (b *Builder) condition(e Expression, prefix string) (predicate.Predicate, error) {
	fragment := strings.TrimSpace(e.Field + " " + e.Operator)
	if strings.TrimSpace(e.Field) == "" {
		return nil, qcerrors.Parse(fragment, "condition without field")
	}
	op, ok := operators[strings.ToUpper(strings.TrimSpace(e.Operator))]
	if !ok {
		return nil, qcerrors.Parse(fragment, "unknown operator")
	}
	field := prefix + e.Field

	switch op {
	case OpNested:
		return b.nested(e, field, fragment)
	case OpExists, OpNotExists:
		if len(e.Values) != 0 {
			return nil, qcerrors.Parse(fragment, "expects no values")
		}
		return b.leaf(field, comparisons[op], nil)
	case OpRange:
		return b.rangeCondition(e, field, fragment)
	}

	values, err := toValues(flatten(e.Values))
	if err != nil {
		return nil, err
	}
	switch op {
	case OpTerms:
		if len(values) == 0 {
			return nil, qcerrors.Parse(fragment, "expects at least one value")
		}
		return b.leaf(field, operator.IN, values)
	}
	if len(values) != 1 || values[0].IsNull() {
		return nil, qcerrors.Parse(fragment, "expects exactly one value")
	}
	switch op {
	case OpTerm:
		return b.leaf(field, operator.EQ, values)
	case OpLike:
		return b.like(field, values[0], fragment)
	}
	return b.leaf(field, comparisons[op], values)
}

// like matches documents containing v. Searchable properties match it as a phrase.
func (b *Builder) like(field string, v condition.Value, fragment string) (predicate.Predicate, error) {
	if v.Kind() != condition.KindString {
		return nil, qcerrors.Parse(fragment, "expects a string value")
	}
	f, err := b.resolver.Resolve(b.entityType, field)
	if err != nil {
		return nil, err
	}
	if f.Phrase {
		return b.leaf(field, operator.EQ, []condition.Value{v})
	}
	pattern := condition.String("%" + likeEscaper.Replace(v.Text()) + "%")
	return b.leaf(field, operator.LIKE, []condition.Value{pattern})
}

// rangeCondition accepts [from, to], both inclusive, or [from, includeLower, to, includeUpper].
// A null bound is open.
func (b *Builder) rangeCondition(e Expression, field, fragment string) (predicate.Predicate, error) {
	var from, to interface{}
	includeLower, includeUpper := true, true
	switch len(e.Values) {
	case 2:
		from, to = e.Values[0], e.Values[1]
	case 4:
		from, to = e.Values[0], e.Values[2]
		var ok bool
		if includeLower, ok = e.Values[1].(bool); !ok {
			return nil, qcerrors.Parse(fragment, "the second value must be the includeLower flag")
		}
		if includeUpper, ok = e.Values[3].(bool); !ok {
			return nil, qcerrors.Parse(fragment, "the fourth value must be the includeUpper flag")
		}
	default:
		return nil, qcerrors.Parse(fragment, "expects 2 or 4 values")
	}
	f, err := b.resolver.Resolve(b.entityType, field)
	if err != nil {
		return nil, err
	}
	r := &predicate.Range{Field: f.Name}
	if from != nil {
		v, err := toValue(from)
		if err != nil {
			return nil, err
		}
		if includeLower {
			r.GTE = v.Normalize()
		} else {
			r.GT = v.Normalize()
		}
	}
	if to != nil {
		v, err := toValue(to)
		if err != nil {
			return nil, err
		}
		if includeUpper {
			r.LTE = v.Normalize()
		} else {
			r.LT = v.Normalize()
		}
	}
	return r, nil
}

// nested requires every sub-expression to hold on the same sub-document of field.
func (b *Builder) nested(e Expression, field, fragment string) (predicate.Predicate, error) {
	if len(e.Expressions) == 0 {
		return nil, qcerrors.Parse(fragment, "expects at least one expression")
	}
	f, err := b.resolver.Resolve(b.entityType, field)
	if err != nil {
		return nil, err
	}
	if f.RelatedType == "" {
		return nil, qcerrors.Parse(fragment, "%s is not a nested property", field)
	}
	inner := &predicate.Bool{}
	for _, child := range e.Expressions {
		p, err := b.expression(child, field+".")
		if err != nil {
			return nil, err
		}
		inner.Must = append(inner.Must, p)
	}
	return &predicate.Nested{Path: f.Name, Inner: inner}, nil
}

func (b *Builder) leaf(field string, op operator.Operator, values []condition.Value) (predicate.Predicate, error) {
	return b.maker.Compile(&condition.Condition{Field: field, Op: op, Values: values})
}

// Sorts resolves the sort properties. scoring is true when the relevance score is one of them.
func (b *Builder) Sorts(sorts []SortField) (out []predicate.Sort, scoring bool, err error) {
	for _, s := range sorts {
		f, err := b.resolver.Resolve(b.entityType, s.Field)
		if err != nil {
			return nil, false, err
		}
		dir := predicate.ASC
		if s.Descending {
			dir = predicate.DESC
		}
		sortField := predicate.Sort{Field: f.Name, Direction: dir}
		if head, _, dotted := strings.Cut(s.Field, "."); dotted {
			if hf, err := b.resolver.Resolve(b.entityType, head); err == nil && hf.RelatedType != "" {
				sortField.NestedPath = hf.Name
			}
		}
		if f.Name == config.ScoreField {
			scoring = true
		}
		out = append(out, sortField)
	}
	return out, scoring, nil
}

// flatten accepts a single list value in place of the value list.
func flatten(values []interface{}) []interface{} {
	if len(values) == 1 {
		if list, ok := values[0].([]interface{}); ok {
			return list
		}
	}
	return values
}

func toValues(in []interface{}) ([]condition.Value, error) {
	out := make([]condition.Value, len(in))
	for i, v := range in {
		value, err := toValue(v)
		if err != nil {
			return nil, err
		}
		out[i] = value
	}
	return out, nil
}

// toValue converts a decoded JSON value.
func toValue(v interface{}) (condition.Value, error) {
	switch x := v.(type) {
	case nil:
		return condition.Null(), nil
	case string:
		return condition.String(x), nil
	case bool:
		return condition.Bool(x), nil
	case json.Number:
		return number(x.String())
	case int:
		return condition.Long(int64(x)), nil
	case int64:
		return condition.Long(x), nil
	case float64:
		return number(strconv.FormatFloat(x, 'f', -1, 64))
	}
	return condition.Value{}, qcerrors.Parse(fmt.Sprint(v), "unsupported value %T", v)
}

func number(text string) (condition.Value, error) {
	parse := condition.Integer
	if strings.ContainsAny(text, ".eE") {
		parse = condition.Number
	}
	v, err := parse(text)
	if err != nil {
		return condition.Value{}, qcerrors.Parse(text, "%v", err)
	}
	return v, nil
}
