/*******************************************************************************
* Copyright (C) 2026 the Eclipse BaSyx Authors and Fraunhofer IESE
*
* Permission is hereby granted, free of charge, to any person obtaining
* a copy of this software and associated documentation files (the
* "Software"), to deal in the Software without restriction, including
* without limitation the rights to use, copy, modify, merge, publish,
* distribute, sublicense, and/or sell copies of the Software, and to
* permit persons to whom the Software is furnished to do so, subject to
* the following conditions:
*
* The above copyright notice and this permission notice shall be
* included in all copies or substantial portions of the Software.
*
* THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
* EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
* MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
* NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE
* LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION
* OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION
* WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*
* SPDX-License-Identifier: MIT
******************************************************************************/

// Package querymaker compiles the condition tree built from a WHERE clause into a predicate tree.
//
// Groups become Bool predicates (AND children in must, OR children in should), single-child
// groups collapse into their child, negative operators are wrapped in mustNot, and conditions
// on nested or child documents are wrapped in Nested / HasRelationship predicates.
package querymaker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/condition"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/config"
	qcerrors "github.com/mogudian/elasticsearch-orm/internal/querycompiler/errors"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/metadata"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/operator"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/predicate"
)

// Maker compiles condition trees of one entity type.
type Maker struct {
	resolver   metadata.Resolver
	entityType string
	// nestedPath is the logical path of the enclosing nested(...) condition, if any.
	nestedPath string
}

// New creates a Maker resolving fields of entityType.
func New(resolver metadata.Resolver, entityType string) *Maker {
	return &Maker{resolver: resolver, entityType: entityType}
}

// Make compiles the top-level WHERE group. An empty group yields an empty Bool. Unless
// scoring is requested the result is placed in a filter clause.
func (m *Maker) Make(where *condition.Group, scoring bool) (predicate.Predicate, error) {
	if where.Empty() {
		return &predicate.Bool{}, nil
	}
	p, err := m.Compile(where)
	if err != nil {
		return nil, err
	}
	if scoring {
		return p, nil
	}
	return &predicate.Bool{Filter: []predicate.Predicate{p}}, nil
}

// Compile compiles a node without the top-level filter wrapper.
func (m *Maker) Compile(n condition.Node) (predicate.Predicate, error) {
	switch v := condition.Collapse(n).(type) {
	case *condition.Condition:
		return m.condition(v)
	case *condition.Group:
		b := &predicate.Bool{}
		for _, ch := range v.Children {
			p, err := m.Compile(ch)
			if err != nil {
				return nil, err
			}
			if ch.Connector() == condition.OR {
				b.Should = append(b.Should, p)
			} else {
				b.Must = append(b.Must, p)
			}
		}
		return b, nil
	}
	return nil, fmt.Errorf("unexpected node %T", n)
}

func (m *Maker) condition(c *condition.Condition) (predicate.Predicate, error) {
	if c.Relation.Complex() {
		return m.complexRelation(c)
	}
	switch {
	case c.Op == operator.SCRIPT:
		return scriptPredicate(c)
	case c.CaseScript != "":
		p := &predicate.Script{Source: c.CaseScript}
		if c.Op == operator.NotIn {
			return predicate.MustNot(p), nil
		}
		return p, nil
	case c.Op == operator.IDS:
		return idsPredicate(c)
	}

	target := m
	if c.Relation != nil && c.Relation.Kind == condition.Children {
		target = &Maker{resolver: m.resolver, entityType: c.Relation.Path}
	}
	field, err := target.resolve(c.Field)
	if err != nil {
		return nil, err
	}

	leaf, err := leafPredicate(c, field)
	if err != nil {
		return nil, err
	}
	if operator.IsNegative(c.Op) {
		leaf = predicate.MustNot(leaf)
	}
	return m.wrapRelation(c, leaf)
}

// resolve maps a logical field, retrying relative to the enclosing nested path.
func (m *Maker) resolve(name string) (metadata.Field, error) {
	f, err := m.resolver.Resolve(m.entityType, name)
	if err == nil || m.nestedPath == "" {
		return f, err
	}
	var fe *qcerrors.FieldResolutionError
	if !errors.As(err, &fe) {
		return f, err
	}
	rel, relErr := m.resolver.Resolve(m.entityType, m.nestedPath+"."+name)
	if relErr != nil {
		return metadata.Field{}, err
	}
	return rel, nil
}

func (m *Maker) resolvePath(path string) (string, error) {
	f, err := m.resolver.Resolve(m.entityType, path)
	if err != nil {
		return "", err
	}
	return f.Name, nil
}

func (m *Maker) complexRelation(c *condition.Condition) (predicate.Predicate, error) {
	rel := c.Relation
	var wrapped predicate.Predicate
	switch rel.Kind {
	case condition.Nested:
		path, err := m.resolvePath(rel.Path)
		if err != nil {
			return nil, err
		}
		inner := &Maker{resolver: m.resolver, entityType: m.entityType, nestedPath: rel.Path}
		p, err := inner.Compile(rel.Where)
		if err != nil {
			return nil, err
		}
		wrapped = &predicate.Nested{Path: path, Inner: p, InnerHits: rel.InnerHits}
	case condition.Children:
		inner := New(m.resolver, rel.Path)
		p, err := inner.Compile(rel.Where)
		if err != nil {
			return nil, err
		}
		wrapped = &predicate.HasRelationship{Type: rel.Path, Inner: p, InnerHits: rel.InnerHits}
	default:
		return nil, qcerrors.Parse(c.String(), "unknown relationship")
	}
	if c.Op == operator.NotRelationship {
		return predicate.MustNot(wrapped), nil
	}
	return wrapped, nil
}

// wrapRelation places a simple nested(...) / children(...) leaf inside its relationship query.
func (m *Maker) wrapRelation(c *condition.Condition, leaf predicate.Predicate) (predicate.Predicate, error) {
	if c.Relation == nil {
		return leaf, nil
	}
	if c.Relation.Kind == condition.Children {
		return &predicate.HasRelationship{Type: c.Relation.Path, Inner: leaf, InnerHits: c.Relation.InnerHits}, nil
	}
	if n, already := leaf.(*predicate.Nested); already {
		if n.InnerHits == nil {
			n.InnerHits = c.Relation.InnerHits
		}
		return n, nil
	}
	path, err := m.resolvePath(c.Relation.Path)
	if err != nil {
		return nil, err
	}
	if isMissing(c) {
		return predicate.MustNot(&predicate.Nested{Path: path, Inner: predicate.MustNot(leaf), InnerHits: c.Relation.InnerHits}), nil
	}
	return &predicate.Nested{Path: path, Inner: leaf, InnerHits: c.Relation.InnerHits}, nil
}

func isMissing(c *condition.Condition) bool {
	if c.Op == operator.NotExists {
		return true
	}
	if c.Op != operator.EQ {
		return false
	}
	v := c.Value()
	return v.IsNull() || v.IsIdentifier(config.MissingIdentifier)
}

func leafPredicate(c *condition.Condition, field metadata.Field) (predicate.Predicate, error) {
	name := field.Name
	value := c.Value()
	switch operator.Positive(c.Op) {
	case operator.EQ:
		if value.IsNull() || value.IsIdentifier(config.MissingIdentifier) {
			return &predicate.NotExists{Field: name}, nil
		}
		if value.Kind() == condition.KindIdentifier {
			return nil, qcerrors.Parse(value.Text(), "cannot recognize identifier")
		}
		if value.Kind() == condition.KindMethod {
			return methodPredicate(name, value.Method())
		}
		if field.Phrase {
			return &predicate.Phrase{Field: name, Text: value.Normalize()}, nil
		}
		return &predicate.Term{Field: name, Value: value.Normalize()}, nil
	case operator.EXISTS:
		return &predicate.Exists{Field: name}, nil
	case operator.NotExists:
		return &predicate.NotExists{Field: name}, nil
	case operator.GT:
		return &predicate.Range{Field: name, GT: value.Normalize()}, nil
	case operator.GTE:
		return &predicate.Range{Field: name, GTE: value.Normalize()}, nil
	case operator.LT:
		return &predicate.Range{Field: name, LT: value.Normalize()}, nil
	case operator.LTE:
		return &predicate.Range{Field: name, LTE: value.Normalize()}, nil
	case operator.LIKE:
		// A searchable field degrades LIKE to a phrase match on the pattern text as written:
		// `%` and `_` are not translated and match literally.
		if field.Phrase {
			return &predicate.Phrase{Field: name, Text: value.Normalize()}, nil
		}
		if value.Kind() != condition.KindString {
			return nil, qcerrors.Parse(value.Literal(), "LIKE expects a string pattern")
		}
		return &predicate.Wildcard{Field: name, Pattern: likePattern(value.Text())}, nil
	case operator.REGEXP:
		return regexPredicate(name, c.Values)
	case operator.IN:
		values := condition.NormalizeAll(c.Values)
		if field.Phrase {
			b := &predicate.Bool{}
			for _, v := range values {
				b.Should = append(b.Should, &predicate.Phrase{Field: name, Text: v})
			}
			return b, nil
		}
		return &predicate.Terms{Field: name, Values: values}, nil
	case operator.BETWEEN:
		if len(c.Values) != 2 {
			return nil, qcerrors.Parse(c.String(), "BETWEEN expects two bounds")
		}
		return &predicate.Range{Field: name, GTE: c.Values[0].Normalize(), LTE: c.Values[1].Normalize()}, nil
	case operator.TERM:
		values := condition.NormalizeAll(c.Values)
		if len(values) == 0 {
			return nil, qcerrors.Parse(c.String(), "term expects a value")
		}
		return &predicate.Term{Field: name, Value: values[0]}, nil
	case operator.TERMS:
		return &predicate.Terms{Field: name, Values: condition.NormalizeAll(c.Values)}, nil
	case operator.GeoIntersects, operator.GeoBoundingBox, operator.GeoDistance, operator.GeoPolygon:
		return geoPredicate(c.Op, name, c.Values)
	}
	return nil, qcerrors.Parse(c.String(), "operator %s is not supported here", c.Op)
}

// likePattern converts SQL wildcards to engine wildcards; &PERCENT and &UNDERSCORE escape literals.
func likePattern(s string) string {
	s = strings.NewReplacer("%", "*", "_", "?").Replace(s)
	return strings.NewReplacer("&PERCENT", "%", "&UNDERSCORE", "_").Replace(s)
}

func regexPredicate(name string, values []condition.Value) (predicate.Predicate, error) {
	if len(values) == 0 {
		return nil, qcerrors.Parse(name, "REGEXP expects a pattern")
	}
	r := &predicate.Regex{Field: name, Pattern: fmt.Sprint(values[0].Normalize()), MaxDeterminizedStates: config.MaxDeterminizedStates}
	if len(values) > 1 && values[1].Text() != "" {
		r.Flags = strings.Split(values[1].Text(), "|")
	}
	if len(values) > 2 {
		n, ok := values[2].Normalize().(int64)
		if !ok {
			return nil, qcerrors.Parse(values[2].Literal(), "max determinized states must be an integer")
		}
		r.MaxDeterminizedStates = int(n)
	}
	return r, nil
}

func scriptPredicate(c *condition.Condition) (predicate.Predicate, error) {
	s := c.Value().Script()
	if s == nil {
		return nil, qcerrors.Parse(c.String(), "script condition without script")
	}
	return &predicate.Script{Source: s.Source, Params: s.Params, Stored: s.Stored}, nil
}

func idsPredicate(c *condition.Condition) (predicate.Predicate, error) {
	values := condition.NormalizeAll(c.Values)
	ids := make([]string, len(values))
	for i, v := range values {
		ids[i] = fmt.Sprint(v)
	}
	return &predicate.Ids{Values: ids}, nil
}

// methodPredicate compiles full-text method values such as `name = match_phrase('x')`.
func methodPredicate(name string, m *condition.Method) (predicate.Predicate, error) {
	if len(m.Args) == 0 {
		return nil, qcerrors.Parse(m.Name, "full-text method expects a query text")
	}
	text := fmt.Sprint(m.Args[0].Normalize())
	switch strings.ToLower(m.Name) {
	case "query":
		return &predicate.QueryString{Query: text}, nil
	case "matchquery", "match_query":
		return &predicate.Match{Field: name, Text: text}, nil
	case "matchphrasequery", "match_phrase", "matchphrase":
		return &predicate.Phrase{Field: name, Text: text}, nil
	case "matchphraseprefix", "matchphraseprefixquery", "match_phrase_prefix":
		return &predicate.MatchPhrasePrefix{Field: name, Text: text}, nil
	case "wildcardquery", "wildcard_query":
		return &predicate.Wildcard{Field: name, Pattern: text}, nil
	}
	return nil, qcerrors.Parse(m.Name, "unsupported query method")
}

var fullTextMethods = map[string]struct{}{
	"query": {}, "matchquery": {}, "match_query": {}, "matchphrasequery": {}, "match_phrase": {}, "matchphrase": {},
	"matchphraseprefix": {}, "matchphraseprefixquery": {}, "match_phrase_prefix": {}, "wildcardquery": {}, "wildcard_query": {},
}

// IsFullTextMethod reports whether name is a method handled by methodPredicate.
func IsFullTextMethod(name string) bool {
	_, ok := fullTextMethods[strings.ToLower(name)]
	return ok
}

// FullTextMethods returns the names of the full-text methods.
func FullTextMethods() []string {
	out := make([]string, 0, len(fullTextMethods))
	for name := range fullTextMethods {
		out = append(out, name)
	}
	return out
}
