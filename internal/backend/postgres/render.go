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

// Package postgres runs compiled query plans against documents stored as JSONB rows.
//
// Every searchable index is a table with an id column, a JSONB document column, the
// document type and, for child documents, the id of their parent. Predicates are rendered
// into goqu expressions over the document column; nested predicates become EXISTS
// sub-selects over jsonb_array_elements and has-child predicates EXISTS sub-selects over
// the same table.
package postgres

import (
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // register the postgres dialect
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/mogudian/elasticsearch-orm/internal/common"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/config"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/predicate"
)

const dialect = "postgres"

func newDialect() goqu.DialectWrapper {
	return goqu.Dialect(dialect)
}

// ErrUnsupported is returned for predicates and sorts without a SQL rendition.
var ErrUnsupported = common.NewErrBadRequest("not supported by the postgres backend")

// Columns names the columns of a document table.
type Columns struct {
	ID     string
	Doc    string
	Type   string
	Parent string
}

// DefaultColumns is the layout created by Store.EnsureTable.
var DefaultColumns = Columns{ID: "id", Doc: "doc", Type: "doc_type", Parent: "parent_id"}

// Renderer translates predicates into goqu expressions for one table.
type Renderer struct {
	Table   string
	Columns Columns
}

// NewRenderer creates a renderer for table using DefaultColumns.
func NewRenderer(table string) Renderer {
	return Renderer{Table: table, Columns: DefaultColumns}
}

// scope is the document the fields of a predicate are read from.
type scope struct {
	// row is the alias of the table row, used for id and parent joins.
	row string
	// doc is the JSONB value fields are extracted from.
	doc exp.Expression
	// prefix is stripped from field names inside a nested scope.
	prefix string
	depth  int
}

func (r Renderer) root() scope {
	return scope{row: "d", doc: goqu.I("d." + r.Columns.Doc)}
}

// Select builds the search statement of a plan.
func (r Renderer) Select(plan *predicate.QueryPlan) (*goqu.SelectDataset, error) {
	where, err := r.Where(plan.Query)
	if err != nil {
		return nil, err
	}
	ds := newDialect().
		From(goqu.T(r.Table).As("d")).
		Select(goqu.I("d."+r.Columns.ID), goqu.I("d."+r.Columns.Doc)).
		Where(where)
	order, err := r.OrderBy(plan.Sorts)
	if err != nil {
		return nil, err
	}
	if len(order) > 0 {
		ds = ds.Order(order...)
	}
	if plan.Page.Offset > 0 {
		ds = ds.Offset(uint(plan.Page.Offset))
	}
	if plan.Page.Size != nil {
		ds = ds.Limit(uint(*plan.Page.Size))
	}
	return ds, nil
}

// Count builds the statement counting the matches of a plan, ignoring its page.
func (r Renderer) Count(plan *predicate.QueryPlan) (*goqu.SelectDataset, error) {
	where, err := r.Where(plan.Query)
	if err != nil {
		return nil, err
	}
	return newDialect().
		From(goqu.T(r.Table).As("d")).
		Select(goqu.COUNT(goqu.Star())).
		Where(where), nil
}

// Delete builds the statement deleting the matches of a plan.
func (r Renderer) Delete(plan *predicate.QueryPlan) (*goqu.DeleteDataset, error) {
	where, err := r.Where(plan.Query)
	if err != nil {
		return nil, err
	}
	ids := newDialect().
		From(goqu.T(r.Table).As("d")).
		Select(goqu.I("d." + r.Columns.ID)).
		Where(where)
	return newDialect().
		Delete(goqu.T(r.Table)).
		Where(goqu.I(r.Columns.ID).In(ids)), nil
}

// Where renders p as a boolean SQL expression.
func (r Renderer) Where(p predicate.Predicate) (exp.Expression, error) {
	return r.render(r.root(), p)
}

func (r Renderer) render(s scope, p predicate.Predicate) (exp.Expression, error) {
	switch v := p.(type) {
	case *predicate.Bool:
		return r.boolean(s, v)
	case *predicate.Term:
		return accessor(s, v.Field, v.Value).Eq(v.Value), nil
	case *predicate.Phrase:
		return goqu.L("to_tsvector('simple', ?) @@ phraseto_tsquery('simple', ?)", text(s, v.Field), fmt.Sprint(v.Text)), nil
	case *predicate.Match:
		return goqu.L("to_tsvector('simple', ?) @@ plainto_tsquery('simple', ?)", text(s, v.Field), v.Text), nil
	case *predicate.MatchPhrasePrefix:
		return text(s, v.Field).ILike(v.Text + "%"), nil
	case *predicate.QueryString:
		return goqu.L("to_tsvector('simple', ?::text) @@ websearch_to_tsquery('simple', ?)", s.doc, v.Query), nil
	case *predicate.Wildcard:
		return text(s, v.Field).Like(likePattern(v.Pattern)), nil
	case *predicate.Regex:
		return text(s, v.Field).RegexpLike(v.Pattern), nil
	case *predicate.Range:
		return rangeExpression(s, v), nil
	case *predicate.Terms:
		if len(v.Values) == 0 {
			return goqu.L("FALSE"), nil
		}
		return accessor(s, v.Field, v.Values[0]).In(v.Values...), nil
	case *predicate.Exists:
		return goqu.L("? #> ?", s.doc, path(s, v.Field)).IsNotNull(), nil
	case *predicate.NotExists:
		return goqu.L("? #> ?", s.doc, path(s, v.Field)).IsNull(), nil
	case *predicate.Ids:
		ids := make([]any, len(v.Values))
		for i, id := range v.Values {
			ids[i] = id
		}
		return goqu.I(s.row + "." + r.Columns.ID).In(ids...), nil
	case *predicate.Nested:
		return r.nested(s, v)
	case *predicate.HasRelationship:
		return r.hasChild(s, v)
	}
	return nil, fmt.Errorf("%w: %s predicate", ErrUnsupported, p.Kind())
}

// boolean renders must and filter clauses as AND, should clauses as an OR of their own and
// mustNot clauses as negations.
func (r Renderer) boolean(s scope, b *predicate.Bool) (exp.Expression, error) {
	if b.Empty() {
		return goqu.L("TRUE"), nil
	}
	var all []exp.Expression
	for _, group := range [][]predicate.Predicate{b.Must, b.Filter} {
		for _, c := range group {
			e, err := r.render(s, c)
			if err != nil {
				return nil, err
			}
			all = append(all, e)
		}
	}
	if len(b.Should) > 0 {
		either := make([]exp.Expression, 0, len(b.Should))
		for _, c := range b.Should {
			e, err := r.render(s, c)
			if err != nil {
				return nil, err
			}
			either = append(either, e)
		}
		all = append(all, goqu.Or(either...))
	}
	for _, c := range b.MustNot {
		e, err := r.render(s, c)
		if err != nil {
			return nil, err
		}
		all = append(all, goqu.L("NOT (?)", e))
	}
	return goqu.And(all...), nil
}

func (r Renderer) nested(s scope, n *predicate.Nested) (exp.Expression, error) {
	alias := fmt.Sprintf("e%d", s.depth+1)
	inner := scope{row: s.row, doc: goqu.I(alias + ".value"), prefix: n.Path + ".", depth: s.depth + 1}
	cond, err := r.render(inner, n.Inner)
	if err != nil {
		return nil, err
	}
	ds := newDialect().
		From(goqu.L("jsonb_array_elements(? #> ?)", s.doc, path(s, n.Path)).As(alias)).
		Select(goqu.L("1")).
		Where(cond)
	return goqu.L("EXISTS (?)", ds), nil
}

func (r Renderer) hasChild(s scope, h *predicate.HasRelationship) (exp.Expression, error) {
	alias := fmt.Sprintf("c%d", s.depth+1)
	inner := scope{row: alias, doc: goqu.I(alias + "." + r.Columns.Doc), depth: s.depth + 1}
	cond, err := r.render(inner, h.Inner)
	if err != nil {
		return nil, err
	}
	ds := newDialect().
		From(goqu.T(r.Table).As(alias)).
		Select(goqu.L("1")).
		Where(
			goqu.I(alias+"."+r.Columns.Parent).Eq(goqu.I(s.row+"."+r.Columns.ID)),
			goqu.I(alias+"."+r.Columns.Type).Eq(h.Type),
			cond,
		)
	return goqu.L("EXISTS (?)", ds), nil
}

// OrderBy renders field sorts. Script, nested and score sorts have no SQL rendition.
func (r Renderer) OrderBy(sorts []predicate.Sort) ([]exp.OrderedExpression, error) {
	out := make([]exp.OrderedExpression, 0, len(sorts))
	s := r.root()
	for _, sort := range sorts {
		if sort.IsScript() || sort.NestedPath != "" || sort.Field == config.ScoreField {
			return nil, fmt.Errorf("%w: sort on %s", ErrUnsupported, sortName(sort))
		}
		e := text(s, sort.Field)
		if sort.Direction == predicate.DESC {
			out = append(out, e.Desc())
		} else {
			out = append(out, e.Asc())
		}
	}
	return out, nil
}

func sortName(s predicate.Sort) string {
	if s.IsScript() {
		return "script"
	}
	return s.Field
}

func rangeExpression(s scope, v *predicate.Range) exp.Expression {
	var bounds []exp.Expression
	add := func(value any, cmp func(exp.LiteralExpression, any) exp.Expression) {
		if value != nil {
			bounds = append(bounds, cmp(accessor(s, v.Field, value), value))
		}
	}
	add(v.GT, func(l exp.LiteralExpression, x any) exp.Expression { return l.Gt(x) })
	add(v.GTE, func(l exp.LiteralExpression, x any) exp.Expression { return l.Gte(x) })
	add(v.LT, func(l exp.LiteralExpression, x any) exp.Expression { return l.Lt(x) })
	add(v.LTE, func(l exp.LiteralExpression, x any) exp.Expression { return l.Lte(x) })
	if len(bounds) == 1 {
		return bounds[0]
	}
	return goqu.And(bounds...)
}

// path renders a field as a JSONB path array literal, relative to the scope.
func path(s scope, field string) string {
	field = strings.TrimPrefix(field, s.prefix)
	return "{" + strings.Join(strings.Split(field, "."), ",") + "}"
}

func text(s scope, field string) exp.LiteralExpression {
	return goqu.L("? #>> ?", s.doc, path(s, field))
}

// accessor extracts a field cast to the SQL type matching the compared value.
func accessor(s scope, field string, sample any) exp.LiteralExpression {
	switch sample.(type) {
	case int, int32, int64, float32, float64:
		return goqu.L("(? #>> ?)::numeric", s.doc, path(s, field))
	case bool:
		return goqu.L("(? #>> ?)::boolean", s.doc, path(s, field))
	}
	return text(s, field)
}

// likePattern turns engine wildcards back into SQL LIKE wildcards.
func likePattern(p string) string {
	return strings.NewReplacer("%", `\%`, "_", `\_`, "*", "%", "?", "_").Replace(p)
}
