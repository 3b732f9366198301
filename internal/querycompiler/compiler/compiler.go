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

// Package compiler compiles SQL clauses (WHERE, ORDER BY and LIMIT, with function calls, CASE,
// CAST and nested/children relationships) into backend-neutral query plans.
//
// A clause goes through placeholder substitution and lexical normalization, is parsed by the
// SQL front-end as `select * from docs <clause>`, and the WHERE expression is then built into a
// condition tree which the querymaker compiles into a predicate tree.
package compiler

import (
	"fmt"
	"strings"
	"time"

	"github.com/temporalio/sqlparser"

	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/config"
	qcerrors "github.com/mogudian/elasticsearch-orm/internal/querycompiler/errors"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/logger"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/metadata"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/operator"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/predicate"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/querymaker"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/script"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/sqltext"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/structured"
)

// clauseTable is the table name the clause is parsed against.
const clauseTable = "docs"

// SubqueryResolver returns the values selected by a sub-select, rendered back as SQL text.
type SubqueryResolver func(query string) ([]any, error)

// Lifecycle restricts a search to documents whose lifecycle field lies in [Start, End).
// A zero bound is open.
type Lifecycle struct {
	Start time.Time
	End   time.Time
}

// Highlight asks for the matches in the searchable fields of the entity to be marked with
// PreTag and PostTag. Empty tags select the backend defaults.
type Highlight struct {
	PreTag  string
	PostTag string
}

// Options tune a single compilation.
type Options struct {
	// Params replace the `?` placeholders of the clause in order.
	Params []any
	// Scoring keeps relevance scoring; by default the query runs in filter context.
	Scoring bool
	// Lifecycle adds a range on the entity's lifecycle field.
	Lifecycle *Lifecycle
	// Subqueries resolves sub-selects; a clause with a sub-select fails without it.
	Subqueries SubqueryResolver
	// DateLayout formats time.Time parameters; empty means the compiler default.
	DateLayout string
	// Highlight requests highlighted fragments of the searchable fields.
	Highlight *Highlight
}

// Compiler compiles clauses against the entity types known to a resolver. It holds no
// per-request state and is safe for concurrent use.
type Compiler struct {
	resolver   metadata.Resolver
	dateLayout string
	functions  map[string]struct{}
}

// New creates a compiler. An empty dateLayout selects config.DefaultDateLayout.
func New(resolver metadata.Resolver, dateLayout string) *Compiler {
	if dateLayout == "" {
		dateLayout = config.DefaultDateLayout
	}
	functions := make(map[string]struct{})
	names := append(script.Builtins(), conditionFunctions()...)
	names = append(names, operator.MethodNames()...)
	names = append(names, querymaker.FullTextMethods()...)
	names = append(names, sqltext.CastFunction)
	for _, n := range names {
		functions[strings.ToLower(n)] = struct{}{}
	}
	return &Compiler{resolver: resolver, dateLayout: dateLayout, functions: functions}
}

// Compile compiles clause for entityType.
func (c *Compiler) Compile(entityType, clause string, opts Options) (*predicate.QueryPlan, error) {
	plan, err := c.compile(entityType, clause, opts)
	if err != nil {
		logger.LogCompileFailure(entityType, err)
		return nil, err
	}
	return plan, nil
}

func (c *Compiler) compile(entityType, clause string, opts Options) (*predicate.QueryPlan, error) {
	entity, err := c.resolver.Entity(entityType)
	if err != nil {
		return nil, err
	}
	sel, err := c.parse(clause, opts)
	if err != nil {
		return nil, err
	}

	b := &whereBuilder{entity: entityType, resolver: c.resolver, subqueries: opts.Subqueries}
	var whereExpr sqlparser.Expr
	if sel.Where != nil {
		whereExpr = sel.Where.Expr
	}
	where, err := b.build(whereExpr)
	if err != nil {
		return nil, err
	}
	sorts, byScore, err := b.orderBy(sel.OrderBy)
	if err != nil {
		return nil, err
	}
	page, err := limit(sel.Limit)
	if err != nil {
		return nil, err
	}
	scoring := opts.Scoring || byScore

	query, err := querymaker.New(c.resolver, entityType).Make(where, scoring)
	if err != nil {
		return nil, err
	}
	extra, err := c.implicitFilters(entity, opts.Lifecycle)
	if err != nil {
		return nil, err
	}
	query = withFilters(query, extra, scoring)

	logger.LogDebug(fmt.Sprintf("compiled %s clause %q: %s", entityType, clause, where))
	return &predicate.QueryPlan{
		EntityType: entityType,
		Index:      entity.IndexName(),
		Query:      query,
		Sorts:      sorts,
		Page:       page,
		Highlight:  highlight(entity, opts.Highlight),
		Scoring:    scoring,
	}, nil
}

// CompileStructured compiles a structured request for entityType. Highlighting only applies
// when the request carries a keyword.
func (c *Compiler) CompileStructured(entityType string, req structured.Request, opts Options) (*predicate.QueryPlan, error) {
	plan, err := c.compileStructured(entityType, req, opts)
	if err != nil {
		logger.LogCompileFailure(entityType, err)
		return nil, err
	}
	return plan, nil
}

func (c *Compiler) compileStructured(entityType string, req structured.Request, opts Options) (*predicate.QueryPlan, error) {
	entity, err := c.resolver.Entity(entityType)
	if err != nil {
		return nil, err
	}
	b := structured.NewBuilder(c.resolver, entityType)
	root, err := b.Query(req)
	if err != nil {
		return nil, err
	}
	sorts, byScore, err := b.Sorts(req.Sorts)
	if err != nil {
		return nil, err
	}
	scoring := opts.Scoring || byScore

	var query predicate.Predicate = root
	if !scoring && !root.Empty() {
		query = &predicate.Bool{Filter: []predicate.Predicate{root}}
	}
	extra, err := c.implicitFilters(entity, opts.Lifecycle)
	if err != nil {
		return nil, err
	}
	query = withFilters(query, extra, scoring)

	plan := &predicate.QueryPlan{
		EntityType: entityType,
		Index:      entity.IndexName(),
		Query:      query,
		Sorts:      sorts,
		Scoring:    scoring,
	}
	if p := req.Pagination; p != nil {
		size := p.Size()
		plan.Page = predicate.Page{Offset: p.Offset(), Size: &size}
	}
	if strings.TrimSpace(req.Keyword) != "" {
		plan.Highlight = highlight(entity, opts.Highlight)
	}
	logger.LogDebug(fmt.Sprintf("compiled structured %s request: %v", entityType, predicate.Describe(query)))
	return plan, nil
}

// parse prepares the clause text and parses it. A clause that does not start with WHERE,
// ORDER BY or LIMIT is taken as a WHERE expression.
func (c *Compiler) parse(clause string, opts Options) (*sqlparser.Select, error) {
	layout := opts.DateLayout
	if layout == "" {
		layout = c.dateLayout
	}
	text, err := sqltext.SQL{Text: clause, Params: opts.Params}.Render(layout)
	if err != nil {
		return nil, err
	}
	if text, err = sqltext.RewriteCasts(text); err != nil {
		return nil, err
	}
	text = sqltext.Normalize(strings.TrimSpace(text), c.functions)
	if fields := strings.Fields(text); len(fields) > 0 {
		switch strings.ToLower(fields[0]) {
		case "where", "order", "limit":
		default:
			text = "where " + text
		}
	}

	stmt, err := sqlparser.Parse("select * from " + clauseTable + " " + text)
	if err != nil {
		return nil, &qcerrors.ParseError{Fragment: clause, Reason: err.Error()}
	}
	sel, ok := stmt.(*sqlparser.Select)
	if !ok {
		return nil, &qcerrors.ParseError{Fragment: clause, Reason: "not a search clause"}
	}
	if len(sel.GroupBy) > 0 || sel.Having != nil {
		return nil, &qcerrors.ParseError{Fragment: clause, Reason: "GROUP BY and HAVING are not supported"}
	}
	return sel, nil
}

// implicitFilters returns the entity discriminator and the lifecycle range.
func (c *Compiler) implicitFilters(entity metadata.EntityType, lc *Lifecycle) ([]predicate.Predicate, error) {
	var out []predicate.Predicate
	if d := discriminator(entity); d != nil {
		out = append(out, d)
	}
	if lc == nil {
		return out, nil
	}
	lf, err := c.resolver.LifecycleField(entity.Name)
	if err != nil {
		return nil, err
	}
	r := &predicate.Range{Field: lf.Name}
	if !lc.Start.IsZero() {
		r.GTE = lc.Start.UnixMilli()
	}
	if !lc.End.IsZero() {
		r.LT = lc.End.UnixMilli()
	}
	return append(out, r), nil
}

// ExpiryPlan builds the query selecting documents of entityType whose lifecycle field is older
// than now minus the retention of that field.
func (c *Compiler) ExpiryPlan(entityType string, now time.Time) (*predicate.QueryPlan, error) {
	entity, err := c.resolver.Entity(entityType)
	if err != nil {
		return nil, err
	}
	lf, err := c.resolver.LifecycleField(entityType)
	if err != nil {
		return nil, err
	}
	if lf.Retention <= 0 {
		return nil, fmt.Errorf("%w: %s declares no retention", qcerrors.ErrNoLifecycleField, entityType)
	}
	filters := []predicate.Predicate{&predicate.Range{Field: lf.Name, LT: now.Add(-lf.Retention).UnixMilli()}}
	if d := discriminator(entity); d != nil {
		filters = append(filters, d)
	}
	return &predicate.QueryPlan{
		EntityType: entityType,
		Index:      entity.IndexName(),
		Query:      &predicate.Bool{Filter: filters},
	}, nil
}

// highlight covers every searchable field of entity; nil when nothing was asked for or
// nothing can be highlighted.
func highlight(entity metadata.EntityType, h *Highlight) *predicate.Highlight {
	if h == nil {
		return nil
	}
	fields := entity.SearchFields()
	if len(fields) == 0 {
		return nil
	}
	return &predicate.Highlight{
		PreTag:       h.PreTag,
		PostTag:      h.PostTag,
		Fields:       fields,
		FragmentSize: config.HighlightFragmentSize,
	}
}

func discriminator(entity metadata.EntityType) predicate.Predicate {
	if entity.TypeValue == "" {
		return nil
	}
	field := entity.TypeField
	if field == "" {
		field = config.DefaultTypeField
	}
	return &predicate.Term{Field: field, Value: entity.TypeValue}
}

// withFilters adds non-scoring clauses to the compiled query.
func withFilters(query predicate.Predicate, filters []predicate.Predicate, scoring bool) predicate.Predicate {
	if len(filters) == 0 {
		return query
	}
	b, isBool := query.(*predicate.Bool)
	if isBool && !scoring {
		b.Filter = append(b.Filter, filters...)
		return b
	}
	out := &predicate.Bool{Filter: filters}
	if !isBool || !b.Empty() {
		out.Must = []predicate.Predicate{query}
	}
	return out
}
