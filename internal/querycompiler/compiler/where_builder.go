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

package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/temporalio/sqlparser"

	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/condition"
	qcerrors "github.com/mogudian/elasticsearch-orm/internal/querycompiler/errors"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/metadata"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/operator"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/querymaker"
)

// whereBuilder turns a WHERE expression into a condition tree.
type whereBuilder struct {
	entity     string
	resolver   metadata.Resolver
	subqueries SubqueryResolver
	// nestedPath is set while building the condition of nested(path, <cond>).
	nestedPath string
}

func (b *whereBuilder) build(expr sqlparser.Expr) (*condition.Group, error) {
	root := &condition.Group{Conn: condition.AND}
	if expr == nil {
		return root, nil
	}
	if err := b.parse(expr, root); err != nil {
		return nil, err
	}
	return root, nil
}

// parse adds the conditions of expr to g. Children joined by the top-level operator of expr
// take that operator as their connector.
func (b *whereBuilder) parse(expr sqlparser.Expr, g *condition.Group) error {
	switch e := unparen(expr).(type) {
	case *sqlparser.AndExpr:
		return b.route(condition.AND, []sqlparser.Expr{e.Left, e.Right}, g)
	case *sqlparser.OrExpr:
		return b.route(condition.OR, []sqlparser.Expr{e.Left, e.Right}, g)
	case *sqlparser.NotExpr:
		negated, err := b.negated(condition.AND, e.Expr)
		if err != nil {
			return err
		}
		g.Add(negated)
		return nil
	default:
		return b.explain(condition.AND, e, g)
	}
}

// route places each operand of a logical operator: an operand with the same operator is
// flattened into g, one with a different operator gets its own group.
func (b *whereBuilder) route(conn condition.Conn, operands []sqlparser.Expr, g *condition.Group) error {
	for _, sub := range operands {
		sub = unparen(sub)
		switch e := sub.(type) {
		case *sqlparser.AndExpr, *sqlparser.OrExpr:
			subConn := condition.AND
			if _, isOr := e.(*sqlparser.OrExpr); isOr {
				subConn = condition.OR
			}
			if subConn == conn {
				if err := b.parse(e, g); err != nil {
					return err
				}
				continue
			}
			child := &condition.Group{Conn: conn}
			if err := b.parse(e, child); err != nil {
				return err
			}
			g.Add(child)
		case *sqlparser.NotExpr:
			negated, err := b.negated(conn, e.Expr)
			if err != nil {
				return err
			}
			g.Add(negated)
		default:
			if err := b.explain(conn, e, g); err != nil {
				return err
			}
		}
	}
	return nil
}

// negated builds expr into a fresh group joined with conn and returns the group with every
// child negated.
func (b *whereBuilder) negated(conn condition.Conn, expr sqlparser.Expr) (*condition.Group, error) {
	tmp := &condition.Group{Conn: conn}
	if err := b.parse(expr, tmp); err != nil {
		return nil, err
	}
	children, err := condition.NegateChildren(tmp)
	if err != nil {
		return nil, fmt.Errorf("NOT %s: %w", render(expr), err)
	}
	return &condition.Group{Conn: conn, Children: children}, nil
}

// explain turns one leaf expression into a condition.
func (b *whereBuilder) explain(conn condition.Conn, expr sqlparser.Expr, g *condition.Group) error {
	var (
		c   *condition.Condition
		err error
	)
	switch e := expr.(type) {
	case *sqlparser.ComparisonExpr:
		c, err = b.comparison(e)
	case *sqlparser.RangeCond:
		c, err = b.between(e)
	case *sqlparser.IsExpr:
		c, err = b.is(e)
	case *sqlparser.FuncExpr:
		c, err = b.function(e)
	default:
		err = qcerrors.Parse(render(expr), "unsupported condition")
	}
	if err != nil {
		return err
	}
	c.Conn = conn
	g.Add(c)
	return nil
}

func (b *whereBuilder) comparison(e *sqlparser.ComparisonExpr) (*condition.Condition, error) {
	if e.Operator == sqlparser.InStr || e.Operator == sqlparser.NotInStr {
		return b.in(e)
	}
	if isLiteral(e.Left) && isLiteral(e.Right) {
		return b.literalScript(e)
	}
	_, leftCol := unparen(e.Left).(*sqlparser.ColName)
	_, rightCol := unparen(e.Right).(*sqlparser.ColName)
	if leftCol && rightCol && !isMissingColumn(e.Right) {
		return b.columnScript(e)
	}
	if isComputed(e.Left) || (isComputed(e.Right) && !b.isMethodOperand(e.Right)) {
		return b.compareScript(e)
	}

	field, rel, err := b.leftSide(e.Left)
	if err != nil {
		return nil, err
	}
	negated := e.Operator == sqlparser.NotEqualStr || e.Operator == "<>"

	if f, ok := isFunc(e.Right); ok {
		name := funcName(f)
		op, isOp, err := operator.FromMethod(name, negated)
		if err != nil {
			return nil, err
		}
		if isOp || querymaker.IsFullTextMethod(name) {
			if e.Operator != sqlparser.EqualStr && !negated {
				return nil, qcerrors.Parse(render(e), "query methods can only be compared with = or !=")
			}
			args, err := funcArgs(f)
			if err != nil {
				return nil, err
			}
			values, err := b.values(args)
			if err != nil {
				return nil, err
			}
			if isOp {
				return &condition.Condition{Field: field, Op: op, Values: values, Relation: rel}, nil
			}
			op = operator.EQ
			if negated {
				op = operator.NEQ
			}
			return &condition.Condition{
				Field:    field,
				Op:       op,
				Values:   []condition.Value{condition.MethodValue(condition.Method{Name: name, Args: values})},
				Relation: rel,
			}, nil
		}
	}

	op, err := operator.FromSQL(e.Operator)
	if err != nil {
		return nil, err
	}
	value, err := b.value(e.Right)
	if err != nil {
		return nil, err
	}
	return &condition.Condition{Field: field, Op: op, Values: value, Relation: rel}, nil
}

// isMethodOperand reports whether expr is a query method that the engine evaluates natively.
func (b *whereBuilder) isMethodOperand(expr sqlparser.Expr) bool {
	f, ok := isFunc(expr)
	if !ok {
		return false
	}
	name := funcName(f)
	if querymaker.IsFullTextMethod(name) {
		return true
	}
	_, isOp, _ := operator.FromMethod(name, false)
	return isOp
}

func (b *whereBuilder) in(e *sqlparser.ComparisonExpr) (*condition.Condition, error) {
	op := operator.IN
	if e.Operator == sqlparser.NotInStr {
		op = operator.NotIn
	}
	values, err := b.value(e.Right)
	if err != nil {
		return nil, err
	}
	if ce, ok := unparen(e.Left).(*sqlparser.CaseExpr); ok {
		src, err := b.caseInScript(ce, values)
		if err != nil {
			return nil, err
		}
		return &condition.Condition{Op: op, Values: values, CaseScript: src}, nil
	}
	field, rel, err := b.leftSide(e.Left)
	if err != nil {
		return nil, err
	}
	return &condition.Condition{Field: field, Op: op, Values: values, Relation: rel}, nil
}

func (b *whereBuilder) between(e *sqlparser.RangeCond) (*condition.Condition, error) {
	op := operator.BETWEEN
	if e.Operator == sqlparser.NotBetweenStr {
		op = operator.NotBetween
	}
	field, rel, err := b.leftSide(e.Left)
	if err != nil {
		return nil, err
	}
	from, err := literal(e.From)
	if err != nil {
		return nil, err
	}
	to, err := literal(e.To)
	if err != nil {
		return nil, err
	}
	return &condition.Condition{Field: field, Op: op, Values: []condition.Value{from, to}, Relation: rel}, nil
}

func (b *whereBuilder) is(e *sqlparser.IsExpr) (*condition.Condition, error) {
	var op operator.Operator
	switch e.Operator {
	case sqlparser.IsNullStr:
		op = operator.NotExists
	case sqlparser.IsNotNullStr:
		op = operator.EXISTS
	default:
		return nil, qcerrors.Parse(render(e), "unsupported IS test")
	}
	field, rel, err := b.leftSide(e.Expr)
	if err != nil {
		return nil, err
	}
	return &condition.Condition{Field: field, Op: op, Relation: rel}, nil
}

// leftSide returns the logical field compared by a condition, unwrapping the simple forms
// nested(path.field), nested(path, field) and children(type, field).
func (b *whereBuilder) leftSide(expr sqlparser.Expr) (string, *condition.Relation, error) {
	switch e := unparen(expr).(type) {
	case *sqlparser.ColName:
		return columnName(e), nil, nil
	case *sqlparser.FuncExpr:
		switch funcName(e) {
		case "nested":
			return b.simpleNested(e)
		case "children":
			return b.simpleChildren(e)
		}
	}
	return "", nil, qcerrors.Parse(render(expr), "expected a property on the left side")
}

// value converts the right side of a comparison; a tuple or a sub-select yields several values.
func (b *whereBuilder) value(expr sqlparser.Expr) ([]condition.Value, error) {
	switch e := unparen(expr).(type) {
	case sqlparser.ValTuple:
		return b.values(e)
	case *sqlparser.Subquery:
		v, err := b.subquery(e)
		if err != nil {
			return nil, err
		}
		return []condition.Value{v}, nil
	case *sqlparser.ColName:
		return []condition.Value{condition.Identifier(columnName(e))}, nil
	}
	v, err := literal(expr)
	if err != nil {
		return nil, err
	}
	return []condition.Value{v}, nil
}

func (b *whereBuilder) values(exprs []sqlparser.Expr) ([]condition.Value, error) {
	out := make([]condition.Value, 0, len(exprs))
	for _, x := range exprs {
		vs, err := b.value(x)
		if err != nil {
			return nil, err
		}
		out = append(out, vs...)
	}
	return out, nil
}

func (b *whereBuilder) subquery(s *sqlparser.Subquery) (condition.Value, error) {
	query := render(s.Select)
	if b.subqueries == nil {
		return condition.Value{}, fmt.Errorf("%w: %s", qcerrors.ErrSubqueryResolverMissing, query)
	}
	rows, err := b.subqueries(query)
	if err != nil {
		return condition.Value{}, fmt.Errorf("resolving sub-select %s: %w", query, err)
	}
	return condition.Subquery(rows), nil
}

// physical resolves a property for use inside a script, retrying relative to the enclosing
// nested path.
func (b *whereBuilder) physical(name string) (string, error) {
	f, err := b.resolver.Resolve(b.entity, name)
	if err == nil {
		return f.Name, nil
	}
	var fe *qcerrors.FieldResolutionError
	if b.nestedPath == "" || !errors.As(err, &fe) {
		return "", err
	}
	rel, relErr := b.resolver.Resolve(b.entity, b.nestedPath+"."+name)
	if relErr != nil {
		return "", err
	}
	return rel.Name, nil
}

// docValue renders the painless accessor of a property.
func (b *whereBuilder) docValue(name string) (string, error) {
	phys, err := b.physical(name)
	if err != nil {
		return "", err
	}
	return "doc['" + phys + "'].value", nil
}

// literalScript handles comparisons between two constants, such as 1 = 1.
func (b *whereBuilder) literalScript(e *sqlparser.ComparisonExpr) (*condition.Condition, error) {
	sym, ok := scriptSymbol(e.Operator)
	if !ok {
		return nil, qcerrors.Parse(render(e), "operator %s cannot compare two constants", e.Operator)
	}
	left, err := scriptLiteral(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := scriptLiteral(e.Right)
	if err != nil {
		return nil, err
	}
	return scriptCondition(left + " " + sym + " " + right), nil
}

// columnScript handles comparisons between two properties, which no native predicate can express.
func (b *whereBuilder) columnScript(e *sqlparser.ComparisonExpr) (*condition.Condition, error) {
	sym, ok := scriptSymbol(e.Operator)
	if !ok {
		return nil, qcerrors.Parse(render(e), "operator %s cannot compare two properties", e.Operator)
	}
	left, err := b.docValue(columnName(unparen(e.Left).(*sqlparser.ColName)))
	if err != nil {
		return nil, err
	}
	right, err := b.docValue(columnName(unparen(e.Right).(*sqlparser.ColName)))
	if err != nil {
		return nil, err
	}
	return scriptCondition(left + " " + sym + " " + right), nil
}

// compareScript handles comparisons with a computed side:
// `<decl>;((Comparable)<left>).compareTo(<right>) <op> 0`.
func (b *whereBuilder) compareScript(e *sqlparser.ComparisonExpr) (*condition.Condition, error) {
	sym, ok := scriptSymbol(e.Operator)
	if !ok {
		return nil, qcerrors.Parse(render(e), "operator %s cannot compare computed values", e.Operator)
	}
	var decls strings.Builder
	refs := make([]string, 2)
	for i, side := range []sqlparser.Expr{e.Left, e.Right} {
		decl, ref, err := b.operand(side)
		if err != nil {
			return nil, err
		}
		if decl != "" {
			decls.WriteString(decl)
			decls.WriteString(";")
		}
		refs[i] = ref
	}
	return scriptCondition(fmt.Sprintf("%s((Comparable)%s).compareTo(%s) %s 0", decls.String(), refs[0], refs[1], sym)), nil
}

func scriptCondition(source string) *condition.Condition {
	return &condition.Condition{
		Op:     operator.SCRIPT,
		Values: []condition.Value{condition.ScriptValue(condition.Script{Source: source})},
	}
}
