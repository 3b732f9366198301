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
	"fmt"
	"strings"

	"github.com/temporalio/sqlparser"

	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/condition"
	qcerrors "github.com/mogudian/elasticsearch-orm/internal/querycompiler/errors"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/operator"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/script"
)

// caseScript renders CASE as `if(c1){v1} else if(c2){v2} else {v3}`; a missing ELSE yields null.
func (b *whereBuilder) caseScript(e *sqlparser.CaseExpr) (string, error) {
	return b.caseChain(e, "")
}

// caseFragment renders CASE as a declared variable, for use inside a larger script.
func (b *whereBuilder) caseFragment(e *sqlparser.CaseExpr) (script.Fragment, error) {
	name := script.NewName("case")
	chain, err := b.caseChain(e, name)
	if err != nil {
		return script.Fragment{}, err
	}
	return script.Fragment{Name: name, Source: "def " + name + " = null; " + chain}, nil
}

// caseInScript renders `CASE ... END IN (values)` as a boolean script: the branch value is
// stored in a temporary which is then compared with every listed value.
func (b *whereBuilder) caseInScript(e *sqlparser.CaseExpr, values []condition.Value) (string, error) {
	flat := flattenValues(values)
	if len(flat) == 0 {
		return "", qcerrors.Parse(render(e), "IN expects at least one value")
	}
	chain, err := b.caseChain(e, "tmp")
	if err != nil {
		return "", err
	}
	tests := make([]string, len(flat))
	for i, v := range flat {
		tests[i] = "tmp == " + v.Literal()
	}
	return "String tmp = ''; " + chain + " return (" + strings.Join(tests, " || ") + ");", nil
}

// caseChain renders the if / else if / else chain. With assign set every branch assigns its
// value to that variable instead of yielding it.
func (b *whereBuilder) caseChain(e *sqlparser.CaseExpr, assign string) (string, error) {
	if len(e.Whens) == 0 {
		return "", qcerrors.Parse(render(e), "CASE without WHEN")
	}
	branch := func(v string) string {
		if assign == "" {
			return "{" + v + "}"
		}
		return "{" + assign + "=" + v + "}"
	}
	parts := make([]string, 0, len(e.Whens)+1)
	for i, w := range e.Whens {
		cond := w.Cond
		if e.Expr != nil {
			cond = &sqlparser.ComparisonExpr{Operator: sqlparser.EqualStr, Left: e.Expr, Right: w.Cond}
		}
		test, err := b.caseCondition(cond)
		if err != nil {
			return "", err
		}
		value, err := b.caseValue(w.Val)
		if err != nil {
			return "", err
		}
		prefix := "if("
		if i > 0 {
			prefix = "else if("
		}
		parts = append(parts, prefix+test+")"+branch(value))
	}
	if e.Else == nil {
		parts = append(parts, "else { null }")
	} else {
		value, err := b.caseValue(e.Else)
		if err != nil {
			return "", err
		}
		parts = append(parts, "else "+branch(value))
	}
	return strings.Join(parts, " "), nil
}

// caseValue renders the result of a branch.
func (b *whereBuilder) caseValue(expr sqlparser.Expr) (string, error) {
	switch e := unparen(expr).(type) {
	case *sqlparser.ColName:
		return b.docValue(columnName(e))
	case *sqlparser.BinaryExpr:
		l, lok := unparen(e.Left).(*sqlparser.ColName)
		r, rok := unparen(e.Right).(*sqlparser.ColName)
		if !lok || !rok {
			break
		}
		left, err := b.docValue(columnName(l))
		if err != nil {
			return "", err
		}
		right, err := b.docValue(columnName(r))
		if err != nil {
			return "", err
		}
		return left + e.Operator + right, nil
	}
	if isLiteral(expr) {
		return scriptLiteral(expr)
	}
	return "", qcerrors.Parse(render(expr), "CASE values must be properties or constants")
}

// caseCondition compiles a WHEN test through the where builder and renders the result as a
// painless boolean expression.
func (b *whereBuilder) caseCondition(expr sqlparser.Expr) (string, error) {
	where, err := b.build(expr)
	if err != nil {
		return "", err
	}
	return b.scriptTest(condition.Collapse(where))
}

func (b *whereBuilder) scriptTest(n condition.Node) (string, error) {
	switch v := n.(type) {
	case *condition.Condition:
		return b.scriptLeaf(v)
	case *condition.Group:
		var out strings.Builder
		for i, ch := range v.Children {
			test, err := b.scriptTest(condition.Collapse(ch))
			if err != nil {
				return "", err
			}
			if _, sub := condition.Collapse(ch).(*condition.Group); sub {
				test = "(" + test + ")"
			}
			if i > 0 {
				if ch.Connector() == condition.OR {
					out.WriteString(" || ")
				} else {
					out.WriteString(" && ")
				}
			}
			out.WriteString(test)
		}
		return out.String(), nil
	}
	return "", qcerrors.Parse(n.String(), "unexpected node")
}

func (b *whereBuilder) scriptLeaf(c *condition.Condition) (string, error) {
	if c.Op == operator.SCRIPT {
		return "Function.identity().compose((o)->{" + c.Value().Script().Source + "}).apply(null)", nil
	}
	if c.Relation != nil || c.CaseScript != "" {
		return "", qcerrors.Parse(c.String(), "condition cannot be evaluated in a script")
	}
	phys, err := b.physical(c.Field)
	if err != nil {
		return "", err
	}
	doc := "doc['" + phys + "']"
	value := doc + ".value"
	switch c.Op {
	case operator.BETWEEN, operator.NotBetween:
		test := "(" + value + " >= " + c.Values[0].Literal() + " && " + value + " <=" + c.Values[1].Literal() + ")"
		if c.Op == operator.NotBetween {
			test = "!" + test
		}
		return test, nil
	case operator.IN, operator.NotIn:
		flat := flattenValues(c.Values)
		if len(flat) == 0 {
			return "", qcerrors.Parse(c.String(), "IN expects at least one value")
		}
		sym, join := " == ", " || "
		if c.Op == operator.NotIn {
			sym, join = " != ", " && "
		}
		tests := make([]string, len(flat))
		for i, v := range flat {
			tests[i] = value + sym + v.Literal()
		}
		return "(" + strings.Join(tests, join) + ")", nil
	case operator.EXISTS:
		return "(!" + doc + ".empty)", nil
	case operator.NotExists:
		return "(" + doc + ".empty)", nil
	case operator.EQ, operator.NEQ, operator.GT, operator.GTE, operator.LT, operator.LTE:
		v := c.Value()
		if v.IsNull() {
			if c.Op == operator.NEQ {
				return "(!" + doc + ".empty)", nil
			}
			return "(" + doc + ".empty)", nil
		}
		right := v.Literal()
		if v.Kind() == condition.KindIdentifier {
			if right, err = b.docValue(v.Text()); err != nil {
				return "", err
			}
		}
		sym := string(c.Op)
		if c.Op == operator.EQ {
			sym = "=="
		}
		return "(" + value + sym + right + ")", nil
	}
	return "", qcerrors.Parse(c.String(), "operator %s cannot be evaluated in a script", c.Op)
}

// flattenValues expands resolved sub-selects into plain values.
func flattenValues(values []condition.Value) []condition.Value {
	out := make([]condition.Value, 0, len(values))
	for _, v := range values {
		if v.Kind() != condition.KindSubquery {
			out = append(out, v)
			continue
		}
		for _, raw := range v.SubqueryValues() {
			out = append(out, fromAny(raw))
		}
	}
	return out
}

// fromAny wraps a value returned by a subquery resolver.
func fromAny(raw any) condition.Value {
	switch x := raw.(type) {
	case nil:
		return condition.Null()
	case string:
		return condition.String(x)
	case bool:
		return condition.Bool(x)
	case int:
		return condition.Long(int64(x))
	case int32:
		return condition.Int(x)
	case int64:
		return condition.Long(x)
	case float32:
		return condition.Double(float64(x))
	case float64:
		return condition.Double(x)
	}
	return condition.String(fmt.Sprint(raw))
}
