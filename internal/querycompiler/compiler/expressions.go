package compiler

import (
	"strings"

	"github.com/temporalio/sqlparser"

	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/condition"
	qcerrors "github.com/mogudian/elasticsearch-orm/internal/querycompiler/errors"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/sqltext"
)

// unparen strips any number of enclosing parentheses.
func unparen(expr sqlparser.Expr) sqlparser.Expr {
	for {
		p, ok := expr.(*sqlparser.ParenExpr)
		if !ok {
			return expr
		}
		expr = p.Expr
	}
}

// render prints a parse tree node back as clause text for error messages.
func render(node sqlparser.SQLNode) string {
	if node == nil {
		return ""
	}
	return sqlparser.String(node)
}

func funcName(f *sqlparser.FuncExpr) string {
	return f.Name.Lowered()
}

// funcArgs returns the plain expressions of a call; `*` arguments are rejected.
func funcArgs(f *sqlparser.FuncExpr) ([]sqlparser.Expr, error) {
	out := make([]sqlparser.Expr, 0, len(f.Exprs))
	for _, se := range f.Exprs {
		ae, ok := se.(*sqlparser.AliasedExpr)
		if !ok {
			return nil, qcerrors.Parse(render(f), "unsupported argument %s", render(se))
		}
		out = append(out, ae.Expr)
	}
	return out, nil
}

func isFunc(expr sqlparser.Expr, names ...string) (*sqlparser.FuncExpr, bool) {
	f, ok := unparen(expr).(*sqlparser.FuncExpr)
	if !ok {
		return nil, false
	}
	if len(names) == 0 {
		return f, true
	}
	name := funcName(f)
	for _, n := range names {
		if name == n {
			return f, true
		}
	}
	return nil, false
}

// isCast reports whether expr is a CAST in either of its spellings.
func isCast(expr sqlparser.Expr) bool {
	switch e := unparen(expr).(type) {
	case *sqlparser.ConvertExpr:
		return true
	case *sqlparser.FuncExpr:
		return funcName(e) == sqltext.CastFunction
	}
	return false
}

// isLiteral reports whether expr is a constant: a string, number, boolean or NULL.
func isLiteral(expr sqlparser.Expr) bool {
	switch e := unparen(expr).(type) {
	case *sqlparser.SQLVal:
		return e.Type == sqlparser.StrVal || e.Type == sqlparser.IntVal || e.Type == sqlparser.FloatVal
	case *sqlparser.NullVal, sqlparser.BoolVal:
		return true
	case *sqlparser.UnaryExpr:
		return isNegativeNumber(e)
	}
	return false
}

func isNegativeNumber(e *sqlparser.UnaryExpr) bool {
	if e.Operator != sqlparser.UMinusStr {
		return false
	}
	v, ok := unparen(e.Expr).(*sqlparser.SQLVal)
	return ok && (v.Type == sqlparser.IntVal || v.Type == sqlparser.FloatVal)
}

// isComputed reports whether expr needs a script to be evaluated: a function call other than
// a relationship wrapper, a CASE, a CAST or arithmetic.
func isComputed(expr sqlparser.Expr) bool {
	switch e := unparen(expr).(type) {
	case *sqlparser.FuncExpr:
		name := funcName(e)
		return name != "nested" && name != "children"
	case *sqlparser.CaseExpr, *sqlparser.ConvertExpr, *sqlparser.BinaryExpr:
		return true
	}
	return false
}

// columnName returns the dotted name of a column. A qualifier naming the queried table
// is dropped.
func columnName(c *sqlparser.ColName) string {
	name := c.Name.String()
	if c.Qualifier.IsEmpty() {
		return name
	}
	q := c.Qualifier.Name.String()
	if !c.Qualifier.Qualifier.IsEmpty() {
		q = c.Qualifier.Qualifier.String() + "." + q
	}
	if q == clauseTable {
		return name
	}
	return q + "." + name
}

// identifier returns the column name of expr, also accepting a quoted string.
func identifier(expr sqlparser.Expr) (string, bool) {
	switch e := unparen(expr).(type) {
	case *sqlparser.ColName:
		return columnName(e), true
	case *sqlparser.SQLVal:
		if e.Type == sqlparser.StrVal {
			return string(e.Val), true
		}
	}
	return "", false
}

func isMissingColumn(expr sqlparser.Expr) bool {
	c, ok := unparen(expr).(*sqlparser.ColName)
	return ok && c.Qualifier.IsEmpty() && c.Name.Lowered() == "missing"
}

// literal converts a constant expression into a tagged value.
func literal(expr sqlparser.Expr) (condition.Value, error) {
	switch e := unparen(expr).(type) {
	case *sqlparser.SQLVal:
		switch e.Type {
		case sqlparser.StrVal:
			return condition.String(string(e.Val)), nil
		case sqlparser.IntVal:
			v, err := condition.Integer(string(e.Val))
			if err != nil {
				return condition.Value{}, qcerrors.Parse(string(e.Val), "%v", err)
			}
			return v, nil
		case sqlparser.FloatVal:
			v, err := condition.Number(string(e.Val))
			if err != nil {
				return condition.Value{}, qcerrors.Parse(string(e.Val), "%v", err)
			}
			return v, nil
		case sqlparser.ValArg:
			return condition.Value{}, qcerrors.Parse(string(e.Val), "unbound placeholder")
		}
		return condition.Value{}, qcerrors.Parse(render(e), "unsupported literal")
	case *sqlparser.NullVal:
		return condition.Null(), nil
	case sqlparser.BoolVal:
		return condition.Bool(bool(e)), nil
	case *sqlparser.UnaryExpr:
		if isNegativeNumber(e) {
			v := unparen(e.Expr).(*sqlparser.SQLVal)
			return literal(&sqlparser.SQLVal{Type: v.Type, Val: append([]byte("-"), v.Val...)})
		}
	}
	return condition.Value{}, qcerrors.Parse(render(expr), "expected a literal")
}

// scriptLiteral renders a constant as it appears in a painless expression.
func scriptLiteral(expr sqlparser.Expr) (string, error) {
	v, err := literal(expr)
	if err != nil {
		return "", err
	}
	return v.Literal(), nil
}

func isStringLiteral(expr sqlparser.Expr) bool {
	v, ok := unparen(expr).(*sqlparser.SQLVal)
	return ok && v.Type == sqlparser.StrVal
}

// scriptSymbol maps a SQL comparison operator onto painless.
func scriptSymbol(op string) (string, bool) {
	switch strings.ToLower(op) {
	case sqlparser.EqualStr:
		return "==", true
	case sqlparser.NotEqualStr, "<>":
		return "!=", true
	case sqlparser.LessThanStr, sqlparser.GreaterThanStr, sqlparser.LessEqualStr, sqlparser.GreaterEqualStr:
		return op, true
	}
	return "", false
}
