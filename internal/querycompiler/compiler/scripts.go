package compiler

import (
	"strings"

	"github.com/temporalio/sqlparser"

	qcerrors "github.com/mogudian/elasticsearch-orm/internal/querycompiler/errors"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/script"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/sqltext"
)

var arithmetic = map[string]string{
	sqlparser.PlusStr:  "add",
	sqlparser.MinusStr: "subtract",
	sqlparser.MultStr:  "multiply",
	sqlparser.DivStr:   "divide",
	sqlparser.ModStr:   "modulus",
}

// operand renders one side of a computed comparison as a declaration plus the expression
// that references it.
func (b *whereBuilder) operand(expr sqlparser.Expr) (decl string, ref string, err error) {
	switch e := unparen(expr).(type) {
	case *sqlparser.ColName:
		ref, err = b.docValue(columnName(e))
		return "", ref, err
	case *sqlparser.FuncExpr:
		if n := funcName(e); n == "nested" || n == "children" {
			return "", "", qcerrors.Parse(render(e), "%s cannot be compared inside a script", n)
		}
	}
	if isLiteral(expr) {
		ref, err = scriptLiteral(expr)
		return "", ref, err
	}
	f, err := b.fragment(expr, false)
	if err != nil {
		return "", "", err
	}
	return f.Source, f.Name, nil
}

// fragment generates the script of a computed expression: a function call, arithmetic,
// a CAST or a CASE.
func (b *whereBuilder) fragment(expr sqlparser.Expr, outermost bool) (script.Fragment, error) {
	switch e := unparen(expr).(type) {
	case *sqlparser.FuncExpr:
		if funcName(e) == sqltext.CastFunction {
			return b.castFunction(e, outermost)
		}
		args, err := funcArgs(e)
		if err != nil {
			return script.Fragment{}, err
		}
		sargs, err := b.scriptArgs(args)
		if err != nil {
			return script.Fragment{}, err
		}
		return script.Emit(funcName(e), sargs, outermost)
	case *sqlparser.BinaryExpr:
		fn, ok := arithmetic[e.Operator]
		if !ok {
			return script.Fragment{}, qcerrors.Parse(render(e), "unsupported arithmetic operator %s", e.Operator)
		}
		sargs, err := b.scriptArgs([]sqlparser.Expr{e.Left, e.Right})
		if err != nil {
			return script.Fragment{}, err
		}
		return script.Emit(fn, sargs, outermost)
	case *sqlparser.ConvertExpr:
		return b.convert(e, outermost)
	case *sqlparser.CaseExpr:
		return b.caseFragment(e)
	}
	return script.Fragment{}, qcerrors.Parse(render(expr), "cannot evaluate expression in a script")
}

func (b *whereBuilder) scriptArgs(exprs []sqlparser.Expr) ([]script.Arg, error) {
	out := make([]script.Arg, 0, len(exprs))
	for _, x := range exprs {
		a, err := b.scriptArg(x)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (b *whereBuilder) scriptArg(expr sqlparser.Expr) (script.Arg, error) {
	switch e := unparen(expr).(type) {
	case *sqlparser.ColName:
		name := columnName(e)
		if strings.EqualFold(name, "default") {
			return script.Default(), nil
		}
		phys, err := b.physical(name)
		if err != nil {
			return script.Arg{}, err
		}
		return script.Field(phys), nil
	case *sqlparser.SQLVal:
		switch e.Type {
		case sqlparser.StrVal:
			return script.String(string(e.Val)), nil
		case sqlparser.IntVal, sqlparser.FloatVal:
			return script.Number(string(e.Val)), nil
		}
	case *sqlparser.UnaryExpr:
		if isNegativeNumber(e) {
			return script.Number("-" + string(unparen(e.Expr).(*sqlparser.SQLVal).Val)), nil
		}
	case *sqlparser.NullVal:
		return script.Raw("null"), nil
	case sqlparser.BoolVal:
		if e {
			return script.Raw("true"), nil
		}
		return script.Raw("false"), nil
	case *sqlparser.ComparisonExpr:
		return b.conditionArg(e)
	case *sqlparser.FuncExpr, *sqlparser.BinaryExpr, *sqlparser.ConvertExpr, *sqlparser.CaseExpr:
		f, err := b.fragment(e, false)
		if err != nil {
			return script.Arg{}, err
		}
		return script.Nested(f), nil
	}
	return script.Arg{}, qcerrors.Parse(render(expr), "unsupported function argument")
}

// conditionArg converts the test of if(...) or case_new(...): `field <op> literal` or
// `field IN (...)`.
func (b *whereBuilder) conditionArg(e *sqlparser.ComparisonExpr) (script.Arg, error) {
	col, ok := unparen(e.Left).(*sqlparser.ColName)
	if !ok {
		return script.Arg{}, qcerrors.Parse(render(e), "a condition argument must test a property")
	}
	phys, err := b.physical(columnName(col))
	if err != nil {
		return script.Arg{}, err
	}
	if e.Operator == sqlparser.InStr {
		tuple, ok := unparen(e.Right).(sqlparser.ValTuple)
		if !ok {
			return script.Arg{}, qcerrors.Parse(render(e), "IN expects a list of values")
		}
		values := make([]string, len(tuple))
		for i, x := range tuple {
			if values[i], err = scriptLiteral(x); err != nil {
				return script.Arg{}, err
			}
		}
		return script.InList(phys, values), nil
	}
	sym, ok := scriptSymbol(e.Operator)
	if !ok {
		return script.Arg{}, qcerrors.Parse(render(e), "unsupported operator %s in a condition argument", e.Operator)
	}
	value, err := scriptLiteral(e.Right)
	if err != nil {
		return script.Arg{}, err
	}
	return script.Condition(phys, sym, value), nil
}
