package compiler

import (
	"strings"

	"github.com/temporalio/sqlparser"

	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/config"
	qcerrors "github.com/mogudian/elasticsearch-orm/internal/querycompiler/errors"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/predicate"
)

// stringFunctions yield text; every other script function is sorted numerically.
var stringFunctions = map[string]bool{
	"split":       true,
	"substring":   true,
	"trim":        true,
	"concat_ws":   true,
	"date_format": true,
	"parse":       true,
}

// orderBy converts ORDER BY items into sorts. scoring reports whether `_score` was used.
func (b *whereBuilder) orderBy(items sqlparser.OrderBy) (sorts []predicate.Sort, scoring bool, err error) {
	for _, item := range items {
		dir := predicate.ASC
		if strings.EqualFold(item.Direction, sqlparser.DescScr) {
			dir = predicate.DESC
		}
		s, err := b.sort(item.Expr)
		if err != nil {
			return nil, false, err
		}
		s.Direction = dir
		if s.Field == config.ScoreField {
			scoring = true
		}
		sorts = append(sorts, s)
	}
	return sorts, scoring, nil
}

func (b *whereBuilder) sort(expr sqlparser.Expr) (predicate.Sort, error) {
	switch e := unparen(expr).(type) {
	case *sqlparser.ColName:
		name := columnName(e)
		phys, err := b.physical(name)
		if err != nil {
			return predicate.Sort{}, err
		}
		return predicate.Sort{Field: phys}, nil
	case *sqlparser.FuncExpr:
		if funcName(e) == "nested" {
			return b.nestedSort(e)
		}
		return b.scriptSort(e, numberOrString(e))
	case *sqlparser.CaseExpr:
		src, err := b.caseScript(e)
		if err != nil {
			return predicate.Sort{}, err
		}
		return predicate.Sort{Script: src, ScriptType: caseSortType(e)}, nil
	case *sqlparser.ConvertExpr, *sqlparser.BinaryExpr:
		return b.scriptSort(e, "number")
	}
	return predicate.Sort{}, qcerrors.Parse(render(expr), "unsupported ORDER BY expression")
}

// nestedSort sorts on a field of nested documents: nested(path.field) or nested(path, field).
func (b *whereBuilder) nestedSort(f *sqlparser.FuncExpr) (predicate.Sort, error) {
	field, rel, err := b.simpleNested(f)
	if err != nil {
		return predicate.Sort{}, err
	}
	phys, err := b.physical(field)
	if err != nil {
		return predicate.Sort{}, err
	}
	path, err := b.physical(rel.Path)
	if err != nil {
		return predicate.Sort{}, err
	}
	return predicate.Sort{Field: phys, NestedPath: path}, nil
}

func (b *whereBuilder) scriptSort(expr sqlparser.Expr, typ string) (predicate.Sort, error) {
	f, err := b.fragment(expr, true)
	if err != nil {
		return predicate.Sort{}, err
	}
	return predicate.Sort{Script: f.Source, ScriptType: typ}, nil
}

// numberOrString guesses the sort type of a script function from what it returns.
func numberOrString(f *sqlparser.FuncExpr) string {
	name := funcName(f)
	if stringFunctions[name] {
		return "string"
	}
	args, err := funcArgs(f)
	if err != nil {
		return "number"
	}
	var results []sqlparser.Expr
	switch name {
	case "case_new":
		for i := 1; i < len(args); i += 2 {
			results = append(results, args[i])
		}
	case "if":
		if len(args) == 3 {
			results = args[1:]
		}
	case "coalesce":
		results = args
	}
	for _, r := range results {
		if isStringLiteral(r) {
			return "string"
		}
	}
	return "number"
}

func caseSortType(e *sqlparser.CaseExpr) string {
	for _, w := range e.Whens {
		if isStringLiteral(w.Val) {
			return "string"
		}
	}
	if e.Else != nil && isStringLiteral(e.Else) {
		return "string"
	}
	return "number"
}
