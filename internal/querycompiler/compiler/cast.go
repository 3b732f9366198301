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
	"strings"

	"github.com/temporalio/sqlparser"

	qcerrors "github.com/mogudian/elasticsearch-orm/internal/querycompiler/errors"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/script"
)

// castTypes maps accepted type spellings onto the runtime type the script converts to.
var castTypes = map[string]string{
	"int":              "int",
	"integer":          "int",
	"signed":           "int",
	"signed integer":   "int",
	"long":             "long",
	"unsigned":         "long",
	"unsigned integer": "long",
	"float":            "float",
	"double":           "double",
	"decimal":          "double",
	"string":           "string",
	"char":             "string",
	"nchar":            "string",
	"binary":           "string",
	"datetime":         "datetime",
	"date":             "datetime",
}

var castTemplates = map[string]string{
	"int":      "Double.parseDouble(%s.toString()).intValue()",
	"long":     "Double.parseDouble(%s.toString()).longValue()",
	"float":    "Double.parseDouble(%s.toString()).floatValue()",
	"double":   "Double.parseDouble(%s.toString()).doubleValue()",
	"string":   "%s.toString()",
	"datetime": "new Date(Double.parseDouble(%s.toString()).longValue())",
}

// castFunction handles cast_to(field, 'type'), the rewritten form of CAST(field AS type).
func (b *whereBuilder) castFunction(f *sqlparser.FuncExpr, outermost bool) (script.Fragment, error) {
	args, err := funcArgs(f)
	if err != nil {
		return script.Fragment{}, err
	}
	if len(args) != 2 || !isStringLiteral(args[1]) {
		return script.Fragment{}, qcerrors.Parse(render(f), "malformed CAST")
	}
	return b.cast(args[0], string(unparen(args[1]).(*sqlparser.SQLVal).Val), outermost)
}

// convert handles CONVERT(field, type).
func (b *whereBuilder) convert(e *sqlparser.ConvertExpr, outermost bool) (script.Fragment, error) {
	if e.Type == nil {
		return script.Fragment{}, qcerrors.Parse(render(e), "CAST without type")
	}
	return b.cast(e.Expr, e.Type.Type, outermost)
}

// cast renders `def field_N = <conversion of doc['f'].value>`, followed by `; return field_N`
// when the cast is the whole script.
func (b *whereBuilder) cast(expr sqlparser.Expr, typ string, outermost bool) (script.Fragment, error) {
	target, ok := castTypes[strings.ToLower(strings.Join(strings.Fields(typ), " "))]
	if !ok {
		return script.Fragment{}, &qcerrors.UnsupportedCast{Type: typ}
	}
	col, ok := unparen(expr).(*sqlparser.ColName)
	if !ok {
		return script.Fragment{}, qcerrors.Parse(render(expr), "only properties can be cast")
	}
	value, err := b.docValue(columnName(col))
	if err != nil {
		return script.Fragment{}, err
	}
	name := script.NewName("field")
	src := "def " + name + " = " + strings.Replace(castTemplates[target], "%s", value, 1)
	if outermost {
		src += "; return " + name
	}
	return script.Fragment{Name: name, Source: src}, nil
}
