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

// Package script generates painless source fragments for computed values: arithmetic,
// math and string functions, conditionals and field access used inside WHERE comparisons,
// CASE expressions and script sorts.
//
// Every generated fragment declares one variable named <function>_<n>, where n comes from a
// process-wide counter so that fragments compiled concurrently never collide.
package script

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	qcerrors "github.com/mogudian/elasticsearch-orm/internal/querycompiler/errors"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/logger"
)

// ArgKind tags an Arg.
type ArgKind int

const (
	// ArgField references a document field: doc['name'].getValue().
	ArgField ArgKind = iota
	// ArgNumber is a bare numeric literal.
	ArgNumber
	// ArgString is a string literal; Text holds it unquoted.
	ArgString
	// ArgFragment is the output of a nested function call.
	ArgFragment
	// ArgCondition is a `field <op> value` comparison used by if and case_new.
	ArgCondition
	// ArgInList is a `field IN (...)` test used by if.
	ArgInList
	// ArgDefault is the default keyword of case_new.
	ArgDefault
	// ArgRaw is script text inserted as is.
	ArgRaw
)

// Arg is one argument of a function call.
type Arg struct {
	Kind ArgKind
	// Text is the field name, the literal text or the raw script.
	Text string
	// Fragment is set for ArgFragment.
	Fragment *Fragment
	// Op and Value describe an ArgCondition; Value is already rendered as a literal.
	Op    string
	Value string
	// Values are the rendered literals of an ArgInList.
	Values []string
}

func Field(name string) Arg  { return Arg{Kind: ArgField, Text: name} }
func Number(text string) Arg { return Arg{Kind: ArgNumber, Text: text} }
func String(text string) Arg { return Arg{Kind: ArgString, Text: text} }
func Raw(text string) Arg    { return Arg{Kind: ArgRaw, Text: text} }
func Default() Arg           { return Arg{Kind: ArgDefault, Text: "default"} }
func Nested(f Fragment) Arg  { return Arg{Kind: ArgFragment, Fragment: &f} }
func InList(field string, values []string) Arg {
	return Arg{Kind: ArgInList, Text: field, Values: values}
}

// Condition builds an ArgCondition.
func Condition(field, op, value string) Arg {
	return Arg{Kind: ArgCondition, Text: field, Op: op, Value: value}
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// Quote renders s as a single-quoted painless string literal.
func Quote(s string) string {
	return "'" + quoteEscaper.Replace(s) + "'"
}

// Literal renders a literal argument as it appears in a generated script.
func (a Arg) Literal() string {
	switch a.Kind {
	case ArgString:
		return Quote(a.Text)
	case ArgFragment:
		return a.Fragment.Name
	}
	return a.Text
}

// Fragment is a generated script: Source declares Name.
type Fragment struct {
	Name   string
	Source string
}

var seq atomic.Uint64

// NewName returns a fresh variable name for function. Every script variable, whichever
// translator declares it, takes its name from here.
func NewName(function string) string {
	return function + "_" + strconv.FormatUint(seq.Add(1), 10)
}

type template func(name string, args []Arg) (string, error)

type builtin struct {
	minArgs int
	// returns is false for functions whose source already yields the value.
	returns bool
	render  template
}

var builtins map[string]builtin

func init() {
	builtins = map[string]builtin{
		"add":         {2, true, binary("+")},
		"subtract":    {2, true, binary("-")},
		"multiply":    {2, true, binary("*")},
		"divide":      {2, true, binary("/")},
		"modulus":     {2, true, binary("%")},
		"exp":         {1, true, mathSingle("Math.exp")},
		"sqrt":        {1, true, mathSingle("Math.sqrt")},
		"cbrt":        {1, true, mathSingle("Math.cbrt")},
		"ceil":        {1, true, mathSingle("Math.ceil")},
		"floor":       {1, true, mathSingle("Math.floor")},
		"rint":        {1, true, mathSingle("Math.rint")},
		"abs":         {1, true, mathSingle("Math.abs")},
		"round":       {1, true, round},
		"pow":         {2, true, pow},
		"log":         {1, true, logarithm("")},
		"log2":        {1, true, logarithm("2")},
		"log10":       {1, true, logarithm("10")},
		"split":       {2, true, split},
		"substring":   {3, true, substring},
		"trim":        {1, true, trim},
		"concat_ws":   {2, true, concatWs},
		"date_format": {2, true, dateFormat},
		"field":       {1, true, field},
		"max_bw":      {2, true, between("Math.max")},
		"min_bw":      {2, true, between("Math.min")},
		"if":          {3, false, ifElse},
		"coalesce":    {1, false, coalesce},
		"case_new":    {2, false, caseNew},
		"parse":       {3, false, parse},
	}
}

// IsBuiltin reports whether name is a script function known to the generator.
func IsBuiltin(name string) bool {
	_, ok := builtins[strings.ToLower(name)]
	return ok || strings.EqualFold(name, "random")
}

// Builtins returns the names of every script function.
func Builtins() []string {
	out := make([]string, 0, len(builtins)+1)
	for name := range builtins {
		out = append(out, name)
	}
	return append(out, "random")
}

// Emit generates the fragment for function applied to args.
//
// When outermost is true the fragment ends with `;return <name>;` so it can be used directly
// as a script body; if, coalesce, parse and case_new already yield their value and are left as is.
func Emit(function string, args []Arg, outermost bool) (Fragment, error) {
	fn := strings.ToLower(function)
	if fn == "random" {
		return Fragment{}, qcerrors.Parse(function, "function random is not supported in scripts")
	}
	b, ok := builtins[fn]
	if !ok {
		return Fragment{}, qcerrors.Parse(function, "unknown script function")
	}
	if len(args) < b.minArgs {
		return Fragment{}, qcerrors.Parse(function, "function %s expects at least %d arguments, got %d", fn, b.minArgs, len(args))
	}
	name := NewName(fn)
	src, err := b.render(name, args)
	if err != nil {
		return Fragment{}, err
	}
	if outermost && b.returns {
		src += ";return " + name + ";"
	}
	logger.LogDebug(fmt.Sprintf("generated %s: %s", name, src))
	return Fragment{Name: name, Source: src}, nil
}

// doc renders the value accessor of a document field.
func doc(field string) string {
	return "doc['" + field + "'].getValue()"
}

// operand returns the declaration needed before using a, and the expression referencing it.
func operand(a Arg) (decl string, ref string) {
	switch a.Kind {
	case ArgField:
		return "", doc(a.Text)
	case ArgFragment:
		return a.Fragment.Source, a.Fragment.Name
	}
	return "", a.Literal()
}

// numericGuard converts a generated intermediate to a number when it holds a string.
func numericGuard(a Arg) string {
	if a.Kind != ArgFragment {
		return ""
	}
	n := a.Fragment.Name
	return " if( " + n + " instanceof String) " + n + "= Double.parseDouble(" + n + "); "
}
