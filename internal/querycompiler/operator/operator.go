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

// Package operator defines the closed set of comparison operators understood by the
// query compiler and the negation table used to push NOT through a condition tree.
package operator

import (
	"fmt"
	"strings"

	"github.com/temporalio/sqlparser"

	qcerrors "github.com/mogudian/elasticsearch-orm/internal/querycompiler/errors"
)

// Operator is a comparison operator of a single condition.
type Operator string

const (
	EQ              Operator = "="
	NEQ             Operator = "!="
	GT              Operator = ">"
	GTE             Operator = ">="
	LT              Operator = "<"
	LTE             Operator = "<="
	LIKE            Operator = "LIKE"
	NotLike         Operator = "NOT_LIKE"
	REGEXP          Operator = "REGEXP"
	NotRegexp       Operator = "NOT_REGEXP"
	IN              Operator = "IN"
	NotIn           Operator = "NOT_IN"
	TERM            Operator = "TERM"
	NotTerm         Operator = "NOT_TERM"
	TERMS           Operator = "TERMS"
	NotTerms        Operator = "NOT_TERMS"
	BETWEEN         Operator = "BETWEEN"
	NotBetween      Operator = "NOT_BETWEEN"
	EXISTS          Operator = "EXISTS"
	NotExists       Operator = "NOT_EXISTS"
	GeoIntersects   Operator = "GEO_INTERSECTS"
	GeoBoundingBox  Operator = "GEO_BOUNDING_BOX"
	GeoDistance     Operator = "GEO_DISTANCE"
	GeoPolygon      Operator = "GEO_POLYGON"
	Relationship    Operator = "RELATIONSHIP"
	NotRelationship Operator = "NOT_RELATIONSHIP"
	IDS             Operator = "IDS"
	SCRIPT          Operator = "SCRIPT"
)

// negations is registered one way only; init mirrors every entry.
var negations = map[Operator]Operator{
	EQ:           NEQ,
	GT:           LTE,
	LT:           GTE,
	LIKE:         NotLike,
	REGEXP:       NotRegexp,
	IN:           NotIn,
	TERM:         NotTerm,
	TERMS:        NotTerms,
	BETWEEN:      NotBetween,
	EXISTS:       NotExists,
	Relationship: NotRelationship,
}

// negative lists operators that are compiled as a mustNot wrapper around their positive form.
var negative = map[Operator]Operator{
	NEQ:        EQ,
	NotIn:      IN,
	NotBetween: BETWEEN,
	NotLike:    LIKE,
	NotTerms:   TERMS,
	NotTerm:    TERM,
	NotRegexp:  REGEXP,
}

var all = []Operator{
	EQ, NEQ, GT, GTE, LT, LTE, LIKE, NotLike, REGEXP, NotRegexp, IN, NotIn,
	TERM, NotTerm, TERMS, NotTerms, BETWEEN, NotBetween, EXISTS, NotExists,
	GeoIntersects, GeoBoundingBox, GeoDistance, GeoPolygon,
	Relationship, NotRelationship, IDS, SCRIPT,
}

func init() {
	for k, v := range negations {
		if _, ok := negations[v]; !ok {
			negations[v] = k
		}
	}
}

// All returns every known operator in declaration order.
func All() []Operator {
	out := make([]Operator, len(all))
	copy(out, all)
	return out
}

// Negate returns the logical complement of op.
//
// Geo predicates, IDS and SCRIPT have no complement and produce an UnsupportedNegation error.
func Negate(op Operator) (Operator, error) {
	if n, ok := negations[op]; ok {
		return n, nil
	}
	return "", &qcerrors.UnsupportedNegation{Operator: string(op)}
}

// IsNegative reports whether op is compiled by wrapping its positive form in a mustNot clause.
func IsNegative(op Operator) bool {
	_, ok := negative[op]
	return ok
}

// Positive returns the operator that a negative operator wraps. Other operators are returned unchanged.
func Positive(op Operator) Operator {
	if p, ok := negative[op]; ok {
		return p
	}
	return op
}

// IsGeo reports whether op is one of the geo predicates.
func IsGeo(op Operator) bool {
	switch op {
	case GeoIntersects, GeoBoundingBox, GeoDistance, GeoPolygon:
		return true
	}
	return false
}

// FromSQL maps a comparison operator as produced by the SQL front-end.
func FromSQL(op string) (Operator, error) {
	switch strings.ToLower(op) {
	case sqlparser.EqualStr:
		return EQ, nil
	case sqlparser.NotEqualStr, "<>":
		return NEQ, nil
	case sqlparser.GreaterThanStr:
		return GT, nil
	case sqlparser.GreaterEqualStr:
		return GTE, nil
	case sqlparser.LessThanStr:
		return LT, nil
	case sqlparser.LessEqualStr:
		return LTE, nil
	case sqlparser.LikeStr:
		return LIKE, nil
	case sqlparser.NotLikeStr:
		return NotLike, nil
	case sqlparser.RegexpStr:
		return REGEXP, nil
	case sqlparser.NotRegexpStr:
		return NotRegexp, nil
	case sqlparser.InStr:
		return IN, nil
	case sqlparser.NotInStr:
		return NotIn, nil
	case sqlparser.BetweenStr:
		return BETWEEN, nil
	case sqlparser.NotBetweenStr:
		return NotBetween, nil
	}
	return "", &qcerrors.ParseError{Fragment: op, Reason: "unsupported comparison operator"}
}

// FromMethod maps a right-hand method call such as `a = term('x')` to its operator.
// negated is true when the comparison was written with `!=`. ok is false when name is not a
// method operator.
func FromMethod(name string, negated bool) (op Operator, ok bool, err error) {
	switch strings.ToLower(name) {
	case "term", "matchterm", "match_term":
		op = TERM
	case "terms", "in_terms":
		op = TERMS
	case "ids", "ids_query":
		op = IDS
	case "regexp", "regexp_query":
		op = REGEXP
	default:
		return "", false, nil
	}
	if !negated {
		return op, true, nil
	}
	n, err := Negate(op)
	if err != nil {
		return "", true, err
	}
	return n, true, nil
}

// MethodNames returns the method names accepted by FromMethod.
func MethodNames() []string {
	return []string{"term", "matchterm", "match_term", "terms", "in_terms", "ids", "ids_query", "regexp", "regexp_query"}
}

// ScriptSymbol renders op as a painless comparison symbol.
func ScriptSymbol(op string) string {
	switch op {
	case "=", "==":
		return "=="
	case "<>":
		return "!="
	}
	return op
}

func (o Operator) String() string {
	return string(o)
}

// Validate reports an error when o is not a known operator.
func (o Operator) Validate() error {
	for _, k := range all {
		if k == o {
			return nil
		}
	}
	return fmt.Errorf("unknown operator %q", string(o))
}
