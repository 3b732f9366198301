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

// Package structured compiles search requests written as data instead of SQL: a keyword
// searched over the full-text fields, exact field values, and a tree of logic and condition
// expressions.
package structured

// Logic joins the children of a logic expression.
const (
	LogicMust    = "MUST"
	LogicShould  = "SHOULD"
	LogicMustNot = "MUST_NOT"
)

// Condition operators. Each has an alias listed in the operator table of the builder.
const (
	OpTerm      = "TERM"
	OpTerms     = "TERMS"
	OpLike      = "LIKE"
	OpRange     = "RANGE"
	OpGT        = "GT"
	OpGTE       = "GTE"
	OpLT        = "LT"
	OpLTE       = "LTE"
	OpExists    = "EXISTS"
	OpNotExists = "NOT_EXISTS"
	OpNested    = "NESTED"
)

// Default pagination.
const (
	DefaultPageNo   = 1
	DefaultPageSize = 10
)

// Expression is either a logic expression (Logic set, or only Expressions given) joining
// Expressions, or a condition on Field.
//
// A NESTED condition names the nested property in Field and lists its conditions in
// Expressions; their fields are relative to the nested property.
type Expression struct {
	Logic       string        `json:"logic,omitempty"`
	Field       string        `json:"field,omitempty"`
	Operator    string        `json:"operator,omitempty"`
	Values      []interface{} `json:"values,omitempty"`
	Expressions []Expression  `json:"expressions,omitempty"`
}

// IsLogic reports whether e joins other expressions rather than testing a field.
func (e Expression) IsLogic() bool {
	return e.Logic != "" || (e.Field == "" && e.Operator == "" && len(e.Expressions) > 0)
}

// SortField orders the results by a logical property.
type SortField struct {
	Field      string `json:"field"`
	Descending bool   `json:"descending,omitempty"`
}

// Pagination selects a page. Page numbers start at 1; non-positive values select the defaults.
type Pagination struct {
	PageNo   int `json:"pageNo,omitempty"`
	PageSize int `json:"pageSize,omitempty"`
}

// Request is a structured search over one entity type. Every part is optional and all given
// parts must match.
type Request struct {
	// Keyword is searched as a phrase in every searchable property.
	Keyword string
	// Fields maps properties to the value they must hold; a list value matches any of its items.
	Fields map[string]interface{}
	// Where is a tree of logic and condition expressions.
	Where *Expression
	Sorts []SortField
	// Pagination is nil for the backend default window.
	Pagination *Pagination
}

// Offset is the number of documents before the page.
func (p Pagination) Offset() int {
	return (p.pageNo() - 1) * p.Size()
}

// Size is the page size.
func (p Pagination) Size() int {
	if p.PageSize > 0 {
		return p.PageSize
	}
	return DefaultPageSize
}

func (p Pagination) pageNo() int {
	if p.PageNo > 0 {
		return p.PageNo
	}
	return DefaultPageNo
}
