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

package predicate

// Direction of a sort.
type Direction string

const (
	ASC  Direction = "asc"
	DESC Direction = "desc"
)

// Sort is either a field sort (Field set) or a script sort (Script set).
type Sort struct {
	Field      string    `json:"field,omitempty"`
	NestedPath string    `json:"nestedPath,omitempty"`
	Script     string    `json:"script,omitempty"`
	ScriptType string    `json:"scriptType,omitempty"`
	Direction  Direction `json:"direction"`
}

// IsScript reports whether s sorts by a script.
func (s Sort) IsScript() bool {
	return s.Script != ""
}

// Page is the pagination window. A nil Size means the backend default.
type Page struct {
	Offset int  `json:"offset"`
	Size   *int `json:"size,omitempty"`
}

// Highlight asks the backend to mark the matched terms of Fields in the returned documents.
type Highlight struct {
	PreTag       string   `json:"preTag"`
	PostTag      string   `json:"postTag"`
	Fields       []string `json:"fields"`
	FragmentSize int      `json:"fragmentSize"`
}

// InnerHits returns the nested or child documents that matched, next to each hit.
type InnerHits struct {
	Name   string   `json:"name,omitempty"`
	From   int      `json:"from,omitempty"`
	Size   *int     `json:"size,omitempty"`
	Sorts  []Sort   `json:"sorts,omitempty"`
	Source []string `json:"source,omitempty"`
}

// QueryPlan is the compiled form of a clause.
type QueryPlan struct {
	EntityType string     `json:"entityType"`
	Index      string     `json:"index,omitempty"`
	Query      Predicate  `json:"-"`
	Sorts      []Sort     `json:"sorts,omitempty"`
	Page       Page       `json:"page"`
	Highlight  *Highlight `json:"highlight,omitempty"`
	// Scoring is true when relevance scores are requested; the query is then not wrapped in a filter.
	Scoring bool `json:"scoring"`
}
