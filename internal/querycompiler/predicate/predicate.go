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

// Package predicate defines the backend-neutral boolean query tree produced by the compiler and
// the QueryPlan that carries it together with sorting and pagination.
package predicate

// Predicate is one node of the query tree.
type Predicate interface {
	// Kind names the predicate, matching the search-engine query type it maps to.
	Kind() string
	predicate()
}

// Term matches an exact value.
type Term struct {
	Field string
	Value any
}

// Phrase matches a phrase on an analyzed field.
type Phrase struct {
	Field string
	Text  any
}

// Wildcard matches a pattern with * and ? wildcards.
type Wildcard struct {
	Field   string
	Pattern string
}

// Regex matches a regular expression.
type Regex struct {
	Field                 string
	Pattern               string
	Flags                 []string
	MaxDeterminizedStates int
}

// Range bounds a field; nil bounds are open.
type Range struct {
	Field string
	GT    any
	GTE   any
	LT    any
	LTE   any
}

// Terms matches any of the values.
type Terms struct {
	Field  string
	Values []any
}

// Exists matches documents that have a value for Field.
type Exists struct {
	Field string
}

// NotExists matches documents without a value for Field.
type NotExists struct {
	Field string
}

// Ids matches document ids.
type Ids struct {
	Values []string
}

// Match is a full-text match query.
type Match struct {
	Field string
	Text  string
}

// MatchPhrasePrefix matches a phrase whose last term is a prefix.
type MatchPhrasePrefix struct {
	Field string
	Text  string
}

// QueryString is a query in the engine's query-string syntax.
type QueryString struct {
	Query string
}

// GeoDistance matches points within Distance of (Lat, Lon).
type GeoDistance struct {
	Field    string
	Distance string
	Lat      float64
	Lon      float64
}

// GeoBoundingBox matches points inside a box.
type GeoBoundingBox struct {
	Field  string
	Top    float64
	Left   float64
	Bottom float64
	Right  float64
}

// GeoPoint is a latitude/longitude pair.
type GeoPoint struct {
	Lat float64
	Lon float64
}

// GeoPolygon matches points inside a polygon.
type GeoPolygon struct {
	Field  string
	Points []GeoPoint
}

// GeoIntersects matches shapes intersecting a WKT shape.
type GeoIntersects struct {
	Field string
	WKT   string
}

// Nested applies Inner to the sub-documents under Path.
type Nested struct {
	Path      string
	Inner     Predicate
	InnerHits *InnerHits
}

// HasRelationship matches parents having a child of Type matching Inner.
type HasRelationship struct {
	Type      string
	Inner     Predicate
	InnerHits *InnerHits
}

// Script evaluates a script per document.
type Script struct {
	Source string
	Params map[string]any
	Stored bool
}

// Bool combines predicates. Filter clauses do not contribute to scoring.
type Bool struct {
	Must    []Predicate
	Should  []Predicate
	MustNot []Predicate
	Filter  []Predicate
}

// Empty reports whether b has no clauses at all.
func (b *Bool) Empty() bool {
	return len(b.Must) == 0 && len(b.Should) == 0 && len(b.MustNot) == 0 && len(b.Filter) == 0
}

func (*Term) Kind() string              { return "term" }
func (*Phrase) Kind() string            { return "match_phrase" }
func (*Wildcard) Kind() string          { return "wildcard" }
func (*Regex) Kind() string             { return "regexp" }
func (*Range) Kind() string             { return "range" }
func (*Terms) Kind() string             { return "terms" }
func (*Exists) Kind() string            { return "exists" }
func (*NotExists) Kind() string         { return "not_exists" }
func (*Ids) Kind() string               { return "ids" }
func (*Match) Kind() string             { return "match" }
func (*MatchPhrasePrefix) Kind() string { return "match_phrase_prefix" }
func (*QueryString) Kind() string       { return "query_string" }
func (*GeoDistance) Kind() string       { return "geo_distance" }
func (*GeoBoundingBox) Kind() string    { return "geo_bounding_box" }
func (*GeoPolygon) Kind() string        { return "geo_polygon" }
func (*GeoIntersects) Kind() string     { return "geo_shape" }
func (*Nested) Kind() string            { return "nested" }
func (*HasRelationship) Kind() string   { return "has_child" }
func (*Script) Kind() string            { return "script" }
func (*Bool) Kind() string              { return "bool" }

func (*Term) predicate()              {}
func (*Phrase) predicate()            {}
func (*Wildcard) predicate()          {}
func (*Regex) predicate()             {}
func (*Range) predicate()             {}
func (*Terms) predicate()             {}
func (*Exists) predicate()            {}
func (*NotExists) predicate()         {}
func (*Ids) predicate()               {}
func (*Match) predicate()             {}
func (*MatchPhrasePrefix) predicate() {}
func (*QueryString) predicate()       {}
func (*GeoDistance) predicate()       {}
func (*GeoBoundingBox) predicate()    {}
func (*GeoPolygon) predicate()        {}
func (*GeoIntersects) predicate()     {}
func (*Nested) predicate()            {}
func (*HasRelationship) predicate()   {}
func (*Script) predicate()            {}
func (*Bool) predicate()              {}

// MustNot wraps p in a Bool with a single mustNot clause.
func MustNot(p Predicate) *Bool {
	return &Bool{MustNot: []Predicate{p}}
}
