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

// Package elasticsearch runs compiled query plans against an Elasticsearch cluster.
//
// Every predicate has a native query type; the plan maps onto a search source one to one.
package elasticsearch

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/olivere/elastic/v7"

	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/config"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/predicate"
)

// Query converts p into an elastic query. A nil predicate matches everything.
func Query(p predicate.Predicate) (elastic.Query, error) {
	if p == nil {
		return elastic.NewMatchAllQuery(), nil
	}
	switch v := p.(type) {
	case *predicate.Bool:
		return boolQuery(v)
	case *predicate.Term:
		return elastic.NewTermQuery(v.Field, v.Value), nil
	case *predicate.Phrase:
		return elastic.NewMatchPhraseQuery(v.Field, v.Text), nil
	case *predicate.Wildcard:
		return elastic.NewWildcardQuery(v.Field, v.Pattern), nil
	case *predicate.Regex:
		q := elastic.NewRegexpQuery(v.Field, v.Pattern)
		if len(v.Flags) > 0 {
			q = q.Flags(strings.Join(v.Flags, "|"))
		}
		if v.MaxDeterminizedStates > 0 {
			q = q.MaxDeterminizedStates(v.MaxDeterminizedStates)
		}
		return q, nil
	case *predicate.Range:
		q := elastic.NewRangeQuery(v.Field)
		if v.GT != nil {
			q = q.Gt(v.GT)
		}
		if v.GTE != nil {
			q = q.Gte(v.GTE)
		}
		if v.LT != nil {
			q = q.Lt(v.LT)
		}
		if v.LTE != nil {
			q = q.Lte(v.LTE)
		}
		return q, nil
	case *predicate.Terms:
		return elastic.NewTermsQuery(v.Field, v.Values...), nil
	case *predicate.Exists:
		return elastic.NewExistsQuery(v.Field), nil
	case *predicate.NotExists:
		return elastic.NewBoolQuery().MustNot(elastic.NewExistsQuery(v.Field)), nil
	case *predicate.Ids:
		return elastic.NewIdsQuery().Ids(v.Values...), nil
	case *predicate.Match:
		return elastic.NewMatchQuery(v.Field, v.Text), nil
	case *predicate.MatchPhrasePrefix:
		return elastic.NewMatchPhrasePrefixQuery(v.Field, v.Text), nil
	case *predicate.QueryString:
		return elastic.NewQueryStringQuery(v.Query), nil
	case *predicate.GeoDistance:
		return elastic.NewGeoDistanceQuery(v.Field).Lat(v.Lat).Lon(v.Lon).Distance(v.Distance), nil
	case *predicate.GeoBoundingBox:
		return elastic.NewGeoBoundingBoxQuery(v.Field).TopLeft(v.Top, v.Left).BottomRight(v.Bottom, v.Right), nil
	case *predicate.GeoPolygon:
		q := elastic.NewGeoPolygonQuery(v.Field)
		for _, pt := range v.Points {
			q = q.AddPoint(pt.Lat, pt.Lon)
		}
		return q, nil
	case *predicate.GeoIntersects:
		return geoShape(v)
	case *predicate.Nested:
		inner, err := Query(v.Inner)
		if err != nil {
			return nil, err
		}
		q := elastic.NewNestedQuery(v.Path, inner)
		if v.InnerHits != nil {
			q = q.InnerHit(innerHit(v.InnerHits))
		}
		return q, nil
	case *predicate.HasRelationship:
		inner, err := Query(v.Inner)
		if err != nil {
			return nil, err
		}
		q := elastic.NewHasChildQuery(v.Type, inner)
		if v.InnerHits != nil {
			q = q.InnerHit(innerHit(v.InnerHits))
		}
		return q, nil
	case *predicate.Script:
		return elastic.NewScriptQuery(script(v.Source, v.Params, v.Stored)), nil
	}
	return nil, fmt.Errorf("unknown predicate %s", p.Kind())
}

// boolQuery keeps should clauses mandatory when must or filter clauses are present.
func boolQuery(b *predicate.Bool) (elastic.Query, error) {
	if b.Empty() {
		return elastic.NewMatchAllQuery(), nil
	}
	q := elastic.NewBoolQuery()
	for _, group := range []struct {
		clauses []predicate.Predicate
		add     func(...elastic.Query) *elastic.BoolQuery
	}{
		{b.Must, q.Must},
		{b.Should, q.Should},
		{b.MustNot, q.MustNot},
		{b.Filter, q.Filter},
	} {
		for _, c := range group.clauses {
			inner, err := Query(c)
			if err != nil {
				return nil, err
			}
			group.add(inner)
		}
	}
	if len(b.Should) > 0 && len(b.Must)+len(b.Filter) > 0 {
		q = q.MinimumNumberShouldMatch(1)
	}
	return q, nil
}

// geoShape renders a geo_shape intersects query, which has no typed builder.
func geoShape(g *predicate.GeoIntersects) (elastic.Query, error) {
	var json = jsoniter.ConfigCompatibleWithStandardLibrary
	body := map[string]any{
		"geo_shape": map[string]any{
			g.Field: map[string]any{
				"shape":    g.WKT,
				"relation": "intersects",
			},
		},
	}
	raw, err := json.MarshalToString(body)
	if err != nil {
		return nil, err
	}
	return elastic.NewRawStringQuery(raw), nil
}

func script(source string, params map[string]any, stored bool) *elastic.Script {
	var s *elastic.Script
	if stored {
		s = elastic.NewScriptStored(source)
	} else {
		s = elastic.NewScriptInline(source).Lang(config.ScriptLang)
	}
	if len(params) > 0 {
		s = s.Params(params)
	}
	return s
}

func innerHit(ih *predicate.InnerHits) *elastic.InnerHit {
	out := elastic.NewInnerHit().From(ih.From)
	if ih.Name != "" {
		out = out.Name(ih.Name)
	}
	if ih.Size != nil {
		out = out.Size(*ih.Size)
	}
	if sorters := Sorters(ih.Sorts); len(sorters) > 0 {
		out = out.SortBy(sorters...)
	}
	if len(ih.Source) > 0 {
		out = out.FetchSourceContext(elastic.NewFetchSourceContext(true).Include(ih.Source...))
	}
	return out
}

// highlight marks matches in every requested field. Matches in one field are highlighted in
// the others too.
func highlight(h *predicate.Highlight) *elastic.Highlight {
	fields := make([]*elastic.HighlighterField, len(h.Fields))
	for i, f := range h.Fields {
		fields[i] = elastic.NewHighlighterField(f)
	}
	out := elastic.NewHighlight().Fields(fields...).RequireFieldMatch(false)
	if h.PreTag != "" || h.PostTag != "" {
		out = out.PreTags(h.PreTag).PostTags(h.PostTag)
	}
	if h.FragmentSize > 0 {
		out = out.FragmentSize(h.FragmentSize)
	}
	return out
}

// Sorters converts plan sorts into elastic sorters.
func Sorters(sorts []predicate.Sort) []elastic.Sorter {
	out := make([]elastic.Sorter, 0, len(sorts))
	for _, s := range sorts {
		asc := s.Direction != predicate.DESC
		switch {
		case s.IsScript():
			typ := s.ScriptType
			if typ == "" {
				typ = "number"
			}
			out = append(out, elastic.NewScriptSort(script(s.Script, nil, false), typ).Order(asc))
		case s.Field == config.ScoreField:
			out = append(out, elastic.NewScoreSort().Order(asc))
		default:
			fs := elastic.NewFieldSort(s.Field).Order(asc)
			if s.NestedPath != "" {
				fs = fs.Nested(elastic.NewNestedSort(s.NestedPath))
			}
			out = append(out, fs)
		}
	}
	return out
}

// SearchSource builds the full search request body of a plan.
func SearchSource(plan *predicate.QueryPlan) (*elastic.SearchSource, error) {
	q, err := Query(plan.Query)
	if err != nil {
		return nil, err
	}
	src := elastic.NewSearchSource().Query(q)
	if sorters := Sorters(plan.Sorts); len(sorters) > 0 {
		src = src.SortBy(sorters...)
	}
	if plan.Page.Offset > 0 {
		src = src.From(plan.Page.Offset)
	}
	if plan.Page.Size != nil {
		src = src.Size(*plan.Page.Size)
	}
	if plan.Scoring {
		src = src.TrackScores(true)
	}
	if plan.Highlight != nil && len(plan.Highlight.Fields) > 0 {
		src = src.Highlight(highlight(plan.Highlight))
	}
	return src, nil
}
