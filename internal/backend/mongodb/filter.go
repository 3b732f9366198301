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

// Package mongodb runs compiled query plans against MongoDB collections.
//
// Predicates are rendered into bson filter documents. Nested predicates become $elemMatch
// clauses on the nested array, geo predicates $geoWithin clauses on legacy coordinate pairs
// and text predicates case-insensitive regular expressions. Child relationships and scripts
// have no filter rendition.
package mongodb

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mogudian/elasticsearch-orm/internal/common"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/predicate"
)

// ErrUnsupported is returned for predicates and sorts without a MongoDB rendition.
var ErrUnsupported = common.NewErrBadRequest("not supported by the mongodb backend")

// earthRadiusMeters is the radius $centerSphere distances are divided by.
const earthRadiusMeters = 6378100.0

// distanceUnits maps distance suffixes to meters.
var distanceUnits = []struct {
	suffix string
	meters float64
}{
	// longest suffixes first so "nmi" is not read as "mi"
	{"nmi", 1852},
	{"km", 1000},
	{"mi", 1609.344},
	{"yd", 0.9144},
	{"ft", 0.3048},
	{"cm", 0.01},
	{"mm", 0.001},
	{"in", 0.0254},
	{"m", 1},
}

// Filter renders p as a MongoDB filter document.
func Filter(p predicate.Predicate) (bson.D, error) {
	return render("", p)
}

func render(prefix string, p predicate.Predicate) (bson.D, error) {
	field := func(name string) string {
		return strings.TrimPrefix(name, prefix)
	}
	switch v := p.(type) {
	case *predicate.Bool:
		return boolean(prefix, v)
	case *predicate.Term:
		return bson.D{{Key: field(v.Field), Value: v.Value}}, nil
	case *predicate.Phrase:
		return textRegex(field(v.Field), regexp.QuoteMeta(fmt.Sprint(v.Text))), nil
	case *predicate.Match:
		words := strings.Fields(v.Text)
		if len(words) == 0 {
			return bson.D{}, nil
		}
		all := bson.A{}
		for _, w := range words {
			all = append(all, textRegex(field(v.Field), regexp.QuoteMeta(w)))
		}
		if len(all) == 1 {
			return all[0].(bson.D), nil
		}
		return bson.D{{Key: "$and", Value: all}}, nil
	case *predicate.MatchPhrasePrefix:
		return textRegex(field(v.Field), "^"+regexp.QuoteMeta(v.Text)), nil
	case *predicate.QueryString:
		if prefix != "" {
			return nil, fmt.Errorf("%w: query_string inside a nested query", ErrUnsupported)
		}
		return bson.D{{Key: "$text", Value: bson.D{{Key: "$search", Value: v.Query}}}}, nil
	case *predicate.Wildcard:
		return bson.D{{Key: field(v.Field), Value: primitive.Regex{Pattern: wildcardPattern(v.Pattern)}}}, nil
	case *predicate.Regex:
		// engine regular expressions always match the whole value
		return bson.D{{Key: field(v.Field), Value: primitive.Regex{Pattern: "^(?:" + v.Pattern + ")$"}}}, nil
	case *predicate.Range:
		return bson.D{{Key: field(v.Field), Value: bounds(v)}}, nil
	case *predicate.Terms:
		return bson.D{{Key: field(v.Field), Value: bson.D{{Key: "$in", Value: bson.A(v.Values)}}}}, nil
	case *predicate.Exists:
		return bson.D{{Key: field(v.Field), Value: bson.D{{Key: "$exists", Value: true}, {Key: "$ne", Value: nil}}}}, nil
	case *predicate.NotExists:
		return bson.D{{Key: field(v.Field), Value: nil}}, nil
	case *predicate.Ids:
		ids := make(bson.A, len(v.Values))
		for i, id := range v.Values {
			ids[i] = id
		}
		return bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}, nil
	case *predicate.GeoDistance:
		meters, err := ParseDistance(v.Distance)
		if err != nil {
			return nil, err
		}
		sphere := bson.A{bson.A{v.Lon, v.Lat}, meters / earthRadiusMeters}
		return geoWithin(field(v.Field), "$centerSphere", sphere), nil
	case *predicate.GeoBoundingBox:
		box := bson.A{bson.A{v.Left, v.Bottom}, bson.A{v.Right, v.Top}}
		return geoWithin(field(v.Field), "$box", box), nil
	case *predicate.GeoPolygon:
		points := make(bson.A, len(v.Points))
		for i, pt := range v.Points {
			points[i] = bson.A{pt.Lon, pt.Lat}
		}
		return geoWithin(field(v.Field), "$polygon", points), nil
	case *predicate.Nested:
		inner, err := render(v.Path+".", v.Inner)
		if err != nil {
			return nil, err
		}
		return bson.D{{Key: field(v.Path), Value: bson.D{{Key: "$elemMatch", Value: inner}}}}, nil
	}
	return nil, fmt.Errorf("%w: %s predicate", ErrUnsupported, p.Kind())
}

// boolean maps must and filter clauses to $and, should clauses to $or and mustNot clauses to
// $nor. A single resulting clause is returned as is.
func boolean(prefix string, b *predicate.Bool) (bson.D, error) {
	if b.Empty() {
		return bson.D{}, nil
	}
	list := func(ps []predicate.Predicate) (bson.A, error) {
		out := make(bson.A, 0, len(ps))
		for _, c := range ps {
			d, err := render(prefix, c)
			if err != nil {
				return nil, err
			}
			out = append(out, d)
		}
		return out, nil
	}

	var clauses bson.A
	and, err := list(append(append([]predicate.Predicate{}, b.Must...), b.Filter...))
	if err != nil {
		return nil, err
	}
	clauses = append(clauses, and...)
	if len(b.Should) > 0 {
		or, err := list(b.Should)
		if err != nil {
			return nil, err
		}
		if len(or) == 1 {
			clauses = append(clauses, or[0])
		} else {
			clauses = append(clauses, bson.D{{Key: "$or", Value: or}})
		}
	}
	if len(b.MustNot) > 0 {
		nor, err := list(b.MustNot)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, bson.D{{Key: "$nor", Value: nor}})
	}
	if len(clauses) == 1 {
		return clauses[0].(bson.D), nil
	}
	return bson.D{{Key: "$and", Value: clauses}}, nil
}

func bounds(r *predicate.Range) bson.D {
	var d bson.D
	for _, b := range []struct {
		op    string
		value any
	}{{"$gt", r.GT}, {"$gte", r.GTE}, {"$lt", r.LT}, {"$lte", r.LTE}} {
		if b.value != nil {
			d = append(d, bson.E{Key: b.op, Value: b.value})
		}
	}
	return d
}

func textRegex(field, pattern string) bson.D {
	return bson.D{{Key: field, Value: primitive.Regex{Pattern: pattern, Options: "i"}}}
}

func geoWithin(field, shape string, value bson.A) bson.D {
	return bson.D{{Key: field, Value: bson.D{{Key: "$geoWithin", Value: bson.D{{Key: shape, Value: value}}}}}}
}

// wildcardPattern turns a * and ? pattern into an anchored regular expression.
func wildcardPattern(p string) string {
	quoted := regexp.QuoteMeta(p)
	quoted = strings.NewReplacer(`\*`, ".*", `\?`, ".").Replace(quoted)
	return "^" + quoted + "$"
}

// ParseDistance converts a distance such as "12km" or "1.5mi" into meters. A bare number is
// read as meters.
func ParseDistance(s string) (float64, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	factor := 1.0
	for _, u := range distanceUnits {
		if strings.HasSuffix(s, u.suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
			factor = u.meters
			break
		}
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || n < 0 {
		return 0, common.NewErrBadRequest(fmt.Sprintf("invalid distance %q", s))
	}
	return n * factor, nil
}
