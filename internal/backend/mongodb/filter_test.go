package mongodb

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/predicate"
)

func TestFilterRendersScenario(t *testing.T) {
	t.Parallel()
	f, err := Filter(&predicate.Bool{Filter: []predicate.Predicate{&predicate.Bool{Must: []predicate.Predicate{
		&predicate.Range{Field: "age", GT: int64(18)},
		&predicate.Bool{Should: []predicate.Predicate{
			&predicate.Term{Field: "city", Value: "NY"},
			&predicate.Term{Field: "city", Value: "LA"},
		}},
	}}}})
	require.NoError(t, err)
	require.Equal(t, bson.D{{Key: "$and", Value: bson.A{
		bson.D{{Key: "age", Value: bson.D{{Key: "$gt", Value: int64(18)}}}},
		bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "city", Value: "NY"}},
			bson.D{{Key: "city", Value: "LA"}},
		}}},
	}}}, f)
}

func TestFilterLeaves(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		p    predicate.Predicate
		want bson.D
	}{
		{"empty", &predicate.Bool{}, bson.D{}},
		{"terms", &predicate.Terms{Field: "city", Values: []any{"NY", "LA"}},
			bson.D{{Key: "city", Value: bson.D{{Key: "$in", Value: bson.A{"NY", "LA"}}}}}},
		{"not exists", &predicate.NotExists{Field: "city"}, bson.D{{Key: "city", Value: nil}}},
		{"ids", &predicate.Ids{Values: []string{"a"}}, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: bson.A{"a"}}}}}},
		{"phrase", &predicate.Phrase{Field: "searchForName", Text: "a.b"},
			bson.D{{Key: "searchForName", Value: primitive.Regex{Pattern: `a\.b`, Options: "i"}}}},
		{"wildcard", &predicate.Wildcard{Field: "city", Pattern: "N?w*"},
			bson.D{{Key: "city", Value: primitive.Regex{Pattern: "^N.w.*$"}}}},
		{"regex", &predicate.Regex{Field: "city", Pattern: "N.*"},
			bson.D{{Key: "city", Value: primitive.Regex{Pattern: "^(?:N.*)$"}}}},
		{"range", &predicate.Range{Field: "age", GTE: int64(1), LT: int64(5)},
			bson.D{{Key: "age", Value: bson.D{{Key: "$gte", Value: int64(1)}, {Key: "$lt", Value: int64(5)}}}}},
		{"must not", predicate.MustNot(&predicate.Term{Field: "city", Value: "NY"}),
			bson.D{{Key: "$nor", Value: bson.A{bson.D{{Key: "city", Value: "NY"}}}}}},
		{"query string", &predicate.QueryString{Query: "a b"},
			bson.D{{Key: "$text", Value: bson.D{{Key: "$search", Value: "a b"}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Filter(tt.p)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNestedUsesElemMatchWithRelativeFields(t *testing.T) {
	t.Parallel()
	f, err := Filter(&predicate.Nested{Path: "nestedForOrders", Inner: &predicate.Bool{Must: []predicate.Predicate{
		&predicate.Term{Field: "nestedForOrders.sku", Value: "A1"},
		&predicate.Range{Field: "nestedForOrders.price", LTE: 3.5},
	}}})
	require.NoError(t, err)
	require.Equal(t, bson.D{{Key: "nestedForOrders", Value: bson.D{{Key: "$elemMatch", Value: bson.D{{Key: "$and", Value: bson.A{
		bson.D{{Key: "sku", Value: "A1"}},
		bson.D{{Key: "price", Value: bson.D{{Key: "$lte", Value: 3.5}}}},
	}}}}}}}, f)

	_, err = Filter(&predicate.Nested{Path: "nestedForOrders", Inner: &predicate.QueryString{Query: "x"}})
	require.True(t, errors.Is(err, ErrUnsupported))
}

func TestGeoFilters(t *testing.T) {
	t.Parallel()
	f, err := Filter(&predicate.GeoDistance{Field: "location", Distance: "2km", Lat: 10, Lon: 20})
	require.NoError(t, err)
	require.Equal(t, bson.D{{Key: "location", Value: bson.D{{Key: "$geoWithin", Value: bson.D{{Key: "$centerSphere",
		Value: bson.A{bson.A{20.0, 10.0}, 2000 / earthRadiusMeters}}}}}}}, f)

	f, err = Filter(&predicate.GeoBoundingBox{Field: "location", Top: 4, Left: 1, Bottom: 2, Right: 3})
	require.NoError(t, err)
	require.Equal(t, bson.D{{Key: "location", Value: bson.D{{Key: "$geoWithin", Value: bson.D{{Key: "$box",
		Value: bson.A{bson.A{1.0, 2.0}, bson.A{3.0, 4.0}}}}}}}}, f)

	_, err = Filter(&predicate.GeoIntersects{Field: "location", WKT: "POINT (1 2)"})
	require.True(t, errors.Is(err, ErrUnsupported))
	_, err = Filter(&predicate.GeoDistance{Field: "location", Distance: "far"})
	require.Error(t, err)
}

func TestParseDistance(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]float64{
		"100":    100,
		"2km":    2000,
		"1.5 mi": 2414.016,
		"1nmi":   1852,
		"30cm":   0.3,
		"10m":    10,
	} {
		got, err := ParseDistance(in)
		require.NoError(t, err, in)
		require.InDelta(t, want, got, 1e-9, in)
	}
	_, err := ParseDistance("-1km")
	require.Error(t, err)
}

func TestUnsupportedPredicates(t *testing.T) {
	t.Parallel()
	for _, p := range []predicate.Predicate{
		&predicate.Script{Source: "true"},
		&predicate.HasRelationship{Type: "order", Inner: &predicate.Exists{Field: "sku"}},
	} {
		_, err := Filter(p)
		require.True(t, errors.Is(err, ErrUnsupported), p.Kind())
	}
}

func TestFindOptions(t *testing.T) {
	t.Parallel()
	size := 5
	opts, err := FindOptions(&predicate.QueryPlan{
		Sorts: []predicate.Sort{{Field: "age", Direction: predicate.DESC}, {Field: "name", Direction: predicate.ASC}},
		Page:  predicate.Page{Offset: 10, Size: &size},
	})
	require.NoError(t, err)
	require.Equal(t, bson.D{{Key: "age", Value: -1}, {Key: "name", Value: 1}}, opts.Sort)
	require.Equal(t, int64(10), *opts.Skip)
	require.Equal(t, int64(5), *opts.Limit)

	_, err = FindOptions(&predicate.QueryPlan{Sorts: []predicate.Sort{{Script: "doc['a'].value"}}})
	require.True(t, errors.Is(err, ErrUnsupported))
}
