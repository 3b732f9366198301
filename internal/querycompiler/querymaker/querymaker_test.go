package querymaker

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/condition"
	qcerrors "github.com/mogudian/elasticsearch-orm/internal/querycompiler/errors"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/metadata"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/operator"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/predicate"
)

func testMaker(t *testing.T) *Maker {
	t.Helper()
	reg, err := metadata.NewRegistry(
		metadata.EntityType{Name: "user", Properties: []metadata.Property{
			{Name: "name", Searchable: true},
			{Name: "age"},
			{Name: "location"},
			{Name: "orders", Nested: true, RelatedType: "order"},
		}},
		metadata.EntityType{Name: "order", Properties: []metadata.Property{
			{Name: "sku"},
			{Name: "price"},
		}},
	)
	require.NoError(t, err)
	return New(reg, "user")
}

func cond(field string, op operator.Operator, values ...condition.Value) *condition.Condition {
	return &condition.Condition{Field: field, Op: op, Values: values}
}

func TestMakeEmptyGroup(t *testing.T) {
	t.Parallel()
	m := testMaker(t)
	p, err := m.Make(&condition.Group{}, false)
	require.NoError(t, err)
	require.Equal(t, &predicate.Bool{}, p)
}

func TestMakeFilterContext(t *testing.T) {
	t.Parallel()
	m := testMaker(t)
	g := &condition.Group{Children: []condition.Node{cond("age", operator.GTE, condition.Int(3))}}

	p, err := m.Make(g, false)
	require.NoError(t, err)
	require.Equal(t, &predicate.Bool{Filter: []predicate.Predicate{&predicate.Range{Field: "age", GTE: int64(3)}}}, p)

	p, err = m.Make(g, true)
	require.NoError(t, err)
	require.Equal(t, &predicate.Range{Field: "age", GTE: int64(3)}, p)
}

func TestConnectorsSelectMustAndShould(t *testing.T) {
	t.Parallel()
	m := testMaker(t)
	a := cond("age", operator.LT, condition.Int(10))
	b := cond("age", operator.GT, condition.Int(20))
	b.Conn = condition.OR
	p, err := m.Compile(&condition.Group{Children: []condition.Node{a, b}})
	require.NoError(t, err)
	require.Equal(t, &predicate.Bool{
		Must:   []predicate.Predicate{&predicate.Range{Field: "age", LT: int64(10)}},
		Should: []predicate.Predicate{&predicate.Range{Field: "age", GT: int64(20)}},
	}, p)
}

func TestSingleChildGroupsCollapse(t *testing.T) {
	t.Parallel()
	m := testMaker(t)
	inner := &condition.Group{Children: []condition.Node{cond("age", operator.EXISTS)}}
	p, err := m.Compile(&condition.Group{Children: []condition.Node{inner}})
	require.NoError(t, err)
	require.Equal(t, &predicate.Exists{Field: "age"}, p)
}

func TestNegativeOperatorsWrapInMustNot(t *testing.T) {
	t.Parallel()
	m := testMaker(t)
	tests := []struct {
		name string
		c    *condition.Condition
		want predicate.Predicate
	}{
		{"not equal", cond("age", operator.NEQ, condition.Int(1)), &predicate.Term{Field: "age", Value: int64(1)}},
		{"not in", cond("age", operator.NotIn, condition.Int(1), condition.Int(2)), &predicate.Terms{Field: "age", Values: []any{int64(1), int64(2)}}},
		{"not between", cond("age", operator.NotBetween, condition.Int(1), condition.Int(2)), &predicate.Range{Field: "age", GTE: int64(1), LTE: int64(2)}},
		{"not like", cond("age", operator.NotLike, condition.String("1%")), &predicate.Wildcard{Field: "age", Pattern: "1*"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := m.Compile(tt.c)
			require.NoError(t, err)
			require.Equal(t, predicate.MustNot(tt.want), p)
		})
	}
}

func TestSearchableFieldsUsePhrases(t *testing.T) {
	t.Parallel()
	m := testMaker(t)
	p, err := m.Compile(cond("name", operator.IN, condition.String("a"), condition.String("b")))
	require.NoError(t, err)
	require.Equal(t, &predicate.Bool{Should: []predicate.Predicate{
		&predicate.Phrase{Field: "searchForName", Text: "a"},
		&predicate.Phrase{Field: "searchForName", Text: "b"},
	}}, p)
}

func TestLikeOnSearchableFieldKeepsPatternText(t *testing.T) {
	t.Parallel()
	m := testMaker(t)
	p, err := m.Compile(cond("name", operator.LIKE, condition.String("%foo%")))
	require.NoError(t, err)
	require.Equal(t, &predicate.Phrase{Field: "searchForName", Text: "%foo%"}, p)
}

func TestLikeEscapes(t *testing.T) {
	t.Parallel()
	require.Equal(t, "100%*", likePattern("100&PERCENT%"))
	require.Equal(t, "a_b?", likePattern("a&UNDERSCOREb_"))
}

func TestBigIntegersKeepTheirText(t *testing.T) {
	t.Parallel()
	m := testMaker(t)
	big, err := condition.Integer("123456789012345678901234567890")
	require.NoError(t, err)
	p, err := m.Compile(cond("age", operator.EQ, big))
	require.NoError(t, err)
	require.Equal(t, &predicate.Term{Field: "age", Value: "123456789012345678901234567890"}, p)
}

func TestIdentifierOnRightIsRejected(t *testing.T) {
	t.Parallel()
	m := testMaker(t)
	_, err := m.Compile(cond("age", operator.EQ, condition.Identifier("other")))
	var pe *qcerrors.ParseError
	require.True(t, errors.As(err, &pe))
}

func TestUnknownFieldFails(t *testing.T) {
	t.Parallel()
	m := testMaker(t)
	_, err := m.Compile(cond("height", operator.EQ, condition.Int(1)))
	var fe *qcerrors.FieldResolutionError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, "user", fe.EntityType)
}

func TestGeoPolygon(t *testing.T) {
	t.Parallel()
	m := testMaker(t)
	p, err := m.Compile(cond("location", operator.GeoPolygon,
		condition.Int(1), condition.Int(2), condition.Int(3), condition.Int(4), condition.Double(5.5), condition.Int(6)))
	require.NoError(t, err)
	require.Equal(t, &predicate.GeoPolygon{Field: "location", Points: []predicate.GeoPoint{
		{Lon: 1, Lat: 2}, {Lon: 3, Lat: 4}, {Lon: 5.5, Lat: 6},
	}}, p)

	_, err = m.Compile(cond("location", operator.GeoPolygon, condition.Int(1), condition.Int(2)))
	require.Error(t, err)
}

func TestGeoIntersectsNeedsWKT(t *testing.T) {
	t.Parallel()
	m := testMaker(t)
	p, err := m.Compile(cond("location", operator.GeoIntersects, condition.String("POINT (1 2)")))
	require.NoError(t, err)
	require.Equal(t, &predicate.GeoIntersects{Field: "location", WKT: "POINT (1 2)"}, p)

	_, err = m.Compile(cond("location", operator.GeoIntersects, condition.Int(1)))
	require.Error(t, err)
}

func TestGeoCoordinatesMustBeNumeric(t *testing.T) {
	t.Parallel()
	m := testMaker(t)
	_, err := m.Compile(cond("location", operator.GeoDistance, condition.String("1km"), condition.String("x"), condition.Int(1)))
	var pe *qcerrors.ParseError
	require.True(t, errors.As(err, &pe))
}

func TestFullTextMethods(t *testing.T) {
	t.Parallel()
	m := testMaker(t)
	method := func(name, text string) condition.Value {
		return condition.MethodValue(condition.Method{Name: name, Args: []condition.Value{condition.String(text)}})
	}
	tests := []struct {
		method string
		want   predicate.Predicate
	}{
		{"query", &predicate.QueryString{Query: "a AND b"}},
		{"matchQuery", &predicate.Match{Field: "searchForName", Text: "a AND b"}},
		{"match_phrase_prefix", &predicate.MatchPhrasePrefix{Field: "searchForName", Text: "a AND b"}},
		{"wildcard_query", &predicate.Wildcard{Field: "searchForName", Pattern: "a AND b"}},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			p, err := m.Compile(cond("name", operator.EQ, method(tt.method, "a AND b")))
			require.NoError(t, err)
			require.Equal(t, tt.want, p)
		})
	}
	require.True(t, IsFullTextMethod("MatchPhrase"))
	require.False(t, IsFullTextMethod("terms"))
}

func TestSimpleNestedWrapsLeaf(t *testing.T) {
	t.Parallel()
	m := testMaker(t)
	c := cond("orders.sku", operator.EQ, condition.String("A"))
	c.Relation = &condition.Relation{Kind: condition.Nested, Path: "orders"}
	p, err := m.Compile(c)
	require.NoError(t, err)
	require.Equal(t, &predicate.Nested{Path: "nestedForOrders", Inner: &predicate.Term{Field: "nestedForOrders.sku", Value: "A"}}, p)
}

func TestComplexRelationNegation(t *testing.T) {
	t.Parallel()
	m := testMaker(t)
	where := &condition.Group{Children: []condition.Node{cond("price", operator.GT, condition.Int(1))}}
	c := &condition.Condition{
		Field:    "order",
		Op:       operator.NotRelationship,
		Relation: &condition.Relation{Kind: condition.Children, Path: "order", Where: where},
	}
	p, err := m.Compile(c)
	require.NoError(t, err)
	require.Equal(t, predicate.MustNot(&predicate.HasRelationship{Type: "order", Inner: &predicate.Range{Field: "price", GT: int64(1)}}), p)
}

func TestRegexDefaults(t *testing.T) {
	t.Parallel()
	m := testMaker(t)
	p, err := m.Compile(cond("age", operator.REGEXP, condition.String("1.*")))
	require.NoError(t, err)
	r, ok := p.(*predicate.Regex)
	require.True(t, ok)
	require.Empty(t, r.Flags)
	require.Positive(t, r.MaxDeterminizedStates)
}
