package structured

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	qcerrors "github.com/mogudian/elasticsearch-orm/internal/querycompiler/errors"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/metadata"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/predicate"
)

func testBuilder(t *testing.T) *Builder {
	t.Helper()
	reg, err := metadata.NewRegistry(
		metadata.EntityType{Name: "user", Properties: []metadata.Property{
			{Name: "name", Searchable: true},
			{Name: "bio", Searchable: true},
			{Name: "age"},
			{Name: "city"},
			{Name: "status"},
			{Name: "orders", Nested: true, RelatedType: "order"},
		}},
		metadata.EntityType{Name: "order", Properties: []metadata.Property{
			{Name: "sku"},
			{Name: "price"},
		}},
		metadata.EntityType{Name: "tag", Properties: []metadata.Property{
			{Name: "label", Searchable: true},
		}},
	)
	require.NoError(t, err)
	return NewBuilder(reg, "user")
}

func TestKeywordSearchesEverySearchableField(t *testing.T) {
	t.Parallel()
	b := testBuilder(t)
	got, err := b.Query(Request{Keyword: " bob "})
	require.NoError(t, err)
	require.Equal(t, &predicate.Bool{Must: []predicate.Predicate{
		&predicate.Bool{Should: []predicate.Predicate{
			&predicate.Phrase{Field: "searchForName", Text: "bob"},
			&predicate.Phrase{Field: "searchForBio", Text: "bob"},
		}},
	}}, got)

	single := NewBuilder(b.resolver, "tag")
	got, err = single.Query(Request{Keyword: "red"})
	require.NoError(t, err)
	require.Equal(t, &predicate.Bool{Must: []predicate.Predicate{&predicate.Phrase{Field: "searchForLabel", Text: "red"}}}, got)

	got, err = NewBuilder(b.resolver, "order").Query(Request{Keyword: "red"})
	require.NoError(t, err)
	require.True(t, got.Empty())
}

func TestFieldValues(t *testing.T) {
	t.Parallel()
	b := testBuilder(t)
	got, err := b.Query(Request{Fields: map[string]interface{}{
		"status": []interface{}{"a", "b"},
		"city":   "NY",
		"age":    json.Number("18"),
		"name":   nil,
	}})
	require.NoError(t, err)
	require.Equal(t, &predicate.Bool{Must: []predicate.Predicate{
		&predicate.Term{Field: "age", Value: int64(18)},
		&predicate.Term{Field: "city", Value: "NY"},
		&predicate.Terms{Field: "status", Values: []any{"a", "b"}},
	}}, got)
}

func TestExpressionTree(t *testing.T) {
	t.Parallel()
	b := testBuilder(t)
	where := &Expression{Logic: "or", Expressions: []Expression{
		{Field: "age", Operator: "GT", Values: []interface{}{json.Number("18")}},
		{Field: "orders", Operator: "NESTED", Expressions: []Expression{
			{Field: "sku", Operator: "EQUAL", Values: []interface{}{"A1"}},
			{Field: "price", Operator: "RANGE", Values: []interface{}{json.Number("1"), false, json.Number("5.5"), true}},
		}},
	}}
	got, err := b.Query(Request{Where: where})
	require.NoError(t, err)
	require.Equal(t, &predicate.Bool{Must: []predicate.Predicate{
		&predicate.Bool{Should: []predicate.Predicate{
			&predicate.Range{Field: "age", GT: int64(18)},
			&predicate.Nested{Path: "nestedForOrders", Inner: &predicate.Bool{Must: []predicate.Predicate{
				&predicate.Term{Field: "nestedForOrders.sku", Value: "A1"},
				&predicate.Range{Field: "nestedForOrders.price", GT: int64(1), LTE: 5.5},
			}}},
		}},
	}}, got)
}

func TestConditionOperators(t *testing.T) {
	t.Parallel()
	b := testBuilder(t)
	tests := []struct {
		name string
		e    Expression
		want predicate.Predicate
	}{
		{"terms from list", Expression{Field: "city", Operator: "IN", Values: []interface{}{[]interface{}{"NY", "LA"}}},
			&predicate.Terms{Field: "city", Values: []any{"NY", "LA"}}},
		{"like contains", Expression{Field: "city", Operator: "LIKE", Values: []interface{}{"N_Y%"}},
			&predicate.Wildcard{Field: "city", Pattern: "*N_Y%*"}},
		{"like on searchable", Expression{Field: "name", Operator: "wildcard", Values: []interface{}{"bob"}},
			&predicate.Phrase{Field: "searchForName", Text: "bob"}},
		{"inclusive range", Expression{Field: "age", Operator: "BETWEEN", Values: []interface{}{json.Number("1"), json.Number("9")}},
			&predicate.Range{Field: "age", GTE: int64(1), LTE: int64(9)}},
		{"open range", Expression{Field: "age", Operator: "RANGE", Values: []interface{}{nil, json.Number("9")}},
			&predicate.Range{Field: "age", LTE: int64(9)}},
		{"lte", Expression{Field: "age", Operator: "LTE", Values: []interface{}{json.Number("9")}},
			&predicate.Range{Field: "age", LTE: int64(9)}},
		{"exists", Expression{Field: "city", Operator: "EXISTS"}, &predicate.Exists{Field: "city"}},
		{"not exists", Expression{Field: "city", Operator: "NOT_EXISTS"}, &predicate.NotExists{Field: "city"}},
		{"must not", Expression{Logic: "NOT", Expressions: []Expression{{Field: "city", Operator: "TERM", Values: []interface{}{"NY"}}}},
			&predicate.Bool{MustNot: []predicate.Predicate{&predicate.Term{Field: "city", Value: "NY"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.expression(tt.e, "")
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestInvalidExpressions(t *testing.T) {
	t.Parallel()
	b := testBuilder(t)
	for name, e := range map[string]Expression{
		"unknown operator":   {Field: "city", Operator: "SOUNDS_LIKE", Values: []interface{}{"x"}},
		"unknown logic":      {Logic: "XOR", Expressions: []Expression{{Field: "city", Operator: "EXISTS"}}},
		"term with two":      {Field: "city", Operator: "TERM", Values: []interface{}{"a", "b"}},
		"term with null":     {Field: "city", Operator: "TERM", Values: []interface{}{nil}},
		"terms without":      {Field: "city", Operator: "TERMS"},
		"like on number":     {Field: "city", Operator: "LIKE", Values: []interface{}{json.Number("1")}},
		"range of three":     {Field: "age", Operator: "RANGE", Values: []interface{}{json.Number("1"), true, json.Number("2")}},
		"range without flag": {Field: "age", Operator: "RANGE", Values: []interface{}{json.Number("1"), "yes", json.Number("2"), true}},
		"exists with value":  {Field: "city", Operator: "EXISTS", Values: []interface{}{"x"}},
		"nested on plain":    {Field: "city", Operator: "NESTED", Expressions: []Expression{{Field: "x", Operator: "EXISTS"}}},
		"nested without":     {Field: "orders", Operator: "NESTED"},
		"missing field":      {Operator: "TERM", Values: []interface{}{"x"}},
		"object value":       {Field: "city", Operator: "TERM", Values: []interface{}{map[string]interface{}{"a": 1}}},
	} {
		_, err := b.expression(e, "")
		require.Error(t, err, name)
		require.True(t, qcerrors.IsCompileError(err), name)
	}

	_, err := b.expression(Expression{Field: "nope", Operator: "EXISTS"}, "")
	var fe *qcerrors.FieldResolutionError
	require.ErrorAs(t, err, &fe)
}

func TestSorts(t *testing.T) {
	t.Parallel()
	b := testBuilder(t)
	sorts, scoring, err := b.Sorts([]SortField{{Field: "age", Descending: true}, {Field: "orders.price"}})
	require.NoError(t, err)
	require.False(t, scoring)
	require.Equal(t, []predicate.Sort{
		{Field: "age", Direction: predicate.DESC},
		{Field: "nestedForOrders.price", NestedPath: "nestedForOrders", Direction: predicate.ASC},
	}, sorts)

	_, scoring, err = b.Sorts([]SortField{{Field: "_score", Descending: true}})
	require.NoError(t, err)
	require.True(t, scoring)

	_, _, err = b.Sorts([]SortField{{Field: "nope"}})
	require.Error(t, err)
}

func TestPagination(t *testing.T) {
	t.Parallel()
	require.Equal(t, 0, Pagination{}.Offset())
	require.Equal(t, DefaultPageSize, Pagination{}.Size())
	require.Equal(t, 40, Pagination{PageNo: 3, PageSize: 20}.Offset())
	require.Equal(t, 10, Pagination{PageNo: 2, PageSize: -1}.Offset())
}
