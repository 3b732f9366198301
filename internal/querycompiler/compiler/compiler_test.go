package compiler

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	qcerrors "github.com/mogudian/elasticsearch-orm/internal/querycompiler/errors"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/metadata"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/predicate"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/structured"
)

func newTestCompiler(t *testing.T) *Compiler {
	t.Helper()
	reg, err := metadata.NewRegistry(
		metadata.EntityType{
			Name:  "user",
			Index: "users",
			Properties: []metadata.Property{
				{Name: "name", Searchable: true},
				{Name: "age"},
				{Name: "city"},
				{Name: "status"},
				{Name: "score"},
				{Name: "gender"},
				{Name: "location"},
				{Name: "createdAt", Lifecycle: true, Retention: 720 * time.Hour},
				{Name: "orders", Nested: true, RelatedType: "order"},
				{Name: "address", Object: true},
			},
		},
		metadata.EntityType{
			Name: "order",
			Properties: []metadata.Property{
				{Name: "sku"},
				{Name: "title", Searchable: true},
				{Name: "price"},
			},
		},
	)
	require.NoError(t, err)
	return New(reg, "")
}

func compileWhere(t *testing.T, c *Compiler, clause string) predicate.Predicate {
	t.Helper()
	plan, err := c.Compile("user", clause, Options{})
	require.NoError(t, err, clause)
	return plan.Query
}

// filter wraps p the way non-scoring queries are wrapped.
func filter(p predicate.Predicate) predicate.Predicate {
	return &predicate.Bool{Filter: []predicate.Predicate{p}}
}

// stable replaces generated numeric suffixes so sources can be compared literally.
func stable(s string) string {
	return regexp.MustCompile(`_(\d+)`).ReplaceAllString(s, "_N")
}

func TestScenarioAndWithNestedOr(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	got := compileWhere(t, c, "WHERE age > 18 AND (city = 'NY' OR city = 'LA')")
	want := filter(&predicate.Bool{Must: []predicate.Predicate{
		&predicate.Range{Field: "age", GT: int64(18)},
		&predicate.Bool{Should: []predicate.Predicate{
			&predicate.Term{Field: "city", Value: "NY"},
			&predicate.Term{Field: "city", Value: "LA"},
		}},
	}})
	require.Equal(t, want, got)
}

func TestScenarioNotDistributesOverAnd(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	got := compileWhere(t, c, "WHERE NOT (status = 'active' AND score BETWEEN 1 AND 5)")
	want := filter(&predicate.Bool{Should: []predicate.Predicate{
		predicate.MustNot(&predicate.Term{Field: "status", Value: "active"}),
		predicate.MustNot(&predicate.Range{Field: "score", GTE: int64(1), LTE: int64(5)}),
	}})
	require.Equal(t, want, got)
}

func TestDeMorganRoundTrip(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	negated := compileWhere(t, c, "WHERE NOT (status = 'active' AND score BETWEEN 1 AND 5)")
	expanded := compileWhere(t, c, "WHERE status != 'active' OR score NOT BETWEEN 1 AND 5")
	require.Equal(t, expanded, negated)
}

func TestDoubleNotIsIdentity(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	require.Equal(t, compileWhere(t, c, "WHERE age > 18"), compileWhere(t, c, "WHERE NOT (NOT (age > 18))"))
}

func TestSingleConditionIsNotNested(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	require.Equal(t, filter(&predicate.Term{Field: "city", Value: "NY"}), compileWhere(t, c, "WHERE ((city = 'NY'))"))
}

func TestScenarioCaseNewOrderBy(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	plan, err := c.Compile("user", "ORDER BY case_new(gender='m','男',gender='f','女',default,'无') asc", Options{})
	require.NoError(t, err)
	require.Equal(t, &predicate.Bool{}, plan.Query)
	require.Len(t, plan.Sorts, 1)

	s := plan.Sorts[0]
	require.True(t, s.IsScript())
	require.Equal(t, "string", s.ScriptType)
	require.Equal(t, predicate.ASC, s.Direction)
	require.Equal(t,
		"if(doc['gender'].getValue() == 'm') { '男' } else if(doc['gender'].getValue() == 'f') { '女' } else '无'",
		s.Script)
	require.Equal(t, 1, strings.Count(s.Script, "else if("))
	require.True(t, strings.HasSuffix(s.Script, "else '无'"))
}

func TestPhraseVersusTermRouting(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	require.Equal(t, filter(&predicate.Phrase{Field: "searchForName", Text: "bob"}), compileWhere(t, c, "WHERE name = 'bob'"))
	require.Equal(t, filter(&predicate.Term{Field: "city", Value: "bob"}), compileWhere(t, c, "WHERE city = 'bob'"))
}

func TestInNormalizesNumericLiterals(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	got := compileWhere(t, c, "WHERE age IN (1, 2.5, 9999999999999)")
	require.Equal(t, filter(&predicate.Terms{Field: "age", Values: []any{int64(1), 2.5, int64(9999999999999)}}), got)
}

func TestNegativeNumbers(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	require.Equal(t, filter(&predicate.Range{Field: "score", GT: int64(-3)}), compileWhere(t, c, "WHERE score > -3"))
	require.Equal(t, filter(&predicate.Range{Field: "score", LT: -1.5}), compileWhere(t, c, "WHERE score < -1.5"))
}

func TestLiteralComparisonBecomesScript(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	require.Equal(t, filter(&predicate.Script{Source: "1 == 1"}), compileWhere(t, c, "WHERE 1 = 1"))
	require.Equal(t, filter(&predicate.Script{Source: "'a' != 'b'"}), compileWhere(t, c, "WHERE 'a' <> 'b'"))
}

func TestPropertyComparisonBecomesScript(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	require.Equal(t,
		filter(&predicate.Script{Source: "doc['age'].value > doc['score'].value"}),
		compileWhere(t, c, "WHERE age > score"))
	require.Equal(t,
		filter(&predicate.Script{Source: "doc['age'].value == doc['score'].value"}),
		compileWhere(t, c, "WHERE docs.age = score"))
}

func TestFunctionComparisonUsesCompareTo(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	got := compileWhere(t, c, "WHERE add(age, 1) > 10")
	b, ok := got.(*predicate.Bool)
	require.True(t, ok)
	s, ok := b.Filter[0].(*predicate.Script)
	require.True(t, ok)
	require.Equal(t, " def add_N = doc['age'].getValue() + 1;((Comparable)add_N).compareTo(10) > 0", stable(s.Source))
}

func TestArithmeticComparison(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	got := compileWhere(t, c, "WHERE age * 2 >= score")
	s := got.(*predicate.Bool).Filter[0].(*predicate.Script)
	require.Equal(t,
		" def multiply_N = doc['age'].getValue() * 2;((Comparable)multiply_N).compareTo(doc['score'].value) >= 0",
		stable(s.Source))
}

func TestCastComparison(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	got := compileWhere(t, c, "WHERE cast(age as int) > 10")
	s := got.(*predicate.Bool).Filter[0].(*predicate.Script)
	require.Equal(t,
		"def field_N = Double.parseDouble(doc['age'].value.toString()).intValue();((Comparable)field_N).compareTo(10) > 0",
		stable(s.Source))

	got = compileWhere(t, c, "WHERE CAST(age AS signed) > 10")
	s = got.(*predicate.Bool).Filter[0].(*predicate.Script)
	require.Contains(t, s.Source, ".intValue()")
}

func TestFieldAndCastDeclareDistinctVariables(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	got := compileWhere(t, c, "WHERE field(age) > CAST(score AS int)")
	s := got.(*predicate.Bool).Filter[0].(*predicate.Script)

	decls := regexp.MustCompile(`def (\w+) =`).FindAllStringSubmatch(s.Source, -1)
	require.Len(t, decls, 2, s.Source)
	require.NotEqual(t, decls[0][1], decls[1][1], s.Source)
	require.Contains(t, s.Source, "((Comparable)"+decls[0][1]+").compareTo("+decls[1][1]+") > 0")
}

func TestCastToUnknownTypeFails(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	_, err := c.Compile("user", "WHERE cast(age as boolean) > 1", Options{})
	var ce *qcerrors.UnsupportedCast
	require.True(t, errors.As(err, &ce))
	require.Equal(t, "boolean", ce.Type)
}

func TestCastOrderByReturnsValue(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	plan, err := c.Compile("user", "ORDER BY cast(score as double) desc", Options{})
	require.NoError(t, err)
	require.Equal(t,
		"def field_N = Double.parseDouble(doc['score'].value.toString()).doubleValue(); return field_N",
		stable(plan.Sorts[0].Script))
	require.Equal(t, "number", plan.Sorts[0].ScriptType)
	require.Equal(t, predicate.DESC, plan.Sorts[0].Direction)
}

func TestCaseInWhereBecomesBooleanScript(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	got := compileWhere(t, c, "WHERE CASE WHEN age > 18 THEN 'adult' ELSE 'minor' END IN ('adult')")
	want := "String tmp = ''; if((doc['age'].value>18)){tmp='adult'} else {tmp='minor'} return (tmp == 'adult');"
	require.Equal(t, filter(&predicate.Script{Source: want}), got)

	got = compileWhere(t, c, "WHERE CASE WHEN age > 18 THEN 'adult' ELSE 'minor' END NOT IN ('adult')")
	require.Equal(t, filter(predicate.MustNot(&predicate.Script{Source: want})), got)
}

func TestCaseOrderBy(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	plan, err := c.Compile("user", "ORDER BY CASE WHEN gender = 'm' AND age BETWEEN 1 AND 9 THEN 1 WHEN city IN ('a', 'b') THEN 2 END", Options{})
	require.NoError(t, err)
	require.Equal(t,
		"if((doc['gender'].value=='m') && (doc['age'].value >= 1 && doc['age'].value <=9)){1} "+
			"else if((doc['city'].value == 'a' || doc['city'].value == 'b')){2} else { null }",
		plan.Sorts[0].Script)
	require.Equal(t, "number", plan.Sorts[0].ScriptType)
}

func TestNestedSimpleCondition(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	want := filter(&predicate.Nested{
		Path:  "nestedForOrders",
		Inner: &predicate.Term{Field: "nestedForOrders.sku", Value: "A1"},
	})
	require.Equal(t, want, compileWhere(t, c, "WHERE nested(orders.sku) = 'A1'"))
	require.Equal(t, want, compileWhere(t, c, "WHERE nested(orders, sku) = 'A1'"))
}

func TestNestedComplexCondition(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	got := compileWhere(t, c, "WHERE nested(orders, sku = 'A1' AND price > 3)")
	want := filter(&predicate.Nested{
		Path: "nestedForOrders",
		Inner: &predicate.Bool{Must: []predicate.Predicate{
			&predicate.Term{Field: "nestedForOrders.sku", Value: "A1"},
			&predicate.Range{Field: "nestedForOrders.price", GT: int64(3)},
		}},
	})
	require.Equal(t, want, got)
}

func TestNestedMissing(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	got := compileWhere(t, c, "WHERE nested(orders.sku) = missing")
	want := filter(predicate.MustNot(&predicate.Nested{
		Path:  "nestedForOrders",
		Inner: predicate.MustNot(&predicate.NotExists{Field: "nestedForOrders.sku"}),
	}))
	require.Equal(t, want, got)
}

func TestNestedInnerHits(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	size := 2
	want := &predicate.InnerHits{
		Name:  "top",
		Size:  &size,
		Sorts: []predicate.Sort{{Field: "nestedForOrders.price", Direction: predicate.DESC}, {Field: "nestedForOrders.sku", Direction: predicate.ASC}},
	}
	ih := `'{"name": "top", "size": 2, "sort": [{"nestedForOrders.price": {"order": "desc"}}, "nestedForOrders.sku"]}'`

	got := compileWhere(t, c, "WHERE nested(orders.sku, "+ih+") = 'A1'")
	require.Equal(t, filter(&predicate.Nested{
		Path:      "nestedForOrders",
		Inner:     &predicate.Term{Field: "nestedForOrders.sku", Value: "A1"},
		InnerHits: want,
	}), got)

	got = compileWhere(t, c, "WHERE nested(orders, sku, "+ih+") = 'A1'")
	require.Equal(t, want, got.(*predicate.Bool).Filter[0].(*predicate.Nested).InnerHits)

	got = compileWhere(t, c, "WHERE nested(orders, sku = 'A1' AND price > 3, "+ih+")")
	nested := got.(*predicate.Bool).Filter[0].(*predicate.Nested)
	require.Equal(t, want, nested.InnerHits)
	require.Len(t, nested.Inner.(*predicate.Bool).Must, 2)

	got = compileWhere(t, c, `WHERE children('order', price > 3, '{"_source": ["sku"]}')`)
	require.Equal(t, filter(&predicate.HasRelationship{
		Type:      "order",
		Inner:     &predicate.Range{Field: "price", GT: int64(3)},
		InnerHits: &predicate.InnerHits{Source: []string{"sku"}},
	}), got)

	got = compileWhere(t, c, `WHERE nested(orders.sku, '{}') = missing`)
	require.Equal(t, &predicate.InnerHits{}, got.(*predicate.Bool).Filter[0].(*predicate.Bool).MustNot[0].(*predicate.Nested).InnerHits)
}

func TestInvalidInnerHitsFail(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	for _, clause := range []string{
		`WHERE nested(orders.sku, '{"size": ') = 'A1'`,
		`WHERE nested(orders.sku, '{"unknown": 1}') = 'A1'`,
		`WHERE nested(orders.sku, '{"size": -1}') = 'A1'`,
		`WHERE nested(orders, sku = 'A1', '{"sort": [{"sku": "up"}]}')`,
		`WHERE nested(orders, sku = 'A1', '{"sort": [3]}')`,
	} {
		_, err := c.Compile("user", clause, Options{})
		var pe *qcerrors.ParseError
		require.ErrorAs(t, err, &pe, clause)
	}
}

func TestHighlightCoversSearchableFields(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	plan, err := c.Compile("user", "name = 'bob'", Options{Highlight: &Highlight{PreTag: "<b>", PostTag: "</b>"}})
	require.NoError(t, err)
	require.Equal(t, &predicate.Highlight{PreTag: "<b>", PostTag: "</b>", Fields: []string{"searchForName"}, FragmentSize: 100}, plan.Highlight)

	plan, err = c.Compile("user", "name = 'bob'", Options{})
	require.NoError(t, err)
	require.Nil(t, plan.Highlight)
}

func TestChildrenConditions(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	require.Equal(t,
		filter(&predicate.HasRelationship{Type: "order", Inner: &predicate.Range{Field: "price", GT: int64(3)}}),
		compileWhere(t, c, "WHERE children('order', price > 3)"))
	require.Equal(t,
		filter(&predicate.HasRelationship{Type: "order", Inner: &predicate.Phrase{Field: "searchForTitle", Text: "lamp"}}),
		compileWhere(t, c, "WHERE children('order', title) = 'lamp'"))
	require.Equal(t,
		filter(predicate.MustNot(&predicate.HasRelationship{Type: "order", Inner: &predicate.Range{Field: "price", GT: int64(3)}})),
		compileWhere(t, c, "WHERE NOT children('order', price > 3)"))
}

func TestIsNull(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	require.Equal(t, filter(&predicate.NotExists{Field: "city"}), compileWhere(t, c, "WHERE city IS NULL"))
	require.Equal(t, filter(&predicate.Exists{Field: "city"}), compileWhere(t, c, "WHERE city IS NOT NULL"))
	require.Equal(t, filter(&predicate.NotExists{Field: "city"}), compileWhere(t, c, "WHERE city = missing"))
}

func TestLikeAndRegexp(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	require.Equal(t, filter(&predicate.Wildcard{Field: "city", Pattern: "N*"}), compileWhere(t, c, "WHERE city LIKE 'N%'"))
	require.Equal(t, filter(&predicate.Phrase{Field: "searchForName", Text: "bo%"}), compileWhere(t, c, "WHERE name LIKE 'bo%'"))
	require.Equal(t,
		filter(predicate.MustNot(&predicate.Wildcard{Field: "city", Pattern: "N?"})),
		compileWhere(t, c, "WHERE city NOT LIKE 'N_'"))
	require.Equal(t,
		filter(&predicate.Regex{Field: "city", Pattern: "N.*", Flags: []string{"INTERSECTION", "COMPLEMENT"}, MaxDeterminizedStates: 500}),
		compileWhere(t, c, "WHERE city = regexp('N.*', 'INTERSECTION|COMPLEMENT', 500)"))
}

func TestMethodOperators(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	require.Equal(t,
		filter(&predicate.Terms{Field: "city", Values: []any{"NY", "LA"}}),
		compileWhere(t, c, "WHERE city = terms('NY', 'LA')"))
	require.Equal(t,
		filter(predicate.MustNot(&predicate.Term{Field: "city", Value: "NY"})),
		compileWhere(t, c, "WHERE city != term('NY')"))
	require.Equal(t,
		filter(&predicate.Phrase{Field: "searchForName", Text: "bob smith"}),
		compileWhere(t, c, "WHERE name = match_phrase('bob smith')"))
	require.Equal(t,
		filter(&predicate.Ids{Values: []string{"1", "2"}}),
		compileWhere(t, c, "WHERE _id = ids('1', '2')"))
}

func TestGeoFunctions(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	require.Equal(t,
		filter(&predicate.GeoDistance{Field: "location", Distance: "10km", Lon: 13.4, Lat: 52.5}),
		compileWhere(t, c, "WHERE GEO_DISTANCE(location, '10km', 13.4, 52.5)"))
	require.Equal(t,
		filter(&predicate.GeoBoundingBox{Field: "location", Left: 1, Top: 4, Right: 3, Bottom: 2}),
		compileWhere(t, c, "WHERE GEO_BOUNDING_BOX(location, 1, 4, 3, 2)"))
}

func TestGeoCannotBeNegated(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	_, err := c.Compile("user", "WHERE NOT GEO_DISTANCE(location, '10km', 1, 2)", Options{})
	var ne *qcerrors.UnsupportedNegation
	require.True(t, errors.As(err, &ne))
}

func TestScriptFunction(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	require.Equal(t,
		filter(&predicate.Script{Source: "doc.age.value > params.threshold", Params: map[string]any{"threshold": int64(18)}}),
		compileWhere(t, c, "WHERE script('doc.age.value > params.threshold', threshold = 18, script_type = 'inline')"))
	require.Equal(t,
		filter(&predicate.Script{Source: "adults", Stored: true}),
		compileWhere(t, c, "WHERE script('adults', script_type = 'stored')"))
}

func TestSubqueryValues(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	var seen string
	plan, err := c.Compile("user", "WHERE city IN (select name from cities)", Options{
		Subqueries: func(query string) ([]any, error) {
			seen = query
			return []any{"NY", "LA"}, nil
		},
	})
	require.NoError(t, err)
	require.Equal(t, "select name from cities", seen)
	require.Equal(t, filter(&predicate.Terms{Field: "city", Values: []any{"NY", "LA"}}), plan.Query)

	_, err = c.Compile("user", "WHERE city IN (select name from cities)", Options{})
	require.True(t, errors.Is(err, qcerrors.ErrSubqueryResolverMissing))
}

func TestOrderByAndLimit(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	plan, err := c.Compile("user", "WHERE age > 1 ORDER BY name desc, age, nested(orders.price) desc LIMIT 10, 20", Options{})
	require.NoError(t, err)
	require.Equal(t, []predicate.Sort{
		{Field: "searchForName", Direction: predicate.DESC},
		{Field: "age", Direction: predicate.ASC},
		{Field: "nestedForOrders.price", NestedPath: "nestedForOrders", Direction: predicate.DESC},
	}, plan.Sorts)
	require.Equal(t, 10, plan.Page.Offset)
	require.NotNil(t, plan.Page.Size)
	require.Equal(t, 20, *plan.Page.Size)
	require.Equal(t, "users", plan.Index)
	require.False(t, plan.Scoring)

	plan, err = c.Compile("user", "LIMIT 5", Options{})
	require.NoError(t, err)
	require.Equal(t, 0, plan.Page.Offset)
	require.Equal(t, 5, *plan.Page.Size)
}

func TestOrderByScoreRequestsScoring(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	plan, err := c.Compile("user", "WHERE city = 'NY' ORDER BY _score desc", Options{})
	require.NoError(t, err)
	require.True(t, plan.Scoring)
	require.Equal(t, &predicate.Term{Field: "city", Value: "NY"}, plan.Query)
	require.Equal(t, []predicate.Sort{{Field: "_score", Direction: predicate.DESC}}, plan.Sorts)
}

func TestPlaceholdersAndImplicitWhere(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	plan, err := c.Compile("user", "age > ? and city = ?", Options{Params: []any{18, "NY"}})
	require.NoError(t, err)
	require.Equal(t, compileWhere(t, c, "WHERE age > 18 AND city = 'NY'"), plan.Query)

	_, err = c.Compile("user", "age > ? and city = ?", Options{Params: []any{18}})
	require.True(t, errors.Is(err, qcerrors.ErrTooFewParameters))
}

func TestPlaceholderBackslashStaysInsideLiteral(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	hostile := `\' OR age > 0 -- `
	plan, err := c.Compile("user", "WHERE city = ? AND status = 'active'", Options{Params: []any{hostile}})
	require.NoError(t, err)
	require.Equal(t, filter(&predicate.Bool{Must: []predicate.Predicate{
		&predicate.Term{Field: "city", Value: hostile},
		&predicate.Term{Field: "status", Value: "active"},
	}}), plan.Query)

	plan, err = c.Compile("user", "WHERE city = ?", Options{Params: []any{`a\`}})
	require.NoError(t, err)
	require.Equal(t, filter(&predicate.Term{Field: "city", Value: `a\`}), plan.Query)
}

func TestScriptStringLiteralsAreEscaped(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	require.Equal(t, filter(&predicate.Script{Source: `'it\'s' == 'x'`}), compileWhere(t, c, "WHERE 'it''s' = 'x'"))

	got := compileWhere(t, c, "WHERE CASE WHEN age > 18 THEN 'O''Brien' ELSE 'x' END IN ('O''Brien')")
	want := `String tmp = ''; if((doc['age'].value>18)){tmp='O\'Brien'} else {tmp='x'} return (tmp == 'O\'Brien');`
	require.Equal(t, filter(&predicate.Script{Source: want}), got)

	plan, err := c.Compile("user", "ORDER BY case_new(gender='m','it''s',default,'x') asc", Options{})
	require.NoError(t, err)
	require.Equal(t, `if(doc['gender'].getValue() == 'm') { 'it\'s' } else 'x'`, plan.Sorts[0].Script)

	// Placeholders reach scripts too.
	plan, err = c.Compile("user", "WHERE CASE WHEN age > 18 THEN ? ELSE 'x' END IN ('a')", Options{Params: []any{`b\'c`}})
	require.NoError(t, err)
	require.Contains(t, plan.Query.(*predicate.Bool).Filter[0].(*predicate.Script).Source, `{tmp='b\\\'c'}`)
}

func TestLifecycleRange(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	plan, err := c.Compile("user", "WHERE age > 1", Options{Lifecycle: &Lifecycle{Start: start, End: end}})
	require.NoError(t, err)
	require.Equal(t, &predicate.Bool{Filter: []predicate.Predicate{
		&predicate.Range{Field: "age", GT: int64(1)},
		&predicate.Range{Field: "lifecycleForCreatedAt", GTE: start.UnixMilli(), LT: end.UnixMilli()},
	}}, plan.Query)

	_, err = c.Compile("order", "WHERE price > 1", Options{Lifecycle: &Lifecycle{Start: start}})
	require.True(t, errors.Is(err, qcerrors.ErrNoLifecycleField))
}

func TestCompileStructured(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	req := structured.Request{
		Keyword:    "bob",
		Fields:     map[string]interface{}{"city": "NY"},
		Sorts:      []structured.SortField{{Field: "age", Descending: true}},
		Pagination: &structured.Pagination{PageNo: 2, PageSize: 5},
	}
	plan, err := c.CompileStructured("user", req, Options{
		Lifecycle: &Lifecycle{Start: start},
		Highlight: &Highlight{},
	})
	require.NoError(t, err)
	require.Equal(t, "users", plan.Index)
	require.Equal(t, &predicate.Bool{Filter: []predicate.Predicate{
		&predicate.Bool{Must: []predicate.Predicate{
			&predicate.Phrase{Field: "searchForName", Text: "bob"},
			&predicate.Term{Field: "city", Value: "NY"},
		}},
		&predicate.Range{Field: "lifecycleForCreatedAt", GTE: start.UnixMilli()},
	}}, plan.Query)
	require.Equal(t, []predicate.Sort{{Field: "age", Direction: predicate.DESC}}, plan.Sorts)
	require.Equal(t, 5, plan.Page.Offset)
	require.Equal(t, 5, *plan.Page.Size)
	require.NotNil(t, plan.Highlight)
	require.Equal(t, []string{"searchForName"}, plan.Highlight.Fields)

	plan, err = c.CompileStructured("user", structured.Request{}, Options{Highlight: &Highlight{}})
	require.NoError(t, err)
	require.Equal(t, &predicate.Bool{}, plan.Query)
	require.Nil(t, plan.Highlight)
	require.Nil(t, plan.Page.Size)

	plan, err = c.CompileStructured("user", structured.Request{Fields: map[string]interface{}{"city": "NY"}}, Options{Scoring: true})
	require.NoError(t, err)
	require.Equal(t, &predicate.Bool{Must: []predicate.Predicate{&predicate.Term{Field: "city", Value: "NY"}}}, plan.Query)

	_, err = c.CompileStructured("nobody", structured.Request{}, Options{})
	require.ErrorIs(t, err, qcerrors.ErrEntityTypeNotFound)

	_, err = c.CompileStructured("user", structured.Request{Where: &structured.Expression{Field: "age", Operator: "NOPE"}}, Options{})
	require.True(t, qcerrors.IsCompileError(err))
}

func TestExpiryPlan(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	plan, err := c.ExpiryPlan("user", now)
	require.NoError(t, err)
	require.Equal(t, &predicate.Bool{Filter: []predicate.Predicate{
		&predicate.Range{Field: "lifecycleForCreatedAt", LT: now.Add(-720 * time.Hour).UnixMilli()},
	}}, plan.Query)

	_, err = c.ExpiryPlan("order", now)
	require.True(t, errors.Is(err, qcerrors.ErrNoLifecycleField))
}

func TestDiscriminatorFromMetadataFile(t *testing.T) {
	t.Parallel()
	reg, err := metadata.LoadFile("../metadata/testdata/entities.yaml", "")
	require.NoError(t, err)
	c := New(reg, "")
	plan, err := c.Compile("user", "WHERE age > 1", Options{})
	require.NoError(t, err)
	require.Equal(t, &predicate.Bool{Filter: []predicate.Predicate{
		&predicate.Range{Field: "age", GT: int64(1)},
		&predicate.Term{Field: "_class", Value: "com.example.User"},
	}}, plan.Query)

	plan, err = c.Compile("user", "WHERE city = 'NY'", Options{Scoring: true})
	require.NoError(t, err)
	require.Equal(t, &predicate.Bool{
		Must:   []predicate.Predicate{&predicate.Term{Field: "city", Value: "NY"}},
		Filter: []predicate.Predicate{&predicate.Term{Field: "_class", Value: "com.example.User"}},
	}, plan.Query)
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)

	_, err := c.Compile("ghost", "WHERE a = 1", Options{})
	require.True(t, errors.Is(err, qcerrors.ErrEntityTypeNotFound))

	_, err = c.Compile("user", "WHERE unknown = 1", Options{})
	var fe *qcerrors.FieldResolutionError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, "unknown", fe.Property)

	var pe *qcerrors.ParseError
	_, err = c.Compile("user", "WHERE age >", Options{})
	require.True(t, errors.As(err, &pe))

	_, err = c.Compile("user", "WHERE age", Options{})
	require.True(t, errors.As(err, &pe))

	_, err = c.Compile("user", "WHERE frobnicate(age)", Options{})
	require.True(t, errors.As(err, &pe))

	_, err = c.Compile("user", "WHERE random() > 1", Options{})
	require.True(t, errors.As(err, &pe))

	_, err = c.Compile("user", "WHERE age > 1 GROUP BY city", Options{})
	require.True(t, errors.As(err, &pe))
	require.True(t, qcerrors.IsCompileError(err))
}

func TestConcurrentCompilationGeneratesDistinctNames(t *testing.T) {
	t.Parallel()
	c := newTestCompiler(t)
	const workers = 32
	sources := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			plan, err := c.Compile("user", fmt.Sprintf("WHERE add(age, %d) > 10", i), Options{})
			if err != nil {
				return
			}
			sources[i] = plan.Query.(*predicate.Bool).Filter[0].(*predicate.Script).Source
		}(i)
	}
	wg.Wait()

	names := map[string]bool{}
	re := regexp.MustCompile(`add_\d+`)
	for _, src := range sources {
		require.NotEmpty(t, src)
		name := re.FindString(src)
		require.False(t, names[name], "duplicate script variable %s", name)
		names[name] = true
	}
}
