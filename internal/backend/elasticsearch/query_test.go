package elasticsearch

import (
	"encoding/json"
	"testing"

	"github.com/olivere/elastic/v7"
	"github.com/stretchr/testify/require"

	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/predicate"
)

func sourceJSON(t *testing.T, s elastic.Query) string {
	t.Helper()
	src, err := s.Source()
	require.NoError(t, err)
	out, err := json.Marshal(src)
	require.NoError(t, err)
	return string(out)
}

func TestQueryLeaves(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		p    predicate.Predicate
		want string
	}{
		{"term", &predicate.Term{Field: "city", Value: "NY"}, `{"term":{"city":"NY"}}`},
		{"exists", &predicate.Exists{Field: "city"}, `{"exists":{"field":"city"}}`},
		{"ids", &predicate.Ids{Values: []string{"1", "2"}}, `{"ids":{"values":["1","2"]}}`},
		{"phrase", &predicate.Phrase{Field: "searchForName", Text: "bob"}, `{"match_phrase":{"searchForName":{"query":"bob"}}}`},
		{"match all", nil, `{"match_all":{}}`},
		{"empty bool", &predicate.Bool{}, `{"match_all":{}}`},
		{"nested", &predicate.Nested{Path: "nestedForOrders", Inner: &predicate.Term{Field: "nestedForOrders.sku", Value: "A1"}},
			`{"nested":{"path":"nestedForOrders","query":{"term":{"nestedForOrders.sku":"A1"}}}}`},
		{"has child", &predicate.HasRelationship{Type: "order", Inner: &predicate.Exists{Field: "price"}},
			`{"has_child":{"query":{"exists":{"field":"price"}},"type":"order"}}`},
		{"geo shape", &predicate.GeoIntersects{Field: "area", WKT: "POINT (1 2)"},
			`{"geo_shape":{"area":{"relation":"intersects","shape":"POINT (1 2)"}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Query(tt.p)
			require.NoError(t, err)
			require.JSONEq(t, tt.want, sourceJSON(t, q))
		})
	}
}

func TestRangeAndRegexOptions(t *testing.T) {
	t.Parallel()
	q, err := Query(&predicate.Range{Field: "age", GT: int64(18)})
	require.NoError(t, err)
	src := sourceJSON(t, q)
	require.Contains(t, src, `"from":18`)
	require.Contains(t, src, `"include_lower":false`)

	q, err = Query(&predicate.Regex{Field: "city", Pattern: "N.*", Flags: []string{"INTERSECTION", "COMPLEMENT"}, MaxDeterminizedStates: 500})
	require.NoError(t, err)
	src = sourceJSON(t, q)
	require.Contains(t, src, `"flags":"INTERSECTION|COMPLEMENT"`)
	require.Contains(t, src, `"max_determinized_states":500`)
}

func TestBoolKeepsShouldMandatoryNextToMust(t *testing.T) {
	t.Parallel()
	q, err := Query(&predicate.Bool{
		Must: []predicate.Predicate{&predicate.Range{Field: "age", GT: int64(18)}},
		Should: []predicate.Predicate{
			&predicate.Term{Field: "city", Value: "NY"},
			&predicate.Term{Field: "city", Value: "LA"},
		},
	})
	require.NoError(t, err)
	require.Contains(t, sourceJSON(t, q), `"minimum_should_match":"1"`)

	q, err = Query(&predicate.Bool{Should: []predicate.Predicate{&predicate.Term{Field: "city", Value: "NY"}}})
	require.NoError(t, err)
	require.NotContains(t, sourceJSON(t, q), "minimum_should_match")

	q, err = Query(predicate.MustNot(&predicate.Exists{Field: "city"}))
	require.NoError(t, err)
	require.Contains(t, sourceJSON(t, q), `"must_not"`)
}

func TestScripts(t *testing.T) {
	t.Parallel()
	q, err := Query(&predicate.Script{Source: "doc['age'].value > params.threshold", Params: map[string]any{"threshold": 18}})
	require.NoError(t, err)
	require.JSONEq(t, `{"script":{"script":{"lang":"painless","params":{"threshold":18},"source":"doc['age'].value > params.threshold"}}}`, sourceJSON(t, q))

	q, err = Query(&predicate.Script{Source: "adults", Stored: true})
	require.NoError(t, err)
	require.JSONEq(t, `{"script":{"script":{"id":"adults"}}}`, sourceJSON(t, q))
}

func TestSearchSource(t *testing.T) {
	t.Parallel()
	size := 20
	src, err := SearchSource(&predicate.QueryPlan{
		Query: &predicate.Term{Field: "city", Value: "NY"},
		Sorts: []predicate.Sort{
			{Field: "age", Direction: predicate.DESC},
			{Field: "nestedForOrders.price", NestedPath: "nestedForOrders", Direction: predicate.ASC},
			{Script: "doc['age'].value * 2", ScriptType: "number", Direction: predicate.ASC},
		},
		Page: predicate.Page{Offset: 10, Size: &size},
	})
	require.NoError(t, err)
	body, err := src.Source()
	require.NoError(t, err)
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.EqualValues(t, 10, decoded["from"])
	require.EqualValues(t, 20, decoded["size"])
	require.Len(t, decoded["sort"], 3)
	require.Contains(t, string(raw), `"order":"desc"`)
	require.Contains(t, string(raw), `"nested":{"path":"nestedForOrders"}`)
	require.Contains(t, string(raw), `"_script"`)
	require.Contains(t, string(raw), `"type":"number"`)
}

func TestNestedInnerHits(t *testing.T) {
	t.Parallel()
	size := 2
	q, err := Query(&predicate.Nested{
		Path:  "nestedForOrders",
		Inner: &predicate.Term{Field: "nestedForOrders.sku", Value: "A1"},
		InnerHits: &predicate.InnerHits{
			Name:   "top",
			Size:   &size,
			Sorts:  []predicate.Sort{{Field: "nestedForOrders.price", Direction: predicate.DESC}},
			Source: []string{"nestedForOrders.sku"},
		},
	})
	require.NoError(t, err)
	src := sourceJSON(t, q)
	require.Contains(t, src, `"inner_hits":{`)
	require.Contains(t, src, `"name":"top"`)
	require.Contains(t, src, `"size":2`)
	require.Contains(t, src, `"includes":["nestedForOrders.sku"]`)
	require.Contains(t, src, `{"nestedForOrders.price":{"order":"desc"}}`)

	q, err = Query(&predicate.HasRelationship{Type: "order", Inner: &predicate.Exists{Field: "price"}, InnerHits: &predicate.InnerHits{}})
	require.NoError(t, err)
	require.Contains(t, sourceJSON(t, q), `"inner_hits":{`)
}

func TestSearchSourceHighlight(t *testing.T) {
	t.Parallel()
	src, err := SearchSource(&predicate.QueryPlan{
		Query:     &predicate.Phrase{Field: "searchForName", Text: "bob"},
		Highlight: &predicate.Highlight{PreTag: "<b>", PostTag: "</b>", Fields: []string{"searchForName"}, FragmentSize: 100},
	})
	require.NoError(t, err)
	body, err := src.Source()
	require.NoError(t, err)
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	var decoded struct {
		Highlight struct {
			Fields            map[string]any `json:"fields"`
			PreTags           []string       `json:"pre_tags"`
			PostTags          []string       `json:"post_tags"`
			FragmentSize      int            `json:"fragment_size"`
			RequireFieldMatch *bool          `json:"require_field_match"`
		} `json:"highlight"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Contains(t, decoded.Highlight.Fields, "searchForName")
	require.Equal(t, []string{"<b>"}, decoded.Highlight.PreTags)
	require.Equal(t, []string{"</b>"}, decoded.Highlight.PostTags)
	require.Equal(t, 100, decoded.Highlight.FragmentSize)
	require.NotNil(t, decoded.Highlight.RequireFieldMatch)
	require.False(t, *decoded.Highlight.RequireFieldMatch)

	src, err = SearchSource(&predicate.QueryPlan{Highlight: &predicate.Highlight{}})
	require.NoError(t, err)
	body, err = src.Source()
	require.NoError(t, err)
	require.NotContains(t, body, "highlight")
}
