package compiler

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/temporalio/sqlparser"

	qcerrors "github.com/mogudian/elasticsearch-orm/internal/querycompiler/errors"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/predicate"
)

// innerHitsBody is the JSON accepted as the last argument of nested(...):
//
//	{"name": "top", "from": 0, "size": 3, "sort": [{"items.price": "desc"}, "items.sku"], "_source": ["items.sku"]}
//
// A sort entry is a field name (ascending), {field: order} or {field: {"order": order}}.
type innerHitsBody struct {
	Name   string   `json:"name"`
	From   int      `json:"from"`
	Size   *int     `json:"size"`
	Sort   []any    `json:"sort"`
	Source []string `json:"_source"`
}

// splitInnerHits removes a trailing inner hits argument from args. A string literal counts as
// one when its text is a JSON object.
func splitInnerHits(args []sqlparser.Expr) ([]sqlparser.Expr, *predicate.InnerHits, error) {
	if len(args) < 2 || !isStringLiteral(args[len(args)-1]) {
		return args, nil, nil
	}
	last := unparen(args[len(args)-1]).(*sqlparser.SQLVal)
	text := strings.TrimSpace(string(last.Val))
	if !strings.HasPrefix(text, "{") {
		return args, nil, nil
	}
	ih, err := parseInnerHits(text)
	if err != nil {
		return nil, nil, err
	}
	return args[:len(args)-1], ih, nil
}

func parseInnerHits(text string) (*predicate.InnerHits, error) {
	var body innerHitsBody
	var json = jsoniter.ConfigCompatibleWithStandardLibrary
	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		return nil, qcerrors.Parse(text, "invalid inner hits: %v", err)
	}
	if body.From < 0 || (body.Size != nil && *body.Size < 0) {
		return nil, qcerrors.Parse(text, "inner hits from and size must not be negative")
	}
	ih := &predicate.InnerHits{Name: body.Name, From: body.From, Size: body.Size, Source: body.Source}
	for _, entry := range body.Sort {
		s, err := innerHitsSort(entry)
		if err != nil {
			return nil, qcerrors.Parse(text, "%v", err)
		}
		ih.Sorts = append(ih.Sorts, s...)
	}
	return ih, nil
}

func innerHitsSort(entry any) ([]predicate.Sort, error) {
	switch v := entry.(type) {
	case string:
		return []predicate.Sort{{Field: v, Direction: predicate.ASC}}, nil
	case map[string]any:
		fields := make([]string, 0, len(v))
		for f := range v {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		out := make([]predicate.Sort, 0, len(fields))
		for _, f := range fields {
			order := v[f]
			if m, ok := order.(map[string]any); ok {
				order = m["order"]
			}
			dir, ok := order.(string)
			if !ok {
				return nil, errInnerHitsSort(f)
			}
			switch strings.ToLower(dir) {
			case "asc":
				out = append(out, predicate.Sort{Field: f, Direction: predicate.ASC})
			case "desc":
				out = append(out, predicate.Sort{Field: f, Direction: predicate.DESC})
			default:
				return nil, errInnerHitsSort(f)
			}
		}
		return out, nil
	}
	return nil, errors.New("inner hits sort entries must be names or objects")
}

func errInnerHitsSort(field string) error {
	return fmt.Errorf("inner hits sort order of %s must be asc or desc", field)
}
