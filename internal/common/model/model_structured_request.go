package model

import (
	"fmt"

	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/structured"
)

// HighlightConfig asks for highlighted fragments of the searchable properties. Empty tags
// select the store defaults.
type HighlightConfig struct {
	PreTag  string `json:"preTag,omitempty"`
	PostTag string `json:"postTag,omitempty"`
}

// StructuredSearchRequest is a search written as data: a keyword, exact property values and
// an expression tree. All given parts must match.
type StructuredSearchRequest struct {
	EntityType string                 `json:"entityType"`
	Keyword    string                 `json:"keyword,omitempty"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
	Where      *structured.Expression `json:"where,omitempty"`
	Sorts      []structured.SortField `json:"sorts,omitempty"`
	Pagination *structured.Pagination `json:"pagination,omitempty"`
	Highlight  *HighlightConfig       `json:"highlight,omitempty"`
	Lifecycle  *LifecycleWindow       `json:"lifecycle,omitempty"`
	Scoring    *bool                  `json:"scoring,omitempty"`
}

// Request returns the compiler form of r.
func (r StructuredSearchRequest) Request() structured.Request {
	return structured.Request{
		Keyword:    r.Keyword,
		Fields:     r.Fields,
		Where:      r.Where,
		Sorts:      r.Sorts,
		Pagination: r.Pagination,
	}
}

// AssertStructuredSearchRequestRequired checks if the required fields are not zero-ed
func AssertStructuredSearchRequestRequired(obj StructuredSearchRequest) error {
	if IsZeroValue(obj.EntityType) {
		return &RequiredError{Field: "entityType"}
	}
	for i, s := range obj.Sorts {
		if IsZeroValue(s.Field) {
			return &RequiredError{Field: fmt.Sprintf("sorts[%d].field", i)}
		}
	}
	return nil
}

// AssertStructuredSearchRequestConstraints checks if the values respects the defined constraints
func AssertStructuredSearchRequestConstraints(obj StructuredSearchRequest) error {
	return AssertCompileRequestConstraints(CompileRequest{Lifecycle: obj.Lifecycle})
}
