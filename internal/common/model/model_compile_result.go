package model

import (
	"errors"
	"fmt"

	"github.com/mogudian/elasticsearch-orm/internal/backend"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/predicate"
)

var errLifecycleOrder = errors.New("end must not be before start")

func errBatchTooLarge(maxSize int) error {
	return fmt.Errorf("at most %d requests per batch", maxSize)
}

// CompiledPlan is the JSON form of a query plan.
type CompiledPlan struct {
	EntityType string               `json:"entityType"`
	Index      string               `json:"index,omitempty"`
	Query      map[string]any       `json:"query"`
	Sorts      []predicate.Sort     `json:"sorts,omitempty"`
	Page       predicate.Page       `json:"page"`
	Highlight  *predicate.Highlight `json:"highlight,omitempty"`
	Scoring    bool                 `json:"scoring"`
}

// NewCompiledPlan converts a plan into its JSON form.
func NewCompiledPlan(plan *predicate.QueryPlan) CompiledPlan {
	return CompiledPlan{
		EntityType: plan.EntityType,
		Index:      plan.Index,
		Query:      predicate.Describe(plan.Query),
		Sorts:      plan.Sorts,
		Page:       plan.Page,
		Highlight:  plan.Highlight,
		Scoring:    plan.Scoring,
	}
}

// BatchItem is the outcome of one request of a batch: a plan or an error message.
type BatchItem struct {
	Index int           `json:"index"`
	Plan  *CompiledPlan `json:"plan,omitempty"`
	Error *Message      `json:"error,omitempty"`
}

// BatchCompileResult lists the outcomes of a batch in request order.
type BatchCompileResult struct {
	Results []BatchItem `json:"results"`
}

// SearchResult is the body of a search request.
type SearchResult struct {
	PagingMetadata PagedResultPagingMetadata `json:"paging_metadata"`
	Result         []backend.Document        `json:"result"`
}

// CountResult is the body of a count request.
type CountResult struct {
	Count int64 `json:"count"`
}
