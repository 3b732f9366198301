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

package elasticsearch

import (
	"context"
	"fmt"

	"github.com/olivere/elastic/v7"

	"github.com/mogudian/elasticsearch-orm/internal/backend"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/logger"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/predicate"
)

// Store executes query plans on an Elasticsearch cluster.
type Store struct {
	client *elastic.Client
}

var _ backend.Store = (*Store)(nil)

// NewStore wraps a client.
func NewStore(client *elastic.Client) *Store {
	return &Store{client: client}
}

// Connect creates a client for urls. Sniffing is disabled so single-node and proxied
// clusters work without extra configuration.
func Connect(urls []string, username, password string, healthcheck bool) (*Store, error) {
	opts := []elastic.ClientOptionFunc{
		elastic.SetURL(urls...),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(healthcheck),
	}
	if username != "" {
		opts = append(opts, elastic.SetBasicAuth(username, password))
	}
	client, err := elastic.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}
	return NewStore(client), nil
}

// Search runs a plan and returns its hits in order.
func (s *Store) Search(ctx context.Context, plan *predicate.QueryPlan) ([]backend.Document, error) {
	src, err := SearchSource(plan)
	if err != nil {
		return nil, err
	}
	res, err := s.client.Search(plan.Index).SearchSource(src).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", plan.Index, err)
	}
	return documents(res.Hits), nil
}

func documents(hits *elastic.SearchHits) []backend.Document {
	if hits == nil {
		return nil
	}
	docs := make([]backend.Document, 0, len(hits.Hits))
	for _, hit := range hits.Hits {
		doc := backend.Document{ID: hit.Id, Score: hit.Score, Source: hit.Source}
		if len(hit.Highlight) > 0 {
			doc.Highlight = hit.Highlight
		}
		for name, inner := range hit.InnerHits {
			if inner == nil {
				continue
			}
			if doc.InnerHits == nil {
				doc.InnerHits = make(map[string][]backend.Document, len(hit.InnerHits))
			}
			doc.InnerHits[name] = documents(inner.Hits)
		}
		docs = append(docs, doc)
	}
	return docs
}

// Count returns the number of documents matching a plan.
func (s *Store) Count(ctx context.Context, plan *predicate.QueryPlan) (int64, error) {
	q, err := Query(plan.Query)
	if err != nil {
		return 0, err
	}
	n, err := s.client.Count(plan.Index).Query(q).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", plan.Index, err)
	}
	return n, nil
}

// DeleteMatching deletes the documents matching a plan by query and returns how many were removed.
func (s *Store) DeleteMatching(ctx context.Context, plan *predicate.QueryPlan) (int64, error) {
	q, err := Query(plan.Query)
	if err != nil {
		return 0, err
	}
	res, err := s.client.DeleteByQuery(plan.Index).Query(q).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", plan.Index, err)
	}
	logger.LogInfo(fmt.Sprintf("deleted %d documents from %s", res.Deleted, plan.Index))
	return res.Deleted, nil
}
