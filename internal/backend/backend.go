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

// Package backend defines what the query service needs from a document store. The
// postgres, mongodb and elasticsearch packages each provide one.
package backend

import (
	"context"
	"encoding/json"

	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/predicate"
)

// Document is one matching document with its JSON source. Highlight and InnerHits are only
// filled by stores that support them.
type Document struct {
	ID        string                `json:"id"`
	Score     *float64              `json:"score,omitempty"`
	Source    json.RawMessage       `json:"source"`
	Highlight map[string][]string   `json:"highlight,omitempty"`
	InnerHits map[string][]Document `json:"innerHits,omitempty"`
}

// Store executes compiled plans.
type Store interface {
	Search(ctx context.Context, plan *predicate.QueryPlan) ([]Document, error)
	Count(ctx context.Context, plan *predicate.QueryPlan) (int64, error)
	DeleteMatching(ctx context.Context, plan *predicate.QueryPlan) (int64, error)
}
