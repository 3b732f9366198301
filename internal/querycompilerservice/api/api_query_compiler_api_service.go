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

// Package api implements the query compiler HTTP service on top of the compiler, the entity
// registry and an optional document store.
package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mogudian/elasticsearch-orm/internal/backend"
	"github.com/mogudian/elasticsearch-orm/internal/common"
	"github.com/mogudian/elasticsearch-orm/internal/common/model"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/compiler"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/config"
	qcerrors "github.com/mogudian/elasticsearch-orm/internal/querycompiler/errors"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/metadata"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/predicate"
	"github.com/mogudian/elasticsearch-orm/internal/querycompilerservice/metrics"
)

const (
	componentName = "QC"
)

// errNoStore is returned by search and count when no document store is configured.
var errNoStore = common.NewInternalServerError("no document store configured")

// QueryCompilerAPIService implements the QueryCompilerAPIServicer.
type QueryCompilerAPIService struct {
	compiler       *compiler.Compiler
	registry       *metadata.Registry
	store          backend.Store
	defaultScoring bool
}

// NewQueryCompilerAPIService creates a default api service. store may be nil, in which case
// only compilation is available.
func NewQueryCompilerAPIService(c *compiler.Compiler, registry *metadata.Registry, store backend.Store, defaultScoring bool) *QueryCompilerAPIService {
	return &QueryCompilerAPIService{
		compiler:       c,
		registry:       registry,
		store:          store,
		defaultScoring: defaultScoring,
	}
}

func (s *QueryCompilerAPIService) options(scoring *bool, lc *model.LifecycleWindow, hl *model.HighlightConfig) compiler.Options {
	opts := compiler.Options{Scoring: s.defaultScoring}
	if scoring != nil {
		opts.Scoring = *scoring
	}
	if lc != nil {
		window := &compiler.Lifecycle{}
		if lc.Start != nil {
			window.Start = *lc.Start
		}
		if lc.End != nil {
			window.End = *lc.End
		}
		opts.Lifecycle = window
	}
	if hl != nil {
		opts.Highlight = &compiler.Highlight{PreTag: hl.PreTag, PostTag: hl.PostTag}
	}
	return opts
}

// compile compiles req and records the compilation metrics.
func (s *QueryCompilerAPIService) compile(req model.CompileRequest) (*predicate.QueryPlan, error) {
	started := time.Now()
	opts := s.options(req.Scoring, req.Lifecycle, req.Highlight)
	opts.Params = req.Params
	plan, err := s.compiler.Compile(req.EntityType, req.Clause, opts)
	metrics.ObserveCompile(req.EntityType, started, err)
	return plan, err
}

// compileStructured compiles a structured request and records the compilation metrics.
func (s *QueryCompilerAPIService) compileStructured(req model.StructuredSearchRequest) (*predicate.QueryPlan, error) {
	started := time.Now()
	plan, err := s.compiler.CompileStructured(req.EntityType, req.Request(), s.options(req.Scoring, req.Lifecycle, req.Highlight))
	metrics.ObserveCompile(req.EntityType, started, err)
	return plan, err
}

// errorResponse maps err onto a response. Client errors are answered without returning the
// error so the controller writes the prepared body; server errors are returned as well.
func errorResponse(err error, operation string) (model.ImplResponse, error) {
	switch {
	case common.IsErrNotFound(err):
		return model.Response(http.StatusNotFound, model.NewErrorResult(err, operation+"NotFound")), nil
	case qcerrors.IsCompileError(err), common.IsErrBadRequest(err):
		return model.Response(http.StatusBadRequest, model.NewErrorResult(err, operation+"BadRequest")), nil
	case common.IsErrConflict(err):
		return model.Response(http.StatusConflict, model.NewErrorResult(err, operation+"Conflict")), nil
	}
	log.Printf("📍 [%s] Error in %s: %v", componentName, operation, err)
	return model.Response(http.StatusInternalServerError, model.NewErrorResult(err, operation+"InternalServerError")), err
}

// CompileQuery - Compiles one clause into a query plan
func (s *QueryCompilerAPIService) CompileQuery(_ context.Context, req model.CompileRequest) (model.ImplResponse, error) {
	plan, err := s.compile(req)
	if err != nil {
		return errorResponse(err, "CompileQuery")
	}
	return model.Response(http.StatusOK, model.NewCompiledPlan(plan)), nil
}

// CompileQueryBatch - Compiles several clauses concurrently. A failing clause does not fail the
// batch; its item carries the error instead.
func (s *QueryCompilerAPIService) CompileQueryBatch(ctx context.Context, batch model.BatchCompileRequest) (model.ImplResponse, error) {
	results := make([]model.BatchItem, len(batch.Requests))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.BatchWorkerLimit)
	for i, req := range batch.Requests {
		i, req := i, req
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			item := model.BatchItem{Index: i}
			plan, err := s.compile(req)
			if err != nil {
				if metrics.Outcome(err) == metrics.OutcomeError {
					return err
				}
				msg := model.NewMessage(err, metrics.Outcome(err))
				item.Error = &msg
			} else {
				compiled := model.NewCompiledPlan(plan)
				item.Plan = &compiled
			}
			results[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return errorResponse(err, "CompileQueryBatch")
	}
	return model.Response(http.StatusOK, model.BatchCompileResult{Results: results}), nil
}

// SearchDocuments - Compiles a clause and runs it against the document store
func (s *QueryCompilerAPIService) SearchDocuments(ctx context.Context, req model.CompileRequest) (model.ImplResponse, error) {
	if s.store == nil {
		return errorResponse(errNoStore, "SearchDocuments")
	}
	plan, err := s.compile(req)
	if err != nil {
		return errorResponse(err, "SearchDocuments")
	}
	return s.search(ctx, plan, "SearchDocuments")
}

// CompileStructured - Compiles a structured search request into a query plan
func (s *QueryCompilerAPIService) CompileStructured(_ context.Context, req model.StructuredSearchRequest) (model.ImplResponse, error) {
	plan, err := s.compileStructured(req)
	if err != nil {
		return errorResponse(err, "CompileStructured")
	}
	return model.Response(http.StatusOK, model.NewCompiledPlan(plan)), nil
}

// SearchStructured - Compiles a structured search request and runs it against the document store
func (s *QueryCompilerAPIService) SearchStructured(ctx context.Context, req model.StructuredSearchRequest) (model.ImplResponse, error) {
	if s.store == nil {
		return errorResponse(errNoStore, "SearchStructured")
	}
	plan, err := s.compileStructured(req)
	if err != nil {
		return errorResponse(err, "SearchStructured")
	}
	return s.search(ctx, plan, "SearchStructured")
}

// search runs plan and counts its total matches.
func (s *QueryCompilerAPIService) search(ctx context.Context, plan *predicate.QueryPlan, operation string) (model.ImplResponse, error) {
	docs, err := s.store.Search(ctx, plan)
	if err != nil {
		return errorResponse(err, operation)
	}
	total, err := s.store.Count(ctx, plan)
	if err != nil {
		return errorResponse(err, operation)
	}
	if docs == nil {
		docs = []backend.Document{}
	}
	return model.Response(http.StatusOK, model.SearchResult{
		PagingMetadata: model.PagedResultPagingMetadata{Offset: plan.Page.Offset, Size: plan.Page.Size, Total: total},
		Result:         docs,
	}), nil
}

// CountDocuments - Compiles a clause and counts its matches in the document store
func (s *QueryCompilerAPIService) CountDocuments(ctx context.Context, req model.CompileRequest) (model.ImplResponse, error) {
	if s.store == nil {
		return errorResponse(errNoStore, "CountDocuments")
	}
	plan, err := s.compile(req)
	if err != nil {
		return errorResponse(err, "CountDocuments")
	}
	n, err := s.store.Count(ctx, plan)
	if err != nil {
		return errorResponse(err, "CountDocuments")
	}
	return model.Response(http.StatusOK, model.CountResult{Count: n}), nil
}

// GetAllEntityTypes - Returns all registered entity types
func (s *QueryCompilerAPIService) GetAllEntityTypes(_ context.Context) (model.ImplResponse, error) {
	names := s.registry.Names()
	out := make([]model.EntityTypeDescription, 0, len(names))
	for _, name := range names {
		e, err := s.registry.Entity(name)
		if err != nil {
			return errorResponse(err, "GetAllEntityTypes")
		}
		out = append(out, model.NewEntityTypeDescription(e))
	}
	return model.Response(http.StatusOK, out), nil
}

// GetEntityTypeByName - Returns one entity type
func (s *QueryCompilerAPIService) GetEntityTypeByName(_ context.Context, name string) (model.ImplResponse, error) {
	e, err := s.registry.Entity(name)
	if err != nil {
		return errorResponse(err, "GetEntityTypeByName")
	}
	return model.Response(http.StatusOK, model.NewEntityTypeDescription(e)), nil
}
