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

package querycompilerapi

import (
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mogudian/elasticsearch-orm/internal/common"
	"github.com/mogudian/elasticsearch-orm/internal/common/model"
	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/config"
)

const (
	componentName = "QC_API"
)

// QueryCompilerAPIController binds http requests to an api service and writes the service results to the http response
type QueryCompilerAPIController struct {
	service      QueryCompilerAPIServicer
	errorHandler model.ErrorHandler
}

// QueryCompilerAPIOption for how the controller is set up.
type QueryCompilerAPIOption func(*QueryCompilerAPIController)

// WithQueryCompilerAPIErrorHandler inject ErrorHandler into controller
func WithQueryCompilerAPIErrorHandler(h model.ErrorHandler) QueryCompilerAPIOption {
	return func(c *QueryCompilerAPIController) {
		c.errorHandler = h
	}
}

// NewQueryCompilerAPIController creates a default api controller
func NewQueryCompilerAPIController(s QueryCompilerAPIServicer, opts ...QueryCompilerAPIOption) *QueryCompilerAPIController {
	controller := &QueryCompilerAPIController{
		service:      s,
		errorHandler: model.DefaultErrorHandler,
	}

	for _, opt := range opts {
		opt(controller)
	}

	return controller
}

// Routes returns all the api routes for the QueryCompilerAPIController
func (c *QueryCompilerAPIController) Routes() model.Routes {
	return model.Routes{
		"CompileQuery": model.Route{
			Method:      strings.ToUpper("Post"),
			Pattern:     "/compile",
			HandlerFunc: c.CompileQuery,
		},
		"CompileQueryBatch": model.Route{
			Method:      strings.ToUpper("Post"),
			Pattern:     "/compile/batch",
			HandlerFunc: c.CompileQueryBatch,
		},
		"SearchDocuments": model.Route{
			Method:      strings.ToUpper("Post"),
			Pattern:     "/search",
			HandlerFunc: c.SearchDocuments,
		},
		"CountDocuments": model.Route{
			Method:      strings.ToUpper("Post"),
			Pattern:     "/count",
			HandlerFunc: c.CountDocuments,
		},
		"CompileStructured": model.Route{
			Method:      strings.ToUpper("Post"),
			Pattern:     "/compile/structured",
			HandlerFunc: c.CompileStructured,
		},
		"SearchStructured": model.Route{
			Method:      strings.ToUpper("Post"),
			Pattern:     "/search/structured",
			HandlerFunc: c.SearchStructured,
		},
		"GetAllEntityTypes": model.Route{
			Method:      strings.ToUpper("Get"),
			Pattern:     "/entities",
			HandlerFunc: c.GetAllEntityTypes,
		},
		"GetEntityTypeByName": model.Route{
			Method:      strings.ToUpper("Get"),
			Pattern:     "/entities/{entityType}",
			HandlerFunc: c.GetEntityTypeByName,
		},
	}
}

// decode reads a JSON body, keeping numbers as json.Number so integer parameters stay exact.
func decode(body io.Reader, v interface{}) error {
	raw, err := io.ReadAll(body)
	if err != nil {
		return &model.ParsingError{Param: "RequestBody", Err: err}
	}
	if err := common.UnmarshalAndDisallowUnknownFields(raw, v); err != nil {
		return &model.ParsingError{Param: "RequestBody", Err: err}
	}
	return nil
}

// decodeCompileRequest reads and validates a single compile request.
func (c *QueryCompilerAPIController) decodeCompileRequest(w http.ResponseWriter, r *http.Request, operation string) (model.CompileRequest, bool) {
	var req model.CompileRequest
	if err := decode(r.Body, &req); err != nil {
		log.Printf("🧩 [%s] Error in %s: decode body: %v", componentName, operation, err)
		c.errorHandler(w, r, err, nil)
		return req, false
	}
	if err := model.AssertCompileRequestRequired(req); err != nil {
		log.Printf("🧩 [%s] Error in %s: required validation failed: %v", componentName, operation, err)
		c.errorHandler(w, r, err, nil)
		return req, false
	}
	if err := model.AssertCompileRequestConstraints(req); err != nil {
		log.Printf("🧩 [%s] Error in %s: constraints validation failed: %v", componentName, operation, err)
		c.errorHandler(w, r, err, nil)
		return req, false
	}
	return req, true
}

// CompileQuery - Compiles one clause into a query plan
func (c *QueryCompilerAPIController) CompileQuery(w http.ResponseWriter, r *http.Request) {
	req, ok := c.decodeCompileRequest(w, r, "CompileQuery")
	if !ok {
		return
	}
	result, err := c.service.CompileQuery(r.Context(), req)
	if err != nil {
		log.Printf("🧩 [%s] Error in CompileQuery: service failure (entityType=%q): %v", componentName, req.EntityType, err)
		c.errorHandler(w, r, err, &result)
		return
	}
	_ = model.EncodeJSONResponse(result.Body, &result.Code, w)
}

// CompileQueryBatch - Compiles several clauses concurrently
func (c *QueryCompilerAPIController) CompileQueryBatch(w http.ResponseWriter, r *http.Request) {
	var batch model.BatchCompileRequest
	if err := decode(r.Body, &batch); err != nil {
		log.Printf("🧩 [%s] Error in CompileQueryBatch: decode body: %v", componentName, err)
		c.errorHandler(w, r, err, nil)
		return
	}
	if err := model.AssertBatchCompileRequestRequired(batch, config.MaxBatchSize); err != nil {
		log.Printf("🧩 [%s] Error in CompileQueryBatch: validation failed: %v", componentName, err)
		c.errorHandler(w, r, err, nil)
		return
	}
	result, err := c.service.CompileQueryBatch(r.Context(), batch)
	if err != nil {
		log.Printf("🧩 [%s] Error in CompileQueryBatch: service failure (size=%d): %v", componentName, len(batch.Requests), err)
		c.errorHandler(w, r, err, &result)
		return
	}
	_ = model.EncodeJSONResponse(result.Body, &result.Code, w)
}

// SearchDocuments - Compiles a clause and runs it against the document store
func (c *QueryCompilerAPIController) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	req, ok := c.decodeCompileRequest(w, r, "SearchDocuments")
	if !ok {
		return
	}
	result, err := c.service.SearchDocuments(r.Context(), req)
	if err != nil {
		log.Printf("🧩 [%s] Error in SearchDocuments: service failure (entityType=%q): %v", componentName, req.EntityType, err)
		c.errorHandler(w, r, err, &result)
		return
	}
	_ = model.EncodeJSONResponse(result.Body, &result.Code, w)
}

// CountDocuments - Compiles a clause and counts its matches in the document store
func (c *QueryCompilerAPIController) CountDocuments(w http.ResponseWriter, r *http.Request) {
	req, ok := c.decodeCompileRequest(w, r, "CountDocuments")
	if !ok {
		return
	}
	result, err := c.service.CountDocuments(r.Context(), req)
	if err != nil {
		log.Printf("🧩 [%s] Error in CountDocuments: service failure (entityType=%q): %v", componentName, req.EntityType, err)
		c.errorHandler(w, r, err, &result)
		return
	}
	_ = model.EncodeJSONResponse(result.Body, &result.Code, w)
}

// decodeStructuredRequest reads and validates a structured search request.
func (c *QueryCompilerAPIController) decodeStructuredRequest(w http.ResponseWriter, r *http.Request, operation string) (model.StructuredSearchRequest, bool) {
	var req model.StructuredSearchRequest
	if err := decode(r.Body, &req); err != nil {
		log.Printf("🧩 [%s] Error in %s: decode body: %v", componentName, operation, err)
		c.errorHandler(w, r, err, nil)
		return req, false
	}
	if err := model.AssertStructuredSearchRequestRequired(req); err != nil {
		log.Printf("🧩 [%s] Error in %s: required validation failed: %v", componentName, operation, err)
		c.errorHandler(w, r, err, nil)
		return req, false
	}
	if err := model.AssertStructuredSearchRequestConstraints(req); err != nil {
		log.Printf("🧩 [%s] Error in %s: constraints validation failed: %v", componentName, operation, err)
		c.errorHandler(w, r, err, nil)
		return req, false
	}
	return req, true
}

// CompileStructured - Compiles a structured search request into a query plan
func (c *QueryCompilerAPIController) CompileStructured(w http.ResponseWriter, r *http.Request) {
	req, ok := c.decodeStructuredRequest(w, r, "CompileStructured")
	if !ok {
		return
	}
	result, err := c.service.CompileStructured(r.Context(), req)
	if err != nil {
		log.Printf("🧩 [%s] Error in CompileStructured: service failure (entityType=%q): %v", componentName, req.EntityType, err)
		c.errorHandler(w, r, err, &result)
		return
	}
	_ = model.EncodeJSONResponse(result.Body, &result.Code, w)
}

// SearchStructured - Compiles a structured search request and runs it against the document store
func (c *QueryCompilerAPIController) SearchStructured(w http.ResponseWriter, r *http.Request) {
	req, ok := c.decodeStructuredRequest(w, r, "SearchStructured")
	if !ok {
		return
	}
	result, err := c.service.SearchStructured(r.Context(), req)
	if err != nil {
		log.Printf("🧩 [%s] Error in SearchStructured: service failure (entityType=%q): %v", componentName, req.EntityType, err)
		c.errorHandler(w, r, err, &result)
		return
	}
	_ = model.EncodeJSONResponse(result.Body, &result.Code, w)
}

// GetAllEntityTypes - Returns all registered entity types
func (c *QueryCompilerAPIController) GetAllEntityTypes(w http.ResponseWriter, r *http.Request) {
	result, err := c.service.GetAllEntityTypes(r.Context())
	if err != nil {
		log.Printf("🧩 [%s] Error in GetAllEntityTypes: service failure: %v", componentName, err)
		c.errorHandler(w, r, err, &result)
		return
	}
	_ = model.EncodeJSONResponse(result.Body, &result.Code, w)
}

// GetEntityTypeByName - Returns one entity type
func (c *QueryCompilerAPIController) GetEntityTypeByName(w http.ResponseWriter, r *http.Request) {
	entityTypeParam := chi.URLParam(r, "entityType")
	if entityTypeParam == "" {
		log.Printf("🧩 [%s] Error in GetEntityTypeByName: missing path parameter entityType", componentName)
		c.errorHandler(w, r, &model.RequiredError{Field: "entityType"}, nil)
		return
	}
	result, err := c.service.GetEntityTypeByName(r.Context(), entityTypeParam)
	if err != nil {
		log.Printf("🧩 [%s] Error in GetEntityTypeByName: service failure (entityType=%q): %v", componentName, entityTypeParam, err)
		c.errorHandler(w, r, err, &result)
		return
	}
	_ = model.EncodeJSONResponse(result.Body, &result.Code, w)
}
