/*
 * Query Compiler | HTTP/REST
 *
 * Compiles WHERE / ORDER BY / LIMIT clauses into document-search query plans and runs them
 * against the configured document store.
 */

// Package querycompilerapi binds the query compiler HTTP API to a service implementation.
package querycompilerapi

import (
	"context"
	"net/http"

	"github.com/mogudian/elasticsearch-orm/internal/common/model"
)

// QueryCompilerAPIRouter defines the required methods for binding the api requests to a responses for the QueryCompilerAPI
// The QueryCompilerAPIRouter implementation should parse necessary information from the http request,
// pass the data to a QueryCompilerAPIServicer to perform the required actions, then write the service results to the http response.
type QueryCompilerAPIRouter interface {
	CompileQuery(http.ResponseWriter, *http.Request)
	CompileQueryBatch(http.ResponseWriter, *http.Request)
	SearchDocuments(http.ResponseWriter, *http.Request)
	CountDocuments(http.ResponseWriter, *http.Request)
	CompileStructured(http.ResponseWriter, *http.Request)
	SearchStructured(http.ResponseWriter, *http.Request)
	GetAllEntityTypes(http.ResponseWriter, *http.Request)
	GetEntityTypeByName(http.ResponseWriter, *http.Request)
}

// QueryCompilerAPIServicer defines the api actions for the QueryCompilerAPI service
type QueryCompilerAPIServicer interface {
	CompileQuery(context.Context, model.CompileRequest) (model.ImplResponse, error)
	CompileQueryBatch(context.Context, model.BatchCompileRequest) (model.ImplResponse, error)
	SearchDocuments(context.Context, model.CompileRequest) (model.ImplResponse, error)
	CountDocuments(context.Context, model.CompileRequest) (model.ImplResponse, error)
	CompileStructured(context.Context, model.StructuredSearchRequest) (model.ImplResponse, error)
	SearchStructured(context.Context, model.StructuredSearchRequest) (model.ImplResponse, error)
	GetAllEntityTypes(context.Context) (model.ImplResponse, error)
	GetEntityTypeByName(context.Context, string) (model.ImplResponse, error)
}
