// Package metrics exposes Prometheus instruments for clause compilation and the HTTP API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mogudian/elasticsearch-orm/internal/common"
	qcerrors "github.com/mogudian/elasticsearch-orm/internal/querycompiler/errors"
)

// Compile outcomes.
const (
	OutcomeOK           = "ok"
	OutcomeCompileError = "compile_error"
	OutcomeNotFound     = "not_found"
	OutcomeError        = "error"
)

// unknownEntity labels compilations against entity types that are not registered.
const unknownEntity = "unknown"

var (
	// CompileTotal counts compilations by entity type and outcome.
	CompileTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querycompiler_compile_total",
			Help: "Total number of clause compilations",
		},
		[]string{"entity_type", "outcome"},
	)
	// CompileDuration is the latency of compilations.
	CompileDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "querycompiler_compile_duration_seconds",
			Help:    "Clause compilation latency in seconds",
			Buckets: []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1},
		},
		[]string{"entity_type"},
	)
	// RequestTotal counts HTTP requests by method, route and status.
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querycompiler_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	// RequestDuration is the latency of HTTP requests.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "querycompiler_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Outcome classifies the result of a compilation.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case common.IsErrNotFound(err):
		return OutcomeNotFound
	case qcerrors.IsCompileError(err), common.IsErrBadRequest(err):
		return OutcomeCompileError
	}
	return OutcomeError
}

// ObserveCompile records one compilation that started at started.
func ObserveCompile(entityType string, started time.Time, err error) {
	outcome := Outcome(err)
	if outcome == OutcomeNotFound {
		entityType = unknownEntity
	}
	CompileTotal.WithLabelValues(entityType, outcome).Inc()
	CompileDuration.WithLabelValues(entityType).Observe(time.Since(started).Seconds())
}
