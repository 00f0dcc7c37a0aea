// Package metrics exports prometheus metrics fed from the event bus.
package metrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/hanpama/usergraph/internal/eventbus"
	"github.com/hanpama/usergraph/internal/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	outcomeSuccess = "success"
	outcomeError   = "error"
)

// Metrics holds the collectors registered by New.
type Metrics struct {
	LoaderBatches       *prometheus.CounterVec
	LoaderBatchKeys     *prometheus.HistogramVec
	LoaderBatchDuration *prometheus.HistogramVec
	GraphQLOperations   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	StoreQueries        *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the collectors with reg. A nil reg uses the default
// registry.
func New(reg *prometheus.Registry) *Metrics {
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if reg != nil {
		registerer, gatherer = reg, reg
	}
	f := promauto.With(registerer)

	return &Metrics{
		LoaderBatches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "usergraph_loader_batches_total",
				Help: "Batch fetches issued by request loaders",
			},
			[]string{"loader", "outcome"},
		),
		LoaderBatchKeys: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "usergraph_loader_batch_keys",
				Help:    "Distinct keys per batch fetch",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
			[]string{"loader"},
		),
		LoaderBatchDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "usergraph_loader_batch_duration_seconds",
				Help:    "Batch fetch latency in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"loader"},
		),
		GraphQLOperations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "usergraph_graphql_operations_total",
				Help: "Executed GraphQL operations",
			},
			[]string{"type", "outcome"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "usergraph_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"status"},
		),
		StoreQueries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "usergraph_store_queries_total",
				Help: "Statements run against the storage backend",
			},
			[]string{"backend", "operation", "outcome"},
		),
		gatherer: gatherer,
	}
}

func outcome(err error) string {
	if err != nil {
		return outcomeError
	}
	return outcomeSuccess
}

// Subscribe feeds m from the global event bus.
func (m *Metrics) Subscribe() (unsubscribe func()) {
	unsubs := []func(){
		eventbus.Subscribe(func(ctx context.Context, e events.LoaderBatch) {
			m.LoaderBatches.WithLabelValues(e.Loader, outcome(e.Err)).Inc()
			m.LoaderBatchKeys.WithLabelValues(e.Loader).Observe(float64(e.Keys))
			m.LoaderBatchDuration.WithLabelValues(e.Loader).Observe(e.Duration.Seconds())
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.GraphQLFinish) {
			o := outcomeSuccess
			if len(e.Errors) > 0 {
				o = outcomeError
			}
			m.GraphQLOperations.WithLabelValues(e.OperationType, o).Inc()
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
			m.HTTPRequestDuration.WithLabelValues(strconv.Itoa(e.Status)).Observe(e.Duration.Seconds())
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.StoreQuery) {
			m.StoreQueries.WithLabelValues(e.Backend, e.Operation, outcome(e.Err)).Inc()
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Handler serves the registry m was built with.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
