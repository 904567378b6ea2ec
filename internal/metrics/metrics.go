// Package metrics exposes Prometheus instrumentation for the HTTP API, the
// todo lifecycle and the database pool.
package metrics

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Tomlord1122/todo-api/internal/domain"
)

const namespace = "todoapi"

// Metrics holds every collector registered by the service.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	TodoEventsTotal     *prometheus.CounterVec
}

// New creates a private registry with the Go and process collectors plus the
// service metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		TodoEventsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "todo_events_total",
				Help:      "Todo lifecycle events by type",
			},
			[]string{"event"},
		),
	}
}

// Registry returns the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterDB adds connection pool gauges for db under the given name.
func (m *Metrics) RegisterDB(db *sql.DB, name string) error {
	return m.registry.Register(collectors.NewDBStatsCollector(db, name))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request count and latency labelled by the chi route
// pattern, so /api/todos/1 and /api/todos/2 share a series.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// LifecycleObserver counts todo events. It satisfies service.Observer.
type LifecycleObserver struct {
	events *prometheus.CounterVec
}

func (m *Metrics) Observer() LifecycleObserver {
	return LifecycleObserver{events: m.TodoEventsTotal}
}

func (o LifecycleObserver) TodoAdded(context.Context, domain.TodoItem) error {
	o.events.WithLabelValues("added").Inc()
	return nil
}

func (o LifecycleObserver) TodoUpdated(context.Context, domain.TodoItem) error {
	o.events.WithLabelValues("updated").Inc()
	return nil
}

func (o LifecycleObserver) TodoDeleted(context.Context, domain.TodoItem) error {
	o.events.WithLabelValues("deleted").Inc()
	return nil
}

func (o LifecycleObserver) TodoCompleted(context.Context, domain.TodoItem) error {
	o.events.WithLabelValues("completed").Inc()
	return nil
}
