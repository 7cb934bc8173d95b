// Package metrics exposes Prometheus collectors for service operations and
// session flushes.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "eicr"

// Metrics holds the collectors. It satisfies the service MetricsRecorder
// and the session flush Observer.
type Metrics struct {
	registry *prometheus.Registry

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	flushesTotal      *prometheus.CounterVec
	flushDuration     prometheus.Histogram
	flushRecords      prometheus.Histogram
	activeSessions    prometheus.Gauge
	recordsBuilt      *prometheus.CounterVec
}

// New creates the collectors and registers them with registry. A nil
// registry gets a fresh one with the Go and process collectors.
func New(registry *prometheus.Registry) (*Metrics, error) {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	m := &Metrics{
		registry: registry,
		operationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Service operations by outcome.",
		}, []string{"operation", "status"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"operation"}),
		flushesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_flushes_total",
			Help:      "Session persistence flushes by result.",
		}, []string{"result"}),
		flushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_flush_duration_seconds",
			Help:      "Time spent writing a collection to the document store.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		flushRecords: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_flush_records",
			Help:      "Records per written collection.",
			Buckets:   []float64{1, 5, 10, 20, 40, 80, 160},
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Open form sessions.",
		}),
		recordsBuilt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_built_total",
			Help:      "Circuit records produced by the builder, by source.",
		}, []string{"source"}),
	}
	for _, c := range m.collectors() {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.operationsTotal, m.operationDuration, m.flushesTotal,
		m.flushDuration, m.flushRecords, m.activeSessions, m.recordsBuilt,
	}
}

// Registry returns the backing registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Observe records a service operation outcome.
func (m *Metrics) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// Flushed records a written collection.
func (m *Metrics) Flushed(_ context.Context, _ string, records int, _ uint64, took time.Duration) {
	m.flushesTotal.WithLabelValues("written").Inc()
	m.flushDuration.Observe(took.Seconds())
	m.flushRecords.Observe(float64(records))
}

// FlushSkipped records a flush avoided by an unchanged fingerprint.
func (m *Metrics) FlushSkipped(string) {
	m.flushesTotal.WithLabelValues("skipped").Inc()
}

// FlushFailed records a sink failure.
func (m *Metrics) FlushFailed(string, error) {
	m.flushesTotal.WithLabelValues("failed").Inc()
}

// SetActiveSessions publishes the open session count.
func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// RecordsBuilt counts builder output for a source.
func (m *Metrics) RecordsBuilt(source string, n int) {
	if n <= 0 {
		return
	}
	m.recordsBuilt.WithLabelValues(source).Add(float64(n))
}
