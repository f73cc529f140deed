// Package metrics provides Prometheus metrics for saltbox.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "saltbox"

// Metrics contains all Prometheus metrics for the saltbox HTTP service and
// CLI.
type Metrics struct {
	// OperationsTotal counts encrypt/decrypt calls by op ("encrypt" or
	// "decrypt") and result ("ok" or "error").
	OperationsTotal *prometheus.CounterVec

	// BytesProcessed counts plaintext/ciphertext bytes handled, by op.
	BytesProcessed *prometheus.CounterVec

	// OperationDuration measures wall-clock time per operation, by op.
	OperationDuration *prometheus.HistogramVec

	// ErrorsTotal counts failures by error kind. internal/service records
	// the message of the matching saltpack sentinel error, or "service: "
	// followed by the error text for any other failure.
	ErrorsTotal *prometheus.CounterVec
}

var (
	defaultMetrics *Metrics
	metricsOnce    sync.Once
)

// Default returns the process-wide default Metrics instance, registered
// against the default Prometheus registry.
func Default() *Metrics {
	metricsOnce.Do(func() {
		defaultMetrics = NewMetrics()
	})
	return defaultMetrics
}

// NewMetrics creates a Metrics instance registered against the default
// Prometheus registerer.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates a Metrics instance registered against reg,
// so tests and embedders can use an isolated registry.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		OperationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total encrypt/decrypt operations by op and result",
		}, []string{"op", "result"}),

		BytesProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_processed_total",
			Help:      "Total plaintext/ciphertext bytes processed by op",
		}, []string{"op"}),

		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Histogram of encrypt/decrypt call latency in seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"op"}),

		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total errors by kind",
		}, []string{"kind"}),
	}
}

// RecordOperation records the outcome and duration of an encrypt or
// decrypt call, and the number of bytes it processed.
func (m *Metrics) RecordOperation(op string, ok bool, durationSeconds float64, bytes int) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.OperationsTotal.WithLabelValues(op, result).Inc()
	m.OperationDuration.WithLabelValues(op).Observe(durationSeconds)
	if bytes > 0 {
		m.BytesProcessed.WithLabelValues(op).Add(float64(bytes))
	}
}

// RecordError increments the error counter for the given error kind; kind
// is used as the label value unchanged.
func (m *Metrics) RecordError(kind string) {
	m.ErrorsTotal.WithLabelValues(kind).Inc()
}
