// Package metrics holds the Prometheus collectors for pipeline runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains all pipeline metrics.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal          *prometheus.CounterVec
	RunDuration        *prometheus.HistogramVec
	VariablesRetrieved *prometheus.CounterVec
	ConverterFailures  *prometheus.CounterVec
	InputsRead         *prometheus.CounterVec
}

// New creates the collectors and registers them, together with the Go
// runtime collectors, on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tsdat",
				Subsystem: "pipeline",
				Name:      "runs_total",
				Help:      "Total number of pipeline runs",
			},
			[]string{"pipeline", "status"},
		),

		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tsdat",
				Subsystem: "pipeline",
				Name:      "run_duration_seconds",
				Help:      "Pipeline run duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pipeline"},
		),

		VariablesRetrieved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tsdat",
				Subsystem: "retriever",
				Name:      "variables_total",
				Help:      "Output variables produced, by how they were obtained",
			},
			[]string{"source"},
		),

		ConverterFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tsdat",
				Subsystem: "retriever",
				Name:      "converter_failures_total",
				Help:      "Total number of failed data conversions",
			},
			[]string{"classname"},
		),

		InputsRead: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tsdat",
				Subsystem: "retriever",
				Name:      "inputs_read_total",
				Help:      "Total number of inputs read, by reader or storage",
			},
			[]string{"source"},
		),
	}

	m.registry.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.VariablesRetrieved,
		m.ConverterFailures,
		m.InputsRead,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// The helpers below are safe to call on a nil *Metrics.

// ObserveVariable counts one output variable obtained from source.
func (m *Metrics) ObserveVariable(source string) {
	if m == nil {
		return
	}
	m.VariablesRetrieved.WithLabelValues(source).Inc()
}

// ObserveConverterFailure counts one failed conversion.
func (m *Metrics) ObserveConverterFailure(classname string) {
	if m == nil {
		return
	}
	m.ConverterFailures.WithLabelValues(classname).Inc()
}

// ObserveInput counts one input read from source.
func (m *Metrics) ObserveInput(source string) {
	if m == nil {
		return
	}
	m.InputsRead.WithLabelValues(source).Inc()
}

// ObserveRun records the outcome and duration of a pipeline run.
func (m *Metrics) ObserveRun(pipeline, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(pipeline, status).Inc()
	m.RunDuration.WithLabelValues(pipeline).Observe(seconds)
}
