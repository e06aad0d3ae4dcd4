// Package metrics exposes extraction counters and latencies to Prometheus.
package metrics

import (
	"net/http"

	"github.com/JonMunkholm/payrollx/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "payrollx"

// Metrics records run outcomes. It implements core.Observer.
type Metrics struct {
	registry *prometheus.Registry

	runs     *prometheus.CounterVec
	rejected *prometheus.CounterVec
	rows     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	bytes    prometheus.Histogram
}

var _ core.Observer = (*Metrics)(nil)

// New creates the collectors on a private registry, along with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Extractions by final stage and outcome.",
		}, []string{"stage", "outcome"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_rejected_total",
			Help:      "Extractions refused before decoding.",
		}, []string{"reason"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_total",
			Help:      "Rows by disposition.",
		}, []string{"disposition"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_duration_seconds",
			Help:      "Extraction latency by final stage.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),
		bytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_bytes",
			Help:      "Size of extracted files.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 9),
		}),
	}

	m.registry.MustRegister(
		m.runs, m.rejected, m.rows, m.duration, m.bytes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RunFinished counts a finished run. Runs that ended in an error are
// labelled with stage "none".
func (m *Metrics) RunFinished(run core.RunSummary) {
	stage := string(run.Stage)
	outcome := "ok"
	switch {
	case run.Error != "":
		stage, outcome = "none", "error"
	case run.Accepted == 0:
		outcome = "empty"
	}

	m.runs.WithLabelValues(stage, outcome).Inc()
	m.duration.WithLabelValues(stage).Observe(run.Duration.Seconds())
	m.bytes.Observe(float64(run.Bytes))

	m.rows.WithLabelValues("accepted").Add(float64(run.Accepted))
	m.rows.WithLabelValues("failed").Add(float64(run.Failed))
	m.rows.WithLabelValues("dropped").Add(float64(run.Dropped))
}

func (m *Metrics) RunRejected(reason string) {
	m.rejected.WithLabelValues(reason).Inc()
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
