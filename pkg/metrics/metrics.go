// Package metrics provides Prometheus metrics for a fetchcsv run.
//
// A run is a short-lived process, so nothing is scraped. The collector owns a
// private registry and, when asked, writes it once in the text exposition
// format (the node exporter textfile collector convention).
//
//	collector := metrics.NewCollector()
//	timer := metrics.NewTimer()
//	resp, err := client.Get(ctx, url)
//	collector.RecordFetchAttempt("success", timer.Stop())
//	_ = collector.WriteTextfile("/var/lib/node_exporter/fetchcsv.prom")
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fetchcsv"

// Collector groups the metrics recorded during one run
type Collector struct {
	registry      *prometheus.Registry
	fetchAttempts *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	rowsWritten   prometheus.Counter
	runs          *prometheus.CounterVec
}

// NewCollector creates a collector backed by a fresh registry
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		fetchAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_attempts_total",
				Help:      "HTTP fetch attempts by outcome",
			},
			[]string{"outcome"},
		),
		fetchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fetch_duration_seconds",
				Help:      "Duration of individual HTTP fetch attempts",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		rowsWritten: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_written_total",
				Help:      "Rows written to the CSV destination",
			},
		),
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Pipeline runs by final status",
			},
			[]string{"status"},
		),
	}
}

// Registry exposes the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordFetchAttempt counts one attempt and observes its duration
func (c *Collector) RecordFetchAttempt(outcome string, d time.Duration) {
	c.fetchAttempts.WithLabelValues(outcome).Inc()
	c.fetchDuration.Observe(d.Seconds())
}

// RecordRowsWritten adds n rows to the written counter
func (c *Collector) RecordRowsWritten(n int) {
	c.rowsWritten.Add(float64(n))
}

// RecordRun counts a finished run with status "success" or "failure"
func (c *Collector) RecordRun(status string) {
	c.runs.WithLabelValues(status).Inc()
}

// WriteTextfile writes every metric to path in the Prometheus text format.
// The file is replaced atomically.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}

// Timer measures the duration of an operation
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer and starts timing immediately
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the elapsed time since the timer started
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
