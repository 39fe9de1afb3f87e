// Package metrics exposes prometheus collectors for analysis runs
package metrics

import (
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rohankatakam/semdiff/internal/changes"
	"github.com/rohankatakam/semdiff/internal/errors"
	"github.com/rohankatakam/semdiff/internal/pool"
)

const namespace = "semdiff"

// Collector records driver and change metrics on its own registry, so several
// runs in one process never share counters
type Collector struct {
	registry *prometheus.Registry

	tasksInFlight prometheus.Gauge
	tasks         *prometheus.CounterVec
	taskDuration  *prometheus.HistogramVec
	changes       *prometheus.CounterVec
	skipped       *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	analyzerFails *prometheus.CounterVec
}

// NewCollector creates a collector with a fresh registry
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		tasksInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "tasks_in_flight",
			Help:      "File-pair tasks currently running",
		}),
		tasks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "tasks_total",
			Help:      "File-pair tasks by outcome (ok, error, timeout, panic)",
		}, []string{"outcome"}),
		taskDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "task_duration_seconds",
			Help:      "File-pair task latency in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 120},
		}, []string{"outcome"}),
		changes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "changes",
			Name:      "detected_total",
			Help:      "Semantic changes detected by kind and severity",
		}, []string{"kind", "severity"}),
		skipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "files",
			Name:      "skipped_total",
			Help:      "Files left out of analysis by reason",
		}, []string{"reason"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Result cache lookups by result (hit, miss)",
		}, []string{"result"}),
		analyzerFails: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "changes",
			Name:      "analyzer_failures_total",
			Help:      "Analyzer failures by analyzer",
		}, []string{"analyzer"}),
	}
}

// Registry returns the underlying prometheus registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// TaskStarted implements pool.Observer
func (c *Collector) TaskStarted(string) {
	c.tasksInFlight.Inc()
}

// TaskFinished implements pool.Observer
func (c *Collector) TaskFinished(_ string, outcome pool.Outcome, elapsed time.Duration) {
	c.tasksInFlight.Dec()
	c.tasks.WithLabelValues(string(outcome)).Inc()
	c.taskDuration.WithLabelValues(string(outcome)).Observe(elapsed.Seconds())
}

// RecordChanges counts detected changes
func (c *Collector) RecordChanges(found []changes.Change) {
	for _, ch := range found {
		c.changes.WithLabelValues(string(ch.Kind), string(ch.Severity)).Inc()
	}
}

// RecordSkipped counts a file left out of analysis
func (c *Collector) RecordSkipped(reason string) {
	c.skipped.WithLabelValues(reason).Inc()
}

// RecordCacheLookup counts a cache hit or miss
func (c *Collector) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(result).Inc()
}

// RecordAnalyzerFailure counts an analyzer that failed on one file
func (c *Collector) RecordAnalyzerFailure(analyzer string) {
	c.analyzerFails.WithLabelValues(analyzer).Inc()
}

// WriteTextfile writes every metric in the text exposition format, for the
// node exporter textfile collector
func (c *Collector) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.FileSystemError(err, "failed to create metrics directory")
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return errors.FileSystemErrorf(err, "failed to write metrics to %s", path)
	}
	return nil
}
