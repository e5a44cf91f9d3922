package world

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Document outcomes recorded by the documents counter.
const (
	LabelMigrated = "migrated"
	LabelSkipped  = "skipped"
	LabelFailed   = "failed"
)

// Run results recorded by the run duration histogram.
const (
	LabelSuccess = "success"
	LabelPartial = "partial"
	LabelAborted = "aborted"
)

// Metrics holds metrics related to world migration runs.
type Metrics struct {
	Documents   *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec
}

// NewMetrics returns a new set of run metrics.
func NewMetrics() *Metrics {
	const (
		namespace = "docmigrate"
		subsystem = "world"
	)

	return &Metrics{
		Documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "documents_total",
			Help:      "Count of documents visited by migration runs",
		}, []string{"collection", "outcome"}),

		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "run_duration_seconds",
			Help:      "Histogram of times spent migrating a world",
			Buckets:   prometheus.ExponentialBuckets(1e-3, 5, 7),
		}, []string{"result"}),
	}
}

// PrometheusCollectors returns the collectors to register.
func (m *Metrics) PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Documents,
		m.RunDuration,
	}
}

func (m *Metrics) document(collection, outcome string) {
	if m == nil {
		return
	}
	m.Documents.WithLabelValues(collection, outcome).Inc()
}

func (m *Metrics) run(start time.Time, result string) {
	if m == nil {
		return
	}
	m.RunDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
}
