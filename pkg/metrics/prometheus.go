// Package metrics provides Prometheus metrics for the ATP ranking ingest.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Manager manages all Prometheus metrics for the ingest job.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Fetch metrics
	fetchAttempts *prometheus.CounterVec
	fetchDuration prometheus.Histogram

	// Row metrics
	rowsTotal       *prometheus.CounterVec
	snapshotEntries prometheus.Gauge

	// Dataset metrics
	merges          *prometheus.CounterVec
	backupsWritten  prometheus.Counter
	datasetEntries  prometheus.Gauge
	lastSuccessUnix prometheus.Gauge
	runDuration     prometheus.Histogram

	// Publish metrics
	publishes *prometheus.CounterVec

	// HTTP metrics for the read-only API
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "atp",
		subsystem:        "ingest",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.fetchAttempts = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fetch_attempts_total",
		Help:        "Fetch attempts by outcome (success, failure)",
		ConstLabels: labels,
	}, []string{"outcome"})

	m.fetchDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "fetch_attempt_duration_seconds",
		Help:        "Duration of a single fetch attempt including parsing",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.rowsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rows_total",
		Help:        "Table rows seen by the builder, by result (valid, invalid, duplicate)",
		ConstLabels: labels,
	}, []string{"result"})

	m.snapshotEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "snapshot_entries",
		Help:        "Entries in the most recently built snapshot",
		ConstLabels: labels,
	})

	m.merges = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "merges_total",
		Help:        "Dataset merges by outcome (created, updated, unchanged, error)",
		ConstLabels: labels,
	}, []string{"outcome"})

	m.backupsWritten = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "backups_written_total",
		Help:        "Dated dataset backups written",
		ConstLabels: labels,
	})

	m.datasetEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "dataset_entries",
		Help:        "Entries in the dataset of record",
		ConstLabels: labels,
	})

	m.lastSuccessUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "last_success_timestamp_seconds",
		Help:        "Unix time of the last run that completed its merge",
		ConstLabels: labels,
	})

	m.runDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "run_duration_seconds",
		Help:        "Duration of a complete fetch, merge and publish run",
		Buckets:     m.histogramBuckets,
		ConstLabels: labels,
	})

	m.publishes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "publishes_total",
		Help:        "Publish calls by publisher and outcome",
		ConstLabels: labels,
	}, []string{"publisher", "outcome"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     []float64{0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: labels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_errors_total",
		Help:        "HTTP error responses by endpoint, type and severity",
		ConstLabels: labels,
	}, []string{"endpoint", "method", "error_type", "severity"})
}

// RecordFetchAttempt counts one fetch attempt and observes its duration.
func RecordFetchAttempt(outcome string, d time.Duration) {
	globalManager.fetchAttempts.WithLabelValues(outcome).Inc()
	globalManager.fetchDuration.Observe(d.Seconds())
}

// RecordRows adds the builder's row counts.
func RecordRows(valid, invalid, duplicates int) {
	globalManager.rowsTotal.WithLabelValues("valid").Add(float64(valid))
	globalManager.rowsTotal.WithLabelValues("invalid").Add(float64(invalid))
	globalManager.rowsTotal.WithLabelValues("duplicate").Add(float64(duplicates))
}

// UpdateSnapshotEntries sets the size of the latest snapshot.
func UpdateSnapshotEntries(n int) {
	globalManager.snapshotEntries.Set(float64(n))
}

// RecordMerge counts a merge by outcome.
func RecordMerge(outcome string) {
	globalManager.merges.WithLabelValues(outcome).Inc()
}

// RecordBackup counts a written backup.
func RecordBackup() {
	globalManager.backupsWritten.Inc()
}

// UpdateDatasetEntries sets the size of the dataset of record.
func UpdateDatasetEntries(n int) {
	globalManager.datasetEntries.Set(float64(n))
}

// UpdateLastSuccess records when a run last completed its merge.
func UpdateLastSuccess(t time.Time) {
	globalManager.lastSuccessUnix.Set(float64(t.Unix()))
}

// RecordRunDuration observes a full run.
func RecordRunDuration(d time.Duration) {
	globalManager.runDuration.Observe(d.Seconds())
}

// RecordPublish counts a publish call.
func RecordPublish(publisher, outcome string) {
	globalManager.publishes.WithLabelValues(publisher, outcome).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordHTTPError counts an error response.
func RecordHTTPError(endpoint, method, errorType, severity string) {
	globalManager.httpErrors.WithLabelValues(endpoint, method, errorType, severity).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Push sends everything in the custom registry to a Pushgateway. The ingest
// job is short-lived, so this replaces scraping for `atp run`.
func Push(ctx context.Context, gatewayURL, job string) error {
	if err := push.New(gatewayURL, job).Gatherer(customRegistry).PushContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrPushFailed, err)
	}
	return nil
}
