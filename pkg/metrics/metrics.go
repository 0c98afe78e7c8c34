package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector provides application metrics collection
type Collector struct {
	// API Metrics
	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec
	APIErrorsTotal     *prometheus.CounterVec

	// Storage Metrics
	StorageOperationDuration *prometheus.HistogramVec
	StorageErrorsTotal       *prometheus.CounterVec
	StorageRecordsTotal      *prometheus.GaugeVec

	// Fetch Metrics
	FetchRequestsTotal *prometheus.CounterVec
	FetchDuration      *prometheus.HistogramVec

	// Ingestion Metrics
	IngestionRecordsTotal prometheus.Counter
	IngestionErrorsTotal  *prometheus.CounterVec

	// Analyzer Metrics
	ReportDuration *prometheus.HistogramVec
}

// NewCollector creates a new metrics collector
func NewCollector(namespace string) *Collector {
	return &Collector{
		APIRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of API requests by endpoint, method, and status",
			},
			[]string{"endpoint", "method", "status"},
		),

		APIRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0},
			},
			[]string{"endpoint"},
		),

		APIErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_errors_total",
				Help:      "Total number of API errors by type",
			},
			[]string{"error_type", "endpoint"},
		),

		StorageOperationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "storage_operation_duration_seconds",
				Help:      "Storage operation duration in seconds by operation and backend",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"operation", "backend"},
		),

		StorageErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_errors_total",
				Help:      "Total number of storage errors by operation",
			},
			[]string{"operation"},
		),

		StorageRecordsTotal: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "storage_records_total",
				Help:      "Number of stored records by collection",
			},
			[]string{"collection"},
		),

		FetchRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_requests_total",
				Help:      "Total number of upstream fetch requests by source and outcome",
			},
			[]string{"source", "outcome"},
		),

		FetchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fetch_duration_seconds",
				Help:      "Upstream fetch duration in seconds by source",
				Buckets:   []float64{0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0, 10.0},
			},
			[]string{"source"},
		),

		IngestionRecordsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ingestion_records_stored_total",
				Help:      "Total number of observations stored via ingestion",
			},
		),

		IngestionErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ingestion_errors_total",
				Help:      "Total number of ingestion errors by type",
			},
			[]string{"error_type"},
		),

		ReportDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "report_duration_seconds",
				Help:      "Duration of analyzer report generation in seconds",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"report"},
		),
	}
}

// Timer provides timing functionality for operations
type Timer struct {
	start    time.Time
	observer prometheus.Observer
}

// NewTimer creates a new timer
func (c *Collector) NewTimer(histogram prometheus.Observer) *Timer {
	return &Timer{
		start:    time.Now(),
		observer: histogram,
	}
}

// ObserveDuration records the elapsed time since timer creation
func (t *Timer) ObserveDuration() time.Duration {
	duration := time.Since(t.start)
	if t.observer != nil {
		t.observer.Observe(duration.Seconds())
	}
	return duration
}

// RecordAPIRequest increments API request counter
func (c *Collector) RecordAPIRequest(endpoint, method, status string) {
	c.APIRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
}

// RecordAPIError increments API error counter
func (c *Collector) RecordAPIError(errorType, endpoint string) {
	c.APIErrorsTotal.WithLabelValues(errorType, endpoint).Inc()
}

// RecordStorageError increments storage error counter
func (c *Collector) RecordStorageError(operation string) {
	c.StorageErrorsTotal.WithLabelValues(operation).Inc()
}

// ObserveStorageOperation records the duration of a storage operation
func (c *Collector) ObserveStorageOperation(operation, backend string, d time.Duration) {
	c.StorageOperationDuration.WithLabelValues(operation, backend).Observe(d.Seconds())
}

// RecordFetch increments fetch request counter
func (c *Collector) RecordFetch(source, outcome string) {
	c.FetchRequestsTotal.WithLabelValues(source, outcome).Inc()
}

// RecordIngestionError increments ingestion error counter
func (c *Collector) RecordIngestionError(errorType string) {
	c.IngestionErrorsTotal.WithLabelValues(errorType).Inc()
}
