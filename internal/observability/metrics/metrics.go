package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "viot_"

	resultSuccess = "success"
	resultError   = "error"

	queryKindTimeseries = "timeseries"
	queryKindAggregated = "aggregated"
	queryKindLatest     = "latest"
)

var (
	registerOnce sync.Once

	queryRequests *prometheus.CounterVec
	queryLatency  *prometheus.HistogramVec
	queryRejected *prometheus.CounterVec

	ingestRequests *prometheus.CounterVec
	ingestErrors   *prometheus.CounterVec
	ingestLatency  *prometheus.HistogramVec
	ingestSamples  prometheus.Counter

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		queryRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "query_requests_total",
				Help: "Total device data queries by kind and result",
			},
			[]string{"kind", "result"},
		)
		queryLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "query_latency_seconds",
				Help:    "Device data query latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind", "result"},
		)
		queryRejected = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "query_rejected_total",
				Help: "Total rejected device data queries by offending field",
			},
			[]string{"field"},
		)

		ingestRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_requests_total",
				Help: "Total ingest requests by result",
			},
			[]string{"result"},
		)
		ingestErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_errors_total",
				Help: "Total ingest errors by reason",
			},
			[]string{"reason"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ingest_latency_seconds",
				Help:    "Ingest latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		ingestSamples = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_samples_total",
				Help: "Total ingested samples",
			},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total device data exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Device data export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			queryRequests,
			queryLatency,
			queryRejected,
			ingestRequests,
			ingestErrors,
			ingestLatency,
			ingestSamples,
			exportTotal,
			exportLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveQuery records query duration and result for a query kind.
func ObserveQuery(kind, result string, duration time.Duration) {
	if kind == "" {
		kind = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if queryRequests != nil {
		queryRequests.WithLabelValues(kind, result).Inc()
	}
	if queryLatency != nil {
		queryLatency.WithLabelValues(kind, result).Observe(duration.Seconds())
	}
}

// IncQueryRejected counts a query rejected by contract validation.
func IncQueryRejected(field string) {
	if field == "" {
		field = "request"
	}
	if queryRejected != nil {
		queryRejected.WithLabelValues(field).Inc()
	}
}

// ObserveIngest records ingest request duration and result.
func ObserveIngest(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if ingestRequests != nil {
		ingestRequests.WithLabelValues(result).Inc()
	}
	if ingestLatency != nil {
		ingestLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncIngestError increments ingest error counter.
func IncIngestError(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if ingestErrors != nil {
		ingestErrors.WithLabelValues(reason).Inc()
	}
}

// AddIngestSamples counts stored samples.
func AddIngestSamples(count int) {
	if count <= 0 {
		return
	}
	if ingestSamples != nil {
		ingestSamples.Add(float64(count))
	}
}

// ObserveExport records export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError

	QueryKindTimeseries = queryKindTimeseries
	QueryKindAggregated = queryKindAggregated
	QueryKindLatest     = queryKindLatest
)
