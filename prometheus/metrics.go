package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xadn01/finnepal/pkg/config"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthSuccessCounter  prometheus.Counter
	AuthErrorsCounter   prometheus.CounterVec

	// Tenant context metrics
	TenantContextMissingCounter prometheus.Counter

	// Tenant lifecycle metrics
	TenantOperationsCounter prometheus.CounterVec

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Accounting document metrics
	DocumentOperationsCounter prometheus.CounterVec

	// Report and export metrics
	ReportRequestsCounter prometheus.CounterVec
	ExportsCounter        prometheus.CounterVec

	// Event publishing metrics
	EventsPublishedCounter prometheus.CounterVec

	// Tenant specific metrics
	DocumentsPerTenantGauge prometheus.GaugeVec

	// Active tenants using the service
	ActiveTenantsGauge prometheus.Gauge
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	// Use metric prefix from configuration
	prefix := config.Metrics.Prefix

	// HTTP request metrics
	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTP request duration
	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Authentication metrics
	AuthAttemptsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
	)

	AuthSuccessCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_success_total",
			Help: "Total number of successful authentications",
		},
	)

	AuthErrorsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"},
	)

	// Tenant context metrics
	TenantContextMissingCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_tenant_context_missing_total",
			Help: "Total number of requests without tenant context",
		},
	)

	// Tenant lifecycle metrics
	TenantOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_tenant_operations_total",
			Help: "Total number of tenant operations",
		},
		[]string{"operation"},
	)

	// Database operation metrics
	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	// Accounting document metrics
	DocumentOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_document_operations_total",
			Help: "Total number of accounting document operations",
		},
		[]string{"document", "operation"},
	)

	// Report metrics
	ReportRequestsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_report_requests_total",
			Help: "Total number of report requests",
		},
		[]string{"report"},
	)

	// Export metrics
	ExportsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_exports_total",
			Help: "Total number of document exports",
		},
		[]string{"format"},
	)

	// Event publishing metrics
	EventsPublishedCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_events_published_total",
			Help: "Total number of domain events published",
		},
		[]string{"topic", "status"},
	)

	// Tenant specific metrics
	DocumentsPerTenantGauge = *promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_documents_per_tenant",
			Help: "Number of accounting documents per tenant",
		},
		[]string{"tenant_id", "document"},
	)

	// Active tenants using the service
	ActiveTenantsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: prefix + "_active_tenants",
			Help: "Number of active tenants using the service",
		},
	)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorsCounter.WithLabelValues(errorType).Inc()
}

// RecordTenantOperation increments the counter for tenant operations
func RecordTenantOperation(operation string) {
	TenantOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordDocumentOperation increments the counter for document operations
func RecordDocumentOperation(document, operation string) {
	DocumentOperationsCounter.WithLabelValues(document, operation).Inc()
}

// RecordReportRequest increments the counter for report requests
func RecordReportRequest(report string) {
	ReportRequestsCounter.WithLabelValues(report).Inc()
}

// RecordExport increments the counter for document exports
func RecordExport(format string) {
	ExportsCounter.WithLabelValues(format).Inc()
}

// RecordEventPublish records the outcome of a domain event publish
func RecordEventPublish(topic string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	EventsPublishedCounter.WithLabelValues(topic, status).Inc()
}

// UpdateDocumentsPerTenant updates the gauge for documents per tenant
func UpdateDocumentsPerTenant(tenantID uint, document string, count int64) {
	DocumentsPerTenantGauge.WithLabelValues(
		strconv.FormatUint(uint64(tenantID), 10),
		document,
	).Set(float64(count))
}

// UpdateActiveTenants updates the active tenants gauge
func UpdateActiveTenants(count int64) {
	ActiveTenantsGauge.Set(float64(count))
}
