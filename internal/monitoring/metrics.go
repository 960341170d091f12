package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	PagesCrawled        *prometheus.CounterVec
	RecordsExtracted    prometheus.Counter
	ErrorsTotal         *prometheus.CounterVec
	PublishAttempts     *prometheus.CounterVec
	RecordsWritten      *prometheus.CounterVec
	CrawlDuration       prometheus.Histogram
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics registers the metrics with reg. Pass prometheus.DefaultRegisterer
// to expose them on /metrics, or a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PagesCrawled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_pages_crawled_total",
			Help: "The total number of listing pages loaded and stabilized",
		}, nil),
		RecordsExtracted: factory.NewCounter(prometheus.CounterOpts{
			Name: "scraper_records_extracted_total",
			Help: "The total number of records extracted from listing pages",
		}),
		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "The total number of errors encountered",
		}, []string{"type"}), // e.g., 'navigation', 'parse', 'sink_write'
		PublishAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_publish_attempts_total",
			Help: "The total number of POST attempts to the records endpoint",
		}, []string{"outcome"}), // 'success', 'status', 'transport'
		RecordsWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_records_written_total",
			Help: "The total number of records handed to a sink",
		}, []string{"sink"}),
		CrawlDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "scraper_crawl_duration_seconds",
			Help:    "Duration of a full keyword crawl.",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
		}),
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}

func (m *Metrics) IncPagesCrawled() {
	m.PagesCrawled.WithLabelValues().Inc()
}

func (m *Metrics) AddRecordsExtracted(n int) {
	m.RecordsExtracted.Add(float64(n))
}

func (m *Metrics) IncErrorsTotal(errorType string) {
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

func (m *Metrics) IncPublishAttempt(outcome string) {
	m.PublishAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AddRecordsWritten(sink string, n int) {
	m.RecordsWritten.WithLabelValues(sink).Add(float64(n))
}

func (m *Metrics) ObserveCrawlDuration(seconds float64) {
	m.CrawlDuration.Observe(seconds)
}
