package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ContributionsTotal counts ledgered contributions by operation (add, delete).
	ContributionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_dashboard_contributions_total",
		Help: "Daily entries applied to or reversed from period totals",
	}, []string{"operation"})

	ImportLinesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_dashboard_import_lines_total",
		Help: "Weekly import lines by result",
	}, []string{"result"})

	// StoreWriteFailures counts failed adapter writes by step.
	StoreWriteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_dashboard_store_write_failures_total",
		Help: "Store writes that failed and were queued for retry",
	}, []string{"step"})

	PendingWrites = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sales_dashboard_pending_writes",
		Help: "Writes accepted in memory but not yet persisted",
	})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_dashboard_http_requests_total",
		Help: "HTTP requests by method and status class",
	}, []string{"method", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sales_dashboard_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
)

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
