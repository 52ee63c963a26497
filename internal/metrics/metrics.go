// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AggregationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "salesops_aggregation_duration_ms",
		Help:    "Time spent aggregating events into a report, in milliseconds.",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
	}, []string{"dimension"})

	AggregationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salesops_aggregations_total",
		Help: "Total number of reports computed, labelled by dimension.",
	}, []string{"dimension"})

	ReportCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salesops_report_cache_lookups_total",
		Help: "Report cache lookups, labelled by result (hit or miss).",
	}, []string{"result"})

	EventsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salesops_events_written_total",
		Help: "Sales events written, labelled by operation.",
	}, []string{"operation"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salesops_http_requests_total",
		Help: "HTTP requests served, labelled by route pattern and status code.",
	}, []string{"route", "status"})

	PublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "salesops_amqp_publish_failures_total",
		Help: "Event change notifications that could not be published.",
	})

	ReportsExported = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salesops_reports_exported_total",
		Help: "Report exports attempted by the worker, labelled by status.",
	}, []string{"status"})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "salesops_rate_limited_requests_total",
		Help: "Write requests rejected by the rate limiter.",
	})

	SuspiciousRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "salesops_suspicious_requests_total",
		Help: "Requests matching a known probe or scanner pattern.",
	})
)

// CacheResult returns the label value for a cache lookup.
func CacheResult(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
