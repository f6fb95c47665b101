// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Total HTTP requests partitioned by method, route and status code
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// Redirects by outcome: hit or fallback
	RedirectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlink_redirects_total",
			Help: "Short code resolutions partitioned by outcome",
		},
		[]string{"result"},
	)

	LinksCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlink_links_created_total",
			Help: "Link creation attempts partitioned by outcome",
		},
		[]string{"result"},
	)

	// Click counter writes: ok, failed or dropped when the queue is full
	ClickWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlink_click_writes_total",
			Help: "Best-effort click counter writes partitioned by outcome",
		},
		[]string{"result"},
	)
)

func Handler() http.Handler {
	return promhttp.Handler()
}
