// Package metrics defines prometheus metrics to expose
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopdeck_requests_total",
			Help: "Total number of API requests sent, by method and status",
		},
		[]string{"method", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shopdeck_request_duration_seconds",
			Help:    "Time taken by API requests in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method"},
	)

	RefreshCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopdeck_refresh_total",
			Help: "Total number of access credential refresh calls, by outcome",
		},
		[]string{"outcome"},
	)

	BroadcastCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopdeck_broadcasts_total",
			Help: "Total number of session signals published",
		},
		[]string{"signal"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
