// Package metrics holds the Prometheus collectors of the process.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry is the dedicated registry served on /metrics.
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts API requests by method, path and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "kmleagle_http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "kmleagle_http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path"},
	)

	// TSPSolves counts solve calls by requested algorithm and outcome (ok, partial, error).
	TSPSolves = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "kmleagle_tsp_solves_total", Help: "TSP solve calls by algorithm and outcome."},
		[]string{"algorithm", "outcome"},
	)
	// TSPDuration tracks solve wall-clock time in seconds.
	TSPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "kmleagle_tsp_solve_duration_seconds", Help: "TSP solve duration in seconds.", Buckets: []float64{.001, .01, .05, .1, .5, 1, 5, 15, 60}},
		[]string{"algorithm"},
	)
	// TwoOptIterations tracks the number of 2-opt passes per solve.
	TwoOptIterations = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "kmleagle_tsp_twoopt_iterations", Help: "2-opt passes per solve.", Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}},
	)

	// OSRMRequests counts routing service calls by service (route, match) and outcome.
	OSRMRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "kmleagle_osrm_requests_total", Help: "Routing service requests by service and outcome."},
		[]string{"service", "outcome"},
	)
	// OSRMLatency tracks routing service latency in seconds.
	OSRMLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "kmleagle_osrm_request_duration_seconds", Help: "Routing service latency in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"service"},
	)
	// ChunksSkipped counts chunk requests dropped from stitched routes.
	ChunksSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "kmleagle_route_chunks_skipped_total", Help: "Route chunks skipped after a failed request."},
	)
)

var regOnce sync.Once

// RegisterDefault registers all collectors on Registry. Safe to call more than once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(TSPSolves)
		Registry.MustRegister(TSPDuration)
		Registry.MustRegister(TwoOptIterations)
		Registry.MustRegister(OSRMRequests)
		Registry.MustRegister(OSRMLatency)
		Registry.MustRegister(ChunksSkipped)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// Handler serves Registry in the Prometheus text format.
func Handler() http.Handler {
	RegisterDefault()
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
